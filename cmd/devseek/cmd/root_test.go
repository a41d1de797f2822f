package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command

	// When: executing with --help
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()

	// Then: it should show usage information
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "devseek", "Help should mention program name")
	assert.Contains(t, output, "Usage:", "Help should show usage")
}

func TestRootCmd_BareInvocationShowsHelp(t *testing.T) {
	// Given: a root command with no arguments
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	// When: executing
	err := cmd.Execute()

	// Then: it should print help instead of searching
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Usage:", "Bare invocation should show usage")
	assert.Contains(t, output, "search", "Help should list the search command")
}

func TestRootCmd_ShowsVersion(t *testing.T) {
	// Given: a root command

	// When: executing with --version
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()

	// Then: it should show the version line
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "devseek version", "Version output should use the version template")
	hasVersion := strings.Contains(output, "0.") || strings.Contains(output, "dev")
	assert.True(t, hasVersion, "Version output should contain a version number or 'dev'")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: a root command

	// When: checking available commands
	cmd := NewRootCmd()
	subcommands := cmd.Commands()

	// Then: every user-facing subcommand should exist
	var commandNames []string
	for _, subcmd := range subcommands {
		commandNames = append(commandNames, subcmd.Name())
	}

	for _, name := range []string{"search", "trending", "serve", "mcp", "stats", "config", "logs", "version"} {
		assert.Contains(t, commandNames, name, "Should have %s subcommand", name)
	}
}

func TestRootCmd_MirrorsSearchFlags(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()

	// Then: the search flag set should be registered on the root so
	// `devseek <query>` accepts the same flags as `devseek search <query>`
	for _, name := range []string{"limit", "source", "format", "refresh", "plain", "no-color"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "Root should have --%s flag", name)
	}

	format := cmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestRootCmd_HasProfilingFlags(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()

	// Then: profiling and debug flags should be persistent
	for _, name := range []string{"profile-cpu", "profile-mem", "profile-trace", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "Should have --%s persistent flag", name)
	}
}

func TestSubcommands_ShowHelp(t *testing.T) {
	// Given: each user-facing subcommand
	cases := []struct {
		name     string
		contains string
	}{
		{"search", "search"},
		{"trending", "trending"},
		{"serve", "HTTP API"},
		{"mcp", "Model Context Protocol"},
		{"stats", "telemetry"},
		{"config", "configuration"},
		{"logs", "logs"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// When: executing <cmd> --help
			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{tc.name, "--help"})

			err := cmd.Execute()

			// Then: it should show the command's usage
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tc.contains)
		})
	}
}
