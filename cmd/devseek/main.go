// Package main provides the entry point for the devseek CLI.
package main

import (
	"fmt"
	"os"

	"github.com/devseek/devseek/cmd/devseek/cmd"
	"github.com/devseek/devseek/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		os.Exit(1)
	}
}
