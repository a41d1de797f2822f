// Package configs provides embedded configuration templates for devseek.
//
// Templates are embedded at build time using Go's //go:embed directive, so
// they ship inside every distribution: source builds, binary releases, and
// package-manager installs alike.
//
// The templates are used by:
//   - cmd/devseek/cmd/config.go → creates the user config at ~/.config/devseek/config.yaml
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/devseek/config.yaml)
//  3. Project config (.devseek/config.yaml)
//  4. Environment variables (DEVSEEK_*)
//
// To modify templates, edit the .yaml files in this directory and rebuild.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by `devseek config init` at ~/.config/devseek/config.yaml.
// Contains machine-specific settings: API tokens, the cache backend, the
// local Ollama endpoint, logging, and telemetry.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration,
// stored at .devseek/config.yaml in a project root. Contains settings worth
// version-controlling with the project: enabled sources, result caps, and
// intent weight overrides.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
