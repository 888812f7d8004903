// Package configs provides embedded configuration templates for empdex.
//
// How Configuration Templates Work:
//
// Templates are embedded at build time using Go's //go:embed directive.
// This ensures they are available in ALL distributions:
//   - Source builds (go install)
//   - Binary releases
//
// The templates are used by:
//   - cmd/empdex/cmd/config.go → creates user config at ~/.config/empdex/config.yaml
//   - cmd/empdex/cmd/init.go → creates .empdex.yaml in the project directory
//
// Template files:
//   - user-config.example.yaml: Machine-wide settings (cluster endpoint, credentials, data dir)
//   - project-config.example.yaml: Project settings (CSV path, collection names)
//
// Configuration Hierarchy (see internal/config/config.go Load()):
//   1. Hardcoded defaults (internal/config/config.go NewConfig())
//   2. User config (~/.config/empdex/config.yaml)
//   3. Project config (.empdex.yaml)
//   4. Environment variables (EMPDEX_*)
//
// To modify templates, edit the .yaml files in this directory and rebuild.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by: `empdex config init` at ~/.config/empdex/config.yaml
// Contains: Machine-wide settings like the Elasticsearch endpoint, credentials,
// and the local data directory.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
// Created by: `empdex init --project` at .empdex.yaml in the project root
// Contains: Project settings like the CSV path and collection names.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
