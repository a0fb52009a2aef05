// Package configs provides the embedded configuration template for
// healthnav.
//
// The template is embedded at build time with //go:embed so it ships
// in every distribution. `healthnav config init` writes it to
// ~/.config/healthnav/config.yaml; the precedence chain it documents
// is implemented in internal/config.Load.
package configs

import _ "embed"

// ConfigTemplate is the annotated starting point for a user
// configuration file.
//
//go:embed config.example.yaml
var ConfigTemplate string
