package assets

import (
	_ "embed"
)

// DefaultSafetyYAML is the starter safety rules file written by `dexter config init`.
//
//go:embed defaults/safety.yaml
var DefaultSafetyYAML []byte
