package cli

import (
	"bytes"
	_ "embed"
)

//go:embed default_config.yaml
var defaultConfiguration []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in defaults and their format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultConfiguration), configurationTypeConstant
}
