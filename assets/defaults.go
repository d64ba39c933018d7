package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultExpectedFailuresYAML contains the built-in expected-failure rules.
//
//go:embed defaults/expected_failures.yaml
var DefaultExpectedFailuresYAML []byte
