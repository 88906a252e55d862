package config

import _ "embed"

//go:embed saef.toml
var DefaultConfig []byte
