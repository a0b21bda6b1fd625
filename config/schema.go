//go:generate go run ../build/gen-config-schema.go schema.json

// Package config embeds the JSON schema of the assetsync configuration file.
// Regenerate it with go generate after changing the configuration types.
package config

import (
	_ "embed"
)

//go:embed "schema.json"
var schema []byte

// Schema returns the embedded schema document. Callers must not modify it.
func Schema() []byte {
	return schema
}
