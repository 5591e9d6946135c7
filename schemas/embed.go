// Package schemas embeds the JSON Schema documents for specification
// definitions and project configuration files.
package schemas

import _ "embed"

//go:embed spec.schema.json
var SpecSchemaJSON string

//go:embed config.schema.json
var ConfigSchemaJSON string
