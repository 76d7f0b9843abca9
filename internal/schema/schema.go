// Package schema describes the gozod configuration file as a JSON Schema
package schema

import (
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/mcncl/gozod/internal/config"
	"github.com/mcncl/gozod/internal/errors"
)

// ID identifies the generated schema document.
const ID = "https://github.com/mcncl/gozod/config.schema.json"

// ConfigSchema reflects the config file layout. Property names follow the
// yaml tags so editors can validate .gozod.yml directly.
func ConfigSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
	}

	s := r.Reflect(&config.Config{})
	s.ID = ID
	s.Title = "gozod configuration"
	s.Description = "Configuration for generating zod schemas from JSON documents (.gozod.yml)"
	return s
}

// ConfigSchemaJSON renders ConfigSchema as indented JSON.
func ConfigSchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(ConfigSchema(), "", "  ")
	if err != nil {
		return nil, errors.NewOutputError("failed to marshal config schema", err)
	}
	return data, nil
}
