package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildFacturaJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is sent to the provider as an output constraint and used
// locally to validate what comes back.
func BuildFacturaJSONSchema() map[string]any {
	props := map[string]any{
		"numero_factura":         map[string]any{"type": "integer", "minimum": 1},
		"fecha_emision":          map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"empresa_emisora":        map[string]any{"type": "string", "minLength": 1},
		"rut_emisor":             rutProp(),
		"domicilio_emisor":       map[string]any{"type": "string"},
		"empresa_destinataria":   map[string]any{"type": "string"},
		"rut_destinatario":       rutProp(),
		"domicilio_destinatario": map[string]any{"type": "string"},
		"monto_neto":             map[string]any{"type": "integer", "minimum": 0},
		"iva":                    map[string]any{"type": "integer", "minimum": 0},
		"total":                  map[string]any{"type": "integer", "minimum": 0},
		"impuesto_adicional":     map[string]any{"type": "integer", "minimum": 0},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"numero_factura", "fecha_emision", "empresa_emisora", "monto_neto", "total"},
	}
}

func rutProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^(\d{1,2}\.\d{3}\.\d{3}|\d{7,8})-[0-9K]$`,
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
