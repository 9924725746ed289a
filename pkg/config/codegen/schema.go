package codegen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/janhq/jan-imagegen/pkg/config"
)

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}
}

// ConfigSchema reflects the JSON Schema of config.Config.
func ConfigSchema() *jsonschema.Schema {
	schema := newReflector().Reflect(&config.Config{})
	schema.Title = "jan-imagegen Configuration"
	schema.Description = "Configuration schema for the jan-imagegen client and local gallery UI"
	schema.Version = "1.0.0"
	return schema
}

// WriteJSONSchema writes the indented config schema to w.
func WriteJSONSchema(w io.Writer) error {
	data, err := ConfigSchema().MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	var indented []byte
	if indented, err = indentJSON(data); err != nil {
		return err
	}
	_, err = w.Write(append(indented, '\n'))
	return err
}

// GenerateJSONSchema writes config.schema.json and one schema per section into outputDir.
func GenerateJSONSchema(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	mainSchemaPath := filepath.Join(outputDir, "config.schema.json")
	if err := writeSchemaFile(mainSchemaPath, ConfigSchema()); err != nil {
		return fmt.Errorf("write main schema: %w", err)
	}

	reflector := newReflector()
	sections := map[string]interface{}{
		"api":        config.APIConfig{},
		"polling":    config.PollingConfig{},
		"storage":    config.StorageConfig{},
		"server":     config.ServerConfig{},
		"monitoring": config.MonitoringConfig{},
	}

	for name, typ := range sections {
		sectionPath := filepath.Join(outputDir, fmt.Sprintf("%s.schema.json", name))
		if err := writeSchemaFile(sectionPath, reflector.Reflect(typ)); err != nil {
			return fmt.Errorf("write %s schema: %w", name, err)
		}
	}

	return nil
}

func writeSchemaFile(path string, schema *jsonschema.Schema) error {
	data, err := schema.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if data, err = indentJSON(data); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
