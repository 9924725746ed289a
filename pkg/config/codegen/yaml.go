package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/janhq/jan-imagegen/pkg/config"
	"gopkg.in/yaml.v3"
)

const defaultsHeader = `# jan-imagegen default configuration
# Generated from pkg/config defaults
#
# Copy to ~/.config/jan-imagegen/config.yaml and keep only the keys you change.
# Environment variables (IMAGEGEN_*) override this file; CLI flags override both.

`

// WriteDefaultsYAML writes the default configuration as YAML.
func WriteDefaultsYAML(w io.Writer) error {
	return WriteYAML(w, config.Defaults(), defaultsHeader)
}

// WriteYAML encodes cfg with an optional header comment.
func WriteYAML(w io.Writer, cfg *config.Config, header string) error {
	if header != "" {
		if _, err := io.WriteString(w, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return encoder.Close()
}

func indentJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	return buf.Bytes(), nil
}
