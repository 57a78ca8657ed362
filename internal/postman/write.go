package postman

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParseFormat normalizes a format name. Unknown names are an error.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Marshal renders c as JSON or YAML. indent is the number of spaces per
// level; zero produces compact JSON.
func Marshal(c *Collection, format string, indent int) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("collection is nil")
	}
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		if indent > 0 {
			enc.SetIndent(indent)
		}
		if err := enc.Encode(c); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders c and writes it to path, creating parent directories.
func WriteFile(path string, c *Collection, format string, indent int) error {
	data, err := Marshal(c, format, indent)
	if err != nil {
		return err
	}
	return Write(path, data)
}

// Write stores already rendered collection data at path, creating parent
// directories.
func Write(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
