package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/ordered"
)

// Placeholder values used when a schema carries no example.
const (
	stringPlaceholderPrefix = "example_"
	stringPlaceholder       = "example_value"
	textPlaceholder         = "example text"
)

// formatPlaceholders maps string formats to fixed example values.
var formatPlaceholders = map[string]string{
	"date":      "1970-01-01",
	"date-time": "1970-01-01T00:00:00Z",
	"time":      "00:00:00",
	"email":     "user@example.com",
	"uuid":      "3fa85f64-5717-4562-b3fc-2c963f66afa6",
	"uri":       "https://example.com",
	"url":       "https://example.com",
	"hostname":  "example.com",
	"ipv4":      "192.0.2.1",
	"ipv6":      "2001:db8::1",
	"byte":      "ZXhhbXBsZQ==",
	"binary":    "",
}

// Generator produces deterministic example values from schemas.
type Generator struct {
	components *openapi.Components
	redactor   Redactor
	logger     *slog.Logger
}

// NewGenerator returns a generator resolving references against components.
// redactor and logger may be nil.
func NewGenerator(components *openapi.Components, redactor Redactor, logger *slog.Logger) *Generator {
	return &Generator{components: components, redactor: redactor, logger: logger}
}

// Generate returns an example value for s.
//
// A literal example always wins. After that come default, the first enum
// value, $ref resolution, allOf merging, the first oneOf/anyOf variant and
// finally the schema type. Object keys follow declaration order. A schema
// reached again on its own recursion path yields an empty value, so cyclic
// references terminate.
func (g *Generator) Generate(s *openapi.Schema) any {
	return g.generate(s, "", map[*openapi.Schema]bool{})
}

// GenerateNamed is Generate with a property name used for string placeholders.
func (g *Generator) GenerateNamed(s *openapi.Schema, name string) any {
	return g.generate(s, name, map[*openapi.Schema]bool{})
}

func (g *Generator) generate(s *openapi.Schema, name string, active map[*openapi.Schema]bool) any {
	if s == nil {
		return placeholderString(name)
	}
	if s.HasExample {
		return ordered.CloneValue(s.Example)
	}
	if active[s] {
		return emptyLike(s)
	}
	active[s] = true
	defer delete(active, s)

	if s.HasDefault {
		return ordered.CloneValue(s.Default)
	}
	if len(s.Enum) > 0 {
		return ordered.CloneValue(s.Enum[0])
	}
	if s.Ref != "" {
		resolved, ok := g.components.ResolveSchema(s.Ref)
		if !ok {
			g.debug("unresolved schema reference", "ref", s.Ref)
			return placeholderString(name)
		}
		return g.generate(resolved, name, active)
	}
	if len(s.AllOf) > 0 {
		return g.generateAllOf(s, name, active)
	}
	if len(s.OneOf) > 0 {
		return g.generate(s.OneOf[0], name, active)
	}
	if len(s.AnyOf) > 0 {
		return g.generate(s.AnyOf[0], name, active)
	}

	switch s.Type {
	case "object":
		return g.generateObject(s, active)
	case "array":
		return []any{g.generate(s.Items, "", active)}
	case "string":
		return g.generateString(s, name)
	case "integer":
		return 0
	case "number":
		return 0.0
	case "boolean":
		return false
	case "":
		if len(s.Properties) > 0 {
			return g.generateObject(s, active)
		}
		if s.Items != nil {
			return []any{g.generate(s.Items, "", active)}
		}
		return g.generateString(s, name)
	default:
		g.debug("unknown schema type, treating as string", "type", s.Type)
		return g.generateString(s, name)
	}
}

func (g *Generator) generateObject(s *openapi.Schema, active map[*openapi.Schema]bool) *ordered.Map {
	obj := ordered.NewMap(len(s.Properties))
	for _, p := range s.Properties {
		obj.Set(p.Name, g.generate(p.Schema, p.Name, active))
	}
	return obj
}

// generateAllOf merges object members of every sub-schema in order, then
// the schema's own properties.
func (g *Generator) generateAllOf(s *openapi.Schema, name string, active map[*openapi.Schema]bool) any {
	merged := ordered.NewMap(0)
	var first any
	for i, sub := range s.AllOf {
		v := g.generate(sub, name, active)
		if i == 0 {
			first = v
		}
		if m, ok := v.(*ordered.Map); ok {
			for _, k := range m.Keys() {
				mv, _ := m.Get(k)
				merged.Set(k, mv)
			}
		}
	}
	for _, p := range s.Properties {
		merged.Set(p.Name, g.generate(p.Schema, p.Name, active))
	}
	if merged.Len() == 0 && first != nil {
		if _, isMap := first.(*ordered.Map); !isMap {
			return first
		}
	}
	return merged
}

func (g *Generator) generateString(s *openapi.Schema, name string) string {
	if v, ok := formatPlaceholders[s.Format]; ok && s.Format != "" {
		return v
	}
	return placeholderString(name)
}

// Properties returns the object members of s after following references
// and flattening allOf, in declaration order.
func (g *Generator) Properties(s *openapi.Schema) []*openapi.Property {
	var out []*openapi.Property
	seen := map[string]int{}
	var walk func(s *openapi.Schema, active map[*openapi.Schema]bool)
	walk = func(s *openapi.Schema, active map[*openapi.Schema]bool) {
		if s == nil || active[s] {
			return
		}
		active[s] = true
		defer delete(active, s)
		if s.Ref != "" {
			if resolved, ok := g.components.ResolveSchema(s.Ref); ok {
				walk(resolved, active)
			}
			return
		}
		for _, sub := range s.AllOf {
			walk(sub, active)
		}
		for _, p := range s.Properties {
			if idx, ok := seen[p.Name]; ok {
				out[idx] = p
				continue
			}
			seen[p.Name] = len(out)
			out = append(out, p)
		}
	}
	walk(s, map[*openapi.Schema]bool{})
	return out
}

// MediaExample returns the example for a content entry: the literal
// example, then the first named example, then a schema-driven value.
// ok is false when the entry has none of these.
func (g *Generator) MediaExample(mt *openapi.MediaType) (any, bool) {
	var v any
	switch {
	case mt == nil:
		return nil, false
	case mt.HasExample:
		v = ordered.CloneValue(mt.Example)
	case len(mt.Examples) > 0:
		v = ordered.CloneValue(mt.Examples[0])
	case mt.Schema != nil:
		v = g.Generate(mt.Schema)
	default:
		return nil, false
	}
	return g.redact(v), true
}

// ParamValue returns the example text for a parameter, or "".
func (g *Generator) ParamValue(p *openapi.Parameter) string {
	var v string
	switch {
	case p.HasExample:
		v = formatValue(p.Example)
	case p.Schema != nil && p.Schema.HasExample:
		v = formatValue(p.Schema.Example)
	}
	if g.redactor != nil {
		v = g.redactor.RedactParam(p.Name, v)
	}
	return v
}

// redactParams returns copies of params whose examples have been
// resolved to display text and passed through the redactor.
func (g *Generator) redactParams(params []*openapi.Parameter) []*openapi.Parameter {
	out := make([]*openapi.Parameter, 0, len(params))
	for _, p := range params {
		cp := *p
		if v := g.ParamValue(p); v != "" {
			cp.Example, cp.HasExample = v, true
		} else {
			cp.Example, cp.HasExample = nil, false
		}
		out = append(out, &cp)
	}
	return out
}

func (g *Generator) redact(v any) any {
	if g.redactor == nil {
		return v
	}
	return g.redactor.RedactValue(v)
}

func (g *Generator) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func placeholderString(name string) string {
	if name == "" {
		return stringPlaceholder
	}
	return stringPlaceholderPrefix + name
}

func emptyLike(s *openapi.Schema) any {
	if s.Type == "array" || (s.Type == "" && s.Items != nil) {
		return []any{}
	}
	if s.Type == "object" || s.Type == "" {
		return ordered.NewMap(0)
	}
	return nil
}

// formatValue renders an example as display text: strings as is, scalars
// with fmt, structures as compact JSON.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(val)
	default:
		data, err := marshalJSON(val, "")
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// marshalJSON encodes v without HTML escaping.
func marshalJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// renderJSON returns the example as JSON text. Strings that already hold
// JSON are kept as written.
func renderJSON(v any) string {
	if s, ok := v.(string); ok && json.Valid([]byte(strings.TrimSpace(s))) {
		return s
	}
	data, err := marshalJSON(v, "  ")
	if err != nil {
		return formatValue(v)
	}
	return string(data)
}
