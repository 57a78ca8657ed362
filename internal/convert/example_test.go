package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/ordered"
)

func obj(props ...*openapi.Property) *openapi.Schema {
	return &openapi.Schema{Type: "object", Properties: props}
}

func prop(name string, s *openapi.Schema) *openapi.Property {
	return &openapi.Property{Name: name, Schema: s}
}

func typed(t string) *openapi.Schema { return &openapi.Schema{Type: t} }

func TestGenerateLiteralExampleWins(t *testing.T) {
	literal := ordered.NewMap(1)
	literal.Set("x", "y")

	tests := []struct {
		name   string
		schema *openapi.Schema
		want   any
	}{
		{"string", &openapi.Schema{Type: "string", Example: "hello", HasExample: true}, "hello"},
		{"integer", &openapi.Schema{Type: "integer", Example: 42, HasExample: true}, 42},
		{"boolean over enum", &openapi.Schema{Type: "boolean", Example: true, HasExample: true, Enum: []any{false}}, true},
		{"null example", &openapi.Schema{Type: "string", HasExample: true}, nil},
		{"object", &openapi.Schema{Type: "object", Example: literal, HasExample: true, Properties: []*openapi.Property{prop("a", typed("string"))}}, literal},
		{"mismatched kind", &openapi.Schema{Type: "array", Example: "not an array", HasExample: true}, "not an array"},
	}
	gen := NewGenerator(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gen.Generate(tt.schema))
		})
	}
}

func TestGenerateByKind(t *testing.T) {
	gen := NewGenerator(nil, nil, nil)

	assert.Equal(t, "example_value", gen.Generate(typed("string")))
	assert.Equal(t, "example_name", gen.GenerateNamed(typed("string"), "name"))
	assert.Equal(t, 0, gen.Generate(typed("integer")))
	assert.Equal(t, 0.0, gen.Generate(typed("number")))
	assert.Equal(t, false, gen.Generate(typed("boolean")))
	assert.Equal(t, []any{0}, gen.Generate(&openapi.Schema{Type: "array", Items: typed("integer")}))
	assert.Equal(t, []any{"example_value"}, gen.Generate(&openapi.Schema{Type: "array"}))
	assert.Equal(t, "example_value", gen.Generate(typed("weird")))
	assert.Equal(t, "example_value", gen.Generate(&openapi.Schema{}))
	assert.Equal(t, "user@example.com", gen.Generate(&openapi.Schema{Type: "string", Format: "email"}))
	assert.Equal(t, "1970-01-01T00:00:00Z", gen.Generate(&openapi.Schema{Type: "string", Format: "date-time"}))
	assert.Equal(t, "example_value", gen.Generate(nil))
}

func TestGenerateDefaultAndEnum(t *testing.T) {
	gen := NewGenerator(nil, nil, nil)
	assert.Equal(t, "asc", gen.Generate(&openapi.Schema{Type: "string", Default: "asc", HasDefault: true, Enum: []any{"desc"}}))
	assert.Equal(t, "desc", gen.Generate(&openapi.Schema{Type: "string", Enum: []any{"desc", "asc"}}))
}

func TestGenerateObjectKeysMatchDeclaredProperties(t *testing.T) {
	gen := NewGenerator(nil, nil, nil)
	s := obj(
		prop("zeta", typed("string")),
		prop("alpha", typed("integer")),
		prop("nested", obj(prop("flag", typed("boolean")))),
		prop("tags", &openapi.Schema{Type: "array", Items: typed("string")}),
	)

	got, ok := gen.Generate(s).(*ordered.Map)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "nested", "tags"}, got.Keys())

	nested, _ := got.Get("nested")
	require.IsType(t, &ordered.Map{}, nested)
	assert.Equal(t, []string{"flag"}, nested.(*ordered.Map).Keys())

	zeta, _ := got.Get("zeta")
	assert.Equal(t, "example_zeta", zeta)
}

func TestGenerateEmptyObject(t *testing.T) {
	gen := NewGenerator(nil, nil, nil)
	got, ok := gen.Generate(typed("object")).(*ordered.Map)
	require.True(t, ok)
	assert.Zero(t, got.Len())

	data, err := marshalJSON(got, "")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestGenerateFollowsRefsAndComposition(t *testing.T) {
	base := obj(prop("id", typed("integer")))
	components := &openapi.Components{Schemas: map[string]*openapi.Schema{"Base": base}}
	gen := NewGenerator(components, nil, nil)

	ref := &openapi.Schema{Ref: "#/components/schemas/Base"}
	got := gen.Generate(ref).(*ordered.Map)
	assert.Equal(t, []string{"id"}, got.Keys())

	composed := &openapi.Schema{
		AllOf:      []*openapi.Schema{ref, obj(prop("name", typed("string")))},
		Properties: []*openapi.Property{prop("extra", typed("boolean"))},
	}
	merged := gen.Generate(composed).(*ordered.Map)
	assert.Equal(t, []string{"id", "name", "extra"}, merged.Keys())

	oneOf := &openapi.Schema{OneOf: []*openapi.Schema{typed("integer"), typed("string")}}
	assert.Equal(t, 0, gen.Generate(oneOf))

	missing := &openapi.Schema{Ref: "#/components/schemas/Nope"}
	assert.Equal(t, "example_value", gen.Generate(missing))
}

func TestGenerateTerminatesOnCycles(t *testing.T) {
	node := obj()
	node.Properties = []*openapi.Property{
		prop("name", typed("string")),
		prop("parent", &openapi.Schema{Ref: "#/components/schemas/Node"}),
		prop("children", &openapi.Schema{Type: "array", Items: &openapi.Schema{Ref: "#/components/schemas/Node"}}),
	}
	components := &openapi.Components{Schemas: map[string]*openapi.Schema{"Node": node}}
	gen := NewGenerator(components, nil, nil)

	got := gen.Generate(&openapi.Schema{Ref: "#/components/schemas/Node"}).(*ordered.Map)
	assert.Equal(t, []string{"name", "parent", "children"}, got.Keys())

	parent, _ := got.Get("parent")
	require.IsType(t, &ordered.Map{}, parent)
	assert.Zero(t, parent.(*ordered.Map).Len())

	children, _ := got.Get("children")
	require.Len(t, children, 1)
	assert.Zero(t, children.([]any)[0].(*ordered.Map).Len())
}

func TestGenerateSiblingReuseIsNotACycle(t *testing.T) {
	addr := obj(prop("city", typed("string")))
	components := &openapi.Components{Schemas: map[string]*openapi.Schema{"Address": addr}}
	gen := NewGenerator(components, nil, nil)

	ref := &openapi.Schema{Ref: "#/components/schemas/Address"}
	got := gen.Generate(obj(prop("home", ref), prop("work", ref))).(*ordered.Map)

	for _, k := range []string{"home", "work"} {
		v, _ := got.Get(k)
		assert.Equal(t, []string{"city"}, v.(*ordered.Map).Keys(), k)
	}
}

func TestGenerateDoesNotAliasExamples(t *testing.T) {
	literal := ordered.NewMap(1)
	literal.Set("k", "v")
	s := &openapi.Schema{Type: "object", Example: literal, HasExample: true}
	gen := NewGenerator(nil, nil, nil)

	got := gen.Generate(s).(*ordered.Map)
	got.Set("k", "changed")

	v, _ := literal.Get("k")
	assert.Equal(t, "v", v)
}

func TestMediaExamplePrecedence(t *testing.T) {
	gen := NewGenerator(nil, nil, nil)
	schema := obj(prop("id", typed("integer")))

	v, ok := gen.MediaExample(&openapi.MediaType{Schema: schema, Example: "lit", HasExample: true, Examples: []any{"named"}})
	require.True(t, ok)
	assert.Equal(t, "lit", v)

	v, ok = gen.MediaExample(&openapi.MediaType{Schema: schema, Examples: []any{"named"}})
	require.True(t, ok)
	assert.Equal(t, "named", v)

	v, ok = gen.MediaExample(&openapi.MediaType{Schema: schema})
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, v.(*ordered.Map).Keys())

	_, ok = gen.MediaExample(&openapi.MediaType{ContentType: "application/json"})
	assert.False(t, ok)
}

type maskingRedactor struct{}

func (maskingRedactor) RedactValue(v any) any {
	if m, ok := v.(*ordered.Map); ok {
		out := m.Clone()
		if _, has := out.Get("secret"); has {
			out.Set("secret", "***")
		}
		return out
	}
	return v
}

func (maskingRedactor) RedactParam(name, value string) string {
	if name == "Authorization" {
		return "***"
	}
	return value
}

func TestGeneratorAppliesRedactor(t *testing.T) {
	gen := NewGenerator(nil, maskingRedactor{}, nil)

	v, ok := gen.MediaExample(&openapi.MediaType{Schema: obj(prop("secret", typed("string")), prop("id", typed("integer")))})
	require.True(t, ok)
	secret, _ := v.(*ordered.Map).Get("secret")
	assert.Equal(t, "***", secret)

	auth := &openapi.Parameter{Name: "Authorization", In: openapi.InHeader, Example: "Bearer abc", HasExample: true}
	assert.Equal(t, "***", gen.ParamValue(auth))
	assert.Equal(t, "Bearer abc", auth.Example)
}

func TestRenderJSON(t *testing.T) {
	m := ordered.NewMap(2)
	m.Set("b", 1)
	m.Set("a", "<x>")
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": \"<x>\"\n}", renderJSON(m))
	assert.Equal(t, `{"raw": true}`, renderJSON(`{"raw": true}`))
	assert.Equal(t, `"plain"`, renderJSON("plain"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "abc", formatValue("abc"))
	assert.Equal(t, "10", formatValue(10))
	assert.Equal(t, "1.5", formatValue(1.5))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, `[1,"a"]`, formatValue([]any{1, "a"}))
}
