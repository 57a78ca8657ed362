package convert

import (
	"strings"

	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/ordered"
	"github.com/yourorg/oas2postman/internal/postman"
)

// Media types with dedicated body handling.
const (
	mediaJSON       = "application/json"
	mediaURLEncoded = "application/x-www-form-urlencoded"
	mediaMultipart  = "multipart/form-data"
	mediaText       = "text/plain"
)

// BuildBody renders the request body. It returns nil when the operation
// declares no body or an empty content map.
//
// Media types are tried in a fixed order: JSON, urlencoded form, multipart
// form, plain text. When none of them is declared the first declared type
// gets an empty raw body, meaning a body exists but its shape is unknown.
func BuildBody(gen *Generator, rb *openapi.RequestBody) *postman.Body {
	if rb == nil || len(rb.Content) == 0 {
		return nil
	}
	if mt := findMedia(rb.Content, mediaJSON); mt != nil {
		raw := "{}"
		if v, ok := gen.MediaExample(mt); ok {
			raw = renderJSON(v)
		}
		return rawBody(raw, "json")
	}
	if mt := findMedia(rb.Content, mediaURLEncoded); mt != nil {
		return &postman.Body{Mode: postman.ModeURLEncoded, URLEncoded: formFields(gen, mt, false)}
	}
	if mt := findMedia(rb.Content, mediaMultipart); mt != nil {
		return &postman.Body{Mode: postman.ModeFormData, FormData: formFields(gen, mt, true)}
	}
	if mt := findMedia(rb.Content, mediaText); mt != nil {
		text := textPlaceholder
		if mt.HasExample || len(mt.Examples) > 0 {
			if v, ok := gen.MediaExample(mt); ok {
				if s, isString := v.(string); isString {
					text = s
				}
			}
		}
		return rawBody(text, "text")
	}

	ct := rb.Content[0].ContentType
	gen.debug("unrecognized request content type, emitting empty body", "content_type", ct)
	return rawBody("", rawLanguage(ct))
}

// formFields lists one field per declared property. Values come from the
// literal example when it has the key, otherwise from the schema.
func formFields(gen *Generator, mt *openapi.MediaType, multipart bool) []postman.FormField {
	props := gen.Properties(mt.Schema)
	values := ordered.NewMap(len(props))
	var literal *ordered.Map
	if mt.HasExample || len(mt.Examples) > 0 {
		if v, ok := gen.MediaExample(mt); ok {
			literal, _ = v.(*ordered.Map)
		}
	}
	for _, p := range props {
		if v, ok := literal.Get(p.Name); ok {
			values.Set(p.Name, v)
			continue
		}
		values.Set(p.Name, gen.GenerateNamed(p.Schema, p.Name))
	}
	if redacted, ok := gen.redact(values).(*ordered.Map); ok {
		values = redacted
	}

	fields := make([]postman.FormField, 0, len(props))
	for _, p := range props {
		f := postman.FormField{Key: p.Name, Type: "text", Description: schemaDescription(gen, p.Schema)}
		if multipart && isBinary(gen, p.Schema) {
			f.Type = "file"
			fields = append(fields, f)
			continue
		}
		v, _ := values.Get(p.Name)
		f.Value = formatValue(v)
		fields = append(fields, f)
	}
	return fields
}

func rawBody(raw, language string) *postman.Body {
	return &postman.Body{
		Mode:    postman.ModeRaw,
		Raw:     &raw,
		Options: &postman.BodyOptions{Raw: postman.RawOptions{Language: language}},
	}
}

func rawLanguage(ct string) string {
	base := mediaBase(ct)
	if strings.HasSuffix(base, "/xml") || strings.HasSuffix(base, "+xml") {
		return "xml"
	}
	return "text"
}

// findMedia returns the first content entry whose base type is want.
func findMedia(content []*openapi.MediaType, want string) *openapi.MediaType {
	for _, mt := range content {
		if mediaBase(mt.ContentType) == want {
			return mt
		}
	}
	return nil
}

// mediaBase strips parameters and lower-cases a media type.
func mediaBase(ct string) string {
	base, _, _ := strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func schemaDescription(gen *Generator, s *openapi.Schema) string {
	for depth := 0; s != nil && depth < maxRefHops; depth++ {
		if s.Description != "" || s.Ref == "" {
			return s.Description
		}
		resolved, ok := gen.components.ResolveSchema(s.Ref)
		if !ok {
			return ""
		}
		s = resolved
	}
	return ""
}

func isBinary(gen *Generator, s *openapi.Schema) bool {
	for depth := 0; s != nil && depth < maxRefHops; depth++ {
		if s.Ref == "" {
			return s.Type == "string" && (s.Format == "binary" || s.Format == "base64")
		}
		resolved, ok := gen.components.ResolveSchema(s.Ref)
		if !ok {
			return false
		}
		s = resolved
	}
	return false
}

// maxRefHops bounds direct $ref chains followed outside the generator.
const maxRefHops = 16
