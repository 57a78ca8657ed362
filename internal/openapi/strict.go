package openapi

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
)

// ValidateStrict runs full OpenAPI validation over the raw document.
// Conversion itself only needs CheckRequired; this is opt-in.
func ValidateStrict(ctx context.Context, data []byte, source string) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return &ValidationError{Path: source, Message: "load failed", Cause: err}
	}
	if err := doc.Validate(ctx); err != nil {
		return &ValidationError{Path: source, Cause: err}
	}
	return nil
}
