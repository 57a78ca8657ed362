package filter

import (
	"strings"

	"github.com/yourorg/oas2postman/internal/config"
	"github.com/yourorg/oas2postman/internal/ordered"
)

// SanitizeConfig is an alias of config.SanitizeConfig.
type SanitizeConfig = config.SanitizeConfig

// Sanitizer redacts sensitive header and query values and body fields in
// generated examples. Inputs are never modified.
type Sanitizer struct {
	headers     map[string]struct{}
	fields      map[string]struct{}
	replacement string
}

// NewSanitizer returns a Sanitizer for cfg, or nil when sanitizing is off.
func NewSanitizer(cfg SanitizeConfig) *Sanitizer {
	if !cfg.Enabled {
		return nil
	}
	return &Sanitizer{
		headers:     toLowerSet(cfg.Headers),
		fields:      toLowerSet(cfg.BodyFields),
		replacement: cfg.Replacement,
	}
}

// RedactParam masks the value of a sensitive header, or of a query
// parameter named like a sensitive body field. Empty values stay empty.
func (s *Sanitizer) RedactParam(name, value string) string {
	if s == nil || value == "" {
		return value
	}
	key := strings.ToLower(name)
	if _, ok := s.headers[key]; ok {
		return s.replacement
	}
	if _, ok := s.fields[key]; ok {
		return s.replacement
	}
	return value
}

// RedactValue returns a copy of v with sensitive object members replaced,
// at any depth.
func (s *Sanitizer) RedactValue(v any) any {
	if s == nil {
		return v
	}
	switch val := v.(type) {
	case *ordered.Map:
		if val == nil {
			return val
		}
		out := ordered.NewMap(val.Len())
		for _, k := range val.Keys() {
			if _, ok := s.fields[strings.ToLower(k)]; ok {
				out.Set(k, s.replacement)
				continue
			}
			inner, _ := val.Get(k)
			out.Set(k, s.RedactValue(inner))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = s.RedactValue(val[i])
		}
		return out
	default:
		return val
	}
}
