package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequired(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"missing openapi", "info: {title: t}\npaths: {/a: {}}\n", "openapi"},
		{"missing info", "openapi: 3.0.3\npaths: {/a: {}}\n", "info"},
		{"empty info", "openapi: 3.0.3\ninfo: {}\npaths: {/a: {}}\n", "info"},
		{"missing paths", "openapi: 3.0.3\ninfo: {title: t}\n", "paths"},
		{"empty paths", "openapi: 3.0.3\ninfo: {title: t}\npaths: {}\n", "paths"},
		{"complete", "openapi: 3.0.3\ninfo: {title: t}\npaths: {/a: {}}\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input), "doc.yaml")
			require.NoError(t, err)

			err = CheckRequired(doc)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var mf *MissingFieldError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, tt.field, mf.Field)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion(&Document{OpenAPI: "3.0.3"}))

	err := CheckVersion(&Document{OpenAPI: "3.1.0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.Contains(t, err.Error(), "3.1.0")
}

func TestValidateStrict(t *testing.T) {
	valid := []byte(`openapi: 3.0.3
info:
  title: t
  version: 1.0.0
paths:
  /ping:
    get:
      responses:
        '200':
          description: ok
`)
	assert.NoError(t, ValidateStrict(context.Background(), valid, "ok.yaml"))

	invalid := []byte(`openapi: 3.0.3
info:
  title: t
paths: {}
`)
	err := ValidateStrict(context.Background(), invalid, "bad.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
