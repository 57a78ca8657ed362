package convert

import (
	"log/slog"

	"github.com/yourorg/oas2postman/internal/openapi"
)

// OperationFilter decides whether an operation is converted.
type OperationFilter interface {
	Allow(path string, op *openapi.Operation) bool
}

// Redactor masks sensitive values before they are written into examples.
// Implementations must not modify their arguments.
type Redactor interface {
	// RedactValue returns v with sensitive object members replaced.
	RedactValue(v any) any
	// RedactParam returns the value to show for a header or query parameter.
	RedactParam(name, value string) string
}

// Option configures a Converter.
type Option func(*Converter)

// WithBaseURL overrides the servers declared by the document.
func WithBaseURL(u string) Option {
	return func(c *Converter) { c.baseURL = u }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithCollectionID fixes the collection id instead of generating one.
func WithCollectionID(id string) Option {
	return func(c *Converter) { c.collectionID = id }
}

// WithStableID derives the collection id from the API title and version so
// repeated runs over the same document produce the same id.
func WithStableID(stable bool) Option {
	return func(c *Converter) { c.stableID = stable }
}

// WithExporterID sets the exporter marker written into the info block.
func WithExporterID(id string) Option {
	return func(c *Converter) { c.exporterID = id }
}

// WithFilter drops operations the filter rejects.
func WithFilter(f OperationFilter) Option {
	return func(c *Converter) { c.filter = f }
}

// WithRedactor masks sensitive example values.
func WithRedactor(r Redactor) Option {
	return func(c *Converter) { c.redactor = r }
}
