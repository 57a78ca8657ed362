// Package openapi holds the subset of the OpenAPI 3.0 document model needed to
// build request and response examples, decoded with source key order intact.
package openapi

import "strings"

// ExpectedVersion is the OpenAPI version the converter is written against.
const ExpectedVersion = "3.0.3"

// Parameter locations.
const (
	InQuery  = "query"
	InHeader = "header"
	InPath   = "path"
	InCookie = "cookie"
)

// Methods lists the HTTP methods read from a path item, in output order
// for methods declared in the same path item.
var Methods = []string{"get", "post", "put", "delete", "patch", "head", "options"}

// IsMethod reports whether m is one of the seven standard HTTP methods.
func IsMethod(m string) bool {
	m = strings.ToLower(m)
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// Document is the root of an API description.
type Document struct {
	OpenAPI    string
	Info       *Info
	Servers    []Server
	Tags       []Tag
	Paths      *Paths
	Components *Components
}

// Info contains API metadata.
type Info struct {
	Title       string
	Description string
	Version     string
}

// Server is one base-URL candidate.
type Server struct {
	URL         string
	Description string
	// Variables are kept in declaration order.
	Variables []ServerVariable
}

// ServerVariable is a {name} placeholder in a server URL and its default.
type ServerVariable struct {
	Name    string
	Default string
}

// Tag is a declared operation group.
type Tag struct {
	Name        string
	Description string
}

// Paths is the ordered set of path items.
type Paths struct {
	Items []*PathItem
}

// Len returns the number of path items.
func (p *Paths) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// PathItem holds the operations bound to one path pattern.
type PathItem struct {
	Path       string
	Parameters []*Parameter
	Operations []*Operation
}

// Operation is one HTTP method on one path.
type Operation struct {
	Method      string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []*Parameter
	RequestBody *RequestBody
	Responses   []*Response
}

// Parameter describes one operation parameter.
type Parameter struct {
	Name        string
	In          string
	Required    bool
	Description string
	Example     any
	HasExample  bool
	Schema      *Schema
}

// RequestBody is the operation request body.
type RequestBody struct {
	Description string
	Required    bool
	Content     []*MediaType
}

// Response describes one status code.
type Response struct {
	StatusCode  string
	Description string
	Content     []*MediaType
}

// MediaType is one entry of a content map.
type MediaType struct {
	ContentType string
	Schema      *Schema
	Example     any
	HasExample  bool
	// Examples holds the values of named examples in declaration order.
	Examples []any
}

// Schema is a recursive type description.
type Schema struct {
	Ref         string
	Type        string
	Format      string
	Description string
	Example     any
	HasExample  bool
	Default     any
	HasDefault  bool
	Enum        []any
	Properties  []*Property
	Items       *Schema
	AllOf       []*Schema
	OneOf       []*Schema
	AnyOf       []*Schema
}

// Property is a named object member of a schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Components holds reusable definitions addressed by local $ref.
type Components struct {
	Schemas map[string]*Schema
}

// ResolveSchema follows a local "#/components/schemas/<name>" reference.
func (c *Components) ResolveSchema(ref string) (*Schema, bool) {
	if c == nil {
		return nil, false
	}
	name, ok := strings.CutPrefix(ref, "#/components/schemas/")
	if !ok {
		return nil, false
	}
	s, ok := c.Schemas[unescapePointer(name)]
	return s, ok && s != nil
}

func unescapePointer(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}
