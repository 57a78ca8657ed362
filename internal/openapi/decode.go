package openapi

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/oas2postman/internal/ordered"
)

// maxRefDepth bounds chains of parameter, request body and response references.
const maxRefDepth = 32

type decoder struct {
	source     string
	components *Components
	parameters map[string]*yaml.Node
	bodies     map[string]*yaml.Node
	responses  map[string]*yaml.Node
}

// Decode builds a Document from a parsed YAML/JSON node tree.
// Mapping order in the source is kept for paths, methods, properties,
// content types and status codes.
func Decode(root *yaml.Node, source string) (*Document, error) {
	d := &decoder{
		source:     source,
		components: &Components{Schemas: map[string]*Schema{}},
		parameters: map[string]*yaml.Node{},
		bodies:     map[string]*yaml.Node{},
		responses:  map[string]*yaml.Node{},
	}
	root = deref(root)
	if root != nil && root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, &ParseError{Path: source, Message: "empty document"}
		}
		root = deref(root.Content[0])
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, d.errorAt(root, "document root must be an object")
	}

	if comp := lookup(root, "components"); comp != nil {
		if err := d.decodeComponents(comp); err != nil {
			return nil, err
		}
	}

	doc := &Document{Components: d.components}
	err := forEach(root, func(key string, val *yaml.Node) error {
		switch key {
		case "openapi":
			doc.OpenAPI = scalar(val)
		case "info":
			doc.Info = decodeInfo(val)
		case "servers":
			doc.Servers = decodeServers(val)
		case "tags":
			doc.Tags = decodeTags(val)
		case "paths":
			paths, err := d.decodePaths(val)
			if err != nil {
				return err
			}
			doc.Paths = paths
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *decoder) errorAt(n *yaml.Node, format string, args ...any) *ParseError {
	pe := &ParseError{Path: d.source, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		pe.Line, pe.Column = n.Line, n.Column
	}
	return pe
}

func (d *decoder) decodeComponents(n *yaml.Node) error {
	return forEach(n, func(key string, val *yaml.Node) error {
		switch key {
		case "schemas":
			// Allocate every schema first so references between components
			// resolve to the same node whatever the declaration order.
			_ = forEach(val, func(name string, _ *yaml.Node) error {
				d.components.Schemas[name] = &Schema{}
				return nil
			})
			return forEach(val, func(name string, sn *yaml.Node) error {
				d.fillSchema(d.components.Schemas[name], sn)
				return nil
			})
		case "parameters":
			return collectNodes(val, d.parameters)
		case "requestBodies":
			return collectNodes(val, d.bodies)
		case "responses":
			return collectNodes(val, d.responses)
		}
		return nil
	})
}

func collectNodes(n *yaml.Node, into map[string]*yaml.Node) error {
	return forEach(n, func(name string, val *yaml.Node) error {
		into[name] = val
		return nil
	})
}

func decodeInfo(n *yaml.Node) *Info {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode || len(n.Content) == 0 {
		return nil
	}
	return &Info{
		Title:       scalar(lookup(n, "title")),
		Description: scalar(lookup(n, "description")),
		Version:     scalar(lookup(n, "version")),
	}
}

func decodeServers(n *yaml.Node) []Server {
	var out []Server
	for _, sn := range items(n) {
		if sn.Kind != yaml.MappingNode {
			continue
		}
		s := Server{
			URL:         scalar(lookup(sn, "url")),
			Description: scalar(lookup(sn, "description")),
		}
		_ = forEach(lookup(sn, "variables"), func(name string, vn *yaml.Node) error {
			s.Variables = append(s.Variables, ServerVariable{Name: name, Default: scalar(lookup(vn, "default"))})
			return nil
		})
		out = append(out, s)
	}
	return out
}

func decodeTags(n *yaml.Node) []Tag {
	var out []Tag
	for _, tn := range items(n) {
		name := scalar(lookup(tn, "name"))
		if name == "" {
			continue
		}
		out = append(out, Tag{Name: name, Description: scalar(lookup(tn, "description"))})
	}
	return out
}

func (d *decoder) decodePaths(n *yaml.Node) (*Paths, error) {
	n = deref(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.errorAt(n, "paths must be an object")
	}
	paths := &Paths{}
	err := forEach(n, func(path string, pn *yaml.Node) error {
		pn = deref(pn)
		if pn == nil || pn.Kind != yaml.MappingNode {
			return d.errorAt(pn, "path item %q must be an object", path)
		}
		item := &PathItem{Path: path}
		err := forEach(pn, func(key string, val *yaml.Node) error {
			if key == "parameters" {
				item.Parameters = d.decodeParameters(val)
				return nil
			}
			if !IsMethod(key) {
				return nil
			}
			op, err := d.decodeOperation(key, val)
			if err != nil {
				return err
			}
			item.Operations = append(item.Operations, op)
			return nil
		})
		if err != nil {
			return err
		}
		paths.Items = append(paths.Items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (d *decoder) decodeOperation(method string, n *yaml.Node) (*Operation, error) {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, d.errorAt(n, "operation %s must be an object", method)
	}
	op := &Operation{Method: strings.ToUpper(method)}
	_ = forEach(n, func(key string, val *yaml.Node) error {
		switch key {
		case "operationId":
			op.OperationID = scalar(val)
		case "summary":
			op.Summary = scalar(val)
		case "description":
			op.Description = scalar(val)
		case "deprecated":
			op.Deprecated = scalar(val) == "true"
		case "tags":
			for _, tn := range items(val) {
				if t := scalar(tn); t != "" {
					op.Tags = append(op.Tags, t)
				}
			}
		case "parameters":
			op.Parameters = d.decodeParameters(val)
		case "requestBody":
			op.RequestBody = d.decodeRequestBody(val, 0)
		case "responses":
			_ = forEach(val, func(code string, rn *yaml.Node) error {
				if r := d.decodeResponse(code, rn, 0); r != nil {
					op.Responses = append(op.Responses, r)
				}
				return nil
			})
		}
		return nil
	})
	return op, nil
}

func (d *decoder) decodeParameters(n *yaml.Node) []*Parameter {
	var out []*Parameter
	for _, pn := range items(n) {
		if p := d.decodeParameter(pn, 0); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (d *decoder) decodeParameter(n *yaml.Node, depth int) *Parameter {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode || depth > maxRefDepth {
		return nil
	}
	if ref := scalar(lookup(n, "$ref")); ref != "" {
		name, ok := strings.CutPrefix(ref, "#/components/parameters/")
		if !ok {
			return nil
		}
		return d.decodeParameter(d.parameters[unescapePointer(name)], depth+1)
	}
	p := &Parameter{
		Name:        scalar(lookup(n, "name")),
		In:          strings.ToLower(scalar(lookup(n, "in"))),
		Required:    scalar(lookup(n, "required")) == "true",
		Description: scalar(lookup(n, "description")),
	}
	if p.Name == "" {
		return nil
	}
	p.Example, p.HasExample = exampleOf(n)
	if sn := lookup(n, "schema"); sn != nil {
		p.Schema = d.decodeSchema(sn)
	}
	return p
}

func (d *decoder) decodeRequestBody(n *yaml.Node, depth int) *RequestBody {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode || depth > maxRefDepth {
		return nil
	}
	if ref := scalar(lookup(n, "$ref")); ref != "" {
		name, ok := strings.CutPrefix(ref, "#/components/requestBodies/")
		if !ok {
			return nil
		}
		return d.decodeRequestBody(d.bodies[unescapePointer(name)], depth+1)
	}
	return &RequestBody{
		Description: scalar(lookup(n, "description")),
		Required:    scalar(lookup(n, "required")) == "true",
		Content:     d.decodeContent(lookup(n, "content")),
	}
}

func (d *decoder) decodeResponse(code string, n *yaml.Node, depth int) *Response {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode || depth > maxRefDepth {
		return nil
	}
	if ref := scalar(lookup(n, "$ref")); ref != "" {
		name, ok := strings.CutPrefix(ref, "#/components/responses/")
		if !ok {
			return nil
		}
		return d.decodeResponse(code, d.responses[unescapePointer(name)], depth+1)
	}
	return &Response{
		StatusCode:  code,
		Description: scalar(lookup(n, "description")),
		Content:     d.decodeContent(lookup(n, "content")),
	}
}

func (d *decoder) decodeContent(n *yaml.Node) []*MediaType {
	var out []*MediaType
	_ = forEach(n, func(ct string, mn *yaml.Node) error {
		mt := &MediaType{ContentType: ct}
		mn = deref(mn)
		if mn != nil && mn.Kind == yaml.MappingNode {
			if sn := lookup(mn, "schema"); sn != nil {
				mt.Schema = d.decodeSchema(sn)
			}
			if en := lookup(mn, "example"); en != nil {
				if v, err := ordered.FromNode(en); err == nil {
					mt.Example, mt.HasExample = v, true
				}
			}
			_ = forEach(lookup(mn, "examples"), func(_ string, ex *yaml.Node) error {
				if vn := lookup(ex, "value"); vn != nil {
					if v, err := ordered.FromNode(vn); err == nil {
						mt.Examples = append(mt.Examples, v)
					}
				}
				return nil
			})
		}
		out = append(out, mt)
		return nil
	})
	return out
}

func (d *decoder) decodeSchema(n *yaml.Node) *Schema {
	s := &Schema{}
	d.fillSchema(s, n)
	return s
}

func (d *decoder) fillSchema(s *Schema, n *yaml.Node) {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	_ = forEach(n, func(key string, val *yaml.Node) error {
		switch key {
		case "$ref":
			s.Ref = scalar(val)
		case "type":
			s.Type = schemaType(val)
		case "format":
			s.Format = scalar(val)
		case "description":
			s.Description = scalar(val)
		case "example":
			if v, err := ordered.FromNode(val); err == nil {
				s.Example, s.HasExample = v, true
			}
		case "default":
			if v, err := ordered.FromNode(val); err == nil {
				s.Default, s.HasDefault = v, true
			}
		case "enum":
			for _, en := range items(val) {
				if v, err := ordered.FromNode(en); err == nil {
					s.Enum = append(s.Enum, v)
				}
			}
		case "properties":
			_ = forEach(val, func(name string, pn *yaml.Node) error {
				s.Properties = append(s.Properties, &Property{Name: name, Schema: d.decodeSchema(pn)})
				return nil
			})
		case "items":
			s.Items = d.decodeSchema(val)
		case "allOf":
			s.AllOf = d.decodeSchemaList(val)
		case "oneOf":
			s.OneOf = d.decodeSchemaList(val)
		case "anyOf":
			s.AnyOf = d.decodeSchemaList(val)
		}
		return nil
	})
}

func (d *decoder) decodeSchemaList(n *yaml.Node) []*Schema {
	var out []*Schema
	for _, sn := range items(n) {
		out = append(out, d.decodeSchema(sn))
	}
	return out
}

// schemaType accepts both a single type and a 3.1 style type list.
func schemaType(n *yaml.Node) string {
	n = deref(n)
	if n == nil {
		return ""
	}
	if n.Kind == yaml.SequenceNode {
		for _, c := range n.Content {
			if t := scalar(c); t != "null" && t != "" {
				return t
			}
		}
		return ""
	}
	return scalar(n)
}

func exampleOf(n *yaml.Node) (any, bool) {
	if en := lookup(n, "example"); en != nil {
		if v, err := ordered.FromNode(en); err == nil {
			return v, true
		}
	}
	var (
		val   any
		found bool
	)
	_ = forEach(lookup(n, "examples"), func(_ string, ex *yaml.Node) error {
		if found {
			return nil
		}
		if vn := lookup(ex, "value"); vn != nil {
			if v, err := ordered.FromNode(vn); err == nil {
				val, found = v, true
			}
		}
		return nil
	})
	return val, found
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}
	return nil
}

func forEach(n *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, deref(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

func items(n *yaml.Node) []*yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, deref(c))
	}
	return out
}

// scalar returns the text of a scalar node. Null reads as empty.
func scalar(n *yaml.Node) string {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return ""
	}
	return n.Value
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}
