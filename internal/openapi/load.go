package openapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes the API description at path. JSON and YAML are
// both accepted.
func Load(path string) (*Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data, path)
	if err != nil {
		return nil, data, err
	}
	return doc, data, nil
}

// Parse decodes data. source only labels errors.
func Parse(data []byte, source string) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ParseError{Path: source, Message: "empty input"}
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		root, err := parseJSON(data, source)
		if err != nil {
			return nil, err
		}
		return Decode(root, source)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		pe := &ParseError{Path: source, Cause: err}
		pe.Line = yamlErrorLine(err)
		return nil, pe
	}
	return Decode(&root, source)
}

// maxJSONDepth matches the nesting limit of encoding/json.
const maxJSONDepth = 10000

// parseJSON builds the node tree from the JSON token stream. The YAML
// parser rejects surrogate pair escapes, and its errors describe JSON
// syntax in YAML terms.
func parseJSON(data []byte, source string) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	b := &jsonBuilder{dec: dec, data: data, line: 1, col: 1}

	root, err := b.value(0)
	if err == nil {
		if _, terr := dec.Token(); terr != io.EOF {
			if terr == nil {
				terr = errors.New("unexpected data after top-level value")
			}
			err = terr
		}
	}
	if err != nil {
		pe := &ParseError{Path: source, Message: "invalid JSON", Cause: err}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			pe.Line, pe.Column = position(data, syn.Offset)
		} else {
			pe.Line, pe.Column = b.pos()
		}
		return nil, pe
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}, nil
}

type jsonBuilder struct {
	dec  *json.Decoder
	data []byte

	// off, line and col track the last reported position.
	off, line, col int
}

// pos returns the line and column of the next token.
func (b *jsonBuilder) pos() (int, int) {
	off := int(b.dec.InputOffset())
	for off < len(b.data) && strings.IndexByte(" \t\r\n,:", b.data[off]) >= 0 {
		off++
	}
	for ; b.off < off && b.off < len(b.data); b.off++ {
		if b.data[b.off] == '\n' {
			b.line++
			b.col = 1
			continue
		}
		b.col++
	}
	return b.line, b.col
}

func (b *jsonBuilder) value(depth int) (*yaml.Node, error) {
	if depth > maxJSONDepth {
		return nil, errors.New("exceeded max nesting depth")
	}
	line, col := b.pos()
	tok, err := b.dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return b.object(depth, line, col)
		}
		return b.array(depth, line, col)
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: v, Line: line, Column: col}, nil
	case json.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: numberTag(v), Value: v.String(), Line: line, Column: col}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v), Line: line, Column: col}, nil
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null", Line: line, Column: col}, nil
	}
}

func (b *jsonBuilder) object(depth, line, col int) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: line, Column: col}
	for b.dec.More() {
		kl, kc := b.pos()
		tok, err := b.dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		val, err := b.value(depth + 1)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, Line: kl, Column: kc},
			val,
		)
	}
	if _, err := b.dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *jsonBuilder) array(depth, line, col int) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: line, Column: col}
	for b.dec.More() {
		val, err := b.value(depth + 1)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, val)
	}
	if _, err := b.dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// numberTag tags integers that fit in 64 bits as !!int and everything
// else as !!float.
func numberTag(num json.Number) string {
	if _, err := num.Int64(); err == nil {
		return "!!int"
	}
	return "!!float"
}

func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func yamlErrorLine(err error) int {
	msg := err.Error()
	idx := strings.Index(msg, "line ")
	if idx < 0 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(msg[idx:], "line %d", &line); scanErr != nil {
		return 0
	}
	return line
}
