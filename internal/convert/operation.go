package convert

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/postman"
)

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// BuildItem assembles the request item for one operation. shared holds the
// path-level parameters; operation parameters override them by name and
// location.
func BuildItem(gen *Generator, path string, op *openapi.Operation, shared []*openapi.Parameter, baseURL string) postman.Item {
	method := strings.ToUpper(op.Method)
	params := gen.redactParams(mergeParams(shared, op.Parameters))

	item := postman.Item{
		Name: itemName(method, path, op),
		Request: postman.Request{
			Method:      method,
			Header:      buildHeaders(params),
			Body:        BuildBody(gen, op.RequestBody),
			URL:         BuildURL(path, baseURL, params),
			Description: op.Description,
		},
		Response: BuildResponses(gen, op.Responses),
	}
	if forwardsAuth(method) {
		item.ProtocolProfileBehavior = &postman.ProtocolBehavior{FollowAuthorizationHeader: true}
	}
	return item
}

// itemName resolves operationId, then summary, then "METHOD path", and
// strips characters outside letters, digits, underscore, spaces and hyphen.
func itemName(method, path string, op *openapi.Operation) string {
	name := op.OperationID
	if name == "" {
		name = op.Summary
	}
	if name == "" {
		name = method + " " + path
	}
	name = strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, ""))
	if name == "" {
		return method
	}
	return name
}

func forwardsAuth(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func buildHeaders(params []*openapi.Parameter) []postman.Header {
	headers := []postman.Header{}
	for _, p := range params {
		if p.In != openapi.InHeader {
			continue
		}
		headers = append(headers, postman.Header{
			Key:         p.Name,
			Value:       formatValue(p.Example),
			Description: p.Description,
			Type:        "text",
			Disabled:    !p.Required,
		})
	}
	return headers
}

// mergeParams overlays operation parameters onto path-level ones. Cookie
// parameters have no place in the request model and are dropped.
func mergeParams(shared, own []*openapi.Parameter) []*openapi.Parameter {
	type key struct{ name, in string }
	out := make([]*openapi.Parameter, 0, len(shared)+len(own))
	index := map[key]int{}
	add := func(p *openapi.Parameter) {
		if p == nil || p.In == openapi.InCookie {
			return
		}
		k := key{p.Name, p.In}
		if i, ok := index[k]; ok {
			out[i] = p
			return
		}
		index[k] = len(out)
		out = append(out, p)
	}
	for _, p := range shared {
		add(p)
	}
	for _, p := range own {
		add(p)
	}
	return out
}
