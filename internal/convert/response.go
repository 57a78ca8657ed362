package convert

import (
	"net/http"
	"strconv"

	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/postman"
)

// placeholderRequest is the originalRequest stored with every saved
// response. Clients only need a method and a URL to display it.
var placeholderRequest = postman.OriginalRequest{
	Method: http.MethodGet,
	Header: []postman.Header{},
	URL: postman.URL{
		Raw:      fallbackBaseURL + "/path",
		Protocol: "https",
		Host:     []string{"api", "example", "com"},
		Path:     []string{"path"},
	},
}

// BuildResponses renders one saved example per numeric status code, in
// declaration order. The result is never nil.
func BuildResponses(gen *Generator, responses []*openapi.Response) []postman.Response {
	out := make([]postman.Response, 0, len(responses))
	for _, r := range responses {
		code, err := strconv.Atoi(r.StatusCode)
		if err != nil {
			continue
		}
		out = append(out, buildResponse(gen, code, r))
	}
	return out
}

func buildResponse(gen *Generator, code int, r *openapi.Response) postman.Response {
	desc := r.Description
	if desc == "" {
		desc = "Response"
	}
	status := http.StatusText(code)
	if status == "" {
		status = desc
	}

	orig := placeholderRequest
	orig.Header = []postman.Header{}
	orig.URL.Host = cloneStrings(placeholderRequest.URL.Host)
	orig.URL.Path = cloneStrings(placeholderRequest.URL.Path)

	resp := postman.Response{
		Name:            r.StatusCode + " " + desc,
		OriginalRequest: orig,
		Status:          status,
		Code:            code,
		PreviewLanguage: "text",
		Header:          []postman.Header{},
		Cookie:          []postman.Cookie{},
	}
	if len(r.Content) == 0 {
		return resp
	}

	// Only the first declared content type is rendered.
	mt := r.Content[0]
	isJSON := mediaBase(mt.ContentType) == mediaJSON
	if isJSON {
		resp.PreviewLanguage = "json"
	}
	resp.Header = append(resp.Header, postman.Header{Key: "Content-Type", Value: mt.ContentType})

	v, ok := gen.MediaExample(mt)
	switch {
	case !ok:
		gen.debug("response content has no example or schema", "status", r.StatusCode, "content_type", mt.ContentType)
	case isJSON:
		resp.Body = renderJSON(v)
	default:
		if s, isString := v.(string); isString {
			resp.Body = s
		} else {
			resp.Body = renderJSON(v)
		}
	}
	return resp
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}
