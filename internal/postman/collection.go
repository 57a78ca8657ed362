// Package postman models the subset of the Postman Collection v2.1 format
// produced by the converter.
package postman

// SchemaURL identifies the v2.1 collection format.
const SchemaURL = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// Collection is the output root.
type Collection struct {
	Info     Info       `json:"info" yaml:"info"`
	Item     []Folder   `json:"item" yaml:"item"`
	Variable []Variable `json:"variable" yaml:"variable"`
}

// Info contains collection metadata.
type Info struct {
	PostmanID   string `json:"_postman_id" yaml:"_postman_id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Schema      string `json:"schema" yaml:"schema"`
	ExporterID  string `json:"_exporter_id,omitempty" yaml:"_exporter_id,omitempty"`
}

// Folder groups the requests of one tag.
type Folder struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Item        []Item `json:"item" yaml:"item"`
}

// Item is one request with its saved example responses.
type Item struct {
	Name                    string            `json:"name" yaml:"name"`
	ProtocolProfileBehavior *ProtocolBehavior `json:"protocolProfileBehavior,omitempty" yaml:"protocolProfileBehavior,omitempty"`
	Request                 Request           `json:"request" yaml:"request"`
	Response                []Response        `json:"response" yaml:"response"`
}

// ProtocolBehavior carries per-request client behavior switches.
type ProtocolBehavior struct {
	FollowAuthorizationHeader bool `json:"followAuthorizationHeader" yaml:"followAuthorizationHeader"`
}

// Request is the request definition of an item.
type Request struct {
	Method      string   `json:"method" yaml:"method"`
	Header      []Header `json:"header" yaml:"header"`
	Body        *Body    `json:"body,omitempty" yaml:"body,omitempty"`
	URL         URL      `json:"url" yaml:"url"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Header is a request or response header.
type Header struct {
	Key         string `json:"key" yaml:"key"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Disabled    bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// URL is a structured request URL.
type URL struct {
	Raw      string       `json:"raw" yaml:"raw"`
	Protocol string       `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Host     []string     `json:"host,omitempty" yaml:"host,omitempty"`
	Port     string       `json:"port,omitempty" yaml:"port,omitempty"`
	Path     []string     `json:"path,omitempty" yaml:"path,omitempty"`
	Query    []QueryParam `json:"query,omitempty" yaml:"query,omitempty"`
	Variable []Variable   `json:"variable,omitempty" yaml:"variable,omitempty"`
}

// QueryParam is one query string entry.
type QueryParam struct {
	Key         string `json:"key" yaml:"key"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Disabled    bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Variable is a path variable or a collection variable.
type Variable struct {
	Key         string `json:"key" yaml:"key"`
	Value       string `json:"value" yaml:"value"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Body modes.
const (
	ModeRaw        = "raw"
	ModeURLEncoded = "urlencoded"
	ModeFormData   = "formdata"
)

// Body is a request body.
type Body struct {
	Mode       string       `json:"mode" yaml:"mode"`
	Raw        *string      `json:"raw,omitempty" yaml:"raw,omitempty"`
	URLEncoded []FormField  `json:"urlencoded,omitempty" yaml:"urlencoded,omitempty"`
	FormData   []FormField  `json:"formdata,omitempty" yaml:"formdata,omitempty"`
	Options    *BodyOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

// FormField is one urlencoded or multipart field.
type FormField struct {
	Key         string `json:"key" yaml:"key"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
	Src         string `json:"src,omitempty" yaml:"src,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type" yaml:"type"`
}

// BodyOptions selects the raw body language.
type BodyOptions struct {
	Raw RawOptions `json:"raw" yaml:"raw"`
}

// RawOptions names the editor language for a raw body.
type RawOptions struct {
	Language string `json:"language" yaml:"language"`
}

// Response is a saved example response.
type Response struct {
	Name            string          `json:"name" yaml:"name"`
	OriginalRequest OriginalRequest `json:"originalRequest" yaml:"originalRequest"`
	Status          string          `json:"status" yaml:"status"`
	Code            int             `json:"code" yaml:"code"`
	PreviewLanguage string          `json:"_postman_previewlanguage" yaml:"_postman_previewlanguage"`
	Header          []Header        `json:"header" yaml:"header"`
	Cookie          []Cookie        `json:"cookie" yaml:"cookie"`
	Body            string          `json:"body" yaml:"body"`
}

// OriginalRequest is the request shape stored alongside a saved response.
type OriginalRequest struct {
	Method string   `json:"method" yaml:"method"`
	Header []Header `json:"header" yaml:"header"`
	URL    URL      `json:"url" yaml:"url"`
}

// Cookie is a response cookie. Generated examples never carry any.
type Cookie struct {
	Domain string `json:"domain" yaml:"domain"`
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
}

// Clone returns a deep copy of the item so folders never share slices.
func (it Item) Clone() Item {
	out := it
	if it.ProtocolProfileBehavior != nil {
		pb := *it.ProtocolProfileBehavior
		out.ProtocolProfileBehavior = &pb
	}
	out.Request = it.Request.clone()
	out.Response = cloneSlice(it.Response, func(r Response) Response {
		r.OriginalRequest.Header = cloneSlice(r.OriginalRequest.Header, same[Header])
		r.OriginalRequest.URL = r.OriginalRequest.URL.clone()
		r.Header = cloneSlice(r.Header, same[Header])
		r.Cookie = cloneSlice(r.Cookie, same[Cookie])
		return r
	})
	return out
}

func (r Request) clone() Request {
	out := r
	out.Header = cloneSlice(r.Header, same[Header])
	out.URL = r.URL.clone()
	if r.Body != nil {
		b := *r.Body
		if r.Body.Raw != nil {
			raw := *r.Body.Raw
			b.Raw = &raw
		}
		b.URLEncoded = cloneSlice(r.Body.URLEncoded, same[FormField])
		b.FormData = cloneSlice(r.Body.FormData, same[FormField])
		if r.Body.Options != nil {
			opts := *r.Body.Options
			b.Options = &opts
		}
		out.Body = &b
	}
	return out
}

func (u URL) clone() URL {
	out := u
	out.Host = cloneSlice(u.Host, same[string])
	out.Path = cloneSlice(u.Path, same[string])
	out.Query = cloneSlice(u.Query, same[QueryParam])
	out.Variable = cloneSlice(u.Variable, same[Variable])
	return out
}

func same[T any](v T) T { return v }

// cloneSlice keeps nil and empty slices distinct so omitempty and
// always-present fields marshal the same way after a copy.
func cloneSlice[T any](in []T, fn func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
