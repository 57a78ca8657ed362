package convert

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/postman"
)

// fallbackBaseURL is used when neither an override nor a server is declared.
const fallbackBaseURL = "https://api.example.com"

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// BuildURL templates the request URL for pathPattern.
//
// Absolute patterns are used as written; relative ones are joined onto
// baseURL with exactly one slash. Whole-segment {name} tokens become :name
// path variables. Query parameters come from the declared "query"
// parameters first, then from any literal query string whose key is not
// already declared.
func BuildURL(pathPattern, baseURL string, params []*openapi.Parameter) postman.URL {
	raw := joinURL(baseURL, pathPattern)
	protocol, hostport, path, query := splitURL(raw)

	u := postman.URL{Raw: raw, Protocol: protocol}
	if hostport != "" {
		host, port := splitHostPort(hostport)
		u.Host = strings.Split(host, ".")
		u.Port = port
	}

	pathDocs := map[string]string{}
	for _, p := range params {
		if p.In == openapi.InPath {
			pathDocs[p.Name] = p.Description
		}
	}

	seenVar := map[string]bool{}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if name, ok := templateToken(seg); ok {
			u.Path = append(u.Path, ":"+name)
			if seenVar[name] {
				continue
			}
			seenVar[name] = true
			desc := pathDocs[name]
			if desc == "" {
				desc = "Path parameter: " + name
			}
			u.Variable = append(u.Variable, postman.Variable{Key: name, Value: "", Description: desc})
			continue
		}
		u.Path = append(u.Path, seg)
	}

	declared := map[string]bool{}
	for _, p := range params {
		if p.In != openapi.InQuery {
			continue
		}
		declared[p.Name] = true
		u.Query = append(u.Query, postman.QueryParam{
			Key:         p.Name,
			Value:       formatValue(p.Example),
			Description: p.Description,
			Disabled:    !p.Required,
		})
	}
	for _, kv := range parseQuery(query) {
		if declared[kv[0]] {
			continue
		}
		u.Query = append(u.Query, postman.QueryParam{Key: kv[0], Value: kv[1]})
	}
	return u
}

// joinURL joins base and path with a single slash unless path is absolute.
func joinURL(base, path string) string {
	if schemePrefix.MatchString(path) {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// splitURL separates protocol, host[:port], path and query. The fragment
// is dropped. Brace tokens are left alone, which url.Parse would escape.
func splitURL(raw string) (protocol, hostport, path, query string) {
	rest := raw
	if i := strings.Index(rest, "#"); i >= 0 {
		rest = rest[:i]
	}
	if m := schemePrefix.FindString(rest); m != "" {
		protocol = strings.TrimSuffix(m, "://")
		rest = rest[len(m):]
		end := strings.IndexAny(rest, "/?")
		if end < 0 {
			end = len(rest)
		}
		hostport = rest[:end]
		if at := strings.LastIndex(hostport, "@"); at >= 0 {
			hostport = hostport[at+1:]
		}
		rest = rest[end:]
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		query = rest[i+1:]
		rest = rest[:i]
	}
	return protocol, hostport, rest, query
}

func splitHostPort(hostport string) (string, string) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, ""
	}
	return host, port
}

func templateToken(seg string) (string, bool) {
	if len(seg) < 3 || seg[0] != '{' || seg[len(seg)-1] != '}' {
		return "", false
	}
	name := seg[1 : len(seg)-1]
	if strings.ContainsAny(name, "{}") {
		return "", false
	}
	return name, true
}

// parseQuery splits a literal query string into ordered key/value pairs.
func parseQuery(q string) [][2]string {
	var out [][2]string
	for _, part := range strings.Split(q, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		out = append(out, [2]string{unescape(k), unescape(v)})
	}
	return out
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// resolveBaseURL picks the override, then the first server, then the
// fallback host. Server variables take their defaults; relative server
// URLs are joined onto the fallback host.
func resolveBaseURL(override string, servers []openapi.Server) string {
	candidate := strings.TrimSpace(override)
	if candidate == "" && len(servers) > 0 {
		candidate = strings.TrimSpace(servers[0].URL)
		if vars := servers[0].Variables; len(vars) > 0 {
			pairs := make([]string, 0, 2*len(vars))
			for _, v := range vars {
				pairs = append(pairs, "{"+v.Name+"}", v.Default)
			}
			// One pass: defaults are not rescanned for other placeholders.
			candidate = strings.NewReplacer(pairs...).Replace(candidate)
		}
	}
	switch {
	case candidate == "":
		return fallbackBaseURL
	case schemePrefix.MatchString(candidate):
		return strings.TrimRight(candidate, "/")
	case strings.HasPrefix(candidate, "/"):
		return strings.TrimRight(joinURL(fallbackBaseURL, candidate), "/")
	default:
		return "https://" + strings.TrimRight(candidate, "/")
	}
}
