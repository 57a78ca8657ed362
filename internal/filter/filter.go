// Package filter decides which operations are converted and masks
// sensitive values in generated examples.
package filter

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yourorg/oas2postman/internal/config"
	"github.com/yourorg/oas2postman/internal/openapi"
)

// FilterConfig is an alias of config.FilterConfig.
type FilterConfig = config.FilterConfig

// Rules selects operations by path pattern, tag and deprecation.
type Rules struct {
	ignorePaths    []string
	include        map[string]struct{}
	exclude        map[string]struct{}
	skipDeprecated bool
}

// NewRules compiles cfg. Invalid glob patterns are reported up front.
func NewRules(cfg FilterConfig) (*Rules, error) {
	r := &Rules{
		include:        toLowerSet(cfg.IncludeTags),
		exclude:        toLowerSet(cfg.ExcludeTags),
		skipDeprecated: cfg.SkipDeprecated,
	}
	for _, p := range cfg.IgnorePaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, &InvalidPatternError{Pattern: p}
		}
		r.ignorePaths = append(r.ignorePaths, p)
	}
	return r, nil
}

// InvalidPatternError reports a malformed ignore_paths entry.
type InvalidPatternError struct {
	Pattern string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid ignore_paths pattern %q", e.Pattern)
}

// Empty reports whether the rules accept every operation.
func (r *Rules) Empty() bool {
	return r == nil || (len(r.ignorePaths) == 0 && len(r.include) == 0 && len(r.exclude) == 0 && !r.skipDeprecated)
}

// Allow reports whether the operation at path should be converted.
func (r *Rules) Allow(path string, op *openapi.Operation) bool {
	if r == nil {
		return true
	}
	if hasIgnoredPath(path, r.ignorePaths) {
		return false
	}
	if r.skipDeprecated && op.Deprecated {
		return false
	}
	if len(r.exclude) > 0 && anyTagIn(op.Tags, r.exclude) {
		return false
	}
	if len(r.include) > 0 && !anyTagIn(op.Tags, r.include) {
		return false
	}
	return true
}

// hasIgnoredPath matches path against doublestar patterns. A pattern with
// no glob meta characters also matches as a path prefix.
func hasIgnoredPath(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		if !strings.ContainsAny(pattern, "*?[{") && strings.HasPrefix(p, pattern) {
			return true
		}
	}
	return false
}

func anyTagIn(tags []string, set map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := set[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
