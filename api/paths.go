package api

import (
	"net/http"
	"strings"
)

// PathRule matches a request path and, optionally, a set of methods.
// Pattern is either an exact path ("/blog") or a prefix followed by "/*"
// ("/blog/*"), which matches one or more further segments below the prefix.
// An empty Methods list matches every method.
type PathRule struct {
	Pattern string
	Methods []string
}

func (p PathRule) Matches(r *http.Request) bool {
	if !matchPath(p.Pattern, r.URL.Path) {
		return false
	}
	if len(p.Methods) == 0 {
		return true
	}
	for _, m := range p.Methods {
		if strings.EqualFold(m, r.Method) {
			return true
		}
	}
	return false
}

func matchPath(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		rest, found := strings.CutPrefix(path, prefix+"/")
		return found && strings.Trim(rest, "/") != ""
	}
	return path == pattern || path == pattern+"/"
}

func anyRuleMatches(rules []PathRule, r *http.Request) bool {
	for _, rule := range rules {
		if rule.Matches(r) {
			return true
		}
	}
	return false
}
