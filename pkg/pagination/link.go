package pagination

import (
	"net/http"
	"net/url"
	"strings"
)

// parseLinkNext extracts the target of rel="next" from RFC 5988 Link headers.
// Returns false if no next relation is present.
//
// Format: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
//
// Targets are delimited by angle brackets, not commas: a target may itself
// contain commas (e.g. labels=bug,ui).
func parseLinkNext(headers http.Header) (string, bool) {
	for _, header := range headers.Values("Link") {
		rest := header
		for {
			open := strings.IndexByte(rest, '<')
			if open < 0 {
				break
			}
			closing := strings.IndexByte(rest[open+1:], '>')
			if closing < 0 {
				break
			}
			target := rest[open+1 : open+1+closing]
			rest = rest[open+closing+2:]

			end := paramsEnd(rest)
			for _, param := range strings.Split(rest[:end], ";") {
				if isNextRelation(param) {
					return target, true
				}
			}
			rest = rest[end:]
		}
	}
	return "", false
}

// paramsEnd returns the index of the comma that ends a link-value's
// parameters, ignoring commas inside quoted strings, or len(s).
func paramsEnd(s string) int {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				return i
			}
		}
	}
	return len(s)
}

// isNextRelation reports whether a link parameter is rel="next".
// A rel value may list several space-separated relation types.
func isNextRelation(param string) bool {
	name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(name), "rel") {
		return false
	}
	value = strings.Trim(strings.TrimSpace(value), `"`)
	for _, rel := range strings.Fields(value) {
		if strings.EqualFold(rel, "next") {
			return true
		}
	}
	return false
}

// validateNext checks that a next link is an absolute URI.
func validateNext(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return errRelativeLink
	}
	return nil
}
