package ai

import "strings"

// SanitizeModelID cleans a model id pasted into a dashboard or request:
// surrounding whitespace and quotes are removed and any ":revision" suffix is
// dropped. The result is a fixpoint, so sanitizing twice changes nothing.
// Empty input is returned as is.
func SanitizeModelID(id string) string {
	if id == "" {
		return id
	}
	for {
		next := strings.TrimSpace(id)
		next = strings.TrimPrefix(strings.TrimSuffix(next, `"`), `"`)
		next = strings.TrimPrefix(strings.TrimSuffix(next, `'`), `'`)
		if i := strings.IndexByte(next, ':'); i >= 0 {
			next = next[:i]
		}
		if next == id {
			return id
		}
		id = next
	}
}

// ResolveModelID picks the first non-blank candidate and sanitizes it.
func ResolveModelID(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return SanitizeModelID(c)
		}
	}
	return ""
}
