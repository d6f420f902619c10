// Package resolve finds fields in legacy rows whose column names vary from
// one shop schema to the next.
package resolve

import (
	"strings"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

// Record is anything with ordered keys and lookup. *types.Row satisfies it.
type Record interface {
	Keys() []string
	Get(name string) (types.Value, bool)
}

// Field returns the value of the first key matching one of patterns.
// Patterns are tried in order; for each, an exact key match is tried, then
// a case-insensitive match, then the first key (in record order) that
// contains the pattern case-insensitively. The first key found wins even
// when its value is NULL.
func Field(rec Record, patterns ...string) (types.Value, bool) {
	key, ok := Key(rec, patterns...)
	if !ok {
		return types.Null(), false
	}
	return rec.Get(key)
}

// Key is Field but returns the matched key name
func Key(rec Record, patterns ...string) (string, bool) {
	if rec == nil {
		return "", false
	}
	keys := rec.Keys()

	for _, pattern := range patterns {
		if _, ok := rec.Get(pattern); ok {
			return pattern, true
		}

		lower := strings.ToLower(pattern)
		for _, key := range keys {
			if strings.ToLower(key) == lower {
				return key, true
			}
		}

		for _, key := range keys {
			if key == types.TableKey {
				continue
			}
			if strings.Contains(strings.ToLower(key), lower) {
				return key, true
			}
		}
	}
	return "", false
}

// Text resolves a field and returns its trimmed text; NULL and missing
// fields give ""
func Text(rec Record, patterns ...string) string {
	v, ok := Field(rec, patterns...)
	if !ok || v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// HasAny reports whether any pattern resolves against rec
func HasAny(rec Record, patterns ...string) bool {
	_, ok := Key(rec, patterns...)
	return ok
}
