package model

import (
	"strconv"
	"strings"
)

// Payload is opaque metadata attached to graph nodes. The explorer passes it
// through untouched apart from the cached summary.
type Payload map[string]any

// String returns the first non-empty string value among keys. Keys are tried
// exactly first, then case-insensitively.
func (p Payload) String(keys ...string) string {
	for _, k := range keys {
		if s := asString(p[k]); s != "" {
			return s
		}
	}
	for _, k := range keys {
		for pk, v := range p {
			if strings.EqualFold(pk, k) {
				if s := asString(v); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// Strings returns the first list value among keys. A comma separated string
// is split.
func (p Payload) Strings(keys ...string) []string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case []string:
			if len(v) > 0 {
				return v
			}
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s := asString(item); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if parts := SplitList(v); len(parts) > 0 {
				return parts
			}
		}
	}
	return nil
}

// Int returns an integer value for key. JSON numbers and digit-only strings
// are accepted.
func (p Payload) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	}
	return ""
}
