package instrument

import (
	"encoding/json"
	"log/slog"
	"strings"
)

const redacted = "***"

// masker redacts values whose key matches a configured field name, at any
// depth of a group, map or JSON document carried in a log attribute.
type masker struct {
	keys map[string]struct{}
}

func newMasker(fields []string) masker {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return masker{keys: keys}
}

func (m masker) empty() bool { return len(m.keys) == 0 }

func (m masker) hit(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

func (m masker) attr(a slog.Attr) slog.Attr {
	if m.hit(a.Key) {
		return slog.String(a.Key, redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = m.attr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		if s, ok := m.jsonText([]byte(v.String())); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		switch x := v.Any().(type) {
		case map[string]any, []any:
			return slog.Any(a.Key, m.value(x))
		case map[string]string:
			out := make(map[string]any, len(x))
			for k, s := range x {
				out[k] = s
			}
			return slog.Any(a.Key, m.value(out))
		case []byte:
			if s, ok := m.jsonText(x); ok {
				return slog.String(a.Key, s)
			}
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// jsonText masks a JSON object or array serialized as text. ok is false for
// anything that is not JSON so the original value is kept.
func (m masker) jsonText(raw []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.value(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (m masker) value(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, inner := range x {
			if m.hit(k) {
				out[k] = redacted
				continue
			}
			out[k] = m.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, inner := range x {
			out[i] = m.value(inner)
		}
		return out
	default:
		return v
	}
}
