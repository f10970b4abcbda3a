package pipeline

import "fmt"

// AnonymousSubject is used when a payload carries no subject identity.
const AnonymousSubject = "anonymous"

// contentKeys are tried in order when the payload is a map.
var contentKeys = []string{"content", "message", "prompt", "query", "text", "input"}

// ExtractContent pulls the checkable text out of a raw request
// payload. Strings pass through; maps are probed for the well-known
// content keys and stringified whole as a last resort.
func ExtractContent(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		for _, key := range contentKeys {
			if val, ok := v[key]; ok {
				if s := stringify(val); s != "" {
					return s
				}
			}
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// ExtractSubject pulls the subject identity out of a raw request
// payload, falling back to AnonymousSubject.
func ExtractSubject(raw any) string {
	if m, ok := raw.(map[string]any); ok {
		for _, key := range []string{"user_id", "userId"} {
			if val, ok := m[key]; ok {
				if s := stringify(val); s != "" {
					return s
				}
			}
		}
	}
	return AnonymousSubject
}

func stringify(val any) string {
	if val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprint(val)
}
