package response

import (
	"encoding/json"
	"strings"
)

// Normalize cleans a payload recursively. Strings lose newlines and surrounding
// space; a string holding a JSON object or array is decoded and cleaned in turn.
// Normalize(Normalize(x)) equals Normalize(x).
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case string:
		s := NormalizeText(t)
		if decoded, ok := decodeComposite(s); ok {
			return Normalize(decoded)
		}
		return s
	default:
		return v
	}
}

// NormalizeText is the string-only part of Normalize; it never decodes.
func NormalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", ""))
}

func decodeComposite(s string) (interface{}, bool) {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, false
	}
	switch decoded.(type) {
	case map[string]interface{}, []interface{}:
		return decoded, true
	}
	return nil, false
}
