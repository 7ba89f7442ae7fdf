package corpus

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ServiceDocument is one public-administration service offered by one municipality.
type ServiceDocument struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Metadata holds the canonical fields used by retrieval and by the outbound payload.
// Raw keeps the record's metadata exactly as loaded; it is what the answer model sees.
type Metadata struct {
	Municipality string                 `json:"municipality"`
	Schedule     interface{}            `json:"schedule,omitempty"`
	Requirements interface{}            `json:"requirements,omitempty"`
	Raw          map[string]interface{} `json:"raw,omitempty"`
}

// CanonicalMunicipality lower-cases and trims a municipality key. Every comparison
// between a document's municipality and a user's city goes through it.
func CanonicalMunicipality(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Flatten renders the raw metadata as "key value" pairs joined by spaces, keys sorted.
func (m Metadata) Flatten() string {
	keys := make([]string, 0, len(m.Raw))
	for k := range m.Raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+render(m.Raw[k]))
	}
	return strings.Join(parts, " ")
}

func render(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
