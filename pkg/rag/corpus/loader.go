package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fastpai-be/internal/pkg/logger"
)

var (
	municipalityKeys = []string{"municipality", "comune", "city"}
	scheduleKeys     = []string{"schedule", "date_orari", "date-orari"}
	requirementKeys  = []string{"requirements", "need_to_do", "info"}
)

type record struct {
	PageContent string                 `json:"page_content"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// LoadDirectory reads every *.json record in dir. Bad records are skipped with a
// warning; only an unreadable directory is an error.
func LoadDirectory(dir string, log logger.ILogger) ([]ServiceDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]ServiceDocument, 0, len(names))
	for _, name := range names {
		doc, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("Corpus", "Skipping document", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			continue
		}
		doc.ID = strings.TrimSuffix(name, filepath.Ext(name))
		docs = append(docs, *doc)
	}

	log.Info("Corpus", "Documents loaded", map[string]interface{}{
		"dir":     dir,
		"loaded":  len(docs),
		"skipped": len(names) - len(docs),
	})

	return docs, nil
}

func loadFile(path string) (*ServiceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a single record and resolves its metadata aliases.
func Parse(data []byte) (*ServiceDocument, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	content := strings.TrimSpace(rec.PageContent)
	if content == "" {
		content = strings.TrimSpace(rec.Content)
	}
	if content == "" {
		return nil, fmt.Errorf("record has no content")
	}

	municipality, _ := lookup(rec.Metadata, municipalityKeys).(string)
	municipality = CanonicalMunicipality(municipality)
	if municipality == "" {
		return nil, fmt.Errorf("record has no municipality")
	}

	return &ServiceDocument{
		Content: content,
		Metadata: Metadata{
			Municipality: municipality,
			Schedule:     decodeString(lookup(rec.Metadata, scheduleKeys)),
			Requirements: lookup(rec.Metadata, requirementKeys),
			Raw:          rec.Metadata,
		},
	}, nil
}

func lookup(m map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// decodeString unwraps a schedule that was stored as a JSON-encoded string.
func decodeString(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return v
	}
	return decoded
}
