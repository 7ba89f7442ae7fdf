package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastpai-be/internal/pkg/logger"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cie_roma.json", `{
		"page_content": "Rilascio carta d'identità elettronica",
		"metadata": {"comune": " RM ", "date_orari": "{\"2024-05-02\": [\"09:00\", \"09:30\"]}", "need_to_do": "Portare una foto tessera"}
	}`)
	writeFile(t, dir, "tari_bari.json", `{
		"content": "Pagamento TARI",
		"metadata": {"city": "BA", "schedule": {"2024-06-01": ["10:00"]}}
	}`)
	writeFile(t, dir, "broken.json", `{"page_content": `)
	writeFile(t, dir, "no_city.json", `{"page_content": "x", "metadata": {}}`)
	writeFile(t, dir, "empty.json", `{"page_content": "  ", "metadata": {"comune": "rm"}}`)
	writeFile(t, dir, "notes.txt", `ignored`)

	log, logs := logger.NewObservedLogger()
	docs, err := LoadDirectory(dir, log)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "cie_roma", docs[0].ID)
	assert.Equal(t, "rm", docs[0].Metadata.Municipality)
	assert.Equal(t, map[string]interface{}{"2024-05-02": []interface{}{"09:00", "09:30"}}, docs[0].Metadata.Schedule)
	assert.Equal(t, "Portare una foto tessera", docs[0].Metadata.Requirements)

	assert.Equal(t, "tari_bari", docs[1].ID)
	assert.Equal(t, "ba", docs[1].Metadata.Municipality)
	assert.Equal(t, "Pagamento TARI", docs[1].Content)
	assert.Nil(t, docs[1].Metadata.Requirements)

	assert.Equal(t, 3, logs.FilterMessage("Skipping document").Len())
}

func TestLoadDirectory_Missing(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "nope"), logger.NewNopLogger())
	assert.Error(t, err)
}

func TestLoadDirectory_Empty(t *testing.T) {
	docs, err := LoadDirectory(t.TempDir(), logger.NewNopLogger())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMetadata_Flatten(t *testing.T) {
	m := Metadata{Raw: map[string]interface{}{
		"need_to_do": "Prenotare online",
		"comune":     "rm",
		"date_orari": map[string]interface{}{"lun": []interface{}{"9:00"}},
	}}
	assert.Equal(t, `comune rm date_orari {"lun":["9:00"]} need_to_do Prenotare online`, m.Flatten())
	assert.Equal(t, "", Metadata{}.Flatten())
}

func TestCanonicalMunicipality(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"RM", "rm"},
		{"  Bari ", "bari"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalMunicipality(tt.in))
	}
}
