package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := map[string]string{
		"passaporto_roma.json": `{"page_content": "Rinnovo del passaporto presso la questura", "metadata": {"comune": "roma"}}`,
		"tari_roma.json":       `{"page_content": "Pagamento della tassa rifiuti", "metadata": {"comune": "roma"}}`,
		"cie_bari.json":        `{"page_content": "Carta d'identità elettronica", "metadata": {"comune": "bari"}}`,
	}
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMunicipalitiesCommand(t *testing.T) {
	out, err := run(t, "municipalities", "--corpus", writeCorpus(t), "--embedder", "tfidf")
	require.NoError(t, err)
	assert.Equal(t, "bari\nroma\n", out)
}

func TestQueryCommand(t *testing.T) {
	out, err := run(t, "query", "--corpus", writeCorpus(t), "--embedder", "tfidf", "--city", "ROMA", "rinnovo passaporto")
	require.NoError(t, err)
	assert.Contains(t, out, "1. passaporto_roma")
	assert.Contains(t, out, "accepted")
	assert.Contains(t, out, "tari_roma")
}

func TestQueryCommand_UnknownCity(t *testing.T) {
	out, err := run(t, "query", "--corpus", writeCorpus(t), "--embedder", "tfidf", "--city", "milano", "passaporto")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents for this municipality")
}

func TestQueryCommand_RequiresCity(t *testing.T) {
	_, err := run(t, "query", "--corpus", writeCorpus(t), "--embedder", "tfidf", "passaporto")
	assert.Error(t, err)
}
