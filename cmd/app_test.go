package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/pkg/watcher"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	for _, k := range []string{"OLLAMA_BASE_URL", "DATABASE_URL", "GEMINI_API_KEY", "EXAMAID_STRATEGY"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestReadFileOrDefault(t *testing.T) {
	got, err := readFileOrDefault("", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q: %s"), 0o644))
	got, err = readFileOrDefault(path, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Q: %s", got)

	_, err = readFileOrDefault(filepath.Join(t.TempDir(), "missing.txt"), "fallback")
	assert.Error(t, err)
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
watcher:
  strategy: "telepathy"
rag:
  top_k: -1
`)

	_, err := newApp(&Globals{Config: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watcher.strategy")
	assert.Contains(t, err.Error(), "rag.top_k")
}

func TestNewAppLogLevelOverride(t *testing.T) {
	path := writeConfig(t, "log:\n  level: error\n")

	a, err := newApp(&Globals{Config: path, LogLevel: "debug"})
	require.NoError(t, err)
	assert.True(t, a.log.Enabled(context.Background(), -4))

	a, err = newApp(&Globals{Config: path})
	require.NoError(t, err)
	assert.False(t, a.log.Enabled(context.Background(), 0))
}

func TestNewSynthesizerRejectsBadPrompt(t *testing.T) {
	prompt := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(prompt, []byte("no placeholder"), 0o644))
	path := writeConfig(t, "watcher:\n  text_prompt_file: "+prompt+"\n")

	a, err := newApp(&Globals{Config: path})
	require.NoError(t, err)

	_, err = a.newSynthesizer(context.Background(), watcher.StrategyOCR)
	assert.ErrorContains(t, err, "invalid text prompt")
}

func TestNewPipeline(t *testing.T) {
	path := writeConfig(t, "watcher:\n  strategy: vision\n  clipboard: text\n")

	a, err := newApp(&Globals{Config: path})
	require.NoError(t, err)

	p, err := a.newPipeline(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, p.State().Running())
}

func TestSQLiteIndexByDefault(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "rag:\n  index_path: "+filepath.Join(dir, "nested", "index.db")+"\n")

	a, err := newApp(&Globals{Config: path})
	require.NoError(t, err)

	index, closeIndex, err := a.openIndex(context.Background())
	require.NoError(t, err)
	defer closeIndex()

	assert.Equal(t, "nomic-embed-text", index.Model())
	_, err = os.Stat(filepath.Join(dir, "nested", "index.db"))
	assert.NoError(t, err)
}

func TestDocumentList(t *testing.T) {
	docs := documentList{{Name: "a.md"}, {Name: "b.md"}}
	got, err := docs.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Document(docs), got)
}

func TestGetLogger(t *testing.T) {
	ctx := context.Background()
	assert.True(t, getLogger("debug").Enabled(ctx, -4))
	assert.False(t, getLogger("warn").Enabled(ctx, 0))
	assert.True(t, getLogger("unknown").Enabled(ctx, 0))
}
