package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, env map[string]string) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	store.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestConfigStore_SetPersistsNestedTables(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("llm.model", "gemini-flash-latest"))
	require.NoError(t, store.Set("llm.temperature", 0.3))
	require.NoError(t, store.Set("top_k", int64(5)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, "gemini-flash-latest", reloaded.GetString("llm.model"))
	assert.InDelta(t, 0.3, reloaded.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, 5, reloaded.GetInt("top_k"))
	assert.Equal(t, []string{"llm.model", "llm.temperature", "top_k"}, reloaded.Keys())
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
city = "Portland"
rate_limit_delay = "750ms"
categories = ["tourism.sights", "entertainment.museum"]

[session]
ttl = "2h"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "Portland", store.GetString("city"))
	assert.Equal(t, 750*time.Millisecond, store.GetDuration("rate_limit_delay"))
	assert.Equal(t, "tourism.sights,entertainment.museum", store.GetString("categories"))
	assert.Equal(t, 2*time.Hour, store.GetDuration("session.ttl"))
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"TRAVELRAG_LLM_MODEL": "claude-3-5-haiku-latest",
		"TRAVELRAG_TOP_K":     "7",
		"GOOGLE_API_KEY":      "g-key",
		"GEOAPIFY_API_KEY":    "geo",
	})
	require.NoError(t, store.Set("llm.model", "from-file"))

	assert.Equal(t, "claude-3-5-haiku-latest", store.GetString("llm.model"))
	assert.Equal(t, 7, store.GetInt("top_k"))
	assert.Equal(t, "g-key", store.GetString("gemini_api_key"))
	assert.Equal(t, "geo", store.GetString("geoapify_api_key"))
	assert.Empty(t, store.GetString("anthropic_api_key"))
}

func TestConfigStore_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "TRAVELRAG_LLM_MAX_TOKENS", EnvName("llm.max_tokens"))
	assert.Equal(t, "TRAVELRAG_DATA_DIR", EnvName("data_dir"))
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{"a.b": 1, "a.c": 2, "d": 3})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 1, "c": 2}, "d": 3}, nested)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c": 2, "d": 3}, flattenMap(nested, ""))
}
