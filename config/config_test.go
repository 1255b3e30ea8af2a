package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "BOLT_API_KEY", "OLLAMA_URL", "BOLT_OLLAMA_URL", "BOLT_PROVIDER", "BOLT_MODEL", "BOLT_THEME", "BOLT_BOT_NAME", "BOLT_REQUEST_TIMEOUT", "BOLT_MAX_RETRIES"} {
		t.Setenv(key, "")
	}
}

func TestSettingsMissingAPIKey(t *testing.T) {
	clearEnv(t)

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.Settings()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Key)
	assert.Contains(t, cfgErr.Hint(), "export GEMINI_API_KEY")
}

func TestSettingsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "  secret  ")
	dir := t.TempDir()

	m, err := NewManager(dir)
	require.NoError(t, err)

	s, err := m.Settings()
	require.NoError(t, err)
	assert.Equal(t, "gemini", s.Provider)
	assert.Equal(t, "gemini-2.5-flash", s.Model)
	assert.Equal(t, "secret", s.APIKey)
	assert.Equal(t, "Bolt", s.BotName)
	assert.Equal(t, "bolt", s.Theme)
	assert.Equal(t, filepath.Join(dir, "sessions"), s.HistoryDir)
	assert.Equal(t, filepath.Join(dir, "bolt.log"), s.LogFile)
	assert.False(t, s.Debug)
	assert.Equal(t, time.Duration(0), s.Timeout)
	assert.Equal(t, 3, s.MaxRetries)
}

func TestSettingsLayering(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "secret")
	dir := t.TempDir()

	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, m.SetDefaults("ollama", "llava:13b"))

	// Persisted values are picked up by a fresh manager
	m, err = NewManager(dir)
	require.NoError(t, err)
	s, err := m.Settings()
	require.NoError(t, err)
	assert.Equal(t, "ollama", s.Provider)
	assert.Equal(t, "llava:13b", s.Model)
	assert.Equal(t, "http://localhost:11434", s.OllamaURL)

	// Environment beats the config file
	t.Setenv("BOLT_MODEL", "bakllava")
	s, err = m.Settings()
	require.NoError(t, err)
	assert.Equal(t, "bakllava", s.Model)

	// Explicit flags beat everything
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("provider", "", "")
	flags.String("model", "", "")
	flags.BoolP("verbose", "v", false, "")
	require.NoError(t, m.BindFlags(flags))
	require.NoError(t, flags.Parse([]string{"--provider", "GEMINI", "--model", "gemini-2.5-pro", "-v"}))

	s, err = m.Settings()
	require.NoError(t, err)
	assert.Equal(t, "gemini", s.Provider)
	assert.Equal(t, "gemini-2.5-pro", s.Model)
	assert.True(t, s.Debug)
}

func TestSettingsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOLT_PROVIDER", "openai")

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.Settings()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "provider", cfgErr.Key)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", DefaultModel("Gemini"))
	assert.Equal(t, "llava", DefaultModel("ollama"))
	assert.Equal(t, "default", DefaultModel("unknown"))
}

func TestLoadRejectsCorruptConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644))

	_, err := NewManager(dir)
	assert.Error(t, err)
}

func TestPersistedThemeAndTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("BOLT_REQUEST_TIMEOUT", "45s")
	dir := t.TempDir()

	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, m.SetTheme("dracula"))
	assert.Equal(t, dir, m.Dir())

	m, err = NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, Config{Theme: "dracula"}, m.Config())

	s, err := m.Settings()
	require.NoError(t, err)
	assert.Equal(t, "dracula", s.Theme)
	assert.Equal(t, 45*time.Second, s.Timeout)
}

func TestIsProvider(t *testing.T) {
	assert.True(t, IsProvider("Ollama"))
	assert.True(t, IsProvider("gemini"))
	assert.False(t, IsProvider("openai"))
}
