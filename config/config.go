package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultProvider = "gemini"
	defaultBotName  = "Bolt"
	defaultTheme    = "bolt"
	defaultOllama   = "http://localhost:11434"
	defaultRetries  = 3
)

// Providers lists the supported model providers
var Providers = []string{"gemini", "ollama"}

// Config is the part of the configuration persisted between runs
type Config struct {
	DefaultProvider string `json:"default_provider"`
	DefaultModel    string `json:"default_model"`
	Theme           string `json:"theme,omitempty"`
}

// Settings is the resolved runtime configuration
type Settings struct {
	Provider   string
	Model      string
	APIKey     string
	OllamaURL  string
	BotName    string
	Theme      string
	LogFile    string
	HistoryDir string
	Debug      bool
	// Timeout bounds each model request; zero keeps the provider default
	Timeout    time.Duration
	MaxRetries int
}

// Manager handles configuration persistence and layering.
// Precedence: bound flags, environment, config.json, defaults.
type Manager struct {
	dir        string
	configPath string
	config     *Config
	v          *viper.Viper
}

// NewManager creates a config manager rooted at dir. An empty dir means ~/.bolt.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".bolt")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("BOLT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", "GEMINI_API_KEY", "BOLT_API_KEY")
	_ = v.BindEnv("ollama_url", "OLLAMA_URL", "BOLT_OLLAMA_URL")
	v.SetDefault("ollama_url", defaultOllama)
	v.SetDefault("bot_name", defaultBotName)
	v.SetDefault("log_file", filepath.Join(dir, "bolt.log"))
	v.SetDefault("history_dir", filepath.Join(dir, "sessions"))
	v.SetDefault("max_retries", defaultRetries)

	m := &Manager{
		dir:        dir,
		configPath: filepath.Join(dir, "config.json"),
		config:     &Config{},
		v:          v,
	}

	if err := m.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return m, nil
}

// Dir returns the directory holding config, logs and sessions
func (m *Manager) Dir() string {
	return m.dir
}

// BindFlags binds a cobra flag set so explicit flags win over everything else
func (m *Manager) BindFlags(flags *pflag.FlagSet) error {
	return m.v.BindPFlags(flags)
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, m.config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Config returns a copy of the persisted configuration
func (m *Manager) Config() Config {
	return *m.config
}

// SetDefaults updates the default provider and model
func (m *Manager) SetDefaults(provider, model string) error {
	m.config.DefaultProvider = provider
	m.config.DefaultModel = model
	return m.Save()
}

// SetTheme updates the persisted theme
func (m *Manager) SetTheme(theme string) error {
	m.config.Theme = theme
	return m.Save()
}

// Settings resolves and validates the runtime settings
func (m *Manager) Settings() (*Settings, error) {
	s := &Settings{
		Provider:   strings.ToLower(m.layered("provider", m.config.DefaultProvider, defaultProvider)),
		APIKey:     strings.TrimSpace(m.v.GetString("api_key")),
		OllamaURL:  m.v.GetString("ollama_url"),
		BotName:    m.v.GetString("bot_name"),
		Theme:      m.layered("theme", m.config.Theme, defaultTheme),
		LogFile:    m.v.GetString("log_file"),
		HistoryDir: m.v.GetString("history_dir"),
		Debug:      m.v.GetBool("verbose") || m.v.GetBool("debug"),
		Timeout:    m.v.GetDuration("request_timeout"),
		MaxRetries: m.v.GetInt("max_retries"),
	}
	s.Model = m.layered("model", m.config.DefaultModel, DefaultModel(s.Provider))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// layered returns the viper value for key, then the persisted value, then def
func (m *Manager) layered(key, persisted, def string) string {
	if v := strings.TrimSpace(m.v.GetString(key)); v != "" {
		return v
	}
	if persisted != "" {
		return persisted
	}
	return def
}

// Validate checks the settings required before any UI starts
func (s *Settings) Validate() error {
	switch s.Provider {
	case "gemini":
		if s.APIKey == "" {
			return &ConfigError{Key: "GEMINI_API_KEY", Reason: "no Gemini API key configured"}
		}
	case "ollama":
		if s.OllamaURL == "" {
			return &ConfigError{Key: "OLLAMA_URL", Reason: "no Ollama server URL configured"}
		}
	default:
		return &ConfigError{Key: "provider", Reason: fmt.Sprintf("unknown provider %q", s.Provider)}
	}
	if strings.TrimSpace(s.BotName) == "" {
		return &ConfigError{Key: "bot_name", Reason: "bot name must not be empty"}
	}
	if s.Timeout < 0 || s.MaxRetries < 0 {
		return &ConfigError{Key: "request_timeout", Reason: "timeout and retries must not be negative"}
	}
	return nil
}

// IsProvider reports whether name is a supported provider
func IsProvider(name string) bool {
	for _, p := range Providers {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	defaults := map[string]string{
		"gemini": "gemini-2.5-flash",
		"ollama": "llava",
	}

	if model, ok := defaults[strings.ToLower(provider)]; ok {
		return model
	}
	return "default"
}
