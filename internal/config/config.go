package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL      = "https://api.z.ai/api/anthropic"
	DefaultAuthTokenEnv = "GLM_AUTH_TOKEN"
)

// ErrNoToken is returned when neither the config files nor the environment
// provide an auth token.
var ErrNoToken = errors.New("no auth token configured")

type PollingConfig struct {
	ActiveIntervalSeconds int `json:"active_interval_seconds" yaml:"active_interval_seconds"`
	IdleIntervalSeconds   int `json:"idle_interval_seconds" yaml:"idle_interval_seconds"`
	IdleThresholdSeconds  int `json:"idle_threshold_seconds" yaml:"idle_threshold_seconds"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

func (p PollingConfig) ActiveInterval() time.Duration {
	return time.Duration(p.ActiveIntervalSeconds) * time.Second
}

func (p PollingConfig) IdleInterval() time.Duration {
	return time.Duration(p.IdleIntervalSeconds) * time.Second
}

func (p PollingConfig) IdleThreshold() time.Duration {
	return time.Duration(p.IdleThresholdSeconds) * time.Second
}

func (p PollingConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

type HistoryConfig struct {
	Capacity     int `json:"capacity" yaml:"capacity"`
	PersistLimit int `json:"persist_limit" yaml:"persist_limit"`
	PersistEvery int `json:"persist_every" yaml:"persist_every"`
	WindowHours  int `json:"window_hours" yaml:"window_hours"`
}

func (h HistoryConfig) Window() time.Duration {
	return time.Duration(h.WindowHours) * time.Hour
}

type UIConfig struct {
	WarnPercent float64 `json:"warn_percent" yaml:"warn_percent"`
	CritPercent float64 `json:"crit_percent" yaml:"crit_percent"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // console or json
}

type Config struct {
	AuthToken      string        `json:"auth_token,omitempty" yaml:"auth_token,omitempty"`
	AuthTokenEnv   string        `json:"auth_token_env" yaml:"auth_token_env"`
	BaseURL        string        `json:"base_url" yaml:"base_url"`
	InstallationID string        `json:"installation_id,omitempty" yaml:"installation_id,omitempty"`
	HTTPAddr       string        `json:"http_addr,omitempty" yaml:"http_addr,omitempty"`
	Notifications  bool          `json:"notifications" yaml:"notifications"`
	Polling        PollingConfig `json:"polling" yaml:"polling"`
	History        HistoryConfig `json:"history" yaml:"history"`
	UI             UIConfig      `json:"ui" yaml:"ui"`
	Log            LogConfig     `json:"log" yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		AuthTokenEnv:  DefaultAuthTokenEnv,
		BaseURL:       DefaultBaseURL,
		Notifications: true,
		Polling: PollingConfig{
			ActiveIntervalSeconds: 10,
			IdleIntervalSeconds:   30,
			IdleThresholdSeconds:  60,
			RequestTimeoutSeconds: 30,
		},
		History: HistoryConfig{
			Capacity:     1440,
			PersistLimit: 100,
			PersistEvery: 10,
			WindowHours:  24,
		},
		UI: UIConfig{
			WarnPercent: 70,
			CritPercent: 90,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "glmusage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "glmusage")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. A missing file yields defaults. Files
// ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.AuthTokenEnv) == "" {
		cfg.AuthTokenEnv = def.AuthTokenEnv
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Polling.ActiveIntervalSeconds <= 0 {
		cfg.Polling.ActiveIntervalSeconds = def.Polling.ActiveIntervalSeconds
	}
	if cfg.Polling.IdleIntervalSeconds <= 0 {
		cfg.Polling.IdleIntervalSeconds = def.Polling.IdleIntervalSeconds
	}
	if cfg.Polling.IdleThresholdSeconds <= 0 {
		cfg.Polling.IdleThresholdSeconds = def.Polling.IdleThresholdSeconds
	}
	if cfg.Polling.RequestTimeoutSeconds <= 0 {
		cfg.Polling.RequestTimeoutSeconds = def.Polling.RequestTimeoutSeconds
	}
	if cfg.History.Capacity <= 0 {
		cfg.History.Capacity = def.History.Capacity
	}
	if cfg.History.PersistLimit <= 0 {
		cfg.History.PersistLimit = def.History.PersistLimit
	}
	if cfg.History.PersistEvery <= 0 {
		cfg.History.PersistEvery = def.History.PersistEvery
	}
	if cfg.History.WindowHours <= 0 {
		cfg.History.WindowHours = def.History.WindowHours
	}
	if cfg.UI.WarnPercent <= 0 {
		cfg.UI.WarnPercent = def.UI.WarnPercent
	}
	if cfg.UI.CritPercent <= 0 {
		cfg.UI.CritPercent = def.UI.CritPercent
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ResolveToken picks the auth token: the config file value, then the stored
// credential, then the configured environment variable.
func (c Config) ResolveToken(creds Credentials) (string, error) {
	if token := strings.TrimSpace(c.AuthToken); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(creds.AuthToken); token != "" {
		return token, nil
	}
	env := c.AuthTokenEnv
	if env == "" {
		env = DefaultAuthTokenEnv
	}
	if token := strings.TrimSpace(os.Getenv(env)); token != "" {
		return token, nil
	}
	return "", ErrNoToken
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// The file may carry a token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// EnsureInstallationID returns the installation id stored at path,
// generating and saving one on first use.
func EnsureInstallationID(path string) (string, error) {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		return "", err
	}
	if cfg.InstallationID != "" {
		return cfg.InstallationID, nil
	}
	cfg.InstallationID = uuid.NewString()
	if err := SaveTo(path, cfg); err != nil {
		return "", err
	}
	return cfg.InstallationID, nil
}

// UpdateTo applies fn to the config at path and saves the result.
func UpdateTo(path string, fn func(*Config)) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	fn(&cfg)
	return SaveTo(path, cfg)
}
