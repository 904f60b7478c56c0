// File: internal/config/config.go

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Paths holds all relevant filesystem paths for the agent, resolved
// per-platform the way the teacher's ConfigPaths/GetConfigPaths does.
type Paths struct {
	BaseDir    string // base config directory
	DataDir    string // application data directory
	LogDir     string // log files
	RunDir     string // lock files / pid-equivalent state
	CacheDir   string // runtime cache (alert audit DB, etc.)
	ConfigFile string // path to the YAML tunables file
}

// LogConfig controls the ambient zap logger (internal/logging).
type LogConfig struct {
	Level             string `yaml:"level"`
	EnableFileLogging bool   `yaml:"enable_file_logging"`
	Format            string `yaml:"format"` // "json" or "text"
}

// SMTPConfig holds the non-secret SMTP relay settings; credentials live in
// the environment (EMAIL_SENDER/EMAIL_PASSWORD/EMAIL_RECEIVER), never here.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config holds all non-secret, operator-tunable agent configuration.
// Policy sets (AllowedApps, BrowserApps, ...) are NOT here — they are
// compiled-in constants in internal/policy, per base spec §6.
type Config struct {
	DeviceID   string `yaml:"device_id"`
	DeviceName string `yaml:"device_name"`

	Log  LogConfig  `yaml:"log"`
	SMTP SMTPConfig `yaml:"smtp"`

	// AppPollInterval is C2's foreground-app poll cadence on platforms
	// without a native activation notification.
	AppPollInterval time.Duration `yaml:"app_poll_interval"`

	// WatchdogTickInterval is C9's per-tick cadence (base spec §4.9: ~150ms).
	WatchdogTickInterval time.Duration `yaml:"watchdog_tick_interval"`

	// WatchdogIdleInterval is C9's idle-sleep cadence when held_item is
	// absent (base spec §4.9: 300ms).
	WatchdogIdleInterval time.Duration `yaml:"watchdog_idle_interval"`

	// BrowserAllowGraceSeconds is how long a browser destination must
	// stay allowed before the held item is dropped to allow a fresh
	// capture cycle (base spec §4.9/§9 Open Question; chosen: 5s).
	BrowserAllowGraceSeconds int `yaml:"browser_allow_grace_seconds"`

	// DelayedAlertSettle is the settle delay before the delayed-alert
	// task fires (base spec §4.8.3: ~100ms).
	DelayedAlertSettle time.Duration `yaml:"delayed_alert_settle"`

	// AlertAutoDismiss bounds how long the modal popup stays up before
	// auto-dismissing (base spec §4.5: 5-8s).
	AlertAutoDismiss time.Duration `yaml:"alert_auto_dismiss"`

	// ClassificationCacheSize bounds the LRU classification cache.
	ClassificationCacheSize int `yaml:"classification_cache_size"`

	// ReaperInterval is C6's scan cadence (base spec §4.6: >=500ms).
	ReaperInterval time.Duration `yaml:"reaper_interval"`

	// GitConfigReassertInterval is C10's poll-based reassertion cadence
	// (base spec §4.10: ~5s).
	GitConfigReassertInterval time.Duration `yaml:"git_config_reassert_interval"`

	// URLProbeTimeout bounds C3 (base spec §4.3: 300ms).
	URLProbeTimeout time.Duration `yaml:"url_probe_timeout"`

	paths Paths
}

// Paths returns the resolved filesystem paths this config was loaded with.
func (c *Config) Paths() Paths { return c.paths }

// GetPaths resolves the platform-specific base/data/log/run/cache
// directories, creating them if necessary.
func GetPaths() (Paths, error) {
	baseDir := os.Getenv("DLPAGENT_CONFIG_DIR")
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, err
		}
		switch runtime.GOOS {
		case "windows":
			baseDir = filepath.Join(dir, "DLPAgent")
		case "darwin":
			baseDir = filepath.Join(dir, "co.siguna.dlpagent")
		default:
			baseDir = filepath.Join(dir, "dlpagent")
		}
	}

	dataDir := os.Getenv("DLPAGENT_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		switch runtime.GOOS {
		case "windows":
			dataDir = filepath.Join(baseDir, "Data")
		case "darwin":
			dataDir = filepath.Join(home, "Library", "Application Support", "DLPAgent")
		default:
			if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
				dataDir = filepath.Join(xdg, "dlpagent")
			} else {
				dataDir = filepath.Join(home, ".dlpagent")
			}
		}
	}

	paths := Paths{
		BaseDir:    baseDir,
		DataDir:    dataDir,
		LogDir:     filepath.Join(dataDir, "logs"),
		RunDir:     filepath.Join(dataDir, "run"),
		CacheDir:   filepath.Join(dataDir, "cache"),
		ConfigFile: filepath.Join(baseDir, "config.yaml"),
	}

	for _, dir := range []string{paths.BaseDir, paths.DataDir, paths.LogDir, paths.RunDir, paths.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return paths, nil
}

// Default returns a Config populated with default tunables.
func Default() *Config {
	paths, _ := GetPaths()
	hostname, _ := os.Hostname()
	return &Config{
		DeviceID:                  uuid.New().String(),
		DeviceName:                hostname,
		Log:                       LogConfig{Level: "info", EnableFileLogging: true, Format: "text"},
		SMTP:                      SMTPConfig{Host: "smtp.office365.com", Port: 587},
		AppPollInterval:           200 * time.Millisecond,
		WatchdogTickInterval:      150 * time.Millisecond,
		WatchdogIdleInterval:      300 * time.Millisecond,
		BrowserAllowGraceSeconds:  5,
		DelayedAlertSettle:        100 * time.Millisecond,
		AlertAutoDismiss:          6 * time.Second,
		ClassificationCacheSize:   2048,
		ReaperInterval:            1 * time.Second,
		GitConfigReassertInterval: 5 * time.Second,
		URLProbeTimeout:           300 * time.Millisecond,
		paths:                     paths,
	}
}

// Load reads tunables from the YAML config file, creating it with defaults
// if absent, matching the teacher's Load/Save/DefaultConfig pattern.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = cfg.paths.ConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Save(path); err != nil {
				return nil, fmt.Errorf("failed to write default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Log.EnableFileLogging = parseBoolEnv("DLPAGENT_FILE_LOGGING", cfg.Log.EnableFileLogging)
	return cfg, nil
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Secrets holds the environment-provided LLM and SMTP credentials. Per base
// spec §6, missing LLM configuration at startup is fatal; missing email
// configuration is tolerated (alerts are just skipped, logged-and-swallowed
// per §4.5/§7).
type Secrets struct {
	AzureEndpoint string
	AzureKey      string
	AzureModel    string
	EmailSender   string
	EmailPassword string
	EmailReceiver string
}

// LoadSecrets reads LLM/SMTP credentials from the process environment,
// optionally populated from a .env file first (matching the original
// Python agent's dotenv usage; see DESIGN.md for why this is a small
// hand-rolled parser rather than a third-party dependency).
func LoadSecrets(envFile string) (Secrets, error) {
	if envFile == "" {
		envFile = ".env"
	}
	_ = loadDotEnv(envFile)

	s := Secrets{
		AzureEndpoint: os.Getenv("AZURE_INFERENCE_ENDPOINT"),
		AzureKey:      os.Getenv("AZURE_INFERENCE_KEY"),
		AzureModel:    os.Getenv("AZURE_INFERENCE_MODEL"),
		EmailSender:   os.Getenv("EMAIL_SENDER"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		EmailReceiver: os.Getenv("EMAIL_RECEIVER"),
	}
	if s.AzureEndpoint == "" || s.AzureKey == "" || s.AzureModel == "" {
		return s, fmt.Errorf("missing required LLM configuration: set AZURE_INFERENCE_ENDPOINT, AZURE_INFERENCE_KEY, AZURE_INFERENCE_MODEL")
	}
	return s, nil
}

// loadDotEnv populates os.Environ from a simple KEY=VALUE file, skipping
// blank lines and comments, without overwriting variables already set.
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, already := os.LookupEnv(key); !already {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// parseBoolEnv is a small helper retained for tunables that may also be
// overridden from the environment (mirrors teacher's overrideFromEnv).
func parseBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
