// Package config loads Mudra's runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultProvider    = "gemini"
	DefaultModel       = "gemini-2.0-flash-exp"
	DefaultAIQPS       = 2
	DefaultAITimeout   = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultHookTimeout = 5 * time.Second
	DefaultDataDirName = ".mudra"
)

// ErrMissingAPIKey is returned when no AI credential is configured.
var ErrMissingAPIKey = errors.New("config: GEMINI_API_KEY (or MUDRA_API_KEY) is required")

type Config struct {
	Addr      string
	DataDir   string
	DBPath    string
	StaticDir string
	CameraID  int
	Tray      bool
	LogLevel  string

	PluginDir     string
	PluginTimeout time.Duration

	AIProvider string
	AIModel    string
	AIBaseURL  string
	AIAPIKey   string
	AIQPS      int
	AITimeout  time.Duration
}

// Load reads an optional .env file, then the process environment, and
// validates the result. A missing API key is an error.
func Load() (*Config, error) {
	// .env is optional; variables may come from the shell or a service manager.
	_ = godotenv.Load()

	return parse(os.Getenv)
}

func parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Addr:       firstNonEmpty(getenv("MUDRA_ADDR"), DefaultAddr),
		DataDir:    getenv("MUDRA_DATA_DIR"),
		DBPath:     getenv("MUDRA_DB_PATH"),
		StaticDir:  getenv("MUDRA_STATIC_DIR"),
		LogLevel:   firstNonEmpty(getenv("MUDRA_LOG_LEVEL"), DefaultLogLevel),
		AIProvider: strings.ToLower(firstNonEmpty(getenv("MUDRA_AI_PROVIDER"), DefaultProvider)),
		AIModel:    getenv("MUDRA_AI_MODEL"),
		AIBaseURL:  getenv("MUDRA_AI_BASE_URL"),
		AIAPIKey:   firstNonEmpty(getenv("MUDRA_API_KEY"), getenv("GEMINI_API_KEY")),
		AIQPS:      DefaultAIQPS,
		AITimeout:  DefaultAITimeout,

		PluginDir:     getenv("MUDRA_PLUGIN_DIR"),
		PluginTimeout: DefaultHookTimeout,
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, DefaultDataDirName)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "mudra.db")
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}

	if v := getenv("MUDRA_CAMERA_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: MUDRA_CAMERA_ID must be an integer (%q): %w", v, err)
		}
		cfg.CameraID = id
	}

	if v := getenv("MUDRA_TRAY"); v != "" {
		tray, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: MUDRA_TRAY must be a boolean (%q): %w", v, err)
		}
		cfg.Tray = tray
	}

	if v := getenv("MUDRA_AI_QPS"); v != "" {
		qps, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: MUDRA_AI_QPS must be an integer (%q): %w", v, err)
		}
		cfg.AIQPS = qps
	}

	if v := getenv("MUDRA_AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: MUDRA_AI_TIMEOUT must be a duration (%q): %w", v, err)
		}
		cfg.AITimeout = d
	}

	if v := getenv("MUDRA_PLUGIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: MUDRA_PLUGIN_TIMEOUT must be a duration (%q): %w", v, err)
		}
		cfg.PluginTimeout = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.AIAPIKey) == "" {
		return ErrMissingAPIKey
	}

	switch c.AIProvider {
	case "gemini", "openai", "anthropic":
	case "compatible":
		if c.AIBaseURL == "" {
			return fmt.Errorf("config: MUDRA_AI_BASE_URL is required for the compatible provider")
		}
	default:
		return fmt.Errorf("config: unknown MUDRA_AI_PROVIDER %q", c.AIProvider)
	}

	if c.AIModel == "" {
		if c.AIProvider != DefaultProvider {
			return fmt.Errorf("config: MUDRA_AI_MODEL is required for provider %q", c.AIProvider)
		}
		c.AIModel = DefaultModel
	}

	if c.CameraID < 0 {
		return fmt.Errorf("config: MUDRA_CAMERA_ID must not be negative")
	}
	if c.AIQPS <= 0 {
		return fmt.Errorf("config: MUDRA_AI_QPS must be positive")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("config: MUDRA_AI_TIMEOUT must be positive")
	}
	if c.PluginTimeout <= 0 {
		return fmt.Errorf("config: MUDRA_PLUGIN_TIMEOUT must be positive")
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
