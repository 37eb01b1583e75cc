package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mstoykov/envconfig"
)

const (
	DefaultURL         = "http://localhost:5280"
	DefaultArtifactDir = "verification"
)

// Config holds the harness settings; flags override environment values
type Config struct {
	URL            string        `envconfig:"VERIFY_URL"`
	Backend        string        `envconfig:"VERIFY_BACKEND"`
	ArtifactDir    string        `envconfig:"VERIFY_ARTIFACT_DIR"`
	ScenarioFile   string        `envconfig:"VERIFY_SCENARIO_FILE"`
	Headless       bool          `envconfig:"VERIFY_HEADLESS"`
	DefaultTimeout time.Duration `envconfig:"VERIFY_DEFAULT_TIMEOUT"`
	SlowMo         time.Duration `envconfig:"VERIFY_SLOW_MO"`
	Install        bool          `envconfig:"VERIFY_INSTALL"`
	AllowRemote    bool          `envconfig:"VERIFY_ALLOW_REMOTE"`
	LogLevel       string        `envconfig:"VERIFY_LOG_LEVEL"`
	LogFormat      string        `envconfig:"VERIFY_LOG_FORMAT"`
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		URL:            DefaultURL,
		Backend:        "playwright",
		ArtifactDir:    DefaultArtifactDir,
		Headless:       true,
		DefaultTimeout: 30 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads optional .env files into the process environment and
// applies VERIFY_* variables on top of Default.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup applies variables from lookup on top of Default
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if err := envconfig.Process("", &cfg, lookup); err != nil {
		return Config{}, fmt.Errorf("invalid environment configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the harness cannot run with
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("target URL is required")
	}
	if c.ArtifactDir == "" {
		return fmt.Errorf("artifact directory is required")
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("default timeout must be positive, got %s", c.DefaultTimeout)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (use text or json)", c.LogFormat)
	}
	return nil
}
