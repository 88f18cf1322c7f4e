// Package config loads the runtime settings of the batchcalc command from
// the environment and reads prompt files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvAPIKey            = "ANTHROPIC_API_KEY"
	EnvBaseURL           = "ANTHROPIC_API_BASE_URL"
	EnvModel             = "BATCHCALC_MODEL"
	EnvMaxTokens         = "BATCHCALC_MAX_TOKENS"
	EnvPollTimeout       = "BATCHCALC_POLL_TIMEOUT"
	EnvPollInterval      = "BATCHCALC_POLL_INTERVAL"
	EnvRequestsPerSecond = "BATCHCALC_REQUESTS_PER_SECOND"
)

// ErrMissingAPIKey is returned by Load when no API key is configured.
var ErrMissingAPIKey = errors.New(EnvAPIKey + " is not set")

// Config holds the settings of one batchcalc run. Zero values mean "use the
// library default".
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	MaxTokens int

	// PollTimeout bounds the whole wait for the batch. Zero means no limit.
	PollTimeout time.Duration
	// PollInterval is the first wait between status requests.
	PollInterval time.Duration

	// RequestsPerSecond limits outbound API calls. Zero disables the limiter.
	RequestsPerSecond float64
}

// Load reads a .env file from the working directory when present, then
// builds a Config from the environment. Variables already set in the
// environment win over the .env file.
func Load() (*Config, error) {
	return LoadFiles()
}

// LoadFiles is Load with explicit .env paths. Missing files are ignored.
func LoadFiles(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{
		APIKey:  strings.TrimSpace(os.Getenv(EnvAPIKey)),
		BaseURL: strings.TrimSpace(os.Getenv(EnvBaseURL)),
		Model:   strings.TrimSpace(os.Getenv(EnvModel)),
	}

	var err error
	if cfg.MaxTokens, err = envInt(EnvMaxTokens); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = envDuration(EnvPollTimeout); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = envDuration(EnvPollInterval); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = envFloat(EnvRequestsPerSecond); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used for a run.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%s must not be negative, got %d", EnvMaxTokens, c.MaxTokens)
	}
	if c.PollTimeout < 0 || c.PollInterval < 0 {
		return errors.New("poll durations must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%s must not be negative, got %g", EnvRequestsPerSecond, c.RequestsPerSecond)
	}
	return nil
}

func envInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return value, nil
}

func envFloat(key string) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, raw, err)
	}
	return value, nil
}

// envDuration accepts Go durations ("90s", "30m") and bare seconds ("120").
func envDuration(key string) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return value, nil
}
