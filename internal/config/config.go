package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	baseURLEnv   = "BDTD_BASE_URL"
	userAgentEnv = "BDTD_USER_AGENT"
	logLevelEnv  = "BDTD_LOG_LEVEL"

	defaultBaseURL   = "https://bdtd.ibict.br/vufind"
	defaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:95.0) Gecko/20100101 Firefox/95.0"
)

// Config holds every setting the pipeline components receive at
// construction. It is built once and never mutated afterwards.
type Config struct {
	BaseURL   string `yaml:"baseUrl"`
	UserAgent string `yaml:"userAgent"`

	SearchTerm string `yaml:"-"`
	SearchType string `yaml:"searchType"`
	OutputDir  string `yaml:"outputDir"`
	MaxPages   int    `yaml:"maxPages"`

	Workers       int      `yaml:"workers"`
	MaxRetries    int      `yaml:"maxRetries"`
	Timeout       Duration `yaml:"timeout"`
	Interval      Duration `yaml:"interval"`
	RetryInterval Duration `yaml:"retryInterval"`

	GetDetails bool `yaml:"getDetails"`
	GetPDFs    bool `yaml:"getPdfs"`
	Excel      bool `yaml:"excel"`
	Insecure   bool `yaml:"insecure"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration so YAML accepts "500ms"-style strings.
type Duration time.Duration

// UnmarshalYAML parses Go duration syntax from a scalar node.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration mirroring the repository's
// published rate limits and retry policy.
func Default() Config {
	return Config{
		BaseURL:       defaultBaseURL,
		UserAgent:     defaultUserAgent,
		SearchType:    "AllFields",
		Workers:       8,
		MaxRetries:    3,
		Timeout:       Duration(10 * time.Second),
		Interval:      Duration(500 * time.Millisecond),
		RetryInterval: Duration(5 * time.Second),
		GetDetails:    true,
		GetPDFs:       true,
		Excel:         true,
		Logging:       LoggingConfig{Level: "info"},
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// environment overrides, in that precedence order. An empty path skips
// the file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(baseURLEnv); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(userAgentEnv); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.SearchTerm == "" {
		return fmt.Errorf("search term must not be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}

// Headers returns the fixed header set sent with every request.
func (c Config) Headers() map[string]string {
	return map[string]string{"User-Agent": c.UserAgent}
}
