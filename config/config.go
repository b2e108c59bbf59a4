package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is sent with every page request so the catalog does not
// turn away the scraper as an anonymous bot.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// Extraction dialects understood by the parser package
const (
	DialectXPath = "xpath"
	DialectCSS   = "css"
)

// Config represents the scraper configuration
type Config struct {
	Target struct {
		URL       string `yaml:"url"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"target"`

	Fetch struct {
		// Zero keeps the transport default
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"fetch"`

	Extract struct {
		MaxBooks int    `yaml:"max_books"`
		Dialect  string `yaml:"dialect"`
	} `yaml:"extract"`

	Output struct {
		Path   string `yaml:"path"`
		Quote  bool   `yaml:"quote"`
		Atomic bool   `yaml:"atomic"`
	} `yaml:"output"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// LoadConfig loads configuration from a YAML file.
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Target.URL = "http://books.toscrape.com/"
	cfg.Target.UserAgent = DefaultUserAgent
	cfg.Extract.MaxBooks = 16
	cfg.Extract.Dialect = DialectXPath
	cfg.Output.Path = "books.csv"
	cfg.Output.Quote = false
	cfg.Output.Atomic = true
	cfg.Log.Level = "info"
	return cfg
}

// Validate reports the first setting that would make a run impossible
func (c *Config) Validate() error {
	if c.Target.URL == "" {
		return fmt.Errorf("target url must not be empty")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.Extract.MaxBooks < 0 {
		return fmt.Errorf("max_books must not be negative, got %d", c.Extract.MaxBooks)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.Fetch.Timeout)
	}
	switch c.Extract.Dialect {
	case DialectXPath, DialectCSS:
	default:
		return fmt.Errorf("unknown extract dialect %q (want %q or %q)", c.Extract.Dialect, DialectXPath, DialectCSS)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
