// Package config resolves run settings from defaults, the optional
// ~/.rijksnieuws/config.yaml file and RIJKSNIEUWS_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/pevans/rijksnieuws/archive"
	"github.com/pevans/rijksnieuws/discovery"
	"github.com/pevans/rijksnieuws/scraper"
)

// Config holds every setting of a run.
type Config struct {
	// Output is the JSON store file.
	Output        string        `yaml:"output" validate:"required"`
	Delay         time.Duration `yaml:"delay" validate:"gte=0"`
	Timeout       time.Duration `yaml:"timeout" validate:"gte=0"`
	UserAgent     string        `yaml:"user_agent"`
	SkipThreshold int           `yaml:"skip_threshold" validate:"gte=1"`
	MaxPages      int           `yaml:"max_pages" validate:"gte=1,lte=50"`
	LogLevel      string        `yaml:"log_level" validate:"oneof=debug info warn error"`

	Archive  ArchiveConfig  `yaml:"archive"`
	OpenData OpenDataConfig `yaml:"opendata"`
	Feed     FeedConfig     `yaml:"feed"`
}

// ArchiveConfig configures the sitearchief scraper.
type ArchiveConfig struct {
	Host              string   `yaml:"host" validate:"url"`
	Site              string   `yaml:"site" validate:"url"`
	Template          string   `yaml:"template" validate:"oneof=brick nieuws"`
	ContentSignatures []string `yaml:"content_signatures" validate:"dive,required"`
}

// OpenDataConfig configures the open-data API harvester.
type OpenDataConfig struct {
	BaseURL string `yaml:"base_url" validate:"url"`
	Rows    int    `yaml:"rows" validate:"gte=1,lte=1000"`
}

// FeedConfig configures the RSS harvester.
type FeedConfig struct {
	URL string `yaml:"url" validate:"url"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Output:        "news_articles.json",
		Delay:         1 * time.Second,
		Timeout:       30 * time.Second,
		SkipThreshold: discovery.DefaultSkipThreshold,
		MaxPages:      discovery.MaxPages,
		LogLevel:      "info",
		Archive: ArchiveConfig{
			Host:              archive.DefaultHost,
			Site:              archive.DefaultSite,
			Template:          scraper.NieuwsTemplate.Name,
			ContentSignatures: append([]string(nil), scraper.DefaultContentSignatures...),
		},
		OpenData: OpenDataConfig{
			BaseURL: discovery.DefaultOpenDataURL,
			Rows:    200,
		},
		Feed: FeedConfig{
			URL: discovery.DefaultFeedURL,
		},
	}
}

// Load resolves the configuration: environment over config file over
// defaults. The result is validated.
func Load() (*Config, error) {
	fileCfg, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}
	return Resolve(fileCfg)
}

// Resolve applies environment overrides and defaults to cfg, which may be
// nil, and validates the result.
func Resolve(cfg *Config) (*Config, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	// Zero-valued fields take the default
	if err := mergo.Merge(cfg, Defaults()); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	cfg.LogLevel = normalizeLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeLevel lower-cases a log level and folds "warning" into "warn".
func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	return level
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with the RIJKSNIEUWS_* environment variables that
// are set.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("RIJKSNIEUWS_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("RIJKSNIEUWS_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := getEnv("RIJKSNIEUWS_LOG_LEVEL", os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RIJKSNIEUWS_TEMPLATE"); v != "" {
		cfg.Archive.Template = v
	}

	var err error
	if cfg.Delay, err = getEnvDuration("RIJKSNIEUWS_DELAY", cfg.Delay); err != nil {
		return err
	}
	if cfg.Timeout, err = getEnvDuration("RIJKSNIEUWS_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}
	if cfg.SkipThreshold, err = getEnvInt("RIJKSNIEUWS_SKIP_THRESHOLD", cfg.SkipThreshold); err != nil {
		return err
	}
	if cfg.MaxPages, err = getEnvInt("RIJKSNIEUWS_MAX_PAGES", cfg.MaxPages); err != nil {
		return err
	}
	return nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration from an environment variable or returns
// the default.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnvInt parses an int from an environment variable or returns the
// default.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// FetcherConfig returns the HTTP settings.
func (c *Config) FetcherConfig() discovery.FetcherConfig {
	return discovery.FetcherConfig{
		Delay:     c.Delay,
		Timeout:   c.Timeout,
		UserAgent: c.UserAgent,
	}
}

// ArchiveScraperConfig returns the archive scraper settings.
func (c *Config) ArchiveScraperConfig() (*discovery.ArchiveConfig, error) {
	tmpl, err := scraper.LookupTemplate(c.Archive.Template)
	if err != nil {
		return nil, err
	}
	return &discovery.ArchiveConfig{
		Template:          tmpl,
		ContentSignatures: c.Archive.ContentSignatures,
		MaxPages:          c.MaxPages,
		SkipThreshold:     c.SkipThreshold,
	}, nil
}

// FeedHarvesterConfig returns the feed harvester settings.
func (c *Config) FeedHarvesterConfig() *discovery.FeedConfig {
	return &discovery.FeedConfig{
		URL:               c.Feed.URL,
		Site:              c.Archive.Site,
		ContentSignatures: c.Archive.ContentSignatures,
	}
}

// OpenDataHarvesterConfig returns the open-data harvester settings.
func (c *Config) OpenDataHarvesterConfig() *discovery.OpenDataConfig {
	return &discovery.OpenDataConfig{
		BaseURL: c.OpenData.BaseURL,
		Rows:    c.OpenData.Rows,
	}
}
