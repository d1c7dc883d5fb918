// Package config loads newsreport settings from defaults, an optional YAML
// file, NEWSREPORT_* environment variables and work item files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fedestu/RPA-Challenge/discovery"
	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/scraper"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// NEWSREPORT_INPUT_SEARCH_PHRASE.
const EnvPrefix = "NEWSREPORT"

// Browser backends.
const (
	BackendChrome = "chrome"
	BackendStatic = "static"
)

// Config is the full configuration of one newsreport process.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Input   Input         `mapstructure:"input"`
	Output  OutputConfig  `mapstructure:"output"`
	Browser BrowserConfig `mapstructure:"browser"`
	Engine  EngineConfig  `mapstructure:"engine"`
	History HistoryConfig `mapstructure:"history"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     logger.Config `mapstructure:"log"`
}

// SiteConfig selects the site profile. BaseURL overrides the profile's.
type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Profile string `mapstructure:"profile"`
}

// Input holds the run parameters.
type Input struct {
	SearchPhrase string `mapstructure:"search_phrase"`
	CategoryName string `mapstructure:"category_name"`
	NumMonths    int    `mapstructure:"num_months"`
	WorkItem     string `mapstructure:"work_item"`
}

type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	ImagesDir string `mapstructure:"images_dir"`
}

type BrowserConfig struct {
	Backend   string `mapstructure:"backend"`
	Headless  bool   `mapstructure:"headless"`
	UserAgent string `mapstructure:"user_agent"`
}

type EngineConfig struct {
	MaxIterations     int           `mapstructure:"max_iterations"`
	MaxFilterAttempts int           `mapstructure:"max_filter_attempts"`
	FilterWaitTimeout time.Duration `mapstructure:"filter_wait_timeout"`
	FilterSettleDelay time.Duration `mapstructure:"filter_settle_delay"`
	DownloadWorkers   int           `mapstructure:"download_workers"`
	// DownloadTimeout bounds each image request; 0 leaves it unbounded.
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	// Timezone names the IANA zone publish dates are computed in; empty is
	// the local zone.
	Timezone string `mapstructure:"timezone"`
}

type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file search path set up. The file is not read yet.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("newsreport")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	SetDefaults(v)
	return v
}

// SetDefaults sets default configuration values. Every key has a default so
// AutomaticEnv can see it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	defaults := discovery.DefaultOptions()

	v.SetDefault("site", map[string]any{
		"base_url": "",
		"profile":  "",
	})

	v.SetDefault("input", map[string]any{
		"search_phrase": "",
		"category_name": "",
		"num_months":    1,
		"work_item":     "",
	})

	v.SetDefault("output", map[string]any{
		"dir":        "output",
		"images_dir": "output/images",
	})

	v.SetDefault("browser", map[string]any{
		"backend":    BackendChrome,
		"headless":   true,
		"user_agent": "",
	})

	v.SetDefault("engine", map[string]any{
		"max_iterations":      defaults.MaxIterations,
		"max_filter_attempts": defaults.MaxFilterAttempts,
		"filter_wait_timeout": defaults.FilterWaitTimeout.String(),
		"filter_settle_delay": defaults.FilterSettleDelay.String(),
		"download_workers":    1,
		"download_timeout":    "0s",
		"timezone":            "",
	})

	v.SetDefault("history", map[string]any{
		"dsn": "output/newsreport.db",
	})

	v.SetDefault("server", map[string]any{
		"address": ":8080",
	})

	v.SetDefault("log", map[string]any{
		"level":       "info",
		"development": false,
	})
}

// ReadFile reads the config file when one exists. A missing file is not an
// error; a malformed one is.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load applies the work item named by input.work_item, unmarshals v into a
// Config and validates the result. Work item values sit above the config
// file and below environment variables and flags.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString("input.work_item"); path != "" {
		item, err := LoadWorkItem(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(map[string]any{"input": item.Settings()}); err != nil {
			return nil, fmt.Errorf("failed to apply work item: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges. The search phrase is checked separately by
// ValidateInput since only collection needs it.
func (c *Config) Validate() error {
	switch c.Browser.Backend {
	case BackendChrome, BackendStatic:
	default:
		return fmt.Errorf("browser.backend must be %q or %q, got %q", BackendChrome, BackendStatic, c.Browser.Backend)
	}
	if c.Engine.MaxIterations < 1 {
		return errors.New("engine.max_iterations must be at least 1")
	}
	if c.Engine.MaxFilterAttempts < 1 {
		return errors.New("engine.max_filter_attempts must be at least 1")
	}
	if c.Engine.FilterWaitTimeout <= 0 {
		return errors.New("engine.filter_wait_timeout must be positive")
	}
	if c.Engine.FilterSettleDelay < 0 {
		return errors.New("engine.filter_settle_delay must not be negative")
	}
	if c.Engine.DownloadWorkers < 1 {
		return errors.New("engine.download_workers must be at least 1")
	}
	if c.Engine.DownloadTimeout < 0 {
		return errors.New("engine.download_timeout must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	if c.Output.ImagesDir == "" {
		return errors.New("output.images_dir is required")
	}
	return nil
}

// ValidateInput checks the run parameters.
func (c *Config) ValidateInput() error {
	if strings.TrimSpace(c.Input.SearchPhrase) == "" {
		return errors.New("input.search_phrase is required")
	}
	return nil
}

// Location resolves engine.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Engine.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone: %w", err)
	}
	return loc, nil
}

// EngineOptions converts the engine section into discovery options.
func (c *Config) EngineOptions() (discovery.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return discovery.Options{}, err
	}
	return discovery.Options{
		MaxIterations:     c.Engine.MaxIterations,
		MaxFilterAttempts: c.Engine.MaxFilterAttempts,
		FilterWaitTimeout: c.Engine.FilterWaitTimeout,
		FilterSettleDelay: c.Engine.FilterSettleDelay,
		Location:          loc,
	}, nil
}

// LoadSite returns the site profile named by site.profile, or the built-in
// one, with site.base_url applied on top.
func (c *Config) LoadSite() (*scraper.SiteConfig, error) {
	site := scraper.DefaultSiteConfig()
	if c.Site.Profile != "" {
		profile, err := LoadSiteProfile(c.Site.Profile)
		if err != nil {
			return nil, err
		}
		site = profile
	}

	if c.Site.BaseURL != "" {
		site.BaseURL = c.Site.BaseURL
	}

	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site profile: %w", err)
	}
	return site, nil
}
