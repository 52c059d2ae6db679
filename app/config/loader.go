package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the source profile
type Loader struct {
	path string
}

// NewLoader creates a new configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the source profile from disk. A missing file is not an error:
// the built-in defaults describe the stock digest source.
func (l *Loader) Load() (*SourceConfig, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		slog.Info("Source profile not found, using defaults", "path", l.path)
		cfg := &SourceConfig{}
		l.setDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cfg SourceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&cfg)

	if err := l.validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid source profile %s: %w", l.path, err)
	}

	slog.Info("Loaded source profile", "path", l.path, "feed_url", cfg.Source.FeedURL)

	return &cfg, nil
}

// setDefaults applies default values to the source profile
func (l *Loader) setDefaults(cfg *SourceConfig) {
	if cfg.Source.FeedURL == "" {
		cfg.Source.FeedURL = "https://en.wikipedia.org/w/api.php?action=featuredfeed&feed=onthisday&feedformat=atom"
	}
	if cfg.Source.SiteOrigin == "" {
		cfg.Source.SiteOrigin = "https://en.wikipedia.org"
	}
	if cfg.Settings.Timeout == 0 {
		cfg.Settings.Timeout = 30 // seconds
	}
	if cfg.Settings.ImageMarker == "" {
		cfg.Settings.ImageMarker = "pictured"
	}
	if cfg.Settings.BornMarker == "" {
		cfg.Settings.BornMarker = "b."
	}
	if cfg.Settings.DiedMarker == "" {
		cfg.Settings.DiedMarker = "d."
	}
	if cfg.Settings.Language == "" {
		cfg.Settings.Language = "en"
	}
}

// validate validates the source profile
func (l *Loader) validate(cfg *SourceConfig) error {
	if _, err := url.ParseRequestURI(cfg.Source.FeedURL); err != nil {
		return fmt.Errorf("feed_url is not a valid URL: %w", err)
	}

	origin, err := url.Parse(cfg.Source.SiteOrigin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return fmt.Errorf("site_origin must be an absolute URL, got %q", cfg.Source.SiteOrigin)
	}

	if cfg.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	return nil
}
