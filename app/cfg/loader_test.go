package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	// Create a config instance to test field access
	cfg := &Cfg{
		Handle:            "daypost.example.org",
		AppPassword:       "app-pass",
		PDSHost:           "https://bsky.social",
		ConfigFile:        "./daypost.yml",
		Store:             "json",
		ArticlesPath:      "./data/articles.json",
		PostsPath:         "./data/posts.json",
		DBPath:            "./data/daypost.db",
		Port:              "8080",
		SchedulerInterval: 3600,
		DryRun:            true,
		UserAgent:         "Test Agent",
		Timezone:          "UTC",
		Debug:             true,
		Version:           "test-version",
	}

	if cfg.Handle != "daypost.example.org" {
		t.Errorf("Expected handle 'daypost.example.org', got '%s'", cfg.Handle)
	}
	if cfg.PDSHost != "https://bsky.social" {
		t.Errorf("Expected PDS host 'https://bsky.social', got '%s'", cfg.PDSHost)
	}
	if cfg.Store != "json" {
		t.Errorf("Expected store 'json', got '%s'", cfg.Store)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.SchedulerInterval != 3600 {
		t.Errorf("Expected scheduler interval 3600, got %d", cfg.SchedulerInterval)
	}
	if !cfg.DryRun {
		t.Error("Expected dry-run to be enabled")
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestNormalizeInterval(t *testing.T) {
	cases := []struct {
		name     string
		seconds  int
		expected int
	}{
		{"zero falls back", 0, DefaultSchedulerInterval},
		{"negative falls back", -10, DefaultSchedulerInterval},
		{"sub-minute falls back", 30, DefaultSchedulerInterval},
		{"minimum accepted", 60, 60},
		{"hourly accepted", 3600, 3600},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeInterval(tc.seconds); got != tc.expected {
				t.Errorf("normalizeInterval(%d) = %d, expected %d", tc.seconds, got, tc.expected)
			}
		})
	}
}
