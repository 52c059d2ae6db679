package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// DefaultSchedulerInterval is used when the configured interval is missing
// or malformed. One hour matches the cadence the source digest is built for:
// the article changes once per UTC day and units are spread across runs.
const DefaultSchedulerInterval = 3600

type rawCfg struct {
	// Bluesky account configuration
	Handle      string `long:"handle" env:"BSKY_HANDLE" description:"Bluesky handle to post as (required unless dry-run)"`
	AppPassword string `long:"app-password" env:"BSKY_APP_PASSWORD" description:"Bluesky app password"`
	PDSHost     string `long:"pds-host" env:"BSKY_PDS_HOST" default:"https://bsky.social" description:"Bluesky PDS host"`

	// Application configuration
	ConfigFile        string `long:"config" env:"CONFIG_FILE" default:"./daypost.yml" description:"Path to the source profile configuration file"`
	Store             string `long:"store" env:"STORE" default:"json" choice:"json" choice:"sqlite" description:"Persistence backend"`
	ArticlesPath      string `long:"articles-path" env:"ARTICLES_PATH" default:"./data/articles.json" description:"Path to the articles JSON document (json store)"`
	PostsPath         string `long:"posts-path" env:"POSTS_PATH" default:"./data/posts.json" description:"Path to the posts JSON document (json store)"`
	DBPath            string `long:"db-path" env:"DB_PATH" default:"./data/daypost.db" description:"Path to the SQLite database (sqlite store)"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP status server port"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Publish check interval in seconds"`
	DryRun            bool   `long:"dry-run" env:"DRY_RUN" description:"Record would-be posts locally instead of calling the posting API"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"daypost/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for log timestamps (digest selection is always UTC)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Handle:            raw.Handle,
		AppPassword:       raw.AppPassword,
		PDSHost:           raw.PDSHost,
		ConfigFile:        raw.ConfigFile,
		Store:             raw.Store,
		ArticlesPath:      raw.ArticlesPath,
		PostsPath:         raw.PostsPath,
		DBPath:            raw.DBPath,
		Port:              raw.Port,
		SchedulerInterval: normalizeInterval(raw.SchedulerInterval),
		DryRun:            raw.DryRun,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if !cfg.DryRun {
		if cfg.Handle == "" || cfg.AppPassword == "" {
			return nil, fmt.Errorf("handle and app password are required unless --dry-run is set")
		}
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// normalizeInterval guards against malformed schedule values: anything
// non-positive or shorter than a minute falls back to the default rather
// than failing startup or hammering the feed.
func normalizeInterval(seconds int) int {
	if seconds < 60 {
		return DefaultSchedulerInterval
	}
	return seconds
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
