// Package config loads the run configuration: an optional config.yaml plus
// the environment surface, which always wins. Credentials stay opaque;
// nothing in this package logs them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile  = "config.yaml"
	DefaultStoragePath = ".scrub/history.db"
	DefaultArchivePath = "./archives"
	DefaultStartDate   = "7_days_ago"
	DefaultEndDate     = "today"
	DefaultMaxPosts    = 10
	DefaultFilterMode  = "any"
	DefaultOrder       = "newest"
	DefaultLogLevel    = "info"
)

type Config struct {
	// Platforms restricts the run to the named platforms. Empty means every
	// configured platform.
	Platforms []string `yaml:"platforms"`

	Bluesky  BlueskyConfig  `yaml:"bluesky"`
	Mastodon MastodonConfig `yaml:"mastodon"`
	Twitter  TwitterConfig  `yaml:"twitter"`
	Scrub    ScrubConfig    `yaml:"scrub"`
	Storage  StorageConfig  `yaml:"storage"`
	LogLevel string         `yaml:"log_level"`
}

type BlueskyConfig struct {
	Handle   string `yaml:"handle"`
	Password string `yaml:"-"`
	Host     string `yaml:"host"` // PDS URL, default https://bsky.social
}

func (c BlueskyConfig) IsConfigured() bool { return c.Handle != "" && c.Password != "" }

type MastodonConfig struct {
	APIBaseURL  string `yaml:"api_base_url"`
	AccessToken string `yaml:"-"`
}

func (c MastodonConfig) IsConfigured() bool { return c.APIBaseURL != "" && c.AccessToken != "" }

type TwitterConfig struct {
	APIKey            string `yaml:"-"`
	APISecret         string `yaml:"-"`
	AccessToken       string `yaml:"-"`
	AccessTokenSecret string `yaml:"-"`
}

func (c TwitterConfig) IsConfigured() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

type ScrubConfig struct {
	StartDate           string   `yaml:"start_date"` // "7_days_ago", "today", "N_days_ago", RFC 3339, or YYYY-MM-DD
	EndDate             string   `yaml:"end_date"`
	Keyword             string   `yaml:"keyword"`
	PostIDs             []string `yaml:"post_ids"`
	FilterMode          string   `yaml:"filter_mode"` // any | all
	Order               string   `yaml:"order"`       // newest | oldest
	MaxPosts            int      `yaml:"max_posts"`
	DryRun              bool     `yaml:"dry_run"`
	ArchiveBeforeDelete bool     `yaml:"archive_before_delete"`
	ArchivePath         string   `yaml:"archive_path"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

// Load reads config.yaml from dir (if present), applies defaults, applies
// environment overrides, and validates. dir may be empty to skip the file.
func Load(dir string) (*Config, error) {
	cfg := &Config{
		Scrub: ScrubConfig{
			// Destructive-by-default is wrong for this tool; both of these
			// must be switched off explicitly.
			DryRun:              true,
			ArchiveBeforeDelete: true,
		},
	}

	if dir != "" {
		path := filepath.Join(dir, DefaultConfigFile)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case os.IsNotExist(err):
			// Env-only configuration is fine.
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyDefaults(cfg)
	if err := resolveEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Scrub.StartDate == "" {
		cfg.Scrub.StartDate = DefaultStartDate
	}
	if cfg.Scrub.EndDate == "" {
		cfg.Scrub.EndDate = DefaultEndDate
	}
	if cfg.Scrub.MaxPosts == 0 {
		cfg.Scrub.MaxPosts = DefaultMaxPosts
	}
	if cfg.Scrub.FilterMode == "" {
		cfg.Scrub.FilterMode = DefaultFilterMode
	}
	if cfg.Scrub.Order == "" {
		cfg.Scrub.Order = DefaultOrder
	}
	if cfg.Scrub.ArchivePath == "" {
		cfg.Scrub.ArchivePath = DefaultArchivePath
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

func resolveEnv(cfg *Config) error {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString(&cfg.Bluesky.Handle, "BLUESKY_HANDLE")
	setString(&cfg.Bluesky.Password, "BLUESKY_PASSWORD")
	setString(&cfg.Mastodon.APIBaseURL, "MASTODON_API_BASE_URL")
	setString(&cfg.Mastodon.AccessToken, "MASTODON_ACCESS_TOKEN")
	setString(&cfg.Twitter.APIKey, "TWITTER_API_KEY")
	setString(&cfg.Twitter.APISecret, "TWITTER_API_SECRET")
	setString(&cfg.Twitter.AccessToken, "TWITTER_ACCESS_TOKEN")
	setString(&cfg.Twitter.AccessTokenSecret, "TWITTER_ACCESS_TOKEN_SECRET")

	setString(&cfg.Scrub.StartDate, "SCRUB_START_DATE")
	setString(&cfg.Scrub.EndDate, "SCRUB_END_DATE")
	setString(&cfg.Scrub.Keyword, "SCRUB_KEYWORD")
	setString(&cfg.Scrub.FilterMode, "SCRUB_FILTER_MODE")
	setString(&cfg.Scrub.Order, "SCRUB_ORDER")
	setString(&cfg.Scrub.ArchivePath, "ARCHIVE_PATH")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Storage.Path, "SCRUB_HISTORY_PATH")

	if v, ok := os.LookupEnv("SCRUB_POST_IDS"); ok {
		cfg.Scrub.PostIDs = splitList(v)
	}
	if v, ok := os.LookupEnv("SCRUB_PLATFORMS"); ok {
		cfg.Platforms = splitList(v)
	}
	if v, ok := os.LookupEnv("MAX_POSTS_PER_SCRUB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_POSTS_PER_SCRUB: %w", err)
		}
		cfg.Scrub.MaxPosts = n
	}
	if v, ok := os.LookupEnv("DRY_RUN"); ok {
		cfg.Scrub.DryRun = parseBool(v)
	}
	if v, ok := os.LookupEnv("ARCHIVE_BEFORE_DELETE"); ok {
		cfg.Scrub.ArchiveBeforeDelete = parseBool(v)
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Scrub.MaxPosts <= 0 {
		return errors.New("scrub.max_posts must be positive")
	}

	switch cfg.Scrub.FilterMode {
	case "any", "all":
	default:
		return fmt.Errorf("scrub.filter_mode: unknown mode %q (want any or all)", cfg.Scrub.FilterMode)
	}

	switch cfg.Scrub.Order {
	case "newest", "oldest":
	default:
		return fmt.Errorf("scrub.order: unknown order %q (want newest or oldest)", cfg.Scrub.Order)
	}

	for _, name := range cfg.Platforms {
		switch name {
		case "bluesky", "mastodon", "twitter":
		default:
			return fmt.Errorf("platforms: unknown platform %q", name)
		}
	}

	start, end, err := cfg.Window(time.Now())
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("scrub: start date %s is after end date %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// Window resolves the configured date range relative to now. The range is
// inclusive on both ends; a date-only end extends to the end of that day.
func (c *Config) Window(now time.Time) (start, end time.Time, err error) {
	start, err = ParseDate(c.Scrub.StartDate, now, false)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("scrub.start_date: %w", err)
	}
	end, err = ParseDate(c.Scrub.EndDate, now, true)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("scrub.end_date: %w", err)
	}
	return start, end, nil
}

// ParseDate parses the date shorthands: "today", "N_days_ago", RFC 3339, or
// YYYY-MM-DD. For a date-only value, endOfRange selects the end of the day so
// inclusive ranges behave as users expect.
func ParseDate(s string, now time.Time, endOfRange bool) (time.Time, error) {
	now = now.UTC()
	s = strings.TrimSpace(s)

	switch {
	case s == "today":
		if endOfRange {
			return now, nil
		}
		return now.Truncate(24 * time.Hour), nil
	case strings.HasSuffix(s, "_days_ago"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "_days_ago"))
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		return now.AddDate(0, 0, -n), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfRange {
			return t.Add(24*time.Hour - time.Second).UTC(), nil
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want today, N_days_ago, RFC 3339, or YYYY-MM-DD)", s)
}

// EnabledPlatforms returns the platforms this run operates on: the explicit
// list when given, otherwise every platform with complete credentials.
func (c *Config) EnabledPlatforms() []string {
	if len(c.Platforms) > 0 {
		return c.Platforms
	}
	var out []string
	if c.Bluesky.IsConfigured() {
		out = append(out, "bluesky")
	}
	if c.Mastodon.IsConfigured() {
		out = append(out, "mastodon")
	}
	if c.Twitter.IsConfigured() {
		out = append(out, "twitter")
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
