package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	defaultDelay    = time.Second
	defaultSchedule = "0 9 * * *"

	// MaxRetries bounds attempts per request: one try and one retry
	MaxRetries = 2
)

var visibilities = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
	"direct":   true,
}

// envKeys lists every config key that can be set from the environment.
// Each key is read from its upper-cased name with dots replaced by
// underscores, plus any short names.
var envKeys = map[string][]string{
	"calendar.file":          nil,
	"calendar.day_names":     nil,
	"calendar.festivals":     nil,
	"queue.file":             nil,
	"bluesky.identifier":     {"BLUESKY_ID"},
	"bluesky.password":       {"BLUESKY_PASSWORD"},
	"bluesky.base_url":       nil,
	"mastodon.server":        {"MASTODON_SERVER"},
	"mastodon.client_id":     {"MASTODON_CLIENT_ID"},
	"mastodon.client_secret": {"MASTODON_CLIENT_SECRET"},
	"mastodon.access_token":  {"MASTODON_ACCESS_TOKEN"},
	"mastodon.visibility":    nil,
	"publish.delay":          nil,
	"publish.retries":        nil,
	"daemon.schedule":        nil,
	"daemon.timezone":        nil,
	"log.file":               nil,
	"log.level":              nil,
}

// Network switches. Any non-empty value turns a network on.
const (
	blueskySwitch  = "BLUESKY"
	mastodonSwitch = "MASTODON"
)

// Config represents application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Bluesky  BlueskyConfig  `mapstructure:"bluesky"`
	Mastodon MastodonConfig `mapstructure:"mastodon"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Log      LogConfig      `mapstructure:"log"`
}

// CalendarConfig points at the calendar export and the text tables
type CalendarConfig struct {
	File      string `mapstructure:"file"`      // TSV export of calendar days
	DayNames  string `mapstructure:"day_names"` // optional, embedded table if empty
	Festivals string `mapstructure:"festivals"` // optional, embedded table if empty
}

// QueueConfig represents the publish queue location. It is the default
// for generate --enqueue, post and daemon.
type QueueConfig struct {
	File string `mapstructure:"file"`
}

// BlueskyConfig represents Bluesky account settings
type BlueskyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Identifier string `mapstructure:"identifier"`
	Password   string `mapstructure:"password"` // app password
	BaseURL    string `mapstructure:"base_url"`
}

// MastodonConfig represents Mastodon account settings
type MastodonConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Server       string `mapstructure:"server"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AccessToken  string `mapstructure:"access_token"`
	Visibility   string `mapstructure:"visibility"`
}

// PublishConfig controls pacing and retries
type PublishConfig struct {
	Delay   string `mapstructure:"delay"`
	Retries int    `mapstructure:"retries"`
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	Schedule string `mapstructure:"schedule"` // five-field cron expression
	Timezone string `mapstructure:"timezone"` // IANA name, e.g. Europe/Athens
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from file and environment. A missing file
// leaves defaults and environment in effect.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.hemerologion")
		v.AddConfigPath("/etc/hemerologion")
	}

	// Read environment variables. Keys are bound one by one: with
	// AutomaticEnv a BLUESKY or MASTODON switch would shadow its section.
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applySwitches()
	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("queue.file", "posts.tsv")
	v.SetDefault("bluesky.base_url", "https://bsky.social")
	v.SetDefault("mastodon.visibility", "public")
	v.SetDefault("publish.delay", defaultDelay.String())
	v.SetDefault("publish.retries", MaxRetries)
	v.SetDefault("daemon.schedule", defaultSchedule)
	v.SetDefault("daemon.timezone", "Local")
	v.SetDefault("log.level", "info")
}

// bindEnv binds each key to its environment variables
func bindEnv(v *viper.Viper) error {
	replacer := strings.NewReplacer(".", "_")
	for key, short := range envKeys {
		names := append([]string{strings.ToUpper(replacer.Replace(key))}, short...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// applySwitches turns networks on from the BLUESKY and MASTODON variables
func (c *Config) applySwitches() {
	if os.Getenv(blueskySwitch) != "" {
		c.Bluesky.Enabled = true
	}
	if os.Getenv(mastodonSwitch) != "" {
		c.Mastodon.Enabled = true
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Queue.File == "" {
		return fmt.Errorf("queue.file is required")
	}

	if c.Bluesky.Enabled {
		if c.Bluesky.Identifier == "" {
			return fmt.Errorf("bluesky.identifier is required when bluesky is enabled")
		}
		if c.Bluesky.Password == "" {
			return fmt.Errorf("bluesky.password is required when bluesky is enabled")
		}
	}

	if c.Mastodon.Enabled {
		if c.Mastodon.Server == "" {
			return fmt.Errorf("mastodon.server is required when mastodon is enabled")
		}
		if c.Mastodon.AccessToken == "" {
			return fmt.Errorf("mastodon.access_token is required when mastodon is enabled")
		}
	}
	if c.Mastodon.Visibility != "" && !visibilities[c.Mastodon.Visibility] {
		return fmt.Errorf("mastodon.visibility must be public, unlisted, private or direct, got '%s'", c.Mastodon.Visibility)
	}

	if c.Publish.Delay != "" {
		d, err := time.ParseDuration(c.Publish.Delay)
		if err != nil {
			return fmt.Errorf("publish.delay: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("publish.delay must not be negative")
		}
	}
	if c.Publish.Retries < 0 || c.Publish.Retries > MaxRetries {
		return fmt.Errorf("publish.retries must be between 0 and %d, got %d", MaxRetries, c.Publish.Retries)
	}

	if c.Daemon.Schedule != "" {
		if _, err := cron.ParseStandard(c.Daemon.Schedule); err != nil {
			return fmt.Errorf("daemon.schedule: %w", err)
		}
	}
	if _, err := loadLocation(c.Daemon.Timezone); err != nil {
		return fmt.Errorf("daemon.timezone: %w", err)
	}

	return nil
}

// GetDelay returns the pause after each published post. Default: 1s
func (c *PublishConfig) GetDelay() time.Duration {
	if c.Delay == "" {
		return defaultDelay
	}
	duration, err := time.ParseDuration(c.Delay)
	if err != nil || duration < 0 {
		return defaultDelay
	}
	return duration
}

// GetRetries returns attempts per request, at most MaxRetries. Default: 2
func (c *PublishConfig) GetRetries() int {
	if c.Retries <= 0 || c.Retries > MaxRetries {
		return MaxRetries
	}
	return c.Retries
}

// GetSchedule returns the cron expression for daemon runs. Default: daily 09:00
func (c *DaemonConfig) GetSchedule() string {
	if c.Schedule == "" {
		return defaultSchedule
	}
	return c.Schedule
}

// GetLocation returns the daemon timezone, falling back to local time
func (c *DaemonConfig) GetLocation() *time.Location {
	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Calendar.File = os.ExpandEnv(c.Calendar.File)
	c.Queue.File = os.ExpandEnv(c.Queue.File)
	c.Calendar.DayNames = os.ExpandEnv(c.Calendar.DayNames)
	c.Calendar.Festivals = os.ExpandEnv(c.Calendar.Festivals)
	c.Bluesky.Identifier = os.ExpandEnv(c.Bluesky.Identifier)
	c.Bluesky.Password = os.ExpandEnv(c.Bluesky.Password)
	c.Mastodon.ClientSecret = os.ExpandEnv(c.Mastodon.ClientSecret)
	c.Mastodon.AccessToken = os.ExpandEnv(c.Mastodon.AccessToken)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
