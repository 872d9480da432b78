// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	YouTube YouTubeConfig `mapstructure:"youtube"`
	DB      DBConfig      `mapstructure:"db"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Publish PublishConfig `mapstructure:"publish"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig holds the bearer tokens the trigger endpoints accept. The cron
// secret authenticates scheduled triggers; the API key authenticates manual
// single-post publishes.
type AuthConfig struct {
	CronSecret string `mapstructure:"cron_secret"`
	APIKey     string `mapstructure:"api_key"`
}

// YouTubeConfig selects the channel and window the ingestion pass scans.
type YouTubeConfig struct {
	APIKey      string `mapstructure:"api_key"`
	ChannelID   string `mapstructure:"channel_id"`
	WindowHours int    `mapstructure:"window_hours"`
}

// DBConfig controls access to the team database.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

// GitHubConfig identifies the content repository and the bot identity that
// commits to it.
type GitHubConfig struct {
	Token    string `mapstructure:"token"`
	Owner    string `mapstructure:"owner"`
	Repo     string `mapstructure:"repo"`
	Branch   string `mapstructure:"branch"`
	PostsDir string `mapstructure:"posts_dir"`
	BotName  string `mapstructure:"bot_name"`
	BotEmail string `mapstructure:"bot_email"`
}

// PublishConfig governs the publish pipeline.
type PublishConfig struct {
	ImageTimeoutSeconds int `mapstructure:"image_timeout_seconds"`
}

// NotifyConfig holds metadata for run-summary notifications.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TSROPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("youtube.window_hours", 6)
	v.SetDefault("db.provider", "postgres")
	v.SetDefault("github.branch", "main")
	v.SetDefault("github.posts_dir", "content/posts")
	v.SetDefault("github.bot_name", "TSR Service Account [Bot]")
	v.SetDefault("github.bot_email", "bot@teamspiralracing.com")
	v.SetDefault("publish.image_timeout_seconds", 15)
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.YouTube.WindowHours <= 0 {
		return fmt.Errorf("youtube.window_hours must be > 0")
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown db.provider: %s", c.DB.Provider)
	}
	if c.GitHub.Branch == "" {
		return fmt.Errorf("github.branch must be set")
	}
	if c.GitHub.PostsDir == "" {
		return fmt.Errorf("github.posts_dir must be set")
	}
	switch c.Notify.Provider {
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.TopicID == "" {
			return fmt.Errorf("notify.project_id and notify.topic_id must be set when notify.provider is pubsub")
		}
	case "noop", "memory":
	default:
		return fmt.Errorf("unknown notify.provider: %s", c.Notify.Provider)
	}
	if c.Publish.ImageTimeoutSeconds <= 0 {
		return fmt.Errorf("publish.image_timeout_seconds must be > 0")
	}
	return nil
}

// Window is the ingestion lookback as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.YouTube.WindowHours) * time.Hour
}

// ImageTimeout is the featured image download deadline as a duration.
func (c Config) ImageTimeout() time.Duration {
	return time.Duration(c.Publish.ImageTimeoutSeconds) * time.Second
}
