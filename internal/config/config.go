package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Library  LibraryConfig  `mapstructure:"library"`
	Queue    QueueConfig    `mapstructure:"queue"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetadataConfig holds metadata provider configuration.
type MetadataConfig struct {
	TVDB     TVDBConfig    `mapstructure:"tvdb"`
	TVMaze   TVMazeConfig  `mapstructure:"tvmaze"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// TVDBConfig holds TVDB API configuration.
type TVDBConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// TVMazeConfig holds TVmaze API configuration.
type TVMazeConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// LibraryConfig seeds the library defaults on first start.
// Once a value has been saved through the API the stored setting wins.
type LibraryConfig struct {
	QualityPreset       string   `mapstructure:"quality_preset"`
	SeasonFolders       bool     `mapstructure:"season_folders"`
	Subtitles           bool     `mapstructure:"subtitles"`
	Anime               bool     `mapstructure:"anime"`
	Scene               bool     `mapstructure:"scene"`
	Status              string   `mapstructure:"status"`
	StatusAfter         string   `mapstructure:"status_after"`
	IndexerLanguage     string   `mapstructure:"indexer_language"`
	RootDirs            []string `mapstructure:"root_dirs"`
	CreateShowDirs      bool     `mapstructure:"create_show_dirs"`
	ReleaseGroupAliases string   `mapstructure:"release_group_aliases"`
}

// QueueConfig holds show-addition queue configuration.
type QueueConfig struct {
	Workers   int           `mapstructure:"workers"`
	Retention time.Duration `mapstructure:"retention"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8081,
			RequestTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/marquee.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metadata: MetadataConfig{
			TVDB: TVDBConfig{
				BaseURL: "https://api4.thetvdb.com/v4",
				Timeout: 15,
			},
			TVMaze: TVMazeConfig{
				BaseURL: "https://api.tvmaze.com",
				Timeout: 15,
			},
			CacheTTL: 15 * time.Minute,
		},
		Library: LibraryConfig{
			QualityPreset:   "hd",
			SeasonFolders:   true,
			Status:          "skipped",
			StatusAfter:     "wanted",
			IndexerLanguage: "en",
			CreateShowDirs:  true,
		},
		Queue: QueueConfig{
			Workers:   1,
			Retention: 24 * time.Hour,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.marquee")
	}

	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default() into viper so env-only keys resolve.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metadata.tvdb.api_key", EmbeddedTVDBKey)
	v.SetDefault("metadata.tvdb.base_url", d.Metadata.TVDB.BaseURL)
	v.SetDefault("metadata.tvdb.timeout", d.Metadata.TVDB.Timeout)
	v.SetDefault("metadata.tvmaze.base_url", d.Metadata.TVMaze.BaseURL)
	v.SetDefault("metadata.tvmaze.timeout", d.Metadata.TVMaze.Timeout)
	v.SetDefault("metadata.cache_ttl", d.Metadata.CacheTTL)

	v.SetDefault("library.quality_preset", d.Library.QualityPreset)
	v.SetDefault("library.season_folders", d.Library.SeasonFolders)
	v.SetDefault("library.subtitles", d.Library.Subtitles)
	v.SetDefault("library.anime", d.Library.Anime)
	v.SetDefault("library.scene", d.Library.Scene)
	v.SetDefault("library.status", d.Library.Status)
	v.SetDefault("library.status_after", d.Library.StatusAfter)
	v.SetDefault("library.indexer_language", d.Library.IndexerLanguage)
	v.SetDefault("library.root_dirs", []string{})
	v.SetDefault("library.create_show_dirs", d.Library.CreateShowDirs)
	v.SetDefault("library.release_group_aliases", "")

	v.SetDefault("queue.workers", d.Queue.Workers)
	v.SetDefault("queue.retention", d.Queue.Retention)
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue workers must be at least 1, got %d", c.Queue.Workers)
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
