package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported chat platforms.
const (
	PlatformDiscord = "discord"
	PlatformSlack   = "slack"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Platform string         `yaml:"platform"` // "discord" or "slack"
	Discord  DiscordConfig  `yaml:"discord"`
	Slack    SlackConfig    `yaml:"slack"`
	Sessions SessionsConfig `yaml:"sessions"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the ops HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	BotToken      string `yaml:"bot_token"`
	CommandPrefix string `yaml:"command_prefix"`
}

// SlackConfig holds Slack app settings.
type SlackConfig struct {
	BotToken      string           `yaml:"bot_token"`
	CommandPrefix string           `yaml:"command_prefix"`
	SocketMode    SocketModeConfig `yaml:"socket_mode"`
}

// SocketModeConfig holds Slack Socket Mode settings.
type SocketModeConfig struct {
	AppToken string `yaml:"app_token"` // xapp-...
	Debug    bool   `yaml:"debug"`
}

// SessionsConfig holds defaults for interactive sessions started by commands.
type SessionsConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	PaginatorMaxChars int           `yaml:"paginator_max_chars"`
	PaginatorMinChars int           `yaml:"paginator_min_chars"`
}

// StorageConfig holds session audit log storage settings.
type StorageConfig struct {
	Type   string       `yaml:"type"` // "memory", "sqlite", or "mysql"
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // use ":memory:" for an in-memory database
}

// MySQLConfig holds MySQL-specific settings.
type MySQLConfig struct {
	Primary   MySQLInstanceConfig `yaml:"primary"`
	Pool      MySQLPoolConfig     `yaml:"pool"`
	Timeout   time.Duration       `yaml:"timeout"`
	ParseTime bool                `yaml:"parse_time"`
	Charset   string              `yaml:"charset"`
}

// MySQLInstanceConfig holds MySQL instance connection settings.
type MySQLInstanceConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MySQLPoolConfig holds MySQL connection pool settings.
type MySQLPoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			// Expand environment variables in YAML
			expandedData := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// overrideFromEnv overrides config values from environment variables.
func (c *Config) overrideFromEnv() {
	// Server
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	if v := os.Getenv("PLATFORM"); v != "" {
		c.Platform = strings.ToLower(v)
	}

	// Discord
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		c.Discord.BotToken = v
	}
	if v := os.Getenv("DISCORD_COMMAND_PREFIX"); v != "" {
		c.Discord.CommandPrefix = v
	}

	// Slack
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("SLACK_APP_TOKEN"); v != "" {
		c.Slack.SocketMode.AppToken = v
	}
	if v := os.Getenv("SLACK_COMMAND_PREFIX"); v != "" {
		c.Slack.CommandPrefix = v
	}
	if v := os.Getenv("SLACK_SOCKET_MODE_DEBUG"); v != "" {
		c.Slack.SocketMode.Debug = strings.ToLower(v) == "true"
	}

	// Sessions
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sessions.Timeout = d
		}
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	// Storage
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("SQLITE_DATABASE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}

	// MySQL
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.Storage.MySQL.Primary.Host = v
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Primary.Port = port
		}
	}
	if v := os.Getenv("MYSQL_DATABASE"); v != "" {
		c.Storage.MySQL.Primary.Database = v
	}
	if v := os.Getenv("MYSQL_USERNAME"); v != "" {
		c.Storage.MySQL.Primary.Username = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Storage.MySQL.Primary.Password = v
	}
	if v := os.Getenv("MYSQL_MAX_OPEN_CONNS"); v != "" {
		if conns, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Pool.MaxOpenConns = conns
		}
	}
	if v := os.Getenv("MYSQL_MAX_IDLE_CONNS"); v != "" {
		if conns, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Pool.MaxIdleConns = conns
		}
	}
}

// applyDefaults sets default values for unset config options.
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 5 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Platform == "" {
		c.Platform = PlatformDiscord
	}
	if c.Discord.CommandPrefix == "" {
		c.Discord.CommandPrefix = "!"
	}
	if c.Slack.CommandPrefix == "" {
		c.Slack.CommandPrefix = "!"
	}

	// Session defaults
	if c.Sessions.Timeout == 0 {
		c.Sessions.Timeout = 60 * time.Second
	}
	if c.Sessions.PaginatorMaxChars == 0 {
		c.Sessions.PaginatorMaxChars = 2000
	}
	if c.Sessions.PaginatorMinChars == 0 {
		c.Sessions.PaginatorMinChars = min(1500, c.Sessions.PaginatorMaxChars*3/4)
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	// Storage defaults
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "./data/button-bridge.db"
	}

	// MySQL defaults
	if c.Storage.MySQL.Pool.MaxOpenConns == 0 {
		c.Storage.MySQL.Pool.MaxOpenConns = 10
	}
	if c.Storage.MySQL.Pool.MaxIdleConns == 0 {
		c.Storage.MySQL.Pool.MaxIdleConns = 2
	}
	if c.Storage.MySQL.Pool.ConnMaxLifetime == 0 {
		c.Storage.MySQL.Pool.ConnMaxLifetime = 3 * time.Minute
	}
	if c.Storage.MySQL.Pool.ConnMaxIdleTime == 0 {
		c.Storage.MySQL.Pool.ConnMaxIdleTime = 1 * time.Minute
	}
	if c.Storage.MySQL.Timeout == 0 {
		c.Storage.MySQL.Timeout = 5 * time.Second
	}
	if !c.Storage.MySQL.ParseTime {
		c.Storage.MySQL.ParseTime = true
	}
	if c.Storage.MySQL.Charset == "" {
		c.Storage.MySQL.Charset = "utf8mb4"
	}
	if c.Storage.MySQL.Primary.Port == 0 {
		c.Storage.MySQL.Primary.Port = 3306
	}
}

// IsDiscord reports whether the Discord adapter is selected.
func (c *Config) IsDiscord() bool {
	return c.Platform == PlatformDiscord
}

// IsSlack reports whether the Slack adapter is selected.
func (c *Config) IsSlack() bool {
	return c.Platform == PlatformSlack
}

// CommandPrefix returns the text command prefix of the selected platform.
func (c *Config) CommandPrefix() string {
	if c.IsSlack() {
		return c.Slack.CommandPrefix
	}
	return c.Discord.CommandPrefix
}
