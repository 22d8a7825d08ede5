package config

import (
	"fmt"
	"strings"
	"time"
)

// reloadableKeys defines the whitelist of configuration keys that can be hot-reloaded.
var reloadableKeys = map[string]bool{
	"logging.level":                true,
	"logging.format":               true,
	"sessions.timeout":             true,
	"sessions.paginator_max_chars": true,
	"sessions.paginator_min_chars": true,
}

// staticKeys defines configuration keys that require application restart.
var staticKeys = map[string]string{
	"server":   "HTTP listener restart required",
	"platform": "Platform adapter recreation required",
	"discord":  "Gateway reconnection required",
	"slack":    "Socket Mode reconnection required",
	"storage":  "Storage backend initialization required",
}

// IsReloadable returns true if the given config key can be hot-reloaded.
func IsReloadable(key string) bool {
	return reloadableKeys[key]
}

// getRestartReason returns the reason why a static config key requires restart.
func getRestartReason(key string) string {
	if reason, ok := staticKeys[key]; ok {
		return reason
	}
	return "unknown configuration requires restart"
}

// ValidateLogLevel checks if the log level is valid.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
	return nil
}

// ValidateLogFormat checks if the log format is valid.
func ValidateLogFormat(format string) error {
	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[strings.ToLower(format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", format)
	}
	return nil
}

// ValidateNonEmpty checks if a string is non-empty.
func ValidateNonEmpty(value string, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateDuration checks if a duration is greater than zero.
func ValidateDuration(duration time.Duration, fieldName string) error {
	if duration <= 0 {
		return fmt.Errorf("%s must be greater than 0", fieldName)
	}
	return nil
}

// ValidatePort checks if a port number is valid.
func ValidatePort(port int, fieldName string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", fieldName, port)
	}
	return nil
}

// ValidateStorageType checks if the storage type is valid.
func ValidateStorageType(storageType string) error {
	validTypes := map[string]bool{
		"memory": true,
		"sqlite": true,
		"mysql":  true,
	}
	if !validTypes[storageType] {
		return fmt.Errorf("invalid storage type: %s (must be memory, sqlite, or mysql)", storageType)
	}
	return nil
}

// ValidatePlatform checks if the platform is supported.
func ValidatePlatform(platform string) error {
	switch platform {
	case PlatformDiscord, PlatformSlack:
		return nil
	default:
		return fmt.Errorf("invalid platform: %s (must be discord or slack)", platform)
	}
}

// Validate performs comprehensive validation on the configuration.
// Returns an error listing every failed check.
func (c *Config) Validate() error {
	var errors []string
	check := func(err error) {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	// Server validation
	check(ValidatePort(c.Server.Port, "server.port"))
	check(ValidateDuration(c.Server.ReadTimeout, "server.read_timeout"))
	check(ValidateDuration(c.Server.WriteTimeout, "server.write_timeout"))
	check(ValidateDuration(c.Server.RequestTimeout, "server.request_timeout"))
	check(ValidateDuration(c.Server.ShutdownTimeout, "server.shutdown_timeout"))

	// Logical constraint: RequestTimeout should be less than WriteTimeout
	if c.Server.RequestTimeout >= c.Server.WriteTimeout {
		errors = append(errors, "server.request_timeout must be less than server.write_timeout")
	}

	// Platform validation
	check(ValidatePlatform(c.Platform))
	switch c.Platform {
	case PlatformDiscord:
		check(ValidateNonEmpty(c.Discord.BotToken, "discord.bot_token"))
		check(ValidateNonEmpty(c.Discord.CommandPrefix, "discord.command_prefix"))
	case PlatformSlack:
		check(ValidateNonEmpty(c.Slack.BotToken, "slack.bot_token"))
		check(ValidateNonEmpty(c.Slack.SocketMode.AppToken, "slack.socket_mode.app_token"))
		check(ValidateNonEmpty(c.Slack.CommandPrefix, "slack.command_prefix"))
	}

	// Session validation
	check(c.Sessions.Validate())

	// Storage validation
	check(ValidateStorageType(c.Storage.Type))

	if c.Storage.Type == "sqlite" {
		check(ValidateNonEmpty(c.Storage.SQLite.Path, "storage.sqlite.path"))
	}

	if c.Storage.Type == "mysql" {
		check(ValidateNonEmpty(c.Storage.MySQL.Primary.Host, "storage.mysql.primary.host"))
		check(ValidatePort(c.Storage.MySQL.Primary.Port, "storage.mysql.primary.port"))
		check(ValidateNonEmpty(c.Storage.MySQL.Primary.Database, "storage.mysql.primary.database"))
		check(ValidateNonEmpty(c.Storage.MySQL.Primary.Username, "storage.mysql.primary.username"))
		check(ValidateNonEmpty(c.Storage.MySQL.Primary.Password, "storage.mysql.primary.password"))

		// Connection pool validation
		if c.Storage.MySQL.Pool.MaxOpenConns < 1 {
			errors = append(errors, "storage.mysql.pool.max_open_conns must be at least 1")
		}
		if c.Storage.MySQL.Pool.MaxIdleConns < 0 {
			errors = append(errors, "storage.mysql.pool.max_idle_conns cannot be negative")
		}
		if c.Storage.MySQL.Pool.MaxIdleConns > c.Storage.MySQL.Pool.MaxOpenConns {
			errors = append(errors, "storage.mysql.pool.max_idle_conns cannot exceed max_open_conns")
		}
	}

	// Logging validation
	check(ValidateLogLevel(c.Logging.Level))
	check(ValidateLogFormat(c.Logging.Format))

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks session defaults, which are also validated on reload.
func (s SessionsConfig) Validate() error {
	if err := ValidateDuration(s.Timeout, "sessions.timeout"); err != nil {
		return err
	}
	if s.PaginatorMaxChars < 1 {
		return fmt.Errorf("sessions.paginator_max_chars must be at least 1")
	}
	if s.PaginatorMinChars < 0 || s.PaginatorMinChars >= s.PaginatorMaxChars {
		return fmt.Errorf("sessions.paginator_min_chars must be between 0 and paginator_max_chars-1, got %d", s.PaginatorMinChars)
	}
	return nil
}
