package slack

import (
	"math"
	"time"
)

// ReconnectionConfig holds the backoff between failed connection attempts.
type ReconnectionConfig struct {
	InitialBackoff    time.Duration // default 500ms
	MaxBackoff        time.Duration // default 60s
	BackoffMultiplier float64       // default 1.5
	MaxRetries        int           // consecutive failures before the breaker opens, default 5
}

// DefaultReconnectionConfig returns default reconnection configuration.
func DefaultReconnectionConfig() ReconnectionConfig {
	return ReconnectionConfig{
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 1.5,
		MaxRetries:        5,
	}
}

// CalculateBackoff returns the exponential backoff for attempt, capped at
// MaxBackoff.
func CalculateBackoff(cfg ReconnectionConfig, attempt int) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffMultiplier, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}
