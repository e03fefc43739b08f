// Package config defines the runtime configuration for the chat server
// daemon and provides loading from environment variables. Precedence order
// (highest wins): CLI flags (handled by cmd), environment variables,
// defaults.
package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config holds every tuneable for a single server process.
type Config struct {
	// Addr is the TCP listen address, host optional (e.g. ":9000").
	Addr string
	// LogLevel is the minimum level to log ("debug", "info", "warn", "error").
	LogLevel string
	// RedisAddr, when non-empty, selects the redis-backed token store at
	// this "host:port" instead of the in-process one.
	RedisAddr string
	// MaxLineBytes caps the length of one wire line.
	MaxLineBytes int
	// OTPTTL is the lifetime of account verification codes.
	OTPTTL time.Duration
	// ResetTokenTTL is the lifetime of password reset tokens.
	ResetTokenTTL time.Duration
}

// Default returns a Config populated with the package defaults.
func Default() Config {
	return Config{
		Addr:          DefaultAddr,
		LogLevel:      DefaultLogLevel,
		MaxLineBytes:  DefaultMaxLineBytes,
		OTPTTL:        DefaultOTPTTL,
		ResetTokenTTL: DefaultResetTokenTTL,
	}
}

// Validate checks the configuration for values the server cannot run with.
//
// Returns:
//   - An error describing the first invalid field, or nil
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty (hint: use \":9000\" to listen on all interfaces)")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.MaxLineBytes <= 0 {
		return fmt.Errorf("max line bytes must be positive, got %d", c.MaxLineBytes)
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("otp ttl must be positive, got %s", c.OTPTTL)
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("reset token ttl must be positive, got %s", c.ResetTokenTTL)
	}

	return nil
}

// Level returns the parsed zerolog level. Call Validate first; an invalid
// level falls back to info here.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}

	return lvl
}
