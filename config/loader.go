package config

// loader.go - configuration loading from environment variables.
//
// Every supported env var uses the CHATSERVER_ prefix. Boolean-like and
// numeric values that fail to parse are ignored rather than fatal; Validate
// catches anything the server cannot run with.

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv overlays environment variables onto cfg. Only set, non-empty
// env vars override the existing value. Call this BEFORE CLI flag parsing so
// that flags take precedence.
//
// Parameters:
//   - cfg: The configuration to overlay; modified in place
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("CHATSERVER_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("CHATSERVER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CHATSERVER_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := envInt("CHATSERVER_MAX_LINE_BYTES"); v > 0 {
		cfg.MaxLineBytes = v
	}
	if v := envDuration("CHATSERVER_OTP_TTL"); v > 0 {
		cfg.OTPTTL = v
	}
	if v := envDuration("CHATSERVER_RESET_TOKEN_TTL"); v > 0 {
		cfg.ResetTokenTTL = v
	}
}

// envInt parses an integer env var, returning 0 when unset or unparsable.
func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}

	return n
}

// envDuration parses a duration env var (e.g. "5m", "90s"), returning 0
// when unset or unparsable.
func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}

	return d
}
