package config

import "time"

// Default values live here so they are easy to audit and reuse across CLI
// flags and environment variable loading.
const (
	// DefaultAddr is the well-known listen address of the chat server.
	DefaultAddr = ":9000"

	// DefaultLogLevel is the minimum log level when none is configured.
	DefaultLogLevel = "info"

	// DefaultMaxLineBytes caps the length of a single wire line. Lines
	// longer than this terminate the offending connection.
	DefaultMaxLineBytes = 64 * 1024

	// DefaultOTPTTL is how long an account verification code stays valid.
	DefaultOTPTTL = 5 * time.Minute

	// DefaultResetTokenTTL is how long a password reset token stays valid.
	DefaultResetTokenTTL = 15 * time.Minute
)
