// Command chatserverd runs the chat server daemon. Configuration comes from
// defaults, CHATSERVER_* environment variables, and CLI flags, in rising
// order of precedence.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/cyberinferno/go-chat-server/config"
	"github.com/cyberinferno/go-chat-server/logger"
	"github.com/cyberinferno/go-chat-server/registry"
	"github.com/cyberinferno/go-chat-server/router"
	"github.com/cyberinferno/go-chat-server/server"
	"github.com/cyberinferno/go-chat-server/service"
)

func main() {
	cfg := config.Default()
	config.LoadFromEnv(&cfg)

	// Flag defaults come from the env-overlaid config, so flags win.
	pflag.StringVar(&cfg.Addr, "addr", cfg.Addr, "TCP listen address")
	pflag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "minimum log level (debug|info|warn|error)")
	pflag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for the token store; empty for in-process")
	pflag.IntVar(&cfg.MaxLineBytes, "max-line-bytes", cfg.MaxLineBytes, "maximum length of one wire line")
	pflag.DurationVar(&cfg.OTPTTL, "otp-ttl", cfg.OTPTTL, "verification code lifetime")
	pflag.DurationVar(&cfg.ResetTokenTTL, "reset-token-ttl", cfg.ResetTokenTTL, "password reset token lifetime")
	pflag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}

	log := logger.NewConsole("chatserver", cfg.Level())

	store := service.NewStore()

	var tokens service.TokenStore
	if cfg.RedisAddr != "" {
		tokens = service.NewRedisTokenStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		log.Info("using redis token store", logger.Field{Key: "addr", Value: cfg.RedisAddr})
	} else {
		tokens = service.NewMemoryTokenStore(time.Minute)
	}

	reg := registry.New[*server.Session]()

	auth := service.NewAuthService(store, tokens, log, cfg.OTPTTL, cfg.ResetTokenTTL)
	users := service.NewUserService(store, log)
	friends := service.NewFriendService(store, reg, log)

	srv := &server.Server{
		Logger:       log,
		Addr:         cfg.Addr,
		Router:       router.New(service.Routes(auth, users, friends)),
		Registry:     reg,
		MaxLineBytes: cfg.MaxLineBytes,
	}

	if err := srv.Start(); err != nil {
		log.Error("startup failed", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	srv.Stop()
}
