// Package main provides the scrobblerbot CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"scrobblerbot/internal/chat/telegram"
	"scrobblerbot/internal/core"
	httpserver "scrobblerbot/internal/http"
	"scrobblerbot/internal/lastfm"
	"scrobblerbot/internal/store"
)

var (
	envFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scrobblerbot",
	Short: "Telegram scrobbler for last.fm-compatible services",
	Long: `Scrobblerbot is a Telegram bot that scrobbles single tracks, whole albums
and custom track lists to a last.fm-compatible account on the user's behalf.`,
	RunE: runBot,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().String("telegram-bot-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().Int64("telegram-admin-chat-id", 0, "Telegram chat for operator alerts (0 disables)")
	rootCmd.PersistentFlags().Bool("telegram-webhook-enabled", false, "receive updates via webhook instead of long polling")
	rootCmd.PersistentFlags().String("telegram-webhook-url", "", "public webhook URL registered with the Bot API")
	rootCmd.PersistentFlags().String("telegram-language", "en", "bot language")
	rootCmd.PersistentFlags().String("scrobbler-api-key", "", "scrobbling service API key")
	rootCmd.PersistentFlags().String("scrobbler-secret", "", "scrobbling service shared secret")
	rootCmd.PersistentFlags().String("scrobbler-base-url", "", "scrobbling service API base URL")
	rootCmd.PersistentFlags().String("scrobbler-auth-url", "", "scrobbling service auth page URL")
	rootCmd.PersistentFlags().IntSlice("scrobbler-auth-error-codes", nil, "service error codes that require re-authentication")
	rootCmd.PersistentFlags().String("store-path", "", "sqlite database path")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Int("cooldown-secs", core.DefaultCooldownSecs, "minimum seconds between submissions per user")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading env file: %v\n", err)
			os.Exit(1)
		}
	} else {
		// Best effort; a missing .env just means plain environment variables.
		_ = gotenv.Load()
	}

	viper.SetEnvPrefix("SCROBBLERBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Telegram.BotToken = viper.GetString("telegram-bot-token")
	cfg.Telegram.AdminChatID = viper.GetInt64("telegram-admin-chat-id")
	cfg.Telegram.WebhookEnabled = viper.GetBool("telegram-webhook-enabled")
	cfg.Telegram.WebhookURL = viper.GetString("telegram-webhook-url")
	if language := viper.GetString("telegram-language"); language != "" {
		cfg.Telegram.Language = language
	}

	cfg.Scrobbler.APIKey = viper.GetString("scrobbler-api-key")
	cfg.Scrobbler.Secret = viper.GetString("scrobbler-secret")
	if baseURL := viper.GetString("scrobbler-base-url"); baseURL != "" {
		cfg.Scrobbler.BaseURL = baseURL
	}
	if authURL := viper.GetString("scrobbler-auth-url"); authURL != "" {
		cfg.Scrobbler.AuthURL = authURL
	}
	if codes := viper.GetIntSlice("scrobbler-auth-error-codes"); len(codes) > 0 {
		cfg.Scrobbler.AuthErrorCodes = codes
	}

	if path := viper.GetString("store-path"); path != "" {
		cfg.Store.Path = path
	}

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")
	if format := viper.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}

	if secs := viper.GetInt("cooldown-secs"); secs > 0 {
		cfg.App.CooldownSecs = secs
	}

	return cfg
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var cfg zap.Config
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runBot(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting scrobblerbot",
		zap.Bool("webhook", config.Telegram.WebhookEnabled),
		zap.String("store_path", config.Store.Path))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dedup := store.NewDedupStore(config.App.UpdateDedupSize, 0.001)

	frontend := telegram.NewFrontend(&telegram.Config{
		BotToken:       config.Telegram.BotToken,
		WebhookEnabled: config.Telegram.WebhookEnabled,
		WebhookURL:     config.Telegram.WebhookURL,
		Language:       config.Telegram.Language,
	}, dedup, logger.Named("telegram"))

	client := lastfm.NewClient(&config.Scrobbler, logger.Named("lastfm"))

	db, err := store.Open(config.Store.Path, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	notifier := core.NewAdminNotifier(frontend, config.Telegram.AdminChatID, logger.Named("notifier"))
	metrics := core.NewMetrics(prometheus.DefaultRegisterer)

	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	machine := core.NewMachine(
		config,
		frontend,
		client,
		db,
		notifier,
		metrics,
		logger.Named("machine"),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return machine.Start(gCtx)
	})

	g.Go(func() error {
		if config.Telegram.WebhookEnabled {
			// Start registers the webhook; wait for it before mounting.
			deadline := time.Now().Add(30 * time.Second)
			for frontend.WebhookHandler() == nil {
				if time.Now().After(deadline) {
					return fmt.Errorf("webhook handler unavailable")
				}
				select {
				case <-gCtx.Done():
					return nil
				case <-time.After(100 * time.Millisecond):
				}
			}
			httpServer.Mount(httpserver.WebhookPath, frontend.WebhookHandler())
		}
		return httpServer.Start(gCtx)
	})

	logger.Info("Scrobblerbot started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("Scrobblerbot stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Scrobblerbot stopped gracefully")
	return nil
}

func validateConfig() error {
	if config.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}

	if config.Scrobbler.APIKey == "" {
		return fmt.Errorf("scrobbler API key is required")
	}

	if config.Scrobbler.Secret == "" {
		return fmt.Errorf("scrobbler secret is required")
	}

	if config.Telegram.WebhookEnabled && config.Telegram.WebhookURL == "" {
		return fmt.Errorf("webhook URL is required when webhook mode is enabled")
	}

	return nil
}
