package core

import (
	"time"
)

type Config struct {
	Telegram  TelegramConfig
	Scrobbler ScrobblerConfig
	Store     StoreConfig
	Server    ServerConfig
	Log       LogConfig
	App       AppConfig
}

type TelegramConfig struct {
	BotToken       string
	AdminChatID    int64 // operator alert target; 0 disables alerts
	WebhookEnabled bool
	WebhookURL     string
	Language       string
}

type ScrobblerConfig struct {
	APIKey         string
	Secret         string
	BaseURL        string
	AuthURL        string
	Timeout        time.Duration
	AuthErrorCodes []int // service error codes that mean "re-authenticate"
}

type StoreConfig struct {
	Path string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	CooldownSecs    int
	UpdateDedupSize int
}

// Defaults used when flags and environment leave a setting unset.
const (
	DefaultCooldownSecs    = 30
	DefaultUpdateDedupSize = 10000
)

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Language: "en",
		},
		Scrobbler: ScrobblerConfig{
			BaseURL:        "https://ws.audioscrobbler.com/2.0/",
			AuthURL:        "https://www.last.fm/api/auth",
			Timeout:        15 * time.Second,
			AuthErrorCodes: []int{4, 9, 14},
		},
		Store: StoreConfig{
			Path: "./scrobblerbot.db",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			CooldownSecs:    DefaultCooldownSecs,
			UpdateDedupSize: DefaultUpdateDedupSize,
		},
	}
}
