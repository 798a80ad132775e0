package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	ModeWebhook = "webhook"
	ModePolling = "polling"

	defaultPort             = 5000
	defaultTypingDelay      = time.Second
	defaultPollRegistrySize = 1024
	defaultSessionLimit     = 10000
)

// Config holds all the configuration for the application
type Config struct {
	BotToken         string
	Mode             string
	Port             int
	WebhookURL       string
	LogLevel         slog.Level
	DatabasePath     string
	TypingDelay      time.Duration
	PollRegistrySize int
	SessionLimit     int
	Debug            bool
}

// Load reads the configuration from environment variables. Command-line
// flags in args take precedence over the environment.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("quizpollbot", pflag.ContinueOnError)

	token := fs.String("token", envOr("BOT_TOKEN", os.Getenv("TELEGRAM_TOKEN")), "telegram bot token")
	mode := fs.String("mode", envOr("MODE", ModeWebhook), "update delivery mode: webhook or polling")
	port := fs.String("port", envOr("PORT", strconv.Itoa(defaultPort)), "webhook listen port")
	webhookURL := fs.String("webhook-url", os.Getenv("WEBHOOK_URL"), "public base URL the webhook is registered under")
	logLevel := fs.String("log-level", envOr("LOG_LEVEL", "INFO"), "log level: DEBUG, INFO, WARN, ERROR")
	dbPath := fs.String("db-path", os.Getenv("DB_PATH"), "sqlite answer archive, disabled when empty")
	typingDelay := fs.String("typing-delay", envOr("TYPING_DELAY", defaultTypingDelay.String()), "pause after the typing indicator")
	registrySize := fs.String("poll-registry-size", envOr("POLL_REGISTRY_SIZE", strconv.Itoa(defaultPollRegistrySize)), "max outstanding polls tracked")
	sessionLimit := fs.String("session-limit", envOr("SESSION_LIMIT", strconv.Itoa(defaultSessionLimit)), "max chats with a quiz session kept in memory")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *token == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}

	cfg := &Config{
		BotToken:     *token,
		Mode:         strings.ToLower(*mode),
		WebhookURL:   *webhookURL,
		DatabasePath: *dbPath,
		Debug:        os.Getenv("DEBUG") == "true",
	}

	switch cfg.Mode {
	case ModeWebhook:
		if cfg.WebhookURL == "" {
			return nil, errors.New("WEBHOOK_URL is required in webhook mode")
		}
		if !strings.HasSuffix(cfg.WebhookURL, "/") {
			cfg.WebhookURL += "/"
		}
	case ModePolling:
	default:
		return nil, fmt.Errorf("invalid MODE %q: want %s or %s", *mode, ModeWebhook, ModePolling)
	}

	p, err := strconv.Atoi(*port)
	if err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", *port)
	}
	cfg.Port = p

	if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", *logLevel, err)
	}

	d, err := time.ParseDuration(*typingDelay)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("invalid TYPING_DELAY %q", *typingDelay)
	}
	cfg.TypingDelay = d

	n, err := strconv.Atoi(*registrySize)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid POLL_REGISTRY_SIZE %q", *registrySize)
	}
	cfg.PollRegistrySize = n

	n, err = strconv.Atoi(*sessionLimit)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid SESSION_LIMIT %q", *sessionLimit)
	}
	cfg.SessionLimit = n

	return cfg, nil
}

// ListenAddr is the address the webhook server binds
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// WebhookPath is the URL path updates are posted to
func (c *Config) WebhookPath() string {
	return "/" + c.BotToken
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
