package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizpollbot/config"
	"github.com/korjavin/quizpollbot/models"
	"github.com/korjavin/quizpollbot/quiz"
)

const shutdownTimeout = 30 * time.Second

// AnswerStore archives accepted answers
type AnswerStore interface {
	SaveAnswer(ctx context.Context, rec models.AnswerRecord) error
	SessionAnswers(ctx context.Context, sessionID string) ([]models.AnswerRecord, error)
	CountChatAnswers(ctx context.Context, chatID int64) (int, error)
}

// Bot drives one quiz session per chat over Telegram
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	store       AnswerStore
	sessions    *quiz.Sessions
	polls       *quiz.Registry
	log         *slog.Logger
	typingDelay time.Duration
}

// New creates a new bot instance. store may be nil.
func New(cfg *config.Config, store AnswerStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("authorized on account", "username", api.Self.UserName)

	b := newBot(&telegramSender{api: api}, store, logger, cfg.TypingDelay, cfg.PollRegistrySize, cfg.SessionLimit)
	b.api = api
	return b, nil
}

func newBot(sender Sender, store AnswerStore, logger *slog.Logger, typingDelay time.Duration, registrySize, sessionLimit int) *Bot {
	return &Bot{
		sender:      sender,
		store:       store,
		sessions:    quiz.NewSessions(quiz.DefaultQuestions, sessionLimit),
		polls:       quiz.NewRegistry(registrySize),
		log:         logger,
		typingDelay: typingDelay,
	}
}

// Run receives updates in the configured mode until ctx is cancelled
func (b *Bot) Run(ctx context.Context, cfg *config.Config) error {
	if cfg.Mode == config.ModePolling {
		return b.runPolling(ctx)
	}
	return b.runWebhook(ctx, cfg)
}

func (b *Bot) runPolling(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to remove webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("start polling mode")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) runWebhook(ctx context.Context, cfg *config.Config) error {
	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL + cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to build webhook: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: NewRouter(b.api, b, cfg.WebhookPath(), b.log),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	b.log.Info("start webhook mode", "port", cfg.Port, "webhook", cfg.WebhookURL)

	select {
	case err := <-errCh:
		return fmt.Errorf("webhook server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
