package bot

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateHandler consumes updates delivered to the webhook
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// UpdateDecoder reads an update out of a webhook request; *tgbotapi.BotAPI implements it
type UpdateDecoder interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// NewRouter serves Telegram webhook deliveries on path. The path embeds the
// bot token, so request paths are never logged.
func NewRouter(decoder UpdateDecoder, h UpdateHandler, path string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post(path, func(w http.ResponseWriter, r *http.Request) {
		update, err := decoder.HandleUpdate(r)
		if err != nil {
			logger.Warn("invalid webhook payload", "error", err)
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}

		// the update is handled to completion even if Telegram hangs up
		h.HandleUpdate(context.WithoutCancel(r.Context()), *update)
		w.WriteHeader(http.StatusOK)
	})

	return r
}
