package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/korjavin/quizpollbot/bot"
	"github.com/korjavin/quizpollbot/config"
	"github.com/korjavin/quizpollbot/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("starting quiz poll bot", "mode", cfg.Mode)

	var store bot.AnswerStore
	if cfg.DatabasePath != "" {
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			logger.Error("failed to open answer archive", "path", cfg.DatabasePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		logger.Info("answer archive enabled", "path", cfg.DatabasePath)
	}

	b, err := bot.New(cfg, store, logger)
	if err != nil {
		logger.Error("failed to initialize bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx, cfg); err != nil {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}
