package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/season-bot/internal/app"
	"serotonyl.ru/season-bot/internal/config"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}
}

// runBot загружает конфигурацию, собирает приложение и работает до SIGINT/SIGTERM.
func runBot(parent context.Context) error {
	setupLogging()

	log.Info("=== Бот запускается ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("Не удалось загрузить конфигурацию")
		return err
	}

	// Устанавливаем уровень логирования из конфига
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	if parent == nil {
		parent = context.Background()
	}
	// Контекст отменяется по Ctrl+C / docker stop
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Не удалось инициализировать приложение")
		return err
	}
	defer application.Close()

	if err := application.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer application.Scheduler.Stop()

	log.Info("=== Бот готов к работе ===")

	// Start блокируется до отмены контекста
	if err := application.Bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Бот остановился с ошибкой")
		return err
	}

	log.Info("=== Бот остановлен ===")
	return nil
}

// setupLogging настраивает формат логов. Цвета включаются только в терминале.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     stdoutIsTerminal(),
		DisableColors:   !stdoutIsTerminal(),
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
