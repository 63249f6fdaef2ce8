// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: лок-файл, (опционально) БД, Telegram API,
// сервисы, обработчики, фильтры и планировщик.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/season-bot/internal/bot"
	"serotonyl.ru/season-bot/internal/bot/filters"
	"serotonyl.ru/season-bot/internal/config"
	"serotonyl.ru/season-bot/internal/db/postgres"
	"serotonyl.ru/season-bot/internal/features/access"
	"serotonyl.ru/season-bot/internal/features/journal"
	"serotonyl.ru/season-bot/internal/features/season"
	"serotonyl.ru/season-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool // nil при DB_ENABLED=false
	BotAPI    *telego.Bot

	lock *flock.Flock
}

// New создаёт и инициализирует приложение.
// Компоненты зависят друг от друга, порядок инициализации важен.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Один экземпляр на токен ===
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ошибка лок-файла %s: %w", cfg.LockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("бот уже запущен (занят %s)", cfg.LockPath())
	}
	a := &App{lock: lock}

	// === 2. Журнал публикаций (PostgreSQL или память) ===
	var journalRepo journal.Repository
	if cfg.DBEnabled {
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		a.DB = pool
		if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
			a.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		journalRepo = journal.NewPostgresRepository(pool)
	} else {
		log.Info("DB_ENABLED=false: журнал публикаций хранится в памяти")
		journalRepo = journal.NewMemoryRepository(cfg.JournalMemoryLimit)
	}
	journalService := journal.NewService(journalRepo, time.Duration(cfg.JournalRetentionDays)*24*time.Hour)

	// === 3. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, telego.WithLogger(log.WithField("component", "telego")))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)
	a.BotAPI = botAPI

	// === 4. Сервисы ===
	sender := season.NewRetrier(bot.NewSender(botAPI, cfg.CaptionParseMode), bot.RetryAfter, cfg.FloodExtraWait, nil)
	publisher := season.NewPublisher(sender, nil)
	seasonService := season.NewService(
		season.NewStore(), publisher, journalService,
		season.OptionsFromConfig(cfg), cfg.Presets.DefaultCaption,
	)
	accessService := access.NewService(cfg)
	if !accessService.Restricted() {
		log.Warn("OWNER_IDS и ACCESS_PASSWORD_HASH не заданы: бот открыт для всех")
	}

	// === 5. Обработчики ===
	seasonHandler := season.NewHandler(seasonService, botAPI)
	accessHandler := access.NewHandler(accessService, botAPI)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(accessService, botAPI)

	// === 7. Собираем бота ===
	a.Bot = bot.New(botAPI, cfg, seasonHandler, accessHandler, chatFilter)

	// === 8. Планировщик задач ===
	a.Scheduler = jobs.NewScheduler(cfg.Location(), seasonService, journalService, accessService)

	return a, nil
}

// Close освобождает БД и лок-файл.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			log.WithError(err).Warn("Не удалось снять лок-файл")
		}
	}
}

// migrations — встроенные SQL-миграции, применяются по порядку.
var migrations = []postgres.Migration{
	{Version: 1, Name: "publications", SQL: journal.Migration},
}
