// Package bot содержит главный модуль бота — запуск long polling,
// маршрутизацию апдейтов и остановку.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/season-bot/internal/bot/filters"
	"serotonyl.ru/season-bot/internal/bot/middleware"
	"serotonyl.ru/season-bot/internal/config"
	"serotonyl.ru/season-bot/internal/features/access"
	"serotonyl.ru/season-bot/internal/features/season"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	seasonHandler *season.Handler
	accessHandler *access.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	// обработчики, которые ещё работают; Start ждёт их перед выходом
	handlers sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	seasonHandler *season.Handler,
	accessHandler *access.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		chatFilter:    chatFilter,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		seasonHandler: seasonHandler,
		accessHandler: accessHandler,
		parser:        NewCommandParser(),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// menu — команды для кнопки меню Telegram.
var menu = []telego.BotCommand{
	{Command: "new", Description: "Start a new season (episode by episode)"},
	{Command: "qualitysort", Description: "Start a quality-by-quality season"},
	{Command: "setnames", Description: "Episode titles, one per line"},
	{Command: "setformat", Description: "Caption template with {ep} and {quality}"},
	{Command: "setstickers", Description: "Two closing sticker IDs"},
	{Command: "setsticker", Description: "Reply to a sticker to add it"},
	{Command: "ignore", Description: "Text to cut before episode detection"},
	{Command: "epmode", Description: "Episode detection mode"},
	{Command: "status", Description: "Session status"},
	{Command: "publish", Description: "Publish the season"},
	{Command: "history", Description: "Recent publications"},
	{Command: "cancel", Description: "Drop the session"},
	{Command: "help", Description: "How it works"},
}

// Start запускает long polling и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.api.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: menu}); err != nil {
		log.WithError(err).Warn("Не удалось установить меню команд")
	}

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	b.serve(ctx, updates, b.handleUpdate)
	b.rateLimiter.Close()
	return nil
}

// serve раздаёт апдейты обработчикам (не больше inflight одновременно)
// и возвращается, только когда все запущенные обработчики завершились.
func (b *Bot) serve(ctx context.Context, updates <-chan telego.Update, handle func(context.Context, telego.Update)) {
	defer b.handlers.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done), ждём активные обработчики...")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				continue
			}
			b.handlers.Add(1)
			go func(upd telego.Update) {
				defer b.handlers.Done()
				defer func() { <-b.inflight }()
				handle(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	message := update.Message
	if message == nil {
		return
	}

	middleware.LogMessage(message)

	cmd, isCommand := b.parser.Parse(message.Text)

	if !b.chatFilter.CheckAccess(ctx, message, cmd.Name) {
		return
	}

	// Rate limiting
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	if isCommand {
		log.WithFields(log.Fields{
			"cmd":  cmd.Name,
			"args": cmd.Args,
		}).Debug("parsed command")
		if b.routeCommand(ctx, message, cmd) {
			return
		}
	}

	switch {
	case message.Video != nil || message.Document != nil:
		b.seasonHandler.HandleMedia(ctx, message)
	case message.Sticker != nil:
		b.seasonHandler.HandleSticker(ctx, message)
	case message.Text != "" || message.Photo != nil:
		if !b.seasonHandler.HandleText(ctx, message) {
			log.WithField("user_id", message.From.ID).Debug("сообщение без обработчика")
		}
	}
}

// handleCallback обрабатывает нажатие inline-кнопки.
func (b *Bot) handleCallback(ctx context.Context, query *telego.CallbackQuery) {
	middleware.LogCallback(query)
	if !b.chatFilter.CheckCallback(query) {
		return
	}
	if !b.rateLimiter.Allow(query.From.ID) {
		return
	}
	b.seasonHandler.HandleCallback(ctx, query)
}

// routeCommand маршрутизирует команду к нужному обработчику.
// Неизвестная команда возвращает false и обрабатывается как обычный текст.
func (b *Bot) routeCommand(ctx context.Context, message *telego.Message, cmd Command) bool {
	h := b.seasonHandler
	switch cmd.Name {
	case "start", "help":
		h.HandleStart(ctx, message)
	case "new":
		h.HandleNew(ctx, message, season.KindEpisodeFirst)
	case "qualitysort":
		h.HandleNew(ctx, message, season.KindQualityFirst)
	case "cancel", "cancelq":
		h.HandleCancel(ctx, message)
	case "setnames":
		h.HandleSetNames(ctx, message, cmd.Payload)
	case "setformat", "setformatq":
		h.HandleSetFormat(ctx, message, cmd.Payload)
	case "setstickers":
		h.HandleSetStickers(ctx, message, cmd.Args)
	case "setsticker":
		h.HandleSetSticker(ctx, message)
	case "ignore":
		h.HandleIgnore(ctx, message, cmd.Payload)
	case "epmode", "epmodeq":
		h.HandleEpMode(ctx, message, cmd.Args)
	case "status", "statusq":
		h.HandleStatus(ctx, message)
	case "publish", "publishq":
		h.HandlePublish(ctx, message)
	case "history":
		h.HandleHistory(ctx, message)
	case "login":
		b.accessHandler.HandleLogin(ctx, message, cmd.Args)
	case "logout":
		b.accessHandler.HandleLogout(ctx, message)
	default:
		return false
	}
	return true
}

// Command — разобранная команда.
type Command struct {
	Name    string   // без префикса и @username, в нижнем регистре
	Args    []string // слова первой строки после команды
	Payload string   // весь текст после команды, включая следующие строки
}

// CommandParser парсит команды с префиксами / и !
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!"},
	}
}

// Parse разбирает текст на команду, аргументы и многострочную нагрузку.
func (p *CommandParser) Parse(text string) (Command, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return Command{}, false
	}

	// имя команды заканчивается на первом пробеле или переводе строки
	end := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' || r == '\r' })
	name, rest := text, ""
	if end >= 0 {
		name, rest = text[:end], text[end:]
	}
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}

	cmd := Command{
		Name:    strings.ToLower(name),
		Payload: strings.TrimSpace(rest),
	}
	firstLine, _, _ := strings.Cut(rest, "\n")
	if fields := strings.Fields(firstLine); len(fields) > 0 {
		cmd.Args = fields
	}
	return cmd, true
}
