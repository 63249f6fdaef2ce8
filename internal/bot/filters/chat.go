// Package filters решает, какие апдейты вообще доходят до обработчиков.
package filters

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/season-bot/internal/common"
	"serotonyl.ru/season-bot/internal/features/access"
)

// ChatFilter пропускает только личные сообщения пользователей с доступом.
type ChatFilter struct {
	access *access.Service
	bot    *telego.Bot
}

// NewChatFilter создаёт фильтр.
func NewChatFilter(accessService *access.Service, bot *telego.Bot) *ChatFilter {
	return &ChatFilter{access: accessService, bot: bot}
}

// CheckAccess проверяет сообщение. cmd — разобранная команда (или пусто):
// /login проходит всегда, иначе без него нельзя получить доступ.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *telego.Message, cmd string) bool {
	if message == nil {
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	// 1) Только личка: публикация идёт в тот же чат
	if message.Chat.Type != telego.ChatTypePrivate {
		logger.Debug("deny: not a private chat")
		return false
	}

	// 2) Вход по паролю доступен всем
	if cmd == "login" {
		return true
	}

	// 3) Владелец или действующий допуск
	if f.access.Allowed(message.From.ID) {
		return true
	}

	logger.Info("deny: no access")
	_, err := f.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), "🔐 "+common.ErrNotAllowed.Error()))
	if err != nil {
		logger.WithError(err).Warn("failed to send deny message")
	}
	return false
}

// CheckCallback проверяет нажатие inline-кнопки.
func (f *ChatFilter) CheckCallback(query *telego.CallbackQuery) bool {
	if query == nil {
		return false
	}
	if query.Message != nil && query.Message.GetChat().Type != telego.ChatTypePrivate {
		return false
	}
	return f.access.Allowed(query.From.ID)
}
