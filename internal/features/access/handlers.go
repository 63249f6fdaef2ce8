// Package access — handlers.go обрабатывает /login и /logout.
package access

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает команды доступа.
type Handler struct {
	service *Service
	bot     *telego.Bot
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, bot *telego.Bot) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleLogin проверяет пароль. Сообщение с паролем удаляется из чата.
func (h *Handler) HandleLogin(ctx context.Context, msg *telego.Message, args []string) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !h.service.Restricted() || h.service.IsOwner(userID) {
		h.sendMessage(ctx, chatID, "✅ You already have access.")
		return
	}
	if len(args) == 0 {
		h.sendMessage(ctx, chatID, "Usage: /login <password>")
		return
	}

	// пароль не должен оставаться в истории чата
	if err := h.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{ChatID: tu.ID(chatID), MessageID: msg.MessageID}); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("не удалось удалить сообщение с паролем")
	}

	grant, err := h.service.Login(userID, strings.Join(args, " "))
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}
	h.sendMessage(ctx, chatID, "✅ Access granted until "+grant.ExpiresAt.Format("02.01.2006 15:04")+". Send /help to begin.")
}

// HandleLogout отзывает допуск.
func (h *Handler) HandleLogout(ctx context.Context, msg *telego.Message) {
	h.service.Logout(msg.From.ID)
	h.sendMessage(ctx, msg.Chat.ID, "👋 Logged out.")
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
