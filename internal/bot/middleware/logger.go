// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/season-bot/internal/common"
)

// LogMessage логирует входящее сообщение: кто, где и что прислал.
// Для медиа пишет тип и имя файла вместо текста.
func LogMessage(message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}

	fields := log.Fields{
		"user_id":  message.From.ID,
		"chat_id":  message.Chat.ID,
		"username": message.From.Username,
	}
	switch {
	case message.Video != nil:
		fields["kind"] = "video"
		fields["file_name"] = message.Video.FileName
	case message.Document != nil:
		fields["kind"] = "document"
		fields["file_name"] = message.Document.FileName
	case message.Sticker != nil:
		fields["kind"] = "sticker"
	case message.Photo != nil:
		fields["kind"] = "photo"
	default:
		fields["kind"] = "text"
	}
	if text := message.Text + message.Caption; text != "" {
		fields["text"] = common.Truncate(maskSecrets(text), 50)
	}

	log.WithFields(fields).Debug("Входящее сообщение")
}

// LogCallback логирует нажатие inline-кнопки.
func LogCallback(query *telego.CallbackQuery) {
	if query == nil {
		return
	}
	log.WithFields(log.Fields{
		"user_id":  query.From.ID,
		"username": query.From.Username,
		"data":     query.Data,
	}).Debug("Входящий callback")
}

// maskSecrets скрывает пароль в /login.
func maskSecrets(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}
	name := strings.TrimLeft(strings.ToLower(fields[0]), "/!")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "login" {
		return fields[0] + " ***"
	}
	return text
}
