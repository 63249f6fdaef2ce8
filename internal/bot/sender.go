// Package bot — sender.go отправляет элементы публикации через telego
// и распознаёт ошибку 429 (Too Many Requests) с временем ожидания.
package bot

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Sender — исходящие вызовы Bot API для публикации.
type Sender struct {
	api              *telego.Bot
	captionParseMode string
}

// NewSender создаёт отправителя поверх telego.
// captionParseMode — режим разметки подписей к видео ("" — простой текст).
func NewSender(api *telego.Bot, captionParseMode string) *Sender {
	return &Sender{api: api, captionParseMode: captionParseMode}
}

// SendText отправляет HTML-текст (название эпизода).
func (s *Sender) SendText(ctx context.Context, chatID int64, html string) error {
	_, err := s.api.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    tu.ID(chatID),
		Text:      html,
		ParseMode: telego.ModeHTML,
	})
	return err
}

// SendVideo отправляет видео по file_id с подписью в настроенном режиме разметки.
func (s *Sender) SendVideo(ctx context.Context, chatID int64, fileID, caption string) error {
	_, err := s.api.SendVideo(ctx, videoParams(chatID, fileID, caption, s.captionParseMode))
	return err
}

func videoParams(chatID int64, fileID, caption, parseMode string) *telego.SendVideoParams {
	return &telego.SendVideoParams{
		ChatID:    tu.ID(chatID),
		Video:     tu.FileFromID(fileID),
		Caption:   caption,
		ParseMode: parseMode,
	}
}

// SendSticker отправляет стикер по file_id.
func (s *Sender) SendSticker(ctx context.Context, chatID int64, fileID string) error {
	_, err := s.api.SendSticker(ctx, &telego.SendStickerParams{
		ChatID:  tu.ID(chatID),
		Sticker: tu.FileFromID(fileID),
	})
	return err
}

// CopyMessage копирует сообщение без пометки «переслано».
func (s *Sender) CopyMessage(ctx context.Context, chatID, fromChatID int64, messageID int) error {
	_, err := s.api.CopyMessage(ctx, &telego.CopyMessageParams{
		ChatID:     tu.ID(chatID),
		FromChatID: tu.ID(fromChatID),
		MessageID:  messageID,
	})
	return err
}

// retryAfterText — запасной разбор «Too Many Requests: retry after N» из текста ошибки.
var retryAfterText = regexp.MustCompile(`(?i)retry after (\d+)`)

// RetryAfter извлекает время ожидания из ошибки Bot API.
// ok == false — это не 429.
func RetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) && apiErr.ErrorCode == 429 {
		if apiErr.Parameters != nil && apiErr.Parameters.RetryAfter > 0 {
			return time.Duration(apiErr.Parameters.RetryAfter) * time.Second, true
		}
	}
	if m := retryAfterText.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil && n >= 0 {
			return time.Duration(n) * time.Second, true
		}
	}
	if apiErr != nil && apiErr.ErrorCode == 429 {
		// 429 без времени ожидания: ждём только FLOOD_EXTRA_WAIT
		return 0, true
	}
	return 0, false
}
