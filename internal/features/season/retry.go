// Package season — retry.go оборачивает отправку в Telegram повтором
// при ошибке «слишком много запросов».
package season

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sender — исходящие операции, которые нужны публикации.
type Sender interface {
	SendText(ctx context.Context, chatID int64, html string) error
	SendVideo(ctx context.Context, chatID int64, fileID, caption string) error
	SendSticker(ctx context.Context, chatID int64, fileID string) error
	CopyMessage(ctx context.Context, chatID, fromChatID int64, messageID int) error
}

// RetryAfterFunc извлекает из ошибки время ожидания, назначенное сервером.
// ok == false — ошибка не про лимит, повторять нельзя.
type RetryAfterFunc func(err error) (wait time.Duration, ok bool)

// SleepFunc ждёт d или отмены контекста.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep — SleepFunc по умолчанию.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier повторяет одну и ту же отправку, пока сервер отвечает лимитом.
// Количество попыток не ограничено; прервать ожидание может только ctx.
type Retrier struct {
	next       Sender
	retryAfter RetryAfterFunc
	extra      time.Duration
	sleep      SleepFunc
}

// NewRetrier создаёт обёртку. extra добавляется к каждому ожиданию сервера.
func NewRetrier(next Sender, retryAfter RetryAfterFunc, extra time.Duration, sleep SleepFunc) *Retrier {
	if sleep == nil {
		sleep = Sleep
	}
	return &Retrier{next: next, retryAfter: retryAfter, extra: extra, sleep: sleep}
}

func (r *Retrier) do(ctx context.Context, op string, chatID int64, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		wait, ok := r.retryAfter(err)
		if !ok {
			return err
		}
		wait += r.extra
		log.WithFields(log.Fields{
			"component": "retrier",
			"op":        op,
			"chat_id":   chatID,
			"attempt":   attempt,
			"wait":      wait.String(),
		}).Warn("flood wait, повторяем отправку")
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// SendText отправляет текст с повтором.
func (r *Retrier) SendText(ctx context.Context, chatID int64, html string) error {
	return r.do(ctx, "send_text", chatID, func() error {
		return r.next.SendText(ctx, chatID, html)
	})
}

// SendVideo отправляет видео с повтором.
func (r *Retrier) SendVideo(ctx context.Context, chatID int64, fileID, caption string) error {
	return r.do(ctx, "send_video", chatID, func() error {
		return r.next.SendVideo(ctx, chatID, fileID, caption)
	})
}

// SendSticker отправляет стикер с повтором.
func (r *Retrier) SendSticker(ctx context.Context, chatID int64, fileID string) error {
	return r.do(ctx, "send_sticker", chatID, func() error {
		return r.next.SendSticker(ctx, chatID, fileID)
	})
}

// CopyMessage копирует сообщение с повтором.
func (r *Retrier) CopyMessage(ctx context.Context, chatID, fromChatID int64, messageID int) error {
	return r.do(ctx, "copy_message", chatID, func() error {
		return r.next.CopyMessage(ctx, chatID, fromChatID, messageID)
	})
}
