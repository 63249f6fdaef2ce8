package season

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeSender записывает исходящие вызовы. failAt > 0 — номер вызова,
// который вернёт err.
type fakeSender struct {
	mu     sync.Mutex
	calls  []string
	failAt int
	err    error
}

func (f *fakeSender) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.calls)+1 == f.failAt {
		f.failAt = 0
		return f.err
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeSender) SendText(_ context.Context, _ int64, html string) error {
	return f.record("text:" + html)
}

func (f *fakeSender) SendVideo(_ context.Context, _ int64, fileID, caption string) error {
	return f.record("video:" + fileID + ":" + caption)
}

func (f *fakeSender) SendSticker(_ context.Context, _ int64, fileID string) error {
	return f.record("sticker:" + fileID)
}

func (f *fakeSender) CopyMessage(_ context.Context, _, fromChatID int64, messageID int) error {
	return f.record(fmt.Sprintf("copy:%d:%d", fromChatID, messageID))
}

func (f *fakeSender) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// recordingSleep запоминает паузы и не ждёт.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

var errBoom = errors.New("boom")

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
