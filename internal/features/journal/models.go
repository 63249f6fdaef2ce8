// Package journal ведёт журнал публикаций: кто, куда, сколько отправлено
// и чем закончилось. Сессии живут в памяти, журнал может жить в PostgreSQL.
// models.go описывает запись журнала.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// Status — состояние публикации.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Run — одна публикация.
type Run struct {
	ID         uuid.UUID  `db:"id"`
	UserID     int64      `db:"user_id"`
	ChatID     int64      `db:"chat_id"`
	Kind       string     `db:"kind"` // episode_first / quality_first
	Status     Status     `db:"status"`
	Episodes   int        `db:"episodes"`
	Videos     int        `db:"videos"`
	Items      int        `db:"items"` // всего отправлено сообщений
	Error      string     `db:"error"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
}

// Duration — длительность публикации (для незавершённой считается до сейчас).
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome — итог публикации, передаётся в Finish.
type Outcome struct {
	Episodes int
	Videos   int
	Items    int
	Err      error
}
