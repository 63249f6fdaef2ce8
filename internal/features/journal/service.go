// Package journal — service.go: запись начала и итога публикаций.
// Ошибки журнала только логируются: публикация важнее учёта.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// HistoryLimit — сколько публикаций показывает /history.
const HistoryLimit = 5

// Service ведёт журнал.
type Service struct {
	repo      Repository
	retention time.Duration
	now       func() time.Time
}

// NewService создаёт сервис журнала. retention — срок хранения записей.
func NewService(repo Repository, retention time.Duration) *Service {
	return &Service{repo: repo, retention: retention, now: time.Now}
}

// Start регистрирует новую публикацию и возвращает её запись с run id.
func (s *Service) Start(ctx context.Context, userID, chatID int64, kind string) *Run {
	run := &Run{
		ID:        uuid.New(),
		UserID:    userID,
		ChatID:    chatID,
		Kind:      kind,
		Status:    StatusRunning,
		StartedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, run); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"component": "journal",
			"run_id":    run.ID.String(),
			"user_id":   userID,
		}).Warn("не удалось записать начало публикации")
	}
	return run
}

// Finish фиксирует итог публикации.
func (s *Service) Finish(ctx context.Context, run *Run, out Outcome) {
	finished := s.now()
	run.FinishedAt = &finished
	run.Episodes = out.Episodes
	run.Videos = out.Videos
	run.Items = out.Items
	run.Status = StatusDone
	if out.Err != nil {
		run.Status = StatusFailed
		run.Error = out.Err.Error()
	}
	if err := s.repo.Finish(ctx, run); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"component": "journal",
			"run_id":    run.ID.String(),
		}).Warn("не удалось записать итог публикации")
	}
}

// Recent возвращает последние публикации пользователя.
func (s *Service) Recent(ctx context.Context, userID int64) ([]*Run, error) {
	return s.repo.Recent(ctx, userID, HistoryLimit)
}

// Prune удаляет записи старше срока хранения.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	return s.repo.PruneBefore(ctx, s.now().Add(-s.retention))
}
