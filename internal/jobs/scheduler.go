// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежечасная сводка по сессиям
// и очистка допусков, ежедневная очистка журнала публикаций.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/season-bot/internal/features/season"
)

// StatsSource — откуда берётся сводка по сессиям.
type StatsSource interface {
	Stats() season.StoreStats
}

// Pruner — журнал, который умеет удалять старые записи.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// GrantCleaner — сервис доступа с истекающими допусками.
type GrantCleaner interface {
	Cleanup() int
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron    *cron.Cron
	stats   StatsSource
	journal Pruner
	access  GrantCleaner
}

// NewScheduler создаёт планировщик задач в часовом поясе loc.
func NewScheduler(loc *time.Location, stats StatsSource, journal Pruner, access GrantCleaner) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		stats:   stats,
		journal: journal,
		access:  access,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	// Сводка и очистка допусков каждый час
	if _, err := s.cron.AddFunc("0 * * * *", func() { s.hourly() }); err != nil {
		return err
	}

	// Очистка журнала в 04:00
	if _, err := s.cron.AddFunc("0 4 * * *", func() { s.pruneJournal(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	log.WithField("tz", s.cron.Location().String()).Info("Планировщик задач запущен")
	return nil
}

func (s *Scheduler) hourly() {
	st := s.stats.Stats()
	removed := s.access.Cleanup()
	log.WithFields(log.Fields{
		"component":      "cron",
		"sessions":       st.Sessions,
		"assets":         st.Assets,
		"publishing":     st.Publishing,
		"expired_grants": removed,
	}).Info("[CRON] Сводка по сессиям")
}

func (s *Scheduler) pruneJournal(ctx context.Context) {
	n, err := s.journal.Prune(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка очистки журнала")
		return
	}
	log.WithField("removed", n).Info("[CRON] Журнал публикаций очищен")
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
