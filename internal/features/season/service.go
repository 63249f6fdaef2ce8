// Package season — service.go связывает хранилище сессий, распознавание
// и публикацию. Обработчики работают только через Service.
package season

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/season-bot/internal/common"
	"serotonyl.ru/season-bot/internal/config"
	"serotonyl.ru/season-bot/internal/features/journal"
)

// Service — бизнес-логика сезонных публикаций.
type Service struct {
	store           *Store
	publisher       *Publisher
	journal         *journal.Service
	opts            Options
	defaultTemplate string
}

// NewService создаёт сервис.
func NewService(store *Store, publisher *Publisher, journal *journal.Service, opts Options, defaultTemplate string) *Service {
	return &Service{
		store:           store,
		publisher:       publisher,
		journal:         journal,
		opts:            opts,
		defaultTemplate: defaultTemplate,
	}
}

// OptionsFromConfig собирает паузы и служебные стикеры из конфига.
func OptionsFromConfig(cfg *config.Config) Options {
	qf := cfg.Presets.QualityFirst
	perQuality := make(map[Quality]string, len(qf.QualityStickers))
	for label, sticker := range qf.QualityStickers {
		if q, ok := DetectQuality(strings.ToLower(label)); ok {
			perQuality[q] = sticker
		}
	}
	return Options{
		Pacing: Pacing{
			Item:    cfg.PublishItemDelay,
			Episode: cfg.PublishEpisodeDelay,
			Sticker: cfg.PublishStickerDelay,
			Group:   cfg.PublishGroupDelay,
		},
		Stickers: QualityStickers{
			Separator:  qf.SeparatorSticker,
			End:        qf.EndSticker,
			PerQuality: perQuality,
		},
	}
}

// IntakeResult — что получилось с входящим видео.
type IntakeResult struct {
	Episode  int
	Quality  Quality
	Episodes int  // эпизодов в сессии после сохранения
	Replaced bool // пара (эпизод, качество) уже была и перезаписана
}

// Session возвращает снимок сессии пользователя.
func (s *Service) Session(userID int64) *Session {
	return s.store.Get(userID)
}

// Start начинает новую сессию заданного вида. Режим распознавания сохраняется.
func (s *Service) Start(userID int64, kind Kind) {
	s.store.Reset(userID, kind)
	if s.defaultTemplate != "" {
		s.store.Update(userID, func(sess *Session) {
			// шаблон из пресетов уже проверен на плейсхолдеры при старте
			_ = sess.SetTemplate(s.defaultTemplate)
		})
	}
	log.WithFields(log.Fields{
		"component": "season",
		"user_id":   userID,
		"kind":      string(kind),
	}).Info("новая сессия")
}

// SetTitles сохраняет названия эпизодов. Возвращает их число и номер первого эпизода.
// Пустой список отклоняется без изменения сессии.
func (s *Service) SetTitles(userID int64, lines []string) (count, start int, err error) {
	titles := NormalizeTitles(lines)
	if len(titles) == 0 {
		return 0, 0, common.ErrNoNames
	}
	s.store.Update(userID, func(sess *Session) {
		count = sess.SetTitles(titles)
		start = sess.StartEpisode
	})
	return count, start, nil
}

// SetTemplate сохраняет шаблон подписи.
func (s *Service) SetTemplate(userID int64, tpl string) error {
	var err error
	s.store.Update(userID, func(sess *Session) {
		err = sess.SetTemplate(tpl)
	})
	return err
}

// AddSticker добавляет стикер в пару. Возвращает размер пары.
func (s *Service) AddSticker(userID int64, fileID string) int {
	var n int
	s.store.Update(userID, func(sess *Session) {
		n = sess.AddSticker(fileID)
	})
	return n
}

// SetStickers задаёт оба стикера из аргументов команды.
func (s *Service) SetStickers(userID int64, args []string) error {
	if len(args) != 2 {
		return common.ErrStickerArgs
	}
	s.store.Update(userID, func(sess *Session) {
		sess.SetStickers(args[0], args[1])
	})
	return nil
}

// SetIgnore задаёт (или сбрасывает пустой строкой) игнорируемую подстроку.
func (s *Service) SetIgnore(userID int64, text string) string {
	var stored string
	s.store.Update(userID, func(sess *Session) {
		sess.SetIgnore(text)
		stored = sess.IgnoreText
	})
	return stored
}

// SetMode переключает режим распознавания эпизодов.
func (s *Service) SetMode(userID int64, mode Mode) {
	s.store.Update(userID, func(sess *Session) {
		sess.SetMode(mode)
	})
}

// OfferAnnouncement сохраняет вводный пост, если сессия по качествам его ждёт.
func (s *Service) OfferAnnouncement(userID int64, ref MessageRef) bool {
	var stored bool
	s.store.Update(userID, func(sess *Session) {
		if sess.Kind != KindQualityFirst || sess.Announcement != nil {
			return
		}
		sess.SetAnnouncement(ref)
		stored = true
	})
	return stored
}

// Intake распознаёт входящее видео и сохраняет его в сессию.
// При неполном распознавании ничего не сохраняется.
func (s *Service) Intake(userID int64, item MediaItem) (IntakeResult, error) {
	var (
		res Result
		out IntakeResult
	)
	s.store.Update(userID, func(sess *Session) {
		res = Classify(item.ClassificationText(), sess.Mode, sess.IgnoreText)
		if !res.Complete() {
			return
		}
		_, out.Replaced = sess.Assets[res.Episode][res.Quality]
		sess.RecordAsset(res.Episode, res.Quality, Asset{FileID: item.FileID, Name: item.FileName})
		out.Episodes = sess.EpisodeCount()
	})

	logger := log.WithFields(log.Fields{
		"component": "season",
		"user_id":   userID,
		"file_name": item.FileName,
	})
	if err := res.Err(); err != nil {
		logger.WithError(err).Debug("видео не распознано")
		return IntakeResult{}, err
	}

	out.Episode = res.Episode
	out.Quality = res.Quality
	logger.WithFields(log.Fields{
		"episode":  out.Episode,
		"quality":  string(out.Quality),
		"replaced": out.Replaced,
	}).Debug("видео сохранено")
	return out, nil
}

// Publish публикует сессию в chatID. onPlan вызывается после успешной
// проверки предусловий, до первой отправки.
func (s *Service) Publish(ctx context.Context, userID, chatID int64, onPlan func(Plan)) (Report, error) {
	if !s.store.BeginPublish(userID) {
		return Report{}, common.ErrPublishInProgress
	}
	defer s.store.EndPublish(userID)

	plan, err := BuildPlan(s.store.Get(userID), s.opts)
	if err != nil {
		return Report{}, err
	}
	if onPlan != nil {
		onPlan(plan)
	}

	run := s.journal.Start(ctx, userID, chatID, string(plan.Kind))
	logger := log.WithFields(log.Fields{
		"component": "season",
		"run_id":    run.ID.String(),
		"user_id":   userID,
		"chat_id":   chatID,
		"kind":      string(plan.Kind),
	})
	logger.WithFields(log.Fields{
		"episodes": plan.Episodes,
		"videos":   plan.Videos,
		"items":    plan.Emissions(),
	}).Info("публикация начата")

	rep, err := s.publisher.Execute(ctx, chatID, plan)
	// итог пишем даже после отмены ctx
	s.journal.Finish(context.WithoutCancel(ctx), run, journal.Outcome{
		Episodes: rep.Episodes,
		Videos:   rep.Videos,
		Items:    rep.Emitted,
		Err:      err,
	})
	if err != nil {
		logger.WithError(err).WithField("emitted", rep.Emitted).Error("публикация прервана")
		return rep, err
	}
	logger.WithField("emitted", rep.Emitted).Info("публикация завершена")
	return rep, nil
}

// History возвращает последние публикации пользователя.
func (s *Service) History(ctx context.Context, userID int64) ([]*journal.Run, error) {
	return s.journal.Recent(ctx, userID)
}

// Stats — сводка по хранилищу для периодического лога.
func (s *Service) Stats() StoreStats {
	return s.store.Stats()
}
