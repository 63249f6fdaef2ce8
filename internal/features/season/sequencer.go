// Package season — sequencer.go строит и выполняет план публикации сезона.
//
// Публикация делится на две части:
//   - Plan: чистая функция от снимка сессии, проверяет предусловия
//     и возвращает упорядоченный список действий;
//   - Execute: отправляет действия по одному, выдерживая паузы.
//
// Если предусловие не выполнено, ничего не отправляется.
package season

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"serotonyl.ru/season-bot/internal/common"
)

// ActionKind — тип исходящего действия.
type ActionKind int

const (
	ActionText ActionKind = iota
	ActionVideo
	ActionSticker
	ActionCopy
	ActionPause
)

func (k ActionKind) String() string {
	switch k {
	case ActionText:
		return "text"
	case ActionVideo:
		return "video"
	case ActionSticker:
		return "sticker"
	case ActionCopy:
		return "copy"
	case ActionPause:
		return "pause"
	}
	return "unknown"
}

// Action — одно действие плана.
type Action struct {
	Kind    ActionKind
	Text    string // HTML для ActionText, подпись для ActionVideo
	FileID  string
	From    MessageRef
	Delay   time.Duration
	Episode int
	Quality Quality
}

// Pacing — паузы между отправками.
type Pacing struct {
	Item    time.Duration // после каждого видео
	Episode time.Duration // между эпизодами
	Sticker time.Duration // после служебных стикеров (по качествам)
	Group   time.Duration // после группы одного качества
}

// QualityStickers — служебные стикеры публикации по качествам.
type QualityStickers struct {
	Separator  string
	End        string
	PerQuality map[Quality]string
}

// Options — настройки публикации.
type Options struct {
	Pacing   Pacing
	Stickers QualityStickers
}

func (a Action) describe() string {
	var b strings.Builder
	b.WriteString(a.Kind.String())
	if a.Episode > 0 {
		fmt.Fprintf(&b, " episode %02d", a.Episode)
	}
	if a.Quality != "" {
		b.WriteString(" " + string(a.Quality))
	}
	return b.String()
}

// Plan — упорядоченные действия и сводка.
type Plan struct {
	Kind     Kind
	Actions  []Action
	Episodes int
	Videos   int
}

// Emissions — число действий, которые что-то отправляют (без пауз).
func (p Plan) Emissions() int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind != ActionPause {
			n++
		}
	}
	return n
}

// Report — итог выполнения плана.
type Report struct {
	Episodes int
	Videos   int
	Emitted  int
}

// Validate проверяет предусловия публикации. Возвращает все невыполненные сразу.
func Validate(s *Session) error {
	var errs []error
	switch s.Kind {
	case KindQualityFirst:
		if s.Announcement == nil {
			errs = append(errs, common.ErrNoAnnouncement)
		}
		if s.CaptionTemplate == "" {
			errs = append(errs, common.ErrNoTemplate)
		}
	default:
		if len(s.Titles) == 0 {
			errs = append(errs, common.ErrNoTitles)
		}
		if len(s.Stickers) != 2 {
			errs = append(errs, common.ErrNeedTwoStickers)
		}
	}
	if len(s.Assets) == 0 {
		errs = append(errs, common.ErrNoAssets)
	}
	return errors.Join(errs...)
}

// RenderCaption подставляет номер эпизода (две цифры) и качество в шаблон.
// Без шаблона подписью служит само качество.
func RenderCaption(tpl string, episode int, quality Quality) string {
	if tpl == "" {
		return string(quality)
	}
	return strings.NewReplacer(
		PlaceholderEpisode, common.FormatEpisode(episode),
		PlaceholderQuality, string(quality),
	).Replace(tpl)
}

// BuildPlan проверяет сессию и строит план для её вида.
func BuildPlan(s *Session, opts Options) (Plan, error) {
	if err := Validate(s); err != nil {
		return Plan{}, err
	}
	if s.Kind == KindQualityFirst {
		return planQualityFirst(s, opts), nil
	}
	return planEpisodeFirst(s, opts), nil
}

func planEpisodeFirst(s *Session, opts Options) Plan {
	p := Plan{Kind: KindEpisodeFirst}
	for i, title := range s.Titles {
		episode := s.StartEpisode + i
		if i > 0 {
			p.pause(opts.Pacing.Episode)
		}
		p.Actions = append(p.Actions, Action{
			Kind:    ActionText,
			Text:    "<b>" + html.EscapeString(title) + "</b>",
			Episode: episode,
		})
		for _, q := range QualityOrder {
			asset, ok := s.Assets[episode][q]
			if !ok {
				continue
			}
			p.Actions = append(p.Actions, Action{
				Kind:    ActionVideo,
				FileID:  asset.FileID,
				Text:    RenderCaption(s.CaptionTemplate, episode, q),
				Episode: episode,
				Quality: q,
			})
			p.Videos++
			p.pause(opts.Pacing.Item)
		}
		for _, st := range s.Stickers {
			p.Actions = append(p.Actions, Action{Kind: ActionSticker, FileID: st, Episode: episode})
		}
		p.Episodes++
	}
	return p
}

func planQualityFirst(s *Session, opts Options) Plan {
	p := Plan{Kind: KindQualityFirst}

	if s.Announcement != nil {
		p.Actions = append(p.Actions, Action{Kind: ActionCopy, From: *s.Announcement})
		p.pause(opts.Pacing.Item)
	}

	episodes := make([]int, 0, len(s.Assets))
	for ep := range s.Assets {
		episodes = append(episodes, ep)
	}
	sort.Ints(episodes)
	p.Episodes = len(episodes)

	for _, q := range QualityOrder {
		var group []Action
		for _, ep := range episodes {
			asset, ok := s.Assets[ep][q]
			if !ok {
				continue
			}
			group = append(group, Action{
				Kind:    ActionVideo,
				FileID:  asset.FileID,
				Text:    RenderCaption(s.CaptionTemplate, ep, q),
				Episode: ep,
				Quality: q,
			})
		}
		if len(group) == 0 {
			continue
		}

		p.sticker(opts.Stickers.Separator, opts.Pacing.Sticker, q)
		p.sticker(opts.Stickers.PerQuality[q], opts.Pacing.Sticker, q)
		for _, a := range group {
			p.Actions = append(p.Actions, a)
			p.Videos++
			p.pause(opts.Pacing.Item)
		}
		p.pause(opts.Pacing.Group)
	}

	p.sticker(opts.Stickers.Separator, opts.Pacing.Sticker, "")
	p.sticker(opts.Stickers.End, 0, "")
	return p
}

func (p *Plan) pause(d time.Duration) {
	if d > 0 {
		p.Actions = append(p.Actions, Action{Kind: ActionPause, Delay: d})
	}
}

// sticker добавляет служебный стикер, если он настроен.
func (p *Plan) sticker(fileID string, after time.Duration, q Quality) {
	if fileID == "" {
		return
	}
	p.Actions = append(p.Actions, Action{Kind: ActionSticker, FileID: fileID, Quality: q})
	p.pause(after)
}

// Publisher выполняет план через Sender.
type Publisher struct {
	sender Sender
	sleep  SleepFunc
}

// NewPublisher создаёт исполнителя. sender обычно уже обёрнут в Retrier.
func NewPublisher(sender Sender, sleep SleepFunc) *Publisher {
	if sleep == nil {
		sleep = Sleep
	}
	return &Publisher{sender: sender, sleep: sleep}
}

// Execute отправляет действия по порядку. Первая ошибка прерывает план;
// уже отправленное остаётся в чате.
func (p *Publisher) Execute(ctx context.Context, chatID int64, plan Plan) (Report, error) {
	rep := Report{Episodes: plan.Episodes}
	for _, a := range plan.Actions {
		var err error
		switch a.Kind {
		case ActionPause:
			err = p.sleep(ctx, a.Delay)
		case ActionText:
			err = p.sender.SendText(ctx, chatID, a.Text)
		case ActionVideo:
			err = p.sender.SendVideo(ctx, chatID, a.FileID, a.Text)
		case ActionSticker:
			err = p.sender.SendSticker(ctx, chatID, a.FileID)
		case ActionCopy:
			err = p.sender.CopyMessage(ctx, chatID, a.From.ChatID, a.From.MessageID)
		}
		if err != nil {
			if a.Kind == ActionPause {
				return rep, err
			}
			return rep, fmt.Errorf("%s: %w", a.describe(), err)
		}
		if a.Kind == ActionPause {
			continue
		}
		rep.Emitted++
		if a.Kind == ActionVideo {
			rep.Videos++
		}
	}
	return rep, nil
}
