// Package season — session.go описывает сессию пользователя и её мутации.
package season

import (
	"strings"
	"time"

	"serotonyl.ru/season-bot/internal/common"
)

// Session — накопленное состояние пользователя между сбросом и публикацией.
// Оба вида сессий (EpisodeFirst/QualityFirst) используют одну структуру,
// отличается только порядок обхода при публикации.
type Session struct {
	Kind Kind

	Titles          []string
	StartEpisode    int
	CaptionTemplate string
	Stickers        []string
	Assets          map[int]map[Quality]Asset
	IgnoreText      string
	Mode            Mode
	Announcement    *MessageRef

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession создаёт пустую сессию заданного вида.
func NewSession(kind Kind, mode Mode) *Session {
	if mode == "" {
		mode = ModeSequentialMarker
	}
	now := time.Now()
	return &Session{
		Kind:         kind,
		StartEpisode: 1,
		Assets:       make(map[int]map[Quality]Asset),
		Mode:         mode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeTitles обрезает пробелы и отбрасывает пустые строки.
func NormalizeTitles(lines []string) []string {
	titles := make([]string, 0, len(lines))
	for _, ln := range lines {
		if ln = strings.TrimSpace(ln); ln != "" {
			titles = append(titles, ln)
		}
	}
	return titles
}

// SetTitles сохраняет названия (пустые строки отбрасываются) и
// определяет номер первого эпизода по первой строке.
func (s *Session) SetTitles(lines []string) int {
	titles := NormalizeTitles(lines)
	s.Titles = titles
	s.StartEpisode = 1
	if len(titles) > 0 {
		s.StartEpisode = DetectStartEpisode(titles[0])
	}
	return len(titles)
}

// SetTemplate сохраняет шаблон подписи. Проверяется только наличие обоих плейсхолдеров.
func (s *Session) SetTemplate(tpl string) error {
	tpl = strings.TrimSpace(tpl)
	if !strings.Contains(tpl, PlaceholderEpisode) || !strings.Contains(tpl, PlaceholderQuality) {
		return common.ErrTemplatePlaceholders
	}
	s.CaptionTemplate = tpl
	return nil
}

// AddSticker добавляет стикер. Третий стикер начинает набор заново.
// Возвращает количество стикеров после добавления.
func (s *Session) AddSticker(fileID string) int {
	if len(s.Stickers) >= 2 {
		s.Stickers = nil
	}
	s.Stickers = append(s.Stickers, fileID)
	return len(s.Stickers)
}

// SetStickers заменяет оба стикера сразу.
func (s *Session) SetStickers(opening, closing string) {
	s.Stickers = []string{opening, closing}
}

// SetIgnore задаёт подстроку, вырезаемую перед распознаванием. Пустая строка сбрасывает.
func (s *Session) SetIgnore(text string) {
	s.IgnoreText = strings.TrimSpace(text)
}

// SetMode переключает режим распознавания эпизодов.
func (s *Session) SetMode(mode Mode) {
	s.Mode = mode
}

// SetAnnouncement запоминает вводный пост для публикации по качествам.
func (s *Session) SetAnnouncement(ref MessageRef) {
	s.Announcement = &ref
}

// RecordAsset сохраняет видео под ключом (эпизод, качество). Повтор ключа
// перезаписывает прежнее значение.
func (s *Session) RecordAsset(episode int, quality Quality, asset Asset) bool {
	if episode <= 0 || !quality.Valid() {
		return false
	}
	if s.Assets == nil {
		s.Assets = make(map[int]map[Quality]Asset)
	}
	byQuality, ok := s.Assets[episode]
	if !ok {
		byQuality = make(map[Quality]Asset, len(QualityOrder))
		s.Assets[episode] = byQuality
	}
	byQuality[quality] = asset
	return true
}

// EpisodeCount — число эпизодов, для которых есть хотя бы одно видео.
func (s *Session) EpisodeCount() int {
	return len(s.Assets)
}

// QualityCounts считает видео по качествам.
func (s *Session) QualityCounts() map[Quality]int {
	counts := make(map[Quality]int, len(QualityOrder))
	for _, byQuality := range s.Assets {
		for q := range byQuality {
			counts[q]++
		}
	}
	return counts
}

// AssetCount — общее число сохранённых видео.
func (s *Session) AssetCount() int {
	n := 0
	for _, byQuality := range s.Assets {
		n += len(byQuality)
	}
	return n
}

// MissingEpisodes возвращает номера эпизодов из названий, для которых нет ни одного видео.
func (s *Session) MissingEpisodes() []int {
	var missing []int
	for i := range s.Titles {
		ep := s.StartEpisode + i
		if len(s.Assets[ep]) == 0 {
			missing = append(missing, ep)
		}
	}
	return missing
}

// Clone делает глубокую копию. Публикация работает со снимком,
// поэтому поздние видео не меняют уже запущенный план.
func (s *Session) Clone() *Session {
	c := *s
	c.Titles = append([]string(nil), s.Titles...)
	c.Stickers = append([]string(nil), s.Stickers...)
	c.Assets = make(map[int]map[Quality]Asset, len(s.Assets))
	for ep, byQuality := range s.Assets {
		inner := make(map[Quality]Asset, len(byQuality))
		for q, a := range byQuality {
			inner[q] = a
		}
		c.Assets[ep] = inner
	}
	if s.Announcement != nil {
		ref := *s.Announcement
		c.Announcement = &ref
	}
	return &c
}
