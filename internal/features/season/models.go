// Package season собирает видео сезона от пользователя и публикует их
// в чат упорядоченным «постом сезона».
// models.go описывает типы данных: качество, режимы распознавания, сессию.
package season

import "strings"

// Quality — каноническое качество видео.
type Quality string

// Поддерживаемые качества. Всё, что ниже 480p, считается 480p.
const (
	Quality480  Quality = "480p"
	Quality720  Quality = "720p"
	Quality1080 Quality = "1080p"
)

// QualityOrder — фиксированный порядок публикации качеств.
var QualityOrder = []Quality{Quality480, Quality720, Quality1080}

// Valid сообщает, входит ли качество в перечисление.
func (q Quality) Valid() bool {
	switch q {
	case Quality480, Quality720, Quality1080:
		return true
	}
	return false
}

// Mode — грамматика распознавания номера эпизода.
type Mode string

const (
	// ModeSequentialMarker — маркеры вида S01E07, Episode 7, Ep.07, E07.
	ModeSequentialMarker Mode = "marker"
	// ModeThreeDigit — трёхзначные номера вида (039) или 039.
	ModeThreeDigit Mode = "three"
)

// ParseMode разбирает режим из callback-данных или аргумента команды.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "marker", "normal":
		return ModeSequentialMarker, true
	case "three", "001", "3digit":
		return ModeThreeDigit, true
	}
	return "", false
}

// Label возвращает человекочитаемое название режима.
func (m Mode) Label() string {
	if m == ModeThreeDigit {
		return "Three-Digit (001)"
	}
	return "Sequential-Marker (E01)"
}

// Kind — вид сессии: определяет порядок обхода при публикации.
type Kind string

const (
	// KindEpisodeFirst — эпизод за эпизодом, внутри эпизода по качествам.
	KindEpisodeFirst Kind = "episode_first"
	// KindQualityFirst — качество за качеством, внутри качества по эпизодам.
	KindQualityFirst Kind = "quality_first"
)

// Asset — ссылка на уже загруженное в Telegram видео.
type Asset struct {
	FileID string
	Name   string
}

// MessageRef указывает на сообщение, которое копируется как есть.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// MediaItem — входящее видео, как его видит сервис.
type MediaItem struct {
	FileID   string
	FileName string
	Caption  string
}

// ClassificationText возвращает текст для распознавания: подпись,
// а если её нет, имя файла.
func (m MediaItem) ClassificationText() string {
	if strings.TrimSpace(m.Caption) != "" {
		return m.Caption
	}
	return m.FileName
}

// Placeholders в шаблоне подписи.
const (
	PlaceholderEpisode = "{ep}"
	PlaceholderQuality = "{quality}"
)
