// Package config — presets.go загружает пресеты публикации по качествам
// (служебные стикеры и шаблон подписи по умолчанию) из TOML или YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Presets — настройки, которые редко меняются и удобнее держать в файле.
type Presets struct {
	// DefaultCaption — шаблон подписи для новых сессий (может быть пустым).
	DefaultCaption string             `toml:"default_caption" yaml:"default_caption"`
	QualityFirst   QualityFirstPreset `toml:"quality_first" yaml:"quality_first"`
}

// QualityFirstPreset — стикеры публикации «по качествам».
type QualityFirstPreset struct {
	SeparatorSticker string            `toml:"separator_sticker" yaml:"separator_sticker"`
	EndSticker       string            `toml:"end_sticker" yaml:"end_sticker"`
	QualityStickers  map[string]string `toml:"quality_stickers" yaml:"quality_stickers"`
}

// Стикеры канала, которыми бот пользовался изначально.
const (
	defaultSeparatorSticker = "CAACAgUAAxkBAAEPiYto5msZJApY_TqYnam4BvgeUFJiwwACyQwAAqbimVUBY5iDB0EIOzYE"
	defaultEndSticker       = "CAACAgUAAxkBAAEPhsto475lLcwuynonRnqiajcaCxPDKQAC0w8AAmxwKFSRq2AOacBIWzYE"
	default480Sticker       = "CAACAgUAAxkBAAEPiY9o5mtoWel0eDiKJbDvp3LDtk1QxwAC3Q4AAmoHKVRzXVzL8oQItjYE"
	default720Sticker       = "CAACAgUAAxkBAAEPiZBo5mtptlgsq3liZG6m7PpYyASNtAACGw8AAupbKVST-KQXiWXU1TYE"
	default1080Sticker      = "CAACAgUAAxkBAAEPiZJo5mtqhRL6Gv8QPvSJ-VFwSPgvsgAC2g0AAsmaKVRz8GmG5KkbGjYE"
)

// DefaultPresets возвращает встроенные пресеты.
func DefaultPresets() Presets {
	return Presets{
		QualityFirst: QualityFirstPreset{
			SeparatorSticker: defaultSeparatorSticker,
			EndSticker:       defaultEndSticker,
			QualityStickers: map[string]string{
				"480p":  default480Sticker,
				"720p":  default720Sticker,
				"1080p": default1080Sticker,
			},
		},
	}
}

// LoadPresets читает файл пресетов поверх встроенных значений.
// Пустой путь оставляет встроенные значения. Формат выбирается по расширению.
func LoadPresets(path string) (Presets, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return presets, fmt.Errorf("PRESETS_FILE: %w", err)
	}

	var file Presets
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		return presets, fmt.Errorf("PRESETS_FILE: неизвестный формат %q (ожидается .toml/.yaml)", ext)
	}
	if err != nil {
		return presets, fmt.Errorf("PRESETS_FILE %s: %w", path, err)
	}

	if err := presets.merge(file); err != nil {
		return presets, fmt.Errorf("PRESETS_FILE %s: %w", path, err)
	}
	return presets, nil
}

// qualityKeys — допустимые ключи quality_stickers и их каноническая форма.
var qualityKeys = map[string]string{
	"360":   "480p",
	"360p":  "480p",
	"480":   "480p",
	"480p":  "480p",
	"720":   "720p",
	"720p":  "720p",
	"1080":  "1080p",
	"1080p": "1080p",
}

// CanonicalQualityKey приводит ключ пресета к виду "480p"/"720p"/"1080p".
func CanonicalQualityKey(key string) (string, bool) {
	canon, ok := qualityKeys[strings.ToLower(strings.TrimSpace(key))]
	return canon, ok
}

// merge переносит заданные в файле значения; пустые поля не трогают встроенные.
// Ключ качества из файла заменяет встроенный; два ключа одного качества в файле — ошибка.
func (p *Presets) merge(file Presets) error {
	if file.DefaultCaption != "" {
		p.DefaultCaption = file.DefaultCaption
	}
	qf := file.QualityFirst
	if qf.SeparatorSticker != "" {
		p.QualityFirst.SeparatorSticker = qf.SeparatorSticker
	}
	if qf.EndSticker != "" {
		p.QualityFirst.EndSticker = qf.EndSticker
	}
	seen := make(map[string]string, len(qf.QualityStickers))
	for key := range qf.QualityStickers {
		canon, ok := CanonicalQualityKey(key)
		if !ok {
			return fmt.Errorf("quality_stickers: неизвестное качество %q", key)
		}
		if prev, dup := seen[canon]; dup {
			return fmt.Errorf("quality_stickers: ключи %q и %q задают одно качество %s", prev, key, canon)
		}
		seen[canon] = key
	}
	for key, sticker := range qf.QualityStickers {
		canon, _ := CanonicalQualityKey(key)
		p.QualityFirst.QualityStickers[canon] = sticker
	}
	return nil
}
