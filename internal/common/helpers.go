// Package common содержит общие утилиты, используемые во всём проекте:
// форматирование номеров эпизодов и текста для ответов бота.
package common

import (
	"fmt"
	"unicode/utf8"
)

// FormatEpisode форматирует номер эпизода двумя цифрами.
//
// Примеры:
//
//	FormatEpisode(7)   → "07"
//	FormatEpisode(39)  → "39"
//	FormatEpisode(101) → "101"
func FormatEpisode(n int) string {
	return fmt.Sprintf("%02d", n)
}

// Truncate обрезает строку до max рун и добавляет «...».
// Используется для логирования текстов сообщений.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
