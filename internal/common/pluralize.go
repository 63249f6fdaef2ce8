// Package common — pluralize.go выбирает форму слова для числа в ответах бота.
// Ответы бота на английском, поэтому форм две.
package common

import "strconv"

// Plural возвращает one для 1 (и -1), иначе many.
//
// Примеры:
//
//	Plural(1, "episode", "episodes") → "episode"
//	Plural(0, "episode", "episodes") → "episodes"
//	Plural(21, "video", "videos")    → "videos"
func Plural(n int, one, many string) string {
	if n == 1 || n == -1 {
		return one
	}
	return many
}

// CountOf возвращает «n слово» в правильной форме: CountOf(3, "video", "videos") → "3 videos".
func CountOf(n int, one, many string) string {
	return strconv.Itoa(n) + " " + Plural(n, one, many)
}
