// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки распознавания видео
var (
	// ErrEpisodeNotDetected — в подписи/имени файла нет номера эпизода
	ErrEpisodeNotDetected = errors.New("couldn't detect the episode number from the caption/filename")
	// ErrQualityNotDetected — в подписи/имени файла нет качества
	ErrQualityNotDetected = errors.New("couldn't detect the quality (480p/720p/1080p) from the caption/filename")
)

// Ошибки настройки сессии
var (
	// ErrTemplatePlaceholders — в шаблоне нет {ep} или {quality}
	ErrTemplatePlaceholders = errors.New("format must include {ep} and {quality} placeholders")
	// ErrNoNames — пустой список названий
	ErrNoNames = errors.New("send the episode list after the command, one title per line")
	// ErrStickerArgs — неверные аргументы /setstickers
	ErrStickerArgs = errors.New("usage: /setstickers <sticker_file_id1> <sticker_file_id2>")
)

// Ошибки публикации (предусловия)
var (
	// ErrNoTitles — не заданы названия эпизодов
	ErrNoTitles = errors.New("set episode names first using /setnames")
	// ErrNeedTwoStickers — стикеров меньше двух
	ErrNeedTwoStickers = errors.New("set two stickers first with /setstickers or /setsticker")
	// ErrNoAssets — не собрано ни одного видео
	ErrNoAssets = errors.New("no videos collected yet")
	// ErrNoTemplate — не задан шаблон подписи
	ErrNoTemplate = errors.New("set the caption format with /setformat first")
	// ErrNoAnnouncement — не прислан вводный пост
	ErrNoAnnouncement = errors.New("send the Powered By post first")
	// ErrPublishInProgress — публикация уже идёт
	ErrPublishInProgress = errors.New("a publication is already running for this session")
)

// Ошибки доступа
var (
	// ErrNotAllowed — пользователь не владелец и не вошёл по паролю
	ErrNotAllowed = errors.New("this bot is private, use /login <password>")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("too many attempts, try again in an hour")
	// ErrLoginDisabled — вход по паролю не настроен
	ErrLoginDisabled = errors.New("password login is not configured")
)
