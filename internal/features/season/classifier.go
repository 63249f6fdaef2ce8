// Package season — classifier.go извлекает номер эпизода и качество
// из подписи или имени файла.
package season

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"serotonyl.ru/season-bot/internal/common"
)

// MaxThreeDigitEpisode — потолок для режима ThreeDigit, чтобы не цеплять
// разрешение или битрейт (1024, 2160 ...).
const MaxThreeDigitEpisode = 999

// qualityToken — токен качества и его каноническое значение.
type qualityToken struct {
	token   string
	quality Quality
}

// qualityTokens проверяются по порядку, первое вхождение подстроки побеждает.
var qualityTokens = []qualityToken{
	{"360", Quality480},
	{"360p", Quality480},
	{"480", Quality480},
	{"480p", Quality480},
	{"720", Quality720},
	{"720p", Quality720},
	{"1080", Quality1080},
	{"1080p", Quality1080},
}

// episodeRule — одно правило распознавания номера эпизода.
// locate возвращает позицию совпадения и номер (0, если номер не годится).
type episodeRule struct {
	name   string
	locate func(text string) (start, n int, matched bool)
}

// episodeGrammar — набор правил режима.
// leftmost: побеждает самое левое совпадение среди всех правил, при равной позиции
// правило, стоящее раньше. Иначе правила пробуются по очереди.
type episodeGrammar struct {
	rules    []episodeRule
	leftmost bool
}

var digitRun = regexp.MustCompile(`\d+`)

// markerRule находит совпадение и берёт последнюю группу цифр внутри него:
// для S01E07 это 07, а не 01.
func markerRule(name, pattern string) episodeRule {
	re := regexp.MustCompile(`(?i)` + pattern)
	return episodeRule{
		name: name,
		locate: func(text string) (int, int, bool) {
			loc := re.FindStringIndex(text)
			if loc == nil {
				return 0, 0, false
			}
			runs := digitRun.FindAllString(text[loc[0]:loc[1]], -1)
			if len(runs) == 0 {
				return loc[0], 0, true
			}
			n, _ := positive(runs[len(runs)-1])
			return loc[0], n, true
		},
	}
}

// boundedRule перебирает все совпадения и берёт первое значение в (0, ceiling].
func boundedRule(name, pattern string, ceiling int) episodeRule {
	re := regexp.MustCompile(pattern)
	return episodeRule{
		name: name,
		locate: func(text string) (int, int, bool) {
			for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
				n, ok := positive(text[m[2]:m[3]])
				if ok && n <= ceiling {
					return m[0], n, true
				}
			}
			return 0, 0, false
		},
	}
}

func positive(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// find применяет грамматику к тексту.
func (g episodeGrammar) find(text string) (int, bool) {
	if !g.leftmost {
		for _, rule := range g.rules {
			if _, n, ok := rule.locate(text); ok && n > 0 {
				return n, true
			}
		}
		return 0, false
	}

	best, bestStart := 0, -1
	for _, rule := range g.rules {
		start, n, ok := rule.locate(text)
		if ok && (bestStart < 0 || start < bestStart) {
			best, bestStart = n, start
		}
	}
	return best, bestStart >= 0 && best > 0
}

// episodeGrammars — правила по режимам в порядке приоритета.
var episodeGrammars = map[Mode]episodeGrammar{
	ModeSequentialMarker: {
		leftmost: true,
		rules: []episodeRule{
			markerRule("season-episode", `s\d{1,2}[\s._-]?e\d{1,4}`),
			markerRule("episode", `episode\s*0*\d{1,4}`),
			markerRule("ep", `ep\.?\s*0*\d{1,4}`),
			markerRule("e", `\be\s*0*\d{1,4}`),
		},
	},
	ModeThreeDigit: {
		rules: []episodeRule{
			boundedRule("parenthesized", `\((\d{3,4})\)`, MaxThreeDigitEpisode),
			boundedRule("standalone", `\b(\d{3,4})\b`, MaxThreeDigitEpisode),
		},
	},
}

// leadingNumber — номер с разделителем в начале названия: "13. Title", "13 - Title", "13: Title".
// "2024 Special" и "100 Days" номером эпизода не считаются.
var leadingNumber = regexp.MustCompile(`^\W*(\d{1,4})\s*[.:)\-–]`)

// Result — итог распознавания. Нулевые поля означают «не найдено».
type Result struct {
	Episode int
	Quality Quality
}

// Complete сообщает, найдены ли оба поля.
func (r Result) Complete() bool {
	return r.Episode > 0 && r.Quality != ""
}

// Err возвращает ошибку для каждого ненайденного поля (или nil).
func (r Result) Err() error {
	var errs []error
	if r.Episode <= 0 {
		errs = append(errs, common.ErrEpisodeNotDetected)
	}
	if r.Quality == "" {
		errs = append(errs, common.ErrQualityNotDetected)
	}
	return errors.Join(errs...)
}

// Classify распознаёт эпизод и качество в тексте.
// ignore — подстрока, которая вырезается до разбора (например, название шоу с цифрами).
func Classify(text string, mode Mode, ignore string) Result {
	text = strings.ToLower(text)
	if ignore = strings.ToLower(strings.TrimSpace(ignore)); ignore != "" {
		text = strings.ReplaceAll(text, ignore, " ")
	}

	var res Result
	res.Quality, _ = DetectQuality(text)
	res.Episode, _ = DetectEpisode(text, mode)
	return res
}

// DetectQuality ищет первый токен качества по порядку приоритета.
func DetectQuality(text string) (Quality, bool) {
	text = strings.ToLower(text)
	for _, t := range qualityTokens {
		if strings.Contains(text, t.token) {
			return t.quality, true
		}
	}
	return "", false
}

// DetectEpisode применяет грамматику режима.
func DetectEpisode(text string, mode Mode) (int, bool) {
	g, ok := episodeGrammars[mode]
	if !ok {
		g = episodeGrammars[ModeSequentialMarker]
	}
	return g.find(strings.ToLower(text))
}

// DetectStartEpisode определяет номер первого эпизода по строке первого названия.
// Без номера возвращает 1.
func DetectStartEpisode(title string) int {
	if n, ok := DetectEpisode(title, ModeSequentialMarker); ok {
		return n
	}
	if m := leadingNumber.FindStringSubmatch(title); m != nil {
		if n, ok := positive(m[1]); ok {
			return n
		}
	}
	return 1
}
