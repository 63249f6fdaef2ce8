// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// godotenv подхватывает .env для локального запуска.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// --- Access ---
	// Владельцы: пользуются ботом без пароля. Пусто + нет хеша = бот открыт всем.
	OwnerIDsRaw        string        `envconfig:"OWNER_IDS"`
	OwnerIDs           []int64       `ignored:"true"` // заполним вручную
	AccessPasswordHash string        `envconfig:"ACCESS_PASSWORD_HASH"`
	AccessGrantTTL     time.Duration `envconfig:"ACCESS_GRANT_TTL" default:"24h"`
	AccessMaxAttempts  int           `envconfig:"ACCESS_MAX_ATTEMPTS" default:"3"`

	// --- Database (журнал публикаций, опционально) ---
	DBEnabled  bool   `envconfig:"DB_ENABLED" default:"false"`
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"season_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// --- Journal ---
	JournalRetentionDays int `envconfig:"JOURNAL_RETENTION_DAYS" default:"30"`
	JournalMemoryLimit   int `envconfig:"JOURNAL_MEMORY_LIMIT" default:"500"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`
	// Лок-файл: два поллера с одним токеном получают 409 Conflict
	LockFile string `envconfig:"LOCK_FILE"`

	// --- Bot runtime ---
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Rate Limiting (входящие) ---
	// Сезон пересылают пачкой, поэтому лимит щедрый
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Publishing ---
	PublishItemDelay    time.Duration `envconfig:"PUBLISH_ITEM_DELAY" default:"1s"`
	PublishEpisodeDelay time.Duration `envconfig:"PUBLISH_EPISODE_DELAY" default:"1500ms"`
	PublishStickerDelay time.Duration `envconfig:"PUBLISH_STICKER_DELAY" default:"500ms"`
	PublishGroupDelay   time.Duration `envconfig:"PUBLISH_GROUP_DELAY" default:"1s"`
	FloodExtraWait      time.Duration `envconfig:"FLOOD_EXTRA_WAIT" default:"1s"`
	// Пусто — подпись уходит простым текстом: "_" в @канал ломает Markdown.
	CaptionParseMode string `envconfig:"CAPTION_PARSE_MODE"`

	// --- Presets ---
	PresetsFile string  `envconfig:"PRESETS_FILE"`
	Presets     Presets `ignored:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// LockPath возвращает путь лок-файла (по умолчанию во временной папке).
func (c *Config) LockPath() string {
	if c.LockFile != "" {
		return c.LockFile
	}
	return filepath.Join(os.TempDir(), "season-bot.lock")
}

// Location возвращает часовой пояс планировщика.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AccessRestricted — включён ли контроль доступа.
func (c *Config) AccessRestricted() bool {
	return len(c.OwnerIDs) > 0 || c.AccessPasswordHash != ""
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return errors.New("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return errors.New("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	if c.PublishItemDelay < 0 || c.PublishEpisodeDelay < 0 || c.PublishStickerDelay < 0 ||
		c.PublishGroupDelay < 0 || c.FloodExtraWait < 0 {
		return errors.New("задержки публикации не могут быть отрицательными")
	}
	switch c.CaptionParseMode {
	case "", "HTML", "Markdown", "MarkdownV2":
	default:
		return fmt.Errorf("CAPTION_PARSE_MODE: неизвестный режим %q (HTML, Markdown, MarkdownV2)", c.CaptionParseMode)
	}
	if c.AccessMaxAttempts <= 0 {
		return errors.New("ACCESS_MAX_ATTEMPTS должен быть > 0")
	}
	if c.DBEnabled {
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD обязателен при DB_ENABLED=true")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return errors.New("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	}
	if c.JournalRetentionDays <= 0 {
		return errors.New("JOURNAL_RETENTION_DAYS должен быть > 0")
	}
	if tpl := c.Presets.DefaultCaption; tpl != "" &&
		(!strings.Contains(tpl, "{ep}") || !strings.Contains(tpl, "{quality}")) {
		return errors.New("default_caption в PRESETS_FILE должен содержать {ep} и {quality}")
	}
	return nil
}

// Load читает .env (если есть), переменные окружения и файл пресетов.
func Load() (*Config, error) {
	// .env не обязателен: в Docker всё приходит из окружения
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.OwnerIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("OWNER_IDS parse: %w", err)
	}
	cfg.OwnerIDs = ids

	presets, err := LoadPresets(cfg.PresetsFile)
	if err != nil {
		return nil, err
	}
	cfg.Presets = presets

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseInt64CSV разбирает список ID через запятую или пробел.
func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
