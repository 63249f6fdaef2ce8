package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBEnabled {
		t.Fatal("database is off by default")
	}
	if cfg.RateLimitRequests != 120 || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("rate limit = %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.PublishEpisodeDelay != 1500*time.Millisecond || cfg.FloodExtraWait != time.Second {
		t.Fatalf("delays = %v / %v", cfg.PublishEpisodeDelay, cfg.FloodExtraWait)
	}
	if cfg.CaptionParseMode != "" {
		t.Fatalf("caption parse mode = %q, want plain text", cfg.CaptionParseMode)
	}
	if cfg.AccessRestricted() {
		t.Fatal("access is open without owners and hash")
	}
	if cfg.Presets.QualityFirst.EndSticker == "" || len(cfg.Presets.QualityFirst.QualityStickers) != 3 {
		t.Fatalf("built-in presets missing: %+v", cfg.Presets)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without TELEGRAM_BOT_TOKEN")
	}
}

func TestLoadOwnerIDs(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_IDS", "11, 22 33")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.OwnerIDs) != 3 || cfg.OwnerIDs[0] != 11 || cfg.OwnerIDs[2] != 33 {
		t.Fatalf("owners = %v", cfg.OwnerIDs)
	}
	if !cfg.AccessRestricted() {
		t.Fatal("owners make the bot restricted")
	}

	t.Setenv("OWNER_IDS", "11,abc")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a bad owner id")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BotMaxInflight:          1,
			BotUpdateTimeoutSeconds: 1,
			RateLimitRequests:       1,
			RateLimitWindow:         time.Second,
			AccessMaxAttempts:       1,
			JournalRetentionDays:    1,
		}
	}
	tests := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"negative delay", func(c *Config) { c.PublishItemDelay = -time.Second }, false},
		{"db without password", func(c *Config) { c.DBEnabled = true; c.DBMaxConns = 2 }, false},
		{"db min over max", func(c *Config) {
			c.DBEnabled = true
			c.DBPassword = "x"
			c.DBMaxConns = 1
			c.DBMinConns = 2
		}, false},
		{"caption without quality", func(c *Config) { c.Presets.DefaultCaption = "Ep {ep}" }, false},
		{"caption ok", func(c *Config) { c.Presets.DefaultCaption = "Ep {ep} {quality}" }, true},
		{"caption parse mode html", func(c *Config) { c.CaptionParseMode = "HTML" }, true},
		{"caption parse mode v2", func(c *Config) { c.CaptionParseMode = "MarkdownV2" }, true},
		{"caption parse mode lowercase", func(c *Config) { c.CaptionParseMode = "html" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, ok want %v", err, tt.ok)
			}
		})
	}
}

func TestLockPathAndLocation(t *testing.T) {
	c := &Config{AppTimezone: "Nowhere/City"}
	if c.Location() != time.UTC {
		t.Fatal("unknown timezone falls back to UTC")
	}
	if filepath.Base(c.LockPath()) != "season-bot.lock" {
		t.Fatalf("lock path = %s", c.LockPath())
	}
	c.LockFile = "/run/bot.lock"
	if c.LockPath() != "/run/bot.lock" {
		t.Fatalf("lock path = %s", c.LockPath())
	}
}
