package season

import (
	"context"
	"errors"
	"testing"
	"time"

	"serotonyl.ru/season-bot/internal/common"
	"serotonyl.ru/season-bot/internal/config"
	"serotonyl.ru/season-bot/internal/features/journal"
)

func newTestJournal() *journal.Service {
	return journal.NewService(journal.NewMemoryRepository(0), time.Hour)
}

func newTestService(sender Sender, tpl string) *Service {
	return NewService(NewStore(), NewPublisher(sender, noSleep), newTestJournal(), Options{}, tpl)
}

func TestIntake(t *testing.T) {
	svc := newTestService(&fakeSender{}, "")

	out, err := svc.Intake(1, MediaItem{FileID: "a", FileName: "Show.S01E07.720p.mkv"})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if out.Episode != 7 || out.Quality != Quality720 || out.Episodes != 1 || out.Replaced {
		t.Fatalf("result = %+v", out)
	}

	// подпись важнее имени файла
	out, err = svc.Intake(1, MediaItem{FileID: "b", FileName: "raw.mkv", Caption: "Episode 07 720p"})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if !out.Replaced || out.Episodes != 1 {
		t.Fatalf("expected replacement, got %+v", out)
	}
	if got := svc.Session(1).Assets[7][Quality720].FileID; got != "b" {
		t.Fatalf("stored file id = %q, want b", got)
	}
}

func TestIntakeRejectsIncomplete(t *testing.T) {
	svc := newTestService(&fakeSender{}, "")

	_, err := svc.Intake(1, MediaItem{FileID: "a", FileName: "Show 720p.mkv"})
	if !errors.Is(err, common.ErrEpisodeNotDetected) {
		t.Fatalf("error = %v", err)
	}
	if svc.Session(1).AssetCount() != 0 {
		t.Fatal("incomplete video must not be stored")
	}
}

func TestIntakeUsesSessionMode(t *testing.T) {
	svc := newTestService(&fakeSender{}, "")
	svc.SetMode(1, ModeThreeDigit)
	svc.SetIgnore(1, "Mob Psycho 100")

	out, err := svc.Intake(1, MediaItem{FileID: "a", Caption: "Mob Psycho 100 (012) 1080p"})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if out.Episode != 12 || out.Quality != Quality1080 {
		t.Fatalf("result = %+v", out)
	}
}

func TestStartAppliesDefaultTemplate(t *testing.T) {
	svc := newTestService(&fakeSender{}, "Ep {ep} {quality}")
	svc.SetMode(1, ModeThreeDigit)
	svc.Start(1, KindQualityFirst)

	s := svc.Session(1)
	if s.Kind != KindQualityFirst || s.CaptionTemplate != "Ep {ep} {quality}" || s.Mode != ModeThreeDigit {
		t.Fatalf("session = %+v", s)
	}
}

func TestServiceSetters(t *testing.T) {
	svc := newTestService(&fakeSender{}, "")

	if _, _, err := svc.SetTitles(1, []string{" ", ""}); !errors.Is(err, common.ErrNoNames) {
		t.Fatalf("SetTitles error = %v", err)
	}
	count, start, err := svc.SetTitles(1, []string{"S01E05 Five", "Six"})
	if err != nil || count != 2 || start != 5 {
		t.Fatalf("SetTitles = %d, %d, %v", count, start, err)
	}
	if err := svc.SetStickers(1, []string{"only"}); !errors.Is(err, common.ErrStickerArgs) {
		t.Fatalf("SetStickers error = %v", err)
	}
	if err := svc.SetStickers(1, []string{"a", "b"}); err != nil {
		t.Fatalf("SetStickers: %v", err)
	}
	if n := svc.AddSticker(1, "c"); n != 1 {
		t.Fatalf("AddSticker after full pair = %d, want 1", n)
	}
	if got := svc.SetIgnore(1, "  Show 100 "); got != "Show 100" {
		t.Fatalf("SetIgnore = %q", got)
	}
}

func TestOfferAnnouncement(t *testing.T) {
	svc := newTestService(&fakeSender{}, "")
	ref := MessageRef{ChatID: 1, MessageID: 10}

	if svc.OfferAnnouncement(1, ref) {
		t.Fatal("episode-first sessions do not take announcements")
	}
	svc.Start(1, KindQualityFirst)
	if !svc.OfferAnnouncement(1, ref) {
		t.Fatal("quality-first session must store the first announcement")
	}
	if svc.OfferAnnouncement(1, MessageRef{ChatID: 1, MessageID: 11}) {
		t.Fatal("second announcement must be ignored")
	}
	if got := svc.Session(1).Announcement.MessageID; got != 10 {
		t.Fatalf("announcement = %d, want 10", got)
	}
}

func TestPublishRecordsJournal(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(sender, "")
	svc.SetTitles(1, []string{"Ep A"})
	svc.SetStickers(1, []string{"s1", "s2"})
	if _, err := svc.Intake(1, MediaItem{FileID: "v", FileName: "E01 480p"}); err != nil {
		t.Fatalf("Intake: %v", err)
	}

	var planned Plan
	rep, err := svc.Publish(context.Background(), 1, 42, func(p Plan) { planned = p })
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if planned.Emissions() != 4 || rep.Emitted != 4 {
		t.Fatalf("planned = %d, emitted = %d", planned.Emissions(), rep.Emitted)
	}

	runs, err := svc.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != journal.StatusDone || runs[0].Items != 4 || runs[0].ChatID != 42 {
		t.Fatalf("runs = %+v", runs)
	}

	// сессия сохраняется и может быть опубликована повторно
	if svc.Session(1).AssetCount() != 1 {
		t.Fatal("session must survive publish")
	}
}

func TestPublishFailureRecorded(t *testing.T) {
	sender := &fakeSender{failAt: 2, err: errBoom}
	svc := newTestService(sender, "")
	svc.SetTitles(1, []string{"Ep A"})
	svc.SetStickers(1, []string{"s1", "s2"})
	svc.Intake(1, MediaItem{FileID: "v", FileName: "E01 480p"})

	rep, err := svc.Publish(context.Background(), 1, 1, nil)
	if !errors.Is(err, errBoom) || rep.Emitted != 1 {
		t.Fatalf("Publish = %+v, %v", rep, err)
	}
	runs, _ := svc.History(context.Background(), 1)
	if len(runs) != 1 || runs[0].Status != journal.StatusFailed || runs[0].Error == "" {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestPublishInProgress(t *testing.T) {
	svc := newTestService(&fakeSender{}, "")
	svc.store.BeginPublish(1)

	if _, err := svc.Publish(context.Background(), 1, 1, nil); !errors.Is(err, common.ErrPublishInProgress) {
		t.Fatalf("error = %v, want ErrPublishInProgress", err)
	}
	svc.store.EndPublish(1)
	if _, err := svc.Publish(context.Background(), 1, 1, nil); errors.Is(err, common.ErrPublishInProgress) {
		t.Fatal("guard must be released")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		PublishItemDelay:    time.Second,
		PublishEpisodeDelay: 2 * time.Second,
		Presets:             config.DefaultPresets(),
	}
	cfg.Presets.QualityFirst.QualityStickers["unknown"] = "zzz"

	opts := OptionsFromConfig(cfg)
	if opts.Pacing.Item != time.Second || opts.Pacing.Episode != 2*time.Second {
		t.Fatalf("pacing = %+v", opts.Pacing)
	}
	if len(opts.Stickers.PerQuality) != 3 {
		t.Fatalf("per-quality stickers = %v", opts.Stickers.PerQuality)
	}
	for _, q := range QualityOrder {
		if opts.Stickers.PerQuality[q] == "" {
			t.Errorf("no sticker for %s", q)
		}
	}
	if opts.Stickers.Separator == "" || opts.Stickers.End == "" {
		t.Fatal("separator and end stickers must come from presets")
	}
}

func TestSetTitlesEmptyKeepsSession(t *testing.T) {
	svc := newTestService(&fakeSender{}, "")
	if _, _, err := svc.SetTitles(1, []string{"Episode 05 - A", "B"}); err != nil {
		t.Fatalf("SetTitles: %v", err)
	}

	if _, _, err := svc.SetTitles(1, []string{""}); !errors.Is(err, common.ErrNoNames) {
		t.Fatalf("SetTitles(empty) error = %v, want ErrNoNames", err)
	}
	sess := svc.Session(1)
	if len(sess.Titles) != 2 || sess.StartEpisode != 5 {
		t.Fatalf("session changed: titles=%v start=%d", sess.Titles, sess.StartEpisode)
	}
}
