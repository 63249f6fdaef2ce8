package season

import (
	"errors"
	"strings"
	"testing"

	"serotonyl.ru/season-bot/internal/common"
)

func TestRecordAssetLastWriteWins(t *testing.T) {
	s := NewSession(KindEpisodeFirst, "")
	s.RecordAsset(3, Quality720, Asset{FileID: "first"})
	s.RecordAsset(3, Quality720, Asset{FileID: "second"})

	if got := s.AssetCount(); got != 1 {
		t.Fatalf("asset count = %d, want 1", got)
	}
	if got := s.Assets[3][Quality720].FileID; got != "second" {
		t.Fatalf("file id = %q, want second", got)
	}
	if s.Mode != ModeSequentialMarker {
		t.Fatalf("default mode = %q", s.Mode)
	}
}

func TestRecordAssetRejectsInvalidKey(t *testing.T) {
	s := NewSession(KindEpisodeFirst, ModeSequentialMarker)
	if s.RecordAsset(0, Quality480, Asset{FileID: "x"}) {
		t.Fatal("episode 0 must be rejected")
	}
	if s.RecordAsset(1, Quality("2160p"), Asset{FileID: "x"}) {
		t.Fatal("unknown quality must be rejected")
	}
	if s.EpisodeCount() != 0 {
		t.Fatalf("episodes = %d, want 0", s.EpisodeCount())
	}
}

func TestAddStickerRestartsPair(t *testing.T) {
	s := NewSession(KindEpisodeFirst, ModeSequentialMarker)
	steps := []struct {
		id   string
		want []string
	}{
		{"a", []string{"a"}},
		{"b", []string{"a", "b"}},
		{"c", []string{"c"}},
		{"d", []string{"c", "d"}},
	}
	for _, st := range steps {
		n := s.AddSticker(st.id)
		if n != len(st.want) || len(s.Stickers) != len(st.want) {
			t.Fatalf("after %q: n=%d stickers=%v, want %v", st.id, n, s.Stickers, st.want)
		}
		for i := range st.want {
			if s.Stickers[i] != st.want[i] {
				t.Fatalf("after %q: stickers=%v, want %v", st.id, s.Stickers, st.want)
			}
		}
	}
}

func TestSetTemplate(t *testing.T) {
	s := NewSession(KindQualityFirst, ModeSequentialMarker)
	for _, tpl := range []string{"Episode {ep}", "{quality} only", ""} {
		if err := s.SetTemplate(tpl); !errors.Is(err, common.ErrTemplatePlaceholders) {
			t.Errorf("SetTemplate(%q) error = %v", tpl, err)
		}
	}
	if err := s.SetTemplate("  Ep {ep} • {quality}  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CaptionTemplate != "Ep {ep} • {quality}" {
		t.Fatalf("template = %q", s.CaptionTemplate)
	}
}

func TestSetTitlesDetectsStart(t *testing.T) {
	s := NewSession(KindEpisodeFirst, ModeSequentialMarker)
	n := s.SetTitles([]string{"", "Episode 13 - Arrival", "  ", "Episode 14 - Departure"})
	if n != 2 {
		t.Fatalf("titles = %d, want 2", n)
	}
	if s.StartEpisode != 13 {
		t.Fatalf("start = %d, want 13", s.StartEpisode)
	}

	s.SetTitles([]string{"Ep A"})
	if s.StartEpisode != 1 {
		t.Fatalf("start = %d, want 1", s.StartEpisode)
	}
}

func TestMissingEpisodes(t *testing.T) {
	s := NewSession(KindEpisodeFirst, ModeSequentialMarker)
	s.SetTitles([]string{"Episode 01 - A", "B", "C"})
	s.RecordAsset(1, Quality720, Asset{FileID: "a"})
	s.RecordAsset(3, Quality480, Asset{FileID: "c"})
	s.RecordAsset(9, Quality480, Asset{FileID: "extra"})

	got := s.MissingEpisodes()
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("missing = %v, want [2]", got)
	}
	if status := FormatStatus(s); !strings.Contains(status, "No videos for episodes: 02") {
		t.Fatalf("status has no warning:\n%s", status)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession(KindQualityFirst, ModeSequentialMarker)
	s.RecordAsset(1, Quality480, Asset{FileID: "x"})
	s.SetAnnouncement(MessageRef{ChatID: 1, MessageID: 2})

	c := s.Clone()
	s.RecordAsset(1, Quality720, Asset{FileID: "y"})
	s.Announcement.MessageID = 99

	if c.AssetCount() != 1 {
		t.Fatalf("clone sees later assets: %d", c.AssetCount())
	}
	if c.Announcement.MessageID != 2 {
		t.Fatalf("clone announcement changed: %d", c.Announcement.MessageID)
	}
}

func TestStoreResetKeepsMode(t *testing.T) {
	st := NewStore()
	st.Update(7, func(s *Session) {
		s.SetMode(ModeThreeDigit)
		s.RecordAsset(1, Quality480, Asset{FileID: "x"})
		s.SetTitles([]string{"One"})
	})

	st.Reset(7, KindQualityFirst)
	got := st.Get(7)
	if got.Mode != ModeThreeDigit {
		t.Fatalf("mode = %q, want three", got.Mode)
	}
	if got.Kind != KindQualityFirst || got.AssetCount() != 0 || len(got.Titles) != 0 {
		t.Fatalf("session not reset: %+v", got)
	}
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	st := NewStore()
	snap := st.Get(1)
	snap.RecordAsset(1, Quality480, Asset{FileID: "x"})

	if st.Get(1).AssetCount() != 0 {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestStorePublishGuard(t *testing.T) {
	st := NewStore()
	if !st.BeginPublish(1) {
		t.Fatal("first BeginPublish must succeed")
	}
	if st.BeginPublish(1) {
		t.Fatal("second BeginPublish must fail while running")
	}
	if !st.BeginPublish(2) {
		t.Fatal("other users are not blocked")
	}
	if got := st.Stats().Publishing; got != 2 {
		t.Fatalf("publishing = %d, want 2", got)
	}
	st.EndPublish(1)
	if !st.BeginPublish(1) {
		t.Fatal("BeginPublish after EndPublish must succeed")
	}
}
