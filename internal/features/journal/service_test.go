package journal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestServiceStartFinish(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(0), 24*time.Hour)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	ok := svc.Start(ctx, 1, 100, "episode_first")
	svc.now = func() time.Time { return start.Add(90 * time.Second) }
	svc.Finish(ctx, ok, Outcome{Episodes: 2, Videos: 4, Items: 8})

	failed := svc.Start(ctx, 1, 100, "quality_first")
	svc.Finish(ctx, failed, Outcome{Items: 3, Err: errors.New("chat not found")})

	runs, err := svc.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}

	byID := map[string]*Run{}
	for _, r := range runs {
		byID[r.ID.String()] = r
	}
	done := byID[ok.ID.String()]
	if done == nil || done.Status != StatusDone || done.Items != 8 || done.Duration() != 90*time.Second {
		t.Fatalf("done run = %+v", done)
	}
	bad := byID[failed.ID.String()]
	if bad == nil || bad.Status != StatusFailed || bad.Error != "chat not found" {
		t.Fatalf("failed run = %+v", bad)
	}
}

func TestServicePrune(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(0), 24*time.Hour)
	now := time.Now()

	svc.now = func() time.Time { return now.Add(-72 * time.Hour) }
	svc.Start(ctx, 1, 1, "episode_first")
	svc.now = func() time.Time { return now }
	svc.Start(ctx, 1, 1, "episode_first")

	removed, err := svc.Prune(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("Prune = %d, %v; want 1", removed, err)
	}
}

func TestHistoryLimit(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(0), time.Hour)
	for i := 0; i < HistoryLimit+3; i++ {
		svc.Start(ctx, 1, 1, "episode_first")
	}
	runs, _ := svc.Recent(ctx, 1)
	if len(runs) != HistoryLimit {
		t.Fatalf("len = %d, want %d", len(runs), HistoryLimit)
	}
}
