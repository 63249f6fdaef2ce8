// Package journal — memory.go хранит журнал в памяти процесса (DB_ENABLED=false).
package journal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository — журнал в памяти с ограничением на число записей.
type MemoryRepository struct {
	mu    sync.Mutex
	runs  []*Run
	limit int
}

// NewMemoryRepository создаёт журнал на limit последних записей (<= 0 без ограничения).
func NewMemoryRepository(limit int) *MemoryRepository {
	return &MemoryRepository{limit: limit}
}

func (r *MemoryRepository) Insert(_ context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs = append(r.runs, &cp)
	if r.limit > 0 && len(r.runs) > r.limit {
		r.runs = r.runs[len(r.runs)-r.limit:]
	}
	return nil
}

func (r *MemoryRepository) Finish(_ context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.runs {
		if existing.ID == run.ID {
			cp := *run
			r.runs[i] = &cp
			return nil
		}
	}
	// запись могла вытесниться лимитом
	return nil
}

func (r *MemoryRepository) Recent(_ context.Context, userID int64, limit int) ([]*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Run
	for _, run := range r.runs {
		if run.UserID == userID {
			cp := *run
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) PruneBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.runs[:0]
	var removed int64
	for _, run := range r.runs {
		if run.StartedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, run)
	}
	r.runs = kept
	return removed, nil
}
