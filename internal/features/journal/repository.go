// Package journal — repository.go хранит записи журнала в таблице publications.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository — хранилище журнала. Есть PostgreSQL и in-memory реализации.
type Repository interface {
	Insert(ctx context.Context, run *Run) error
	Finish(ctx context.Context, run *Run) error
	Recent(ctx context.Context, userID int64, limit int) ([]*Run, error)
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
}

// Migration создаёт таблицу журнала.
const Migration = `
CREATE TABLE IF NOT EXISTS publications (
    id UUID PRIMARY KEY,
    user_id BIGINT NOT NULL,
    chat_id BIGINT NOT NULL,
    kind VARCHAR(32) NOT NULL,
    status VARCHAR(16) NOT NULL,
    episodes INTEGER DEFAULT 0,
    videos INTEGER DEFAULT 0,
    items INTEGER DEFAULT 0,
    error TEXT DEFAULT '',
    started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_publications_user_started ON publications(user_id, started_at DESC);
`

// PostgresRepository — журнал в PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository создаёт репозиторий журнала.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert записывает начатую публикацию.
func (r *PostgresRepository) Insert(ctx context.Context, run *Run) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO publications (id, user_id, chat_id, kind, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.UserID, run.ChatID, run.Kind, string(run.Status), run.StartedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи публикации: %w", err)
	}
	return nil
}

// Finish обновляет итог публикации.
func (r *PostgresRepository) Finish(ctx context.Context, run *Run) error {
	_, err := r.db.Exec(ctx, `
		UPDATE publications
		SET status = $2, episodes = $3, videos = $4, items = $5, error = $6, finished_at = $7
		WHERE id = $1
	`, run.ID, string(run.Status), run.Episodes, run.Videos, run.Items, run.Error, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("ошибка обновления публикации: %w", err)
	}
	return nil
}

// Recent возвращает последние публикации пользователя, новые первыми.
func (r *PostgresRepository) Recent(ctx context.Context, userID int64, limit int) ([]*Run, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, chat_id, kind, status, episodes, videos, items, error, started_at, finished_at
		FROM publications
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var status string
		if err := rows.Scan(
			&run.ID, &run.UserID, &run.ChatID, &run.Kind, &status,
			&run.Episodes, &run.Videos, &run.Items, &run.Error,
			&run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
		}
		run.Status = Status(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// PruneBefore удаляет записи, начатые раньше before.
func (r *PostgresRepository) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM publications WHERE started_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки журнала: %w", err)
	}
	return tag.RowsAffected(), nil
}
