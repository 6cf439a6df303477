package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"autosite/internal/storage"
	"autosite/internal/types"
)

type runStore struct {
	db *sql.DB
}

func newRunStore(db *sql.DB) storage.RunStore {
	return &runStore{db: db}
}

// RecordRun stores the run and its items in one transaction and returns the
// new run id.
func (s *runStore) RecordRun(ctx context.Context, run types.RunRecord, items []types.DiscoveryItem) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (topic_key, slug, site_url, real_count, fallback_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.TopicKey, run.Slug, run.SiteURL, run.RealCount, run.FallbackCount, run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_items (run_id, position, source, title, url, created_at, is_fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		createdAt := sql.NullTime{Valid: !item.CreatedAt.IsZero(), Time: item.CreatedAt.UTC()}
		if _, err := stmt.ExecContext(ctx, id, i, string(item.Source), item.Title, item.URL, createdAt, item.IsFallback); err != nil {
			return 0, fmt.Errorf("failed to insert run item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	slog.Debug("Recorded run", "id", id, "slug", run.Slug, "items", len(items))
	return id, nil
}

func (s *runStore) RecentRuns(ctx context.Context, limit int) ([]types.RunRecord, error) {
	query := `
		SELECT id, topic_key, slug, site_url, real_count, fallback_count, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]types.RunRecord, 0, limit)
	for rows.Next() {
		var run types.RunRecord
		if err := rows.Scan(&run.ID, &run.TopicKey, &run.Slug, &run.SiteURL, &run.RealCount, &run.FallbackCount, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

func (s *runStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC()
	slog.Debug("Deleting runs older than cutoff", "age", age, "cutoff", cutoff.Format(time.RFC3339))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_items WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete old run items: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}

	rows, _ := result.RowsAffected()
	slog.Debug("Deleted old runs", "count", rows)
	return rows, nil
}
