package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"autosite/internal/storage"
	"autosite/internal/types"
)

type itemStore struct {
	db *sql.DB
}

func newItemStore(db *sql.DB) storage.ItemStore {
	return &itemStore{db: db}
}

// SeenURL reports whether url was collected, not backfilled, by an earlier
// run.
func (s *itemStore) SeenURL(ctx context.Context, url string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_items WHERE url = ? AND is_fallback = 0`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check url: %w", err)
	}
	return count > 0, nil
}

func (s *itemStore) ListForRun(ctx context.Context, runID int64) ([]types.DiscoveryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, title, url, created_at, is_fallback
		FROM run_items
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	var items []types.DiscoveryItem
	for rows.Next() {
		var item types.DiscoveryItem
		var source string
		var createdAt sql.NullTime
		if err := rows.Scan(&source, &item.Title, &item.URL, &createdAt, &item.IsFallback); err != nil {
			return nil, fmt.Errorf("failed to scan run item: %w", err)
		}
		item.Source = types.SourceKind(source)
		if createdAt.Valid {
			item.CreatedAt = createdAt.Time
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run items: %w", err)
	}

	return items, nil
}
