package storage

import (
	"context"
	"time"

	"autosite/internal/types"
)

type StorageInterface interface {
	Runs() RunStore
	Items() ItemStore
	Close(ctx context.Context) error
}

// RunStore is the ledger of completed runs.
type RunStore interface {
	RecordRun(ctx context.Context, run types.RunRecord, items []types.DiscoveryItem) (int64, error)
	RecentRuns(ctx context.Context, limit int) ([]types.RunRecord, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// ItemStore answers questions about items recorded with past runs.
type ItemStore interface {
	SeenURL(ctx context.Context, url string) (bool, error)
	ListForRun(ctx context.Context, runID int64) ([]types.DiscoveryItem, error)
}
