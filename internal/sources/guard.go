package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"autosite/internal/types"
)

// Guard runs one collector and converts every failure, including a panic,
// into an empty result and a log line. It never returns an error.
func Guard(ctx context.Context, logger *slog.Logger, c Collector, query string, windowDays, limit int) (items []types.DiscoveryItem) {
	defer func() {
		if r := recover(); r != nil {
			err := types.NewCollectorError(c.Name(), fmt.Errorf("panic: %v", r))
			logger.Error("Collector failed", "source", c.Name(), "error", err)
			items = []types.DiscoveryItem{}
		}
	}()

	got, err := c.Fetch(ctx, query, windowDays, limit)
	if err != nil {
		logger.Error("Collector failed", "source", c.Name(), "error", types.NewCollectorError(c.Name(), err))
		return []types.DiscoveryItem{}
	}

	if got == nil {
		got = []types.DiscoveryItem{}
	}
	logger.Info("Collector ok", "source", c.Name(), "items", len(got))
	return got
}

// CollectAll runs every collector concurrently under Guard. Output slot i
// belongs to collectors[i], so merge order follows the collector order no
// matter which request finishes first.
func CollectAll(ctx context.Context, logger *slog.Logger, collectors []Collector, query string, windowDays, limit int) [][]types.DiscoveryItem {
	outputs := make([][]types.DiscoveryItem, len(collectors))

	var wg sync.WaitGroup
	for i, c := range collectors {
		wg.Add(1)
		logger.Debug("Launching collector", "source", c.Name())
		go func(idx int, col Collector) {
			defer wg.Done()
			outputs[idx] = Guard(ctx, logger, col, query, windowDays, limit)
		}(i, c)
	}
	wg.Wait()

	return outputs
}
