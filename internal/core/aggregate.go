package core

import (
	"time"

	"autosite/internal/types"
)

const (
	DefaultMinItems = 10
	DefaultMaxItems = 20
)

// FallbackCatalog supplies reference items for a topic, in catalog order.
type FallbackCatalog interface {
	Items(topicKey string, now time.Time) []types.DiscoveryItem
}

// Result is the output of one aggregation. RealCount is the number of unique
// collected items before the cap; FallbackCount is the number of backfilled
// items that survived it.
type Result struct {
	Items         []types.DiscoveryItem
	RealCount     int
	FallbackCount int
}

type Aggregator struct {
	Fallback FallbackCatalog
	MinItems int
	MaxItems int
	Now      func() time.Time
}

func NewAggregator(fallback FallbackCatalog, minItems, maxItems int) *Aggregator {
	if minItems == 0 {
		minItems = DefaultMinItems
	}
	if maxItems == 0 {
		maxItems = DefaultMaxItems
	}
	return &Aggregator{
		Fallback: fallback,
		MinItems: minItems,
		MaxItems: maxItems,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate merges collector outputs in the order given, drops items with an
// empty or already-seen URL, backfills from the fallback catalog when fewer
// than MinItems remain, and truncates to MaxItems. Items keep their merge
// order throughout, and real items always precede fallback items.
func (a *Aggregator) Aggregate(outputs [][]types.DiscoveryItem, topicKey string) Result {
	seen := make(map[string]bool)
	items := make([]types.DiscoveryItem, 0, a.MaxItems)

	for _, output := range outputs {
		for _, it := range output {
			if it.URL == "" || seen[it.URL] {
				continue
			}
			seen[it.URL] = true
			it.IsFallback = false
			items = append(items, it)
		}
	}

	realCount := len(items)

	if realCount < a.MinItems && a.Fallback != nil {
		for _, it := range a.Fallback.Items(topicKey, a.now()) {
			if it.URL == "" || seen[it.URL] {
				continue
			}
			seen[it.URL] = true
			it.IsFallback = true
			items = append(items, it)
		}
	}

	if a.MaxItems > 0 && len(items) > a.MaxItems {
		items = items[:a.MaxItems]
	}

	fallbackCount := 0
	for _, it := range items {
		if it.IsFallback {
			fallbackCount++
		}
	}

	return Result{
		Items:         items,
		RealCount:     realCount,
		FallbackCount: fallbackCount,
	}
}

func (a *Aggregator) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now()
}
