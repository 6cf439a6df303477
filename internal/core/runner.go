package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autosite/internal/notify"
	"autosite/internal/site"
	"autosite/internal/sources"
	"autosite/internal/state"
	"autosite/internal/storage"
	"autosite/internal/topics"
	"autosite/internal/types"
)

const defaultIndexTag = "tool"

// Deliverer pushes the rendered digest somewhere outside the repository.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

type RunnerConfig struct {
	Root          string
	Docs          string
	TopicsPath    string
	NotifyPath    string
	IndexDesc     string
	WindowDays    int
	Limit         int
	RetentionDays int

	State        *state.Store
	Collectors   []sources.Collector
	Aggregator   *Aggregator
	Materializer *site.Materializer
	Index        *site.Index
	Feed         *site.FeedConfig
	Renderer     *notify.Renderer

	// optional
	History   storage.StorageInterface
	Deliverer Deliverer

	Logger *slog.Logger
	Now    func() time.Time
}

// RunReport describes what one run produced.
type RunReport struct {
	Topic         types.Topic
	Slug          string
	SiteURL       string
	NotifyPath    string
	RealCount     int
	FallbackCount int
	RunID         int64
}

// Runner performs a single generation run: pick the next topic, collect,
// aggregate, materialize a site, append it to the index and write the digest.
type Runner struct {
	config RunnerConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewRunner(config RunnerConfig) *Runner {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := config.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Runner{config: config, logger: logger, now: now}
}

// Run executes the steps in order. Loading the catalog, advancing the
// rotation, materializing, appending to the index and writing the digest are
// fatal on failure. The hub feed, run history and digest delivery only log.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	startedAt := r.now()

	catalog, err := topics.Load(r.config.TopicsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic catalog: %w", err)
	}

	topic, err := r.config.State.Advance(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to advance rotation: %w", err)
	}

	slug := site.UniqueSlug(r.config.Root, r.config.Docs, site.BaseSlug(topic.Key, startedAt))
	r.logger.Info("Starting run", "topic", topic.Key, "slug", slug, "collectors", len(r.config.Collectors))

	outputs := sources.CollectAll(ctx, r.logger, r.config.Collectors, topic.Query, r.config.WindowDays, r.config.Limit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := r.config.Aggregator.Aggregate(outputs, topic.Key)
	r.logger.Info("Aggregated items",
		"items", len(result.Items),
		"real", result.RealCount,
		"fallback", result.FallbackCount,
	)

	siteURL, err := r.config.Materializer.Materialize(slug, topic, result.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize site: %w", err)
	}

	tag := topic.Tag
	if tag == "" {
		tag = defaultIndexTag
	}
	if err := r.config.Index.Append(site.NewEntry(slug, topic.Title, r.config.IndexDesc, []string{"auto", tag})); err != nil {
		return nil, fmt.Errorf("failed to append site index: %w", err)
	}

	r.writeFeed(slug)

	text, err := r.config.Renderer.Render(notify.Report{
		SiteURL:       siteURL,
		Topic:         topic,
		RealCount:     result.RealCount,
		FallbackCount: result.FallbackCount,
		Items:         result.Items,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render notification: %w", err)
	}
	if err := notify.WriteReport(r.config.NotifyPath, text); err != nil {
		return nil, err
	}

	report := &RunReport{
		Topic:         topic,
		Slug:          slug,
		SiteURL:       siteURL,
		NotifyPath:    r.config.NotifyPath,
		RealCount:     result.RealCount,
		FallbackCount: result.FallbackCount,
	}

	report.RunID = r.recordHistory(ctx, report, result.Items, startedAt)

	if r.config.Deliverer != nil {
		if err := r.config.Deliverer.Deliver(ctx, text); err != nil {
			r.logger.Warn("Digest delivery failed", "error", err)
		} else {
			r.logger.Info("Digest delivered")
		}
	}

	r.logger.Info("Run completed", "slug", slug, "site_url", siteURL, "duration", r.now().Sub(startedAt))
	return report, nil
}

func (r *Runner) writeFeed(newest string) {
	if r.config.Feed == nil {
		return
	}

	entries, err := r.config.Index.Entries()
	if err != nil {
		r.logger.Warn("Skipping hub feed, site index unreadable", "error", err)
		return
	}
	if err := site.WriteFeed(*r.config.Feed, entries, newest, r.now()); err != nil {
		r.logger.Warn("Failed to write hub feed", "path", r.config.Feed.Path, "error", err)
		return
	}
	r.logger.Debug("Hub feed written", "path", r.config.Feed.Path, "entries", len(entries))
}

func (r *Runner) recordHistory(ctx context.Context, report *RunReport, items []types.DiscoveryItem, startedAt time.Time) int64 {
	history := r.config.History
	if history == nil {
		return 0
	}

	repeats := 0
	for _, item := range items {
		if item.IsFallback {
			continue
		}
		seen, err := history.Items().SeenURL(ctx, item.URL)
		if err != nil {
			r.logger.Warn("History lookup failed", "url", item.URL, "error", err)
			break
		}
		if seen {
			repeats++
		}
	}
	if repeats > 0 {
		r.logger.Info("Items already used by earlier runs", "count", repeats)
	}

	id, err := history.Runs().RecordRun(ctx, types.RunRecord{
		TopicKey:      report.Topic.Key,
		Slug:          report.Slug,
		SiteURL:       report.SiteURL,
		RealCount:     report.RealCount,
		FallbackCount: report.FallbackCount,
		StartedAt:     startedAt,
		FinishedAt:    r.now(),
	}, items)
	if err != nil {
		r.logger.Warn("Failed to record run history", "error", err)
		return 0
	}

	if r.config.RetentionDays > 0 {
		age := time.Duration(r.config.RetentionDays) * 24 * time.Hour
		if _, err := history.Runs().DeleteOlderThan(ctx, age); err != nil {
			r.logger.Warn("Failed to prune run history", "error", err)
		}
	}

	return id
}
