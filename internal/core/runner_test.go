package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosite/internal/core"
	"autosite/internal/fallback"
	"autosite/internal/notify"
	"autosite/internal/site"
	"autosite/internal/sources"
	"autosite/internal/state"
	"autosite/internal/storage/sqlite"
	"autosite/internal/types"
)

type stubCollector struct {
	name  string
	items []types.DiscoveryItem
	err   error
}

func (s stubCollector) Name() string { return s.name }

func (s stubCollector) Fetch(ctx context.Context, query string, windowDays, limit int) ([]types.DiscoveryItem, error) {
	return s.items, s.err
}

type captureDeliverer struct {
	texts []string
	err   error
}

func (c *captureDeliverer) Deliver(ctx context.Context, text string) error {
	c.texts = append(c.texts, text)
	return c.err
}

var runnerFixedNow = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func newRunnerConfig(t *testing.T, root string, collectors ...sources.Collector) core.RunnerConfig {
	t.Helper()

	tpl := filepath.Join(root, "automation", "template-site")
	require.NoError(t, os.MkdirAll(filepath.Join(tpl, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tpl, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tpl, "assets", "data.json"), []byte(`{"version":1}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

	clock := func() time.Time { return runnerFixedNow }
	renderer, err := notify.NewRenderer("")
	require.NoError(t, err)

	aggregator := core.NewAggregator(fallback.New(nil), 10, 20)
	aggregator.Now = clock

	return core.RunnerConfig{
		Root:       root,
		Docs:       filepath.Join(root, "docs"),
		TopicsPath: filepath.Join(root, "automation", "system", "topics.json"),
		NotifyPath: filepath.Join(root, "automation", "out", "notify.md"),
		IndexDesc:  "index desc",
		WindowDays: 30,
		Limit:      12,

		State:      state.NewStore(filepath.Join(root, "automation", "system", "state.json")).WithClock(clock),
		Collectors: collectors,
		Aggregator: aggregator,
		Materializer: site.NewMaterializer(site.MaterializerConfig{
			Root:     root,
			Template: tpl,
			Docs:     filepath.Join(root, "docs"),
			BaseURL:  "https://example.github.io/",
		}),
		Index:    site.NewIndex(filepath.Join(root, "hub", "assets", "sites.json")),
		Feed:     &site.FeedConfig{Path: filepath.Join(root, "hub", "feed.xml"), BaseURL: "https://example.github.io/"},
		Renderer: renderer,
		Now:      clock,
	}
}

func readJSON(t *testing.T, path string, out any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestRun_AllCollectorsFailUsesFallback(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := newRunnerConfig(t, root,
		stubCollector{name: "github", err: errors.New("rate limited")},
		stubCollector{name: "so", err: errors.New("timeout")},
		stubCollector{name: "reddit", err: errors.New("403")},
	)

	report, err := core.NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "compress-media", report.Topic.Key)
	assert.Equal(t, "auto-compress-media-20240301", report.Slug)
	assert.Equal(t, "https://example.github.io/auto-compress-media-20240301/", report.SiteURL)
	assert.Equal(t, 0, report.RealCount)
	assert.Equal(t, 10, report.FallbackCount)

	var record types.SiteRecord
	readJSON(t, filepath.Join(root, report.Slug, "assets", "data.json"), &record)
	assert.Len(t, record.Refs, 10)
	assert.Len(t, record.ProblemSummaries, 10)
	assert.Equal(t, []string{"auto", "media"}, record.Tags)

	var docsRecord types.SiteRecord
	readJSON(t, filepath.Join(root, "docs", report.Slug, "assets", "data.json"), &docsRecord)
	assert.Equal(t, record, docsRecord)

	var index []types.SiteIndexEntry
	readJSON(t, filepath.Join(root, "hub", "assets", "sites.json"), &index)
	require.Len(t, index, 1)
	assert.Equal(t, report.Slug, index[0].Slug)
	assert.Equal(t, []string{"auto", "media"}, index[0].Tags)

	var rotation types.RotationState
	readJSON(t, filepath.Join(root, "automation", "system", "state.json"), &rotation)
	assert.Equal(t, 0, rotation.Index)

	notifyText, err := os.ReadFile(cfg.NotifyPath)
	require.NoError(t, err)
	assert.Contains(t, string(notifyText), "REAL: 0 / FALLBACK: 10")
	assert.Equal(t, 10, strings.Count(string(notifyText), "(fallback)"))

	assert.FileExists(t, filepath.Join(root, "hub", "feed.xml"))
}

func TestRun_SecondRunSameDayGetsSuffixAndHistory(t *testing.T) {
	root := t.TempDir()

	collected := make([]types.DiscoveryItem, 0, 12)
	for i := 0; i < 12; i++ {
		collected = append(collected, types.DiscoveryItem{
			Source: types.SourceGitHub,
			Title:  fmt.Sprintf("issue %d", i),
			URL:    fmt.Sprintf("https://github.com/o/r/issues/%d", i),
		})
	}
	cfg := newRunnerConfig(t, root, stubCollector{name: "github", items: collected})

	topicsPath := cfg.TopicsPath
	require.NoError(t, os.MkdirAll(filepath.Dir(topicsPath), 0o755))
	require.NoError(t, os.WriteFile(topicsPath, []byte(`{"topics":[
		{"key":"a","title":"Topic A","query":"qa","tag":"media"},
		{"key":"b","title":"Topic B","query":"qb"}
	]}`), 0o644))

	history, err := sqlite.New(filepath.Join(root, "data", "history.db"))
	require.NoError(t, err)
	defer history.Close(context.Background())
	cfg.History = history

	deliverer := &captureDeliverer{err: errors.New("webhook down")}
	cfg.Deliverer = deliverer

	first, err := core.NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	second, err := core.NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	third, err := core.NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "auto-a-20240301", first.Slug)
	assert.Equal(t, "auto-b-20240301", second.Slug)
	assert.Equal(t, "auto-a-20240301-2", third.Slug)
	assert.Equal(t, 12, first.RealCount)
	assert.Equal(t, 0, first.FallbackCount)

	var index []types.SiteIndexEntry
	readJSON(t, filepath.Join(root, "hub", "assets", "sites.json"), &index)
	require.Len(t, index, 3)
	assert.Equal(t, []string{"auto", "tool"}, index[1].Tags)

	runs, err := history.Runs().RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.Positive(t, third.RunID)

	assert.Len(t, deliverer.texts, 3, "delivery failures do not abort the run")
}

func TestRun_MissingTemplateIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := newRunnerConfig(t, root)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "automation", "template-site")))

	_, err := core.NewRunner(cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsIOError(err))

	assert.NoFileExists(t, filepath.Join(root, "hub", "assets", "sites.json"))
	assert.NoFileExists(t, cfg.NotifyPath)
}

func TestRun_CorruptStateIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := newRunnerConfig(t, root)
	statePath := filepath.Join(root, "automation", "system", "state.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(statePath), 0o755))
	require.NoError(t, os.WriteFile(statePath, []byte("{nope"), 0o644))

	_, err := core.NewRunner(cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsFormatError(err))
}
