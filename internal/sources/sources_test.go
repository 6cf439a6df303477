package sources_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosite/internal/sources"
	"autosite/internal/types"
)

var fixedNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGitHub_NoTokenSkipsWithoutRequest(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	gh := sources.NewGitHubSource("github", "", sources.HTTPConfig{BaseURL: srv.URL, Now: clock})
	items, err := gh.Fetch(context.Background(), "ffmpeg", 30, 12)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, hits.Load())
}

func TestGitHub_SearchRequestAndMapping(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/issues", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "ffmpeg created:>=2024-03-01", q.Get("q"))
		assert.Equal(t, "created", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "30", q.Get("per_page"), "per_page is capped at 30")

		_, _ = io.WriteString(w, `{"items":[
			{"title":"Output too large","html_url":"https://github.com/o/r/issues/1","created_at":"2024-03-30T10:00:00Z"},
			{"title":"Second","html_url":"https://github.com/o/r/issues/2","created_at":"2024-03-29T10:00:00Z"}
		]}`)
	}))
	defer srv.Close()

	gh := sources.NewGitHubSource("github", "secret", sources.HTTPConfig{BaseURL: srv.URL, Now: clock})
	items, err := gh.Fetch(context.Background(), "ffmpeg", 30, 100)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, types.SourceGitHub, items[0].Source)
	assert.Equal(t, "Output too large", items[0].Title)
	assert.Equal(t, "https://github.com/o/r/issues/1", items[0].URL)
	assert.Equal(t, time.Date(2024, 3, 30, 10, 0, 0, 0, time.UTC), items[0].CreatedAt)
	assert.False(t, items[0].IsFallback)
}

func TestGitHub_TitlesAreNotSanitized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[
			{"title":"Vec<u8> decode fails when <video> tag has no src","html_url":"https://github.com/o/r/issues/7","created_at":"2024-03-30T10:00:00Z"},
			{"title":"Tom &amp; Jerry  frames","html_url":"https://github.com/o/r/issues/8","created_at":"2024-03-30T10:00:00Z"}
		]}`)
	}))
	defer srv.Close()

	gh := sources.NewGitHubSource("github", "secret", sources.HTTPConfig{BaseURL: srv.URL, Now: clock})
	items, err := gh.Fetch(context.Background(), "ffmpeg", 30, 10)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Vec<u8> decode fails when <video> tag has no src", items[0].Title)
	assert.Equal(t, "Tom &amp; Jerry frames", items[1].Title)
}

func TestStackOverflow_RequestCapsAndCleansTitles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.3/search/advanced", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("pagesize"))
		assert.Equal(t, "stackoverflow", q.Get("site"))
		assert.Equal(t, "creation", q.Get("sort"))
		assert.Equal(t, "1709294400", q.Get("fromdate"))
		assert.Equal(t, "mp4 compress", q.Get("q"))

		_, _ = io.WriteString(w, `{"items":[
			{"title":"Can&#39;t shrink &lt;video&gt; size","link":"https://stackoverflow.com/q/1","creation_date":1711800000}
		]}`)
	}))
	defer srv.Close()

	so := sources.NewStackOverflowSource("so", sources.HTTPConfig{BaseURL: srv.URL, Now: clock})
	items, err := so.Fetch(context.Background(), "mp4 compress", 30, 50)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, types.SourceStackOverflow, items[0].Source)
	assert.Equal(t, "Can't shrink <video> size", items[0].Title)
	assert.Equal(t, time.Unix(1711800000, 0).UTC(), items[0].CreatedAt)
}

func TestReddit_RecencyFilterAndPermalink(t *testing.T) {
	t.Parallel()

	recent := fixedNow.Add(-24 * time.Hour).Unix()
	stale := fixedNow.Add(-10 * 24 * time.Hour).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "new", q.Get("sort"))
		assert.Equal(t, "month", q.Get("t"))
		assert.Equal(t, "25", q.Get("limit"))

		body := `{"data":{"children":[
			{"data":{"title":"fresh &amp; <hot>","permalink":"/r/x/1","created_utc":` + itoa(recent) + `}},
			{"data":{"title":"stale","permalink":"/r/x/2","created_utc":` + itoa(stale) + `}},
			{"data":{"title":"undated","permalink":"/r/x/3"}}
		]}}`
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	rd := sources.NewRedditSource("reddit", sources.HTTPConfig{BaseURL: srv.URL, Now: clock})
	items, err := rd.Fetch(context.Background(), "compress", 7, 99)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "fresh & <hot>", items[0].Title)
	assert.Equal(t, "https://www.reddit.com/r/x/1", items[0].URL)
	assert.Equal(t, "undated", items[1].Title)
}

func TestCollectors_NonJSONBodyIsParseError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>rate limited</html>")
	}))
	defer srv.Close()

	rd := sources.NewRedditSource("reddit", sources.HTTPConfig{BaseURL: srv.URL, Now: clock})
	_, err := rd.Fetch(context.Background(), "q", 30, 12)

	require.Error(t, err)
	assert.True(t, types.IsParseError(err))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCollectors_StatusErrorIsReturned(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	so := sources.NewStackOverflowSource("so", sources.HTTPConfig{BaseURL: srv.URL, Now: clock})
	_, err := so.Fetch(context.Background(), "q", 30, 12)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFeedSource_ParsesAndFilters(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image compress", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>New &lt;video&gt; one</title><link>https://news.example/1</link><pubDate>Sat, 30 Mar 2024 10:00:00 GMT</pubDate></item>
<item><title>Old one</title><link>https://news.example/2</link><pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`)
	}))
	defer srv.Close()

	fs, err := sources.NewFeedSource("hn", srv.URL+"/search?q={query}", sources.HTTPConfig{Now: clock})
	require.NoError(t, err)

	items, err := fs.Fetch(context.Background(), "image compress", 30, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, types.SourceKind("hn"), items[0].Source)
	assert.Equal(t, "https://news.example/1", items[0].URL)
	assert.Equal(t, "New <video> one", items[0].Title)
}

func TestNewFeedSource_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := sources.NewFeedSource("hn", "", sources.HTTPConfig{})
	require.Error(t, err)
}

type stubCollector struct {
	name  string
	items []types.DiscoveryItem
	err   error
	panic bool
	delay time.Duration
}

func (s stubCollector) Name() string { return s.name }

func (s stubCollector) Fetch(ctx context.Context, query string, windowDays, limit int) ([]types.DiscoveryItem, error) {
	time.Sleep(s.delay)
	if s.panic {
		panic("boom")
	}
	return s.items, s.err
}

func TestGuard_SwallowsErrorsAndPanics(t *testing.T) {
	t.Parallel()

	logger := discardLogger()

	got := sources.Guard(context.Background(), logger, stubCollector{name: "err", err: errors.New("network down")}, "q", 30, 12)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = sources.Guard(context.Background(), logger, stubCollector{name: "panic", panic: true}, "q", 30, 12)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCollectAll_PreservesCollectorOrder(t *testing.T) {
	t.Parallel()

	collectors := []sources.Collector{
		stubCollector{name: "a", delay: 30 * time.Millisecond, items: []types.DiscoveryItem{{URL: "a1"}}},
		stubCollector{name: "b", err: errors.New("fail")},
		stubCollector{name: "c", items: []types.DiscoveryItem{{URL: "c1"}, {URL: "c2"}}},
	}

	outputs := sources.CollectAll(context.Background(), discardLogger(), collectors, "q", 30, 12)

	require.Len(t, outputs, 3)
	assert.Equal(t, "a1", outputs[0][0].URL)
	assert.Empty(t, outputs[1])
	assert.Equal(t, []string{"c1", "c2"}, []string{outputs[2][0].URL, outputs[2][1].URL})
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
