package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autosite/internal/types"
	"autosite/internal/utils"

	"github.com/mmcdole/gofeed"
)

// FeedSource searches any RSS/Atom/JSON feed whose URL accepts the query,
// e.g. "https://hnrss.org/newest?q={query}". The item source is the
// collector's configured name.
type FeedSource struct {
	name        string
	urlTemplate string
	config      HTTPConfig
	parser      *gofeed.Parser
}

func NewFeedSource(name, urlTemplate string, config HTTPConfig) (*FeedSource, error) {
	if urlTemplate == "" {
		return nil, fmt.Errorf("feed_url is required for feed source")
	}
	if name == "" {
		name = "feed"
	}
	config = config.withDefaults("", "")

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: config.Timeout}
	if config.UserAgent != "" {
		parser.UserAgent = config.UserAgent
	}

	return &FeedSource{
		name:        name,
		urlTemplate: urlTemplate,
		config:      config,
		parser:      parser,
	}, nil
}

func (f *FeedSource) Name() string {
	return f.name
}

func (f *FeedSource) Fetch(ctx context.Context, query string, windowDays, limit int) ([]types.DiscoveryItem, error) {
	feedURL := strings.ReplaceAll(f.urlTemplate, "{query}", url.QueryEscape(query))

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, types.NewParseError(feedURL, nil, err)
		}
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	cutoff := f.config.Now().AddDate(0, 0, -windowDays)
	out := make([]types.DiscoveryItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(out) >= limit {
			break
		}

		var createdAt time.Time
		if item.PublishedParsed != nil {
			createdAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			createdAt = item.UpdatedParsed.UTC()
		}
		if !createdAt.IsZero() && createdAt.Before(cutoff) {
			continue
		}

		out = append(out, types.DiscoveryItem{
			Source:    types.SourceKind(f.name),
			Title:     utils.CollapseSpace(item.Title),
			URL:       item.Link,
			CreatedAt: createdAt,
		})
	}

	return out, nil
}
