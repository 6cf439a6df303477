package sources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"autosite/internal/types"
	"autosite/internal/utils"
)

const (
	redditMaxLimit  = 25
	redditPermalink = "https://www.reddit.com"
)

// RedditSource searches reddit.com. Reddit frequently answers 403/429 to CI
// runners; those surface as ordinary errors for the guard to absorb.
type RedditSource struct {
	name       string
	config     HTTPConfig
	httpClient *http.Client
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

func NewRedditSource(name string, config HTTPConfig) *RedditSource {
	if name == "" {
		name = "reddit"
	}
	config = config.withDefaults("https://www.reddit.com", "Mozilla/5.0 (mikann-autogen)")

	return &RedditSource{
		name:       name,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (r *RedditSource) Name() string {
	return r.name
}

func (r *RedditSource) Fetch(ctx context.Context, query string, windowDays, limit int) ([]types.DiscoveryItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "new")
	params.Set("t", "month")
	params.Set("limit", strconv.Itoa(capLimit(limit, redditMaxLimit)))
	searchURL := strings.TrimRight(r.config.BaseURL, "/") + "/search.json?" + params.Encode()

	var listing redditListing
	if err := getJSON(ctx, r.httpClient, searchURL, map[string]string{"User-Agent": r.config.UserAgent}, &listing); err != nil {
		return nil, err
	}

	// t=month is coarser than the window, so filter locally. Posts without a
	// timestamp are kept.
	cutoff := float64(r.config.Now().Unix() - int64(windowDays)*86400)
	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	recent := utils.FilterArray(posts, func(p redditPost) bool {
		return p.CreatedUTC == 0 || p.CreatedUTC >= cutoff
	})

	return utils.MapArray(recent, func(p redditPost) types.DiscoveryItem {
		item := types.DiscoveryItem{
			Source: types.SourceReddit,
			Title:  utils.UnescapeTitle(p.Title),
		}
		if p.Permalink != "" {
			item.URL = redditPermalink + p.Permalink
		}
		if p.CreatedUTC > 0 {
			item.CreatedAt = time.Unix(int64(p.CreatedUTC), 0).UTC()
		}
		return item
	}), nil
}
