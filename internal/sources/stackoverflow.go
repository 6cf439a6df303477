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

const stackOverflowMaxPageSize = 20

type StackOverflowSource struct {
	name       string
	config     HTTPConfig
	httpClient *http.Client
}

type stackExchangeResponse struct {
	Items []stackExchangeQuestion `json:"items"`
}

type stackExchangeQuestion struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	CreationDate int64  `json:"creation_date"`
}

func NewStackOverflowSource(name string, config HTTPConfig) *StackOverflowSource {
	if name == "" {
		name = "so"
	}
	config = config.withDefaults("https://api.stackexchange.com", "mikann-autogen")

	return &StackOverflowSource{
		name:       name,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (s *StackOverflowSource) Name() string {
	return s.name
}

func (s *StackOverflowSource) Fetch(ctx context.Context, query string, windowDays, limit int) ([]types.DiscoveryItem, error) {
	fromDate := s.config.Now().AddDate(0, 0, -windowDays).Unix()

	params := url.Values{}
	params.Set("order", "desc")
	params.Set("sort", "creation")
	params.Set("site", "stackoverflow")
	params.Set("pagesize", strconv.Itoa(capLimit(limit, stackOverflowMaxPageSize)))
	params.Set("fromdate", strconv.FormatInt(fromDate, 10))
	params.Set("q", query)
	searchURL := strings.TrimRight(s.config.BaseURL, "/") + "/2.3/search/advanced?" + params.Encode()

	var resp stackExchangeResponse
	if err := getJSON(ctx, s.httpClient, searchURL, map[string]string{"User-Agent": s.config.UserAgent}, &resp); err != nil {
		return nil, err
	}

	out := make([]types.DiscoveryItem, 0, len(resp.Items))
	for _, q := range resp.Items {
		out = append(out, types.DiscoveryItem{
			Source:    types.SourceStackOverflow,
			Title:     utils.CleanTitle(q.Title),
			URL:       q.Link,
			CreatedAt: time.Unix(q.CreationDate, 0).UTC(),
		})
	}

	return out, nil
}
