package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"autosite/internal/types"
)

const defaultTimeout = 25 * time.Second

// Collector turns a search query into discussion items from one upstream API.
type Collector interface {
	Name() string
	Fetch(ctx context.Context, query string, windowDays, limit int) ([]types.DiscoveryItem, error)
}

// HTTPConfig carries the knobs every HTTP-backed collector shares.
type HTTPConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Now       func() time.Time
}

func (c HTTPConfig) withDefaults(baseURL, userAgent string) HTTPConfig {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = userAgent
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json,text/plain,*/*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return types.NewParseError(url, body, err)
	}

	return nil
}

func capLimit(limit, ceiling int) int {
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}
