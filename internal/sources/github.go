package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"autosite/internal/types"
	"autosite/internal/utils"
)

const githubMaxPerPage = 30

type GitHubSource struct {
	name       string
	token      string
	config     HTTPConfig
	httpClient *http.Client
}

type githubSearchResponse struct {
	Items []githubIssue `json:"items"`
}

type githubIssue struct {
	Title     string `json:"title"`
	HTMLURL   string `json:"html_url"`
	CreatedAt string `json:"created_at"`
}

// NewGitHubSource builds the issue-search collector. An empty token makes
// Fetch a no-op; use TokenFromEnv to read GITHUB_TOKEN.
func NewGitHubSource(name, token string, config HTTPConfig) *GitHubSource {
	if name == "" {
		name = "github"
	}
	config = config.withDefaults("https://api.github.com", "")

	return &GitHubSource{
		name:       name,
		token:      token,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func TokenFromEnv() string {
	return os.Getenv("GITHUB_TOKEN")
}

func (g *GitHubSource) Name() string {
	return g.name
}

func (g *GitHubSource) Fetch(ctx context.Context, query string, windowDays, limit int) ([]types.DiscoveryItem, error) {
	if g.token == "" {
		slog.Debug("GitHub source has no token, skipping", "source", g.name)
		return nil, nil
	}

	since := g.config.Now().AddDate(0, 0, -windowDays).Format("2006-01-02")
	q := fmt.Sprintf("%s created:>=%s", query, since)

	params := url.Values{}
	params.Set("q", q)
	params.Set("sort", "created")
	params.Set("order", "desc")
	params.Set("per_page", fmt.Sprint(capLimit(limit, githubMaxPerPage)))
	searchURL := strings.TrimRight(g.config.BaseURL, "/") + "/search/issues?" + params.Encode()

	headers := map[string]string{
		"Authorization": "Bearer " + g.token,
		"Accept":        "application/vnd.github+json",
	}
	if g.config.UserAgent != "" {
		headers["User-Agent"] = g.config.UserAgent
	}

	var resp githubSearchResponse
	if err := getJSON(ctx, g.httpClient, searchURL, headers, &resp); err != nil {
		return nil, err
	}

	out := make([]types.DiscoveryItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		createdAt, _ := time.Parse(time.RFC3339, it.CreatedAt)
		out = append(out, types.DiscoveryItem{
			Source:    types.SourceGitHub,
			Title:     utils.CollapseSpace(it.Title),
			URL:       it.HTMLURL,
			CreatedAt: createdAt.UTC(),
		})
	}

	return out, nil
}
