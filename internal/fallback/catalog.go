// Package fallback holds the curated reference links used to backfill a run
// whose live collection came up short.
package fallback

import (
	"time"

	"autosite/internal/types"
)

type Ref struct {
	Source string
	Title  string
	URL    string
}

var builtin = map[string][]Ref{
	"compress-media": {
		{"FFmpeg", "FFmpeg Documentation", "https://ffmpeg.org/documentation.html"},
		{"FFmpeg", "H.264 Encoding Guide", "https://trac.ffmpeg.org/wiki/Encode/H.264"},
		{"FFmpeg", "H.265 Encoding Guide", "https://trac.ffmpeg.org/wiki/Encode/H.265"},
		{"Mozilla", "Image optimization", "https://developer.mozilla.org/en-US/docs/Learn/Performance/Multimedia"},
		{"Google", "WebP docs", "https://developers.google.com/speed/webp"},
		{"Google", "AVIF overview", "https://developers.google.com/speed/webp/docs/avif"},
		{"StackExchange", "StackExchange API docs", "https://api.stackexchange.com/docs"},
		{"Reddit", "Reddit API docs", "https://www.reddit.com/dev/api/"},
		{"GitHub", "GitHub Search API docs", "https://docs.github.com/en/rest/search/search"},
		{"MDN", "Media formats guide", "https://developer.mozilla.org/en-US/docs/Web/Media/Formats"},
	},
}

var generic = []Ref{
	{"GitHub", "GitHub Search API docs", "https://docs.github.com/en/rest/search/search"},
	{"StackExchange", "StackExchange API docs", "https://api.stackexchange.com/docs"},
	{"Reddit", "Reddit API docs", "https://www.reddit.com/dev/api/"},
	{"MDN", "Web Docs", "https://developer.mozilla.org/"},
	{"Wikipedia", "Troubleshooting", "https://en.wikipedia.org/wiki/Troubleshooting"},
	{"Wikipedia", "Software bug", "https://en.wikipedia.org/wiki/Software_bug"},
	{"OWASP", "Top 10", "https://owasp.org/www-project-top-ten/"},
	{"GitHub", "Actions docs", "https://docs.github.com/en/actions"},
	{"Google", "Search Central", "https://developers.google.com/search"},
	{"Cloudflare", "Learning Center", "https://www.cloudflare.com/learning/"},
}

// Catalog maps topic keys to reference lists. Topics without an entry get the
// generic list.
type Catalog struct {
	refs map[string][]Ref
}

// New returns the built-in catalog with extra refs placed ahead of the
// built-in ones for their topic.
func New(extra map[string][]Ref) *Catalog {
	refs := make(map[string][]Ref, len(builtin)+len(extra))
	for key, list := range builtin {
		refs[key] = list
	}
	for key, list := range extra {
		base, ok := refs[key]
		if !ok {
			base = generic
		}
		merged := make([]Ref, 0, len(list)+len(base))
		merged = append(merged, list...)
		merged = append(merged, base...)
		refs[key] = merged
	}
	return &Catalog{refs: refs}
}

// Items returns the topic's references as fallback DiscoveryItems stamped
// with now, in catalog order.
func (c *Catalog) Items(topicKey string, now time.Time) []types.DiscoveryItem {
	list, ok := c.refs[topicKey]
	if !ok {
		list = generic
	}

	out := make([]types.DiscoveryItem, 0, len(list))
	for _, ref := range list {
		out = append(out, types.DiscoveryItem{
			Source:     types.SourceKind(ref.Source),
			Title:      ref.Title,
			URL:        ref.URL,
			CreatedAt:  now,
			IsFallback: true,
		})
	}
	return out
}
