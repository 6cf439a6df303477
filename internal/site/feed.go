package site

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"autosite/internal/types"
	"autosite/internal/utils"
)

type FeedConfig struct {
	Path    string
	BaseURL string
	Title   string
	Size    int
}

// WriteFeed renders the newest entries of the site index, newest first, as
// an Atom feed. Only the entry created by this run carries a timestamp: the
// index does not record when older sites were made.
func WriteFeed(cfg FeedConfig, entries []types.SiteIndexEntry, newest string, now time.Time) error {
	if cfg.Size <= 0 {
		cfg.Size = 50
	}
	if cfg.Title == "" {
		cfg.Title = "Auto-generated sites"
	}

	feed := &feeds.Feed{
		Title:       cfg.Title,
		Link:        &feeds.Link{Href: cfg.BaseURL},
		Description: "Sites generated from recent discussions",
		Id:          cfg.BaseURL,
		Updated:     now,
		Created:     now,
	}

	for i := len(entries) - 1; i >= 0 && len(feed.Items) < cfg.Size; i-- {
		entry := entries[i]
		if entry.Slug == "" {
			continue
		}
		link := cfg.BaseURL + entry.Slug + "/"
		item := &feeds.Item{
			Id:          link,
			Title:       entry.Title,
			Link:        &feeds.Link{Href: link},
			Description: entry.Desc,
		}
		if len(entry.Tags) > 0 {
			item.Description = fmt.Sprintf("%s [%s]", entry.Desc, strings.Join(entry.Tags, ", "))
		}
		if entry.Slug == newest {
			item.Created = now
			item.Updated = now
		}
		feed.Items = append(feed.Items, item)
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return fmt.Errorf("failed to render atom feed: %w", err)
	}

	if err := utils.WriteFileAtomic(cfg.Path, []byte(atom), 0o644); err != nil {
		return types.NewIOError("write hub feed", cfg.Path, err)
	}
	return nil
}
