package types

import (
	"time"
)

type SourceKind string

const (
	SourceGitHub        SourceKind = "GitHub"
	SourceStackOverflow SourceKind = "StackOverflow"
	SourceReddit        SourceKind = "Reddit"
)

// Topic is one entry of the topic catalog. It is read once per run and never
// modified.
type Topic struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Query string `json:"query"`
	Tag   string `json:"tag"`
}

// DiscoveryItem is a single piece of discussion returned by a collector, or a
// reference link taken from the fallback catalog.
type DiscoveryItem struct {
	Source     SourceKind `json:"source"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	CreatedAt  time.Time  `json:"created_at"`
	IsFallback bool       `json:"is_fallback"`
}

type RotationState struct {
	Index   int       `json:"index"`
	LastRun time.Time `json:"last_run"`
}

type Ref struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SiteRecord is the data file written into every materialized site.
type SiteRecord struct {
	Slug             string   `json:"slug"`
	Title            string   `json:"title"`
	Desc             string   `json:"desc"`
	Badge            string   `json:"badge"`
	Topic            string   `json:"topic"`
	Tags             []string `json:"tags"`
	ProblemSummaries []string `json:"problem_summaries"`
	Refs             []Ref    `json:"refs"`
}

type SiteIndexEntry struct {
	Slug  string   `json:"slug"`
	Title string   `json:"title"`
	Desc  string   `json:"desc"`
	Tags  []string `json:"tags"`
}

// RunRecord summarises a finished run for the history store.
type RunRecord struct {
	ID            int64
	TopicKey      string
	Slug          string
	SiteURL       string
	RealCount     int
	FallbackCount int
	StartedAt     time.Time
	FinishedAt    time.Time
}
