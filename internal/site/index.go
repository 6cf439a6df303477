package site

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"autosite/internal/types"
	"autosite/internal/utils"
)

const (
	maxIndexTitle = 36
	maxIndexDesc  = 80
)

// Index is the shared JSON array of site summaries. It is append-only and
// assumes a single writer.
type Index struct {
	path string
}

func NewIndex(path string) *Index {
	return &Index{path: path}
}

func (x *Index) Path() string {
	return x.path
}

// NewEntry trims title and desc to the index's display limits.
func NewEntry(slug, title, desc string, tags []string) types.SiteIndexEntry {
	return types.SiteIndexEntry{
		Slug:  slug,
		Title: utils.TruncateRunes(title, maxIndexTitle),
		Desc:  utils.TruncateRunes(desc, maxIndexDesc),
		Tags:  tags,
	}
}

// Append adds entry at the end and rewrites the file. Existing entries are
// carried over as raw JSON, so fields this program does not model survive.
func (x *Index) Append(entry types.SiteIndexEntry) error {
	raw, err := x.load()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return types.NewIOError("encode index entry", x.path, err)
	}
	raw = append(raw, encoded)

	if err := utils.WriteJSONAtomic(x.path, raw); err != nil {
		return types.NewIOError("write site index", x.path, err)
	}
	return nil
}

// Entries decodes the index. Entries whose fields do not fit SiteIndexEntry
// (for example a bare string in "tags") are decoded field by field as far as
// possible.
func (x *Index) Entries() ([]types.SiteIndexEntry, error) {
	raw, err := x.load()
	if err != nil {
		return nil, err
	}

	entries := make([]types.SiteIndexEntry, 0, len(raw))
	for _, r := range raw {
		var loose struct {
			Slug  string          `json:"slug"`
			Title string          `json:"title"`
			Desc  string          `json:"desc"`
			Tags  json.RawMessage `json:"tags"`
		}
		if err := json.Unmarshal(r, &loose); err != nil {
			continue
		}
		entry := types.SiteIndexEntry{Slug: loose.Slug, Title: loose.Title, Desc: loose.Desc}
		var tags []string
		var tag string
		if json.Unmarshal(loose.Tags, &tags) == nil {
			entry.Tags = tags
		} else if json.Unmarshal(loose.Tags, &tag) == nil && tag != "" {
			entry.Tags = []string{tag}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (x *Index) load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(x.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []json.RawMessage{}, nil
		}
		return nil, types.NewIOError("read site index", x.path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, types.NewFormatError(x.path, "site index is not a JSON array", err)
	}
	if raw == nil {
		// the literal null
		return nil, types.NewFormatError(x.path, "site index is not a JSON array", nil)
	}
	return raw, nil
}
