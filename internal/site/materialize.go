package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"autosite/internal/types"
	"autosite/internal/utils"
)

const (
	DataFile         = "assets/data.json"
	maxSummaries     = 20
	maxRefs          = 30
	dataFileFallback = "{}"
)

type MaterializerConfig struct {
	Root     string
	Template string
	Docs     string
	BaseURL  string
	Desc     string
	Badge    string
}

// Materializer copies the template tree into a new site directory and writes
// the site's data record into it.
type Materializer struct {
	config MaterializerConfig
}

func NewMaterializer(config MaterializerConfig) *Materializer {
	return &Materializer{config: config}
}

func (m *Materializer) SiteURL(slug string) string {
	return m.config.BaseURL + slug + "/"
}

// Materialize creates <root>/<slug> and, when the docs root exists and has no
// copy yet, <docs>/<slug>. The primary destination must not exist: slug
// uniqueness is the caller's job, and a collision here is an IOError.
func (m *Materializer) Materialize(slug string, topic types.Topic, items []types.DiscoveryItem) (string, error) {
	tpl := m.config.Template
	if !utils.IsDir(tpl) {
		return "", types.NewIOError("open template", tpl, fs.ErrNotExist)
	}

	dst := filepath.Join(m.config.Root, slug)
	if utils.Exists(dst) {
		return "", types.NewIOError("create site", dst, fs.ErrExist)
	}

	record, err := m.buildRecord(slug, topic, items)
	if err != nil {
		return "", err
	}

	if err := copyTree(tpl, dst); err != nil {
		return "", types.NewIOError("copy template", dst, err)
	}
	if err := writeData(dst, record); err != nil {
		return "", err
	}
	slog.Info("Site created", "slug", slug, "path", dst)

	if m.config.Docs != "" && utils.IsDir(m.config.Docs) {
		docsDst := filepath.Join(m.config.Docs, slug)
		if utils.Exists(docsDst) {
			slog.Warn("Published copy already exists, leaving it untouched", "path", docsDst)
		} else {
			if err := copyTree(tpl, docsDst); err != nil {
				return "", types.NewIOError("copy template", docsDst, err)
			}
			if err := writeData(docsDst, record); err != nil {
				return "", err
			}
			slog.Info("Published copy created", "slug", slug, "path", docsDst)
		}
	}

	return m.SiteURL(slug), nil
}

// buildRecord overlays the site fields on the template's base data file, so
// keys the template defines and we do not know about survive.
func (m *Materializer) buildRecord(slug string, topic types.Topic, items []types.DiscoveryItem) (map[string]any, error) {
	basePath := filepath.Join(m.config.Template, DataFile)
	data, err := os.ReadFile(basePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, types.NewIOError("read template data", basePath, err)
		}
		data = []byte(dataFileFallback)
	}

	base := map[string]any{}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, types.NewFormatError(basePath, "template data is not a JSON object", err)
	}
	if base == nil {
		base = map[string]any{}
	}

	record := NewRecord(slug, topic, items, m.config.Desc, m.config.Badge)

	// round-trip through JSON to get the record's keys as a map
	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode site record: %w", err)
	}
	var overlay map[string]any
	if err := json.Unmarshal(encoded, &overlay); err != nil {
		return nil, fmt.Errorf("failed to decode site record: %w", err)
	}
	for k, v := range overlay {
		base[k] = v
	}
	return base, nil
}

// NewRecord builds the canonical site record for items.
func NewRecord(slug string, topic types.Topic, items []types.DiscoveryItem, desc, badge string) types.SiteRecord {
	summaries := make([]string, 0, min(len(items), maxSummaries))
	for _, it := range items[:min(len(items), maxSummaries)] {
		summaries = append(summaries, fmt.Sprintf("[%s] %s", it.Source, it.Title))
	}

	refs := make([]types.Ref, 0, min(len(items), maxRefs))
	for _, it := range items[:min(len(items), maxRefs)] {
		refs = append(refs, types.Ref{URL: it.URL, Title: fmt.Sprintf("%s: %s", it.Source, it.Title)})
	}

	return types.SiteRecord{
		Slug:             slug,
		Title:            topic.Title,
		Desc:             desc,
		Badge:            badge,
		Topic:            topic.Key,
		Tags:             []string{"auto", topic.Tag},
		ProblemSummaries: summaries,
		Refs:             refs,
	}
}

func writeData(siteDir string, record map[string]any) error {
	path := filepath.Join(siteDir, DataFile)
	if err := utils.WriteJSONAtomic(path, record); err != nil {
		return types.NewIOError("write site data", path, err)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			slog.Debug("Skipping non-regular template entry", "path", path)
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
