package topics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"autosite/internal/types"
)

type catalogFile struct {
	Topics []types.Topic `json:"topics"`
}

// Default is used when no catalog file exists yet.
func Default() []types.Topic {
	return []types.Topic{
		{
			Key:   "compress-media",
			Title: "容量を減らしたい（画像/動画/音声）",
			Query: "mp4 compress file size reduce image compress jpg png webp",
			Tag:   "media",
		},
	}
}

// Load reads the topic catalog. A missing file yields Default; a file that
// does not decode as {"topics": [...]} is a FormatError. Entries without a key
// are dropped, and keys must be unique.
func Load(path string) ([]types.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Topic catalog not found, using built-in default", "path", path)
			return Default(), nil
		}
		return nil, types.NewIOError("read topic catalog", path, err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, types.NewFormatError(path, "topic catalog is not {\"topics\": [...]}", err)
	}

	seen := make(map[string]bool, len(file.Topics))
	catalog := make([]types.Topic, 0, len(file.Topics))
	for i, topic := range file.Topics {
		if topic.Key == "" {
			slog.Warn("Skipping topic without key", "path", path, "position", i)
			continue
		}
		if seen[topic.Key] {
			return nil, types.NewFormatError(path, fmt.Sprintf("duplicate topic key %q", topic.Key), nil)
		}
		seen[topic.Key] = true
		if topic.Query == "" {
			topic.Query = topic.Title
		}
		catalog = append(catalog, topic)
	}

	return catalog, nil
}
