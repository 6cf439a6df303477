package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath = "automation/system/autosite.toml"
	DefaultUserAgent  = "Mozilla/5.0 (compatible; mikann-autogen/1.0; +https://mikann20041029.github.io/)"
)

type Config struct {
	Run      RunConfig                 `toml:"run"`
	Sources  []SourceConfig            `toml:"sources"`
	Paths    PathsConfig               `toml:"paths"`
	Site     SiteConfig                `toml:"site"`
	Notify   NotifyConfig              `toml:"notify"`
	Storage  StorageConfig             `toml:"storage"`
	Log      LogConfig                 `toml:"log"`
	Fallback map[string][]FallbackRef `toml:"fallback"`
}

type RunConfig struct {
	WindowDays int    `toml:"window_days"`
	Limit      int    `toml:"limit"`
	MinItems   int    `toml:"min_items"`
	MaxItems   int    `toml:"max_items"`
	Timeout    string `toml:"timeout"`
	UserAgent  string `toml:"user_agent"`
}

type SourceConfig struct {
	Name     string                 `toml:"name"`
	Type     string                 `toml:"type"`
	Enabled  bool                   `toml:"enabled"`
	Settings map[string]interface{} `toml:"settings"`
}

type PathsConfig struct {
	Root     string `toml:"root"`
	Topics   string `toml:"topics"`
	State    string `toml:"state"`
	Template string `toml:"template"`
	Docs     string `toml:"docs"`
	Index    string `toml:"index"`
	Feed     string `toml:"feed"`
}

type SiteConfig struct {
	BaseURL   string `toml:"base_url"`
	Desc      string `toml:"desc"`
	Badge     string `toml:"badge"`
	IndexDesc string `toml:"index_desc"`
	FeedSize  int    `toml:"feed_size"`
}

type NotifyConfig struct {
	Path           string `toml:"path"`
	Template       string `toml:"template"`
	DiscordWebhook string `toml:"discord_webhook"`
}

type StorageConfig struct {
	Type          string `toml:"type"`
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type FallbackRef struct {
	Source string `toml:"source"`
	Title  string `toml:"title"`
	URL    string `toml:"url"`
}

// Load reads the TOML file at path. A missing file is not an error: the run
// is fully usable on defaults alone.
func Load(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func applyEnv(config *Config) {
	if root := os.Getenv("AUTOSITE_ROOT"); root != "" {
		config.Paths.Root = root
	}
	if hook := os.Getenv("DISCORD_WEBHOOK_URL"); hook != "" {
		config.Notify.DiscordWebhook = hook
	}
}

func validateConfig(config *Config) error {
	if config.Run.WindowDays == 0 {
		config.Run.WindowDays = 30
	}
	if config.Run.WindowDays < 0 {
		return fmt.Errorf("window_days must be positive")
	}

	if config.Run.Limit == 0 {
		config.Run.Limit = 12
	}

	if config.Run.MinItems == 0 {
		config.Run.MinItems = 10
	}

	if config.Run.MaxItems == 0 {
		config.Run.MaxItems = 20
	}

	if config.Run.MinItems > config.Run.MaxItems {
		return fmt.Errorf("min_items (%d) exceeds max_items (%d)", config.Run.MinItems, config.Run.MaxItems)
	}

	if config.Run.Timeout == "" {
		config.Run.Timeout = "25s"
	}

	if _, err := time.ParseDuration(config.Run.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	if config.Run.UserAgent == "" {
		config.Run.UserAgent = DefaultUserAgent
	}

	if len(config.Sources) == 0 {
		config.Sources = DefaultSources()
	}

	for i, src := range config.Sources {
		if src.Type == "" {
			return fmt.Errorf("source %d has no type", i)
		}
		if src.Name == "" {
			config.Sources[i].Name = src.Type
		}
	}

	if config.Paths.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		config.Paths.Root = wd
	}

	defaultPath(&config.Paths.Topics, "automation/system/topics.json")
	defaultPath(&config.Paths.State, "automation/system/state.json")
	defaultPath(&config.Paths.Template, "automation/template-site")
	defaultPath(&config.Paths.Docs, "docs")
	defaultPath(&config.Paths.Index, "hub/assets/sites.json")
	defaultPath(&config.Paths.Feed, "hub/feed.xml")
	defaultPath(&config.Notify.Path, "automation/out/notify.md")

	if config.Site.BaseURL == "" {
		config.Site.BaseURL = "https://mikann20041029.github.io/"
	}
	if !strings.HasSuffix(config.Site.BaseURL, "/") {
		config.Site.BaseURL += "/"
	}

	if config.Site.Desc == "" {
		config.Site.Desc = "直近の投稿収集＋フォールバック参照を元に、読み物＋ツールでまとめて解決"
	}
	if config.Site.Badge == "" {
		config.Site.Badge = "自動生成（収集失敗時はフォールバック）"
	}
	if config.Site.IndexDesc == "" {
		config.Site.IndexDesc = "直近の収集＋フォールバック参照でまとめ（読み物＋ツール）"
	}
	if config.Site.FeedSize == 0 {
		config.Site.FeedSize = 50
	}

	if config.Storage.Path != "" && config.Storage.Type == "" {
		config.Storage.Type = "sqlite"
	}
	if config.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative")
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	for key, refs := range config.Fallback {
		for i, ref := range refs {
			if ref.URL == "" {
				return fmt.Errorf("fallback %s entry %d has no url", key, i)
			}
		}
	}

	return nil
}

func defaultPath(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Resolve joins a configured path onto the project root unless it is already
// absolute.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.Root, path)
}

func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Run.Timeout)
	if err != nil {
		return 25 * time.Second
	}
	return d
}

// DefaultSources is the collector line-up used when the config file names
// none. Order matters: it is the order items are merged in.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "github", Type: "github", Enabled: true},
		{Name: "so", Type: "stackoverflow", Enabled: true},
		{Name: "reddit", Type: "reddit", Enabled: true},
	}
}

func GetString(settings map[string]interface{}, key string, defaultValue string) string {
	if val, ok := settings[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultValue
}

func GetInt(settings map[string]interface{}, key string, defaultValue int) int {
	if val, ok := settings[key]; ok {
		if i, ok := val.(int64); ok {
			return int(i)
		}
		if i, ok := val.(int); ok {
			return i
		}
	}
	return defaultValue
}
