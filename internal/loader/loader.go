package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autosite/internal/components"
	"autosite/internal/config"
	"autosite/internal/core"
	"autosite/internal/fallback"
	"autosite/internal/notify"
	"autosite/internal/site"
	"autosite/internal/sources"
	"autosite/internal/state"
	_ "autosite/internal/storage/sqlite"
)

const webhookUsername = "autosite"

// App is a fully wired run: the runner plus the components it borrows.
type App struct {
	Config   *config.Config
	Registry *components.Registry
	Runner   *core.Runner
}

// Close releases the components initialized for the run.
func (a *App) Close(ctx context.Context) {
	a.Registry.CloseAll(ctx)
}

type Loader struct {
	config *config.Config
	logger *slog.Logger
}

func NewLoader(cfg *config.Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		config: cfg,
		logger: logger,
	}
}

func (l *Loader) Initialize(ctx context.Context) (*App, error) {
	registry := components.NewRegistry()

	if l.config.Storage.Path != "" {
		storageCfg := l.config.Storage
		storageCfg.Path = l.config.Resolve(storageCfg.Path)
		if err := registry.Register(components.NewStorageComponent(storageCfg)); err != nil {
			return nil, fmt.Errorf("failed to register storage component: %w", err)
		}
	}

	if l.config.Notify.DiscordWebhook != "" {
		if err := registry.Register(components.NewNotifierComponent(l.config.Notify.DiscordWebhook, webhookUsername)); err != nil {
			return nil, fmt.Errorf("failed to register notifier component: %w", err)
		}
	}

	if err := registry.InitializeAll(ctx); err != nil {
		registry.CloseAll(ctx)
		return nil, fmt.Errorf("component initialization failed: %w", err)
	}

	runner, err := l.buildRunner(registry)
	if err != nil {
		registry.CloseAll(ctx)
		return nil, fmt.Errorf("failed to build runner: %w", err)
	}

	slog.Debug("All components initialized successfully")
	return &App{Config: l.config, Registry: registry, Runner: runner}, nil
}

func (l *Loader) buildRunner(registry *components.Registry) (*core.Runner, error) {
	cfg := l.config

	collectors, err := l.buildCollectors()
	if err != nil {
		return nil, err
	}

	renderer, err := notify.NewRenderer(cfg.Resolve(cfg.Notify.Template))
	if err != nil {
		return nil, err
	}

	runnerCfg := core.RunnerConfig{
		Root:          cfg.Paths.Root,
		Docs:          cfg.Resolve(cfg.Paths.Docs),
		TopicsPath:    cfg.Resolve(cfg.Paths.Topics),
		NotifyPath:    cfg.Resolve(cfg.Notify.Path),
		IndexDesc:     cfg.Site.IndexDesc,
		WindowDays:    cfg.Run.WindowDays,
		Limit:         cfg.Run.Limit,
		RetentionDays: cfg.Storage.RetentionDays,

		State:      state.NewStore(cfg.Resolve(cfg.Paths.State)),
		Collectors: collectors,
		Aggregator: core.NewAggregator(fallback.New(fallbackRefs(cfg.Fallback)), cfg.Run.MinItems, cfg.Run.MaxItems),
		Materializer: site.NewMaterializer(site.MaterializerConfig{
			Root:     cfg.Paths.Root,
			Template: cfg.Resolve(cfg.Paths.Template),
			Docs:     cfg.Resolve(cfg.Paths.Docs),
			BaseURL:  cfg.Site.BaseURL,
			Desc:     cfg.Site.Desc,
			Badge:    cfg.Site.Badge,
		}),
		Index:    site.NewIndex(cfg.Resolve(cfg.Paths.Index)),
		Renderer: renderer,
		Logger:   l.logger,
	}

	if cfg.Site.FeedSize > 0 {
		runnerCfg.Feed = &site.FeedConfig{
			Path:    cfg.Resolve(cfg.Paths.Feed),
			BaseURL: cfg.Site.BaseURL,
			Size:    cfg.Site.FeedSize,
		}
	}

	if comp, ok := registry.Get(components.StorageComponentName).(*components.StorageComponent); ok {
		runnerCfg.History = comp.Store()
	}
	if comp, ok := registry.Get(components.NotifierComponentName).(*components.NotifierComponent); ok {
		runnerCfg.Deliverer = comp.Discord()
	}

	return core.NewRunner(runnerCfg), nil
}

func (l *Loader) buildCollectors() ([]sources.Collector, error) {
	collectors := make([]sources.Collector, 0, len(l.config.Sources))
	for _, sourceCfg := range l.config.Sources {
		if !sourceCfg.Enabled {
			l.logger.Debug("Source disabled", "source", sourceCfg.Name)
			continue
		}

		collector, err := l.createSource(sourceCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create source %s: %w", sourceCfg.Name, err)
		}
		collectors = append(collectors, collector)
	}
	return collectors, nil
}

func (l *Loader) createSource(cfg config.SourceConfig) (sources.Collector, error) {
	httpCfg := sources.HTTPConfig{
		BaseURL:   config.GetString(cfg.Settings, "base_url", ""),
		UserAgent: config.GetString(cfg.Settings, "user_agent", ""),
		Timeout:   l.config.TimeoutDuration(),
	}
	if seconds := config.GetInt(cfg.Settings, "timeout_seconds", 0); seconds > 0 {
		httpCfg.Timeout = time.Duration(seconds) * time.Second
	}

	switch cfg.Type {
	case "github":
		if httpCfg.UserAgent == "" {
			httpCfg.UserAgent = l.config.Run.UserAgent
		}
		token := config.GetString(cfg.Settings, "token", sources.TokenFromEnv())
		return sources.NewGitHubSource(cfg.Name, token, httpCfg), nil

	case "stackoverflow":
		return sources.NewStackOverflowSource(cfg.Name, httpCfg), nil

	case "reddit":
		return sources.NewRedditSource(cfg.Name, httpCfg), nil

	case "feed", "rss":
		if httpCfg.UserAgent == "" {
			httpCfg.UserAgent = l.config.Run.UserAgent
		}
		feedURL := config.GetString(cfg.Settings, "feed_url", "")
		if feedURL == "" {
			return nil, fmt.Errorf("feed_url is required for feed source")
		}
		return sources.NewFeedSource(cfg.Name, feedURL, httpCfg)

	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}

func fallbackRefs(extra map[string][]config.FallbackRef) map[string][]fallback.Ref {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string][]fallback.Ref, len(extra))
	for key, refs := range extra {
		for _, ref := range refs {
			out[key] = append(out[key], fallback.Ref{Source: ref.Source, Title: ref.Title, URL: ref.URL})
		}
	}
	return out
}

func LoadAndBuild(ctx context.Context, configPath string, logger *slog.Logger) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loader := NewLoader(cfg, logger)
	return loader.Initialize(ctx)
}
