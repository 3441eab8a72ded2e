package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/infrastructure/articleapi"
	"ArticleEnhancer/internal/infrastructure/fetcher"
	"ArticleEnhancer/internal/infrastructure/llm"
	"ArticleEnhancer/internal/infrastructure/parser"
	"ArticleEnhancer/internal/infrastructure/scheduler"
	"ArticleEnhancer/internal/infrastructure/search"
	"ArticleEnhancer/internal/infrastructure/storage"
	"ArticleEnhancer/internal/infrastructure/telegram"
	"ArticleEnhancer/internal/logging"
	"ArticleEnhancer/internal/ports"
	"ArticleEnhancer/internal/usecase"
)

const (
	referenceMaxContent = 4000
	harvestMinContent   = 200
	shutdownTimeout     = 30 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	harvester *usecase.HarvestService
	sites     []usecase.Site
	notifier  ports.Notifier
	db        *sql.DB
}

// New builds every adapter and use case from cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger.With("component", "app")}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		a.notifier = telegram.NewNotifier(cfg.Notifications.Telegram, nil)
	}

	pageFetcher := fetcher.New(fetcher.OptionsFromConfig(cfg.Fetcher), nil)
	pacing := usecase.PacingFromConfig(cfg.Enhance.Pacing)

	var engine ports.SearchEngine
	if cfg.Search.APIKey != "" && cfg.Search.EngineID != "" {
		engine = search.NewGoogleClient(cfg.Search, nil)
	} else {
		a.logger.Warn("search credentials missing, every article will be skipped")
	}

	temperature := cfg.ChatGPT.SamplingTemperature()
	enhancer := usecase.NewEnhancer(llm.NewChatGPTClient(cfg.ChatGPT), usecase.EnhancerOptions{
		SystemRole:      cfg.ChatGPT.SystemPrompt,
		MaxOutputTokens: cfg.ChatGPT.MaxTokens,
		Temperature:     &temperature,
		AuthErr:         llm.ErrUnauthorized,
	}, baseLogger.With("component", "enhancer"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Store:   store,
		Fetcher: pageFetcher,
		Extractor: parser.NewExtractor(parser.ExtractorOptions{
			MinContent: usecase.MinReferenceContent,
			MaxContent: referenceMaxContent,
		}),
		References: usecase.NewReferenceFinder(engine, cfg.Search.BlockedDomains, cfg.Search.ResultCount,
			baseLogger.With("component", "references")),
		Enhancer:     enhancer,
		Notifier:     a.notifier,
		Pacing:       pacing,
		Logger:       baseLogger.With("component", "pipeline"),
		Limit:        cfg.Enhance.Limit,
		SkipEnhanced: cfg.Enhance.SkipAlreadyEnhanced(),
	})

	a.harvester = usecase.NewHarvestService(usecase.HarvestDeps{
		Store:     store,
		Fetcher:   pageFetcher,
		Extractor: parser.NewExtractor(parser.ExtractorOptions{MinContent: harvestMinContent}),
		LastPage:  parser.LastPage,
		PageURL:   parser.PageURL,
		Pacing:    pacing,
		Logger:    baseLogger.With("component", "harvest"),
	})

	sites, err := buildSites(cfg.Sites)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sites = sites

	return a, nil
}

func (a *Application) openStore(ctx context.Context) (ports.ArticleStore, error) {
	switch a.cfg.Storage.Driver {
	case config.StorageDriverPG:
		db, err := storage.Open(ctx, a.cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		return repo, nil
	case config.StorageDriverAPI, "":
		return articleapi.NewClient(a.cfg.Storage.APIBaseURL, nil), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

func buildSites(cfg []config.SiteConfig) ([]usecase.Site, error) {
	sites := make([]usecase.Site, 0, len(cfg))
	for _, sc := range cfg {
		links, err := parser.NewHarvester(sc.Origin, sc.PathMarker, sc.MaxArticles)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", sc.Name, err)
		}
		mode := ports.FetchDirect
		if sc.Render {
			mode = ports.FetchRendered
		}
		sites = append(sites, usecase.Site{
			Name:        sc.Name,
			ListingURL:  sc.ListingURL,
			Mode:        mode,
			MaxArticles: sc.MaxArticles,
			Links:       links,
		})
	}
	return sites, nil
}

// Run executes the configured stages once, or on every cron tick until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	if a.cfg.Scheduler.CronExpression == "" {
		return a.RunOnce(ctx)
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	if err := driver.Validate(); err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a.RunOnce, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// RunOnce harvests originals and then enhances them, according to the enabled stages.
func (a *Application) RunOnce(ctx context.Context) error {
	if a.cfg.Run.Has(config.StageHarvest) {
		reports, err := a.harvester.Run(ctx, a.sites)
		if err != nil {
			return fmt.Errorf("harvest: %w", err)
		}
		a.publish(ctx, usecase.FormatHarvestReports(reports))
	}

	if a.cfg.Run.Has(config.StageEnhance) {
		report, err := a.pipeline.RunBatch(ctx)
		if err != nil {
			return fmt.Errorf("enhance: %w", err)
		}
		a.logger.Info("run finished", "succeeded", report.Succeeded, "skipped", report.Failed())
	}

	return nil
}

// Close releases the database handle when the postgres driver is used.
func (a *Application) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		a.logger.Warn("close database", "error", err)
	}
	a.db = nil
}

func (a *Application) publish(ctx context.Context, msg string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.PublishDigest(ctx, msg); err != nil {
		a.logger.Warn("publish summary failed", "error", err)
	}
}
