package commands

import (
	"context"
	"fmt"

	"github.com/wonny/newsviews/internal/external/finbert"
	"github.com/wonny/newsviews/internal/external/news"
	"github.com/wonny/newsviews/internal/pipeline"
	"github.com/wonny/newsviews/internal/repository"
	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/pkg/config"
	"github.com/wonny/newsviews/pkg/database"
	"github.com/wonny/newsviews/pkg/httputil"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/metrics"
	"github.com/wonny/newsviews/pkg/redis"
)

// app bundles everything a command needs; Close releases it
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	metrics      *metrics.Metrics
	views        *viewconfig.Config
	orchestrator *pipeline.Orchestrator
	db           *database.DB           // nil without DATABASE_URL
	repo         *repository.Repository // nil without DATABASE_URL
	redis        *redis.Client
}

// newApp loads configuration and wires the pipeline.
// withCollaborators=false builds only the pure core (no network, no DB).
func newApp(ctx context.Context, withCollaborators bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if viewsConfigPath != "" {
		cfg.Pipeline.ViewsConfigPath = viewsConfigPath
	}

	log := logger.New(cfg)

	viewsCfg, err := viewconfig.LoadOrDefault(cfg.Pipeline.ViewsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load views config: %w", err)
	}
	for _, w := range viewconfig.Warn(viewsCfg) {
		log.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		views: viewsCfg,
		redis: redis.Disabled(),
	}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	if !withCollaborators {
		o, err := pipeline.NewOrchestrator(viewsCfg, nil, nil, cfg.News.MaxArticles, a.metrics, log)
		if err != nil {
			return nil, err
		}
		if err := a.attachDatabase(ctx, o); err != nil {
			a.Close()
			return nil, err
		}
		a.orchestrator = o
		return a, nil
	}

	// Redis (optional classifier cache)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, classification cache disabled")
		a.redis = redis.Disabled()
	}

	// External collaborators
	finbertHTTP := httputil.NewWithTimeout(log, cfg.FinBERT.Timeout)
	classifier := finbert.NewClient(finbertHTTP, redis.NewCache(a.redis, "newsviews"), cfg.FinBERT, log)

	newsHTTP := httputil.New(log).WithRateLimit(cfg.News.RateLimit, 1)
	source := news.NewClient(newsHTTP, news.NewExtractor(newsHTTP, log), cfg.News, log)

	o, err := pipeline.NewOrchestrator(viewsCfg, source, classifier, cfg.News.MaxArticles, a.metrics, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	o.WithConcurrency(cfg.Pipeline.Concurrency)

	if err := a.attachDatabase(ctx, o); err != nil {
		a.Close()
		return nil, err
	}

	a.orchestrator = o
	return a, nil
}

// attachDatabase wires Postgres credibility overrides and market caps when DATABASE_URL is set.
// Both the network pipeline and the pre-scored path use it, so they weight articles alike.
func (a *app) attachDatabase(ctx context.Context, o *pipeline.Orchestrator) error {
	if !a.cfg.Database.Enabled() {
		return nil
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	repo := repository.NewRepository(db.Pool)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	o.WithCredibility(repo).WithMarketCaps(repo)
	a.repo = repo
	a.log.Info("Connected to database")
	return nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
