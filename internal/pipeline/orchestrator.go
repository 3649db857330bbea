package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/newsviews/internal/aggregator"
	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/internal/views"
	"github.com/wonny/newsviews/internal/weighting"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/metrics"
)

// Failure stages recorded per instrument
const (
	StageFetch     = "fetch"
	StageClassify  = "classify"
	StageAggregate = "aggregate"
)

// Orchestrator runs discovery → classification → aggregation → views per instrument
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	cfg        *viewconfig.Config
	configHash string

	model     *weighting.Model
	scorer    *aggregator.Scorer
	generator *views.Generator

	// Collaborators
	source      contracts.ArticleSource
	marketCaps  contracts.MarketCapProvider // optional
	credibility contracts.CredibilitySource // optional

	maxArticles int
	concurrency int

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID       string // generated when empty
	Instruments []string
	Now         time.Time // time.Now() when zero
	Concurrency int       // orchestrator default when <= 0
}

// InstrumentResult is the per-instrument outcome of a run
type InstrumentResult struct {
	Instrument string                    `json:"instrument"`
	Articles   []contracts.ScoredArticle `json:"articles"`
	Aggregate  aggregator.Result         `json:"aggregate"`
	View       contracts.InstrumentView  `json:"view"`
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID       string                       `json:"run_id"`
	ConfigHash  string                       `json:"config_hash"`
	Now         time.Time                    `json:"now"`
	Views       contracts.ViewSet            `json:"views"`
	Instruments map[string]*InstrumentResult `json:"instruments"`
	MarketCaps  map[string]float64           `json:"market_caps,omitempty"`
	Failed      map[string]string            `json:"failed,omitempty"` // instrument → error
	Duration    time.Duration                `json:"duration"`
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	cfg *viewconfig.Config,
	source contracts.ArticleSource,
	classifier contracts.Classifier,
	maxArticles int,
	m *metrics.Metrics,
	log *logger.Logger,
) (*Orchestrator, error) {
	hash, err := viewconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash views config: %w", err)
	}

	return &Orchestrator{
		cfg:         cfg,
		configHash:  hash,
		model:       weighting.NewModel(cfg.Weighting),
		scorer:      aggregator.NewScorer(classifier, log, m),
		generator:   views.NewGenerator(cfg.Views, log, m),
		source:      source,
		maxArticles: maxArticles,
		concurrency: 4,
		metrics:     m,
		logger:      log.WithComponent("pipeline"),
	}, nil
}

// WithMarketCaps attaches a market cap provider (optimizer input only)
func (o *Orchestrator) WithMarketCaps(p contracts.MarketCapProvider) *Orchestrator {
	o.marketCaps = p
	return o
}

// WithCredibility attaches a source of credibility overrides, loaded at the start of each run
func (o *Orchestrator) WithCredibility(s contracts.CredibilitySource) *Orchestrator {
	o.credibility = s
	return o
}

// WithConcurrency sets the default number of instruments processed in parallel
func (o *Orchestrator) WithConcurrency(n int) *Orchestrator {
	if n > 0 {
		o.concurrency = n
	}
	return o
}

// ConfigHash returns the hash of the views configuration in use
func (o *Orchestrator) ConfigHash() string {
	return o.configHash
}

// Config returns the views configuration in use
func (o *Orchestrator) Config() *viewconfig.Config {
	return o.cfg
}

// Run executes the pipeline for every instrument.
// A failing instrument is logged and recorded in Failed; the others still complete.
func (o *Orchestrator) Run(ctx context.Context, rc RunConfig) (*RunResult, error) {
	if o.source == nil {
		return nil, fmt.Errorf("views run: no article source configured")
	}

	startTime := time.Now()

	if rc.RunID == "" {
		rc.RunID = uuid.NewString()
	}
	if rc.Now.IsZero() {
		rc.Now = time.Now().UTC()
	}
	if rc.Concurrency <= 0 {
		rc.Concurrency = o.concurrency
	}
	instruments := NormalizeInstruments(rc.Instruments)

	result := &RunResult{
		RunID:       rc.RunID,
		ConfigHash:  o.configHash,
		Now:         rc.Now,
		Instruments: make(map[string]*InstrumentResult, len(instruments)),
		Failed:      make(map[string]string),
	}

	log := o.logger.WithField("run_id", rc.RunID)
	log.WithFields(map[string]interface{}{
		"instruments": len(instruments),
		"concurrency": rc.Concurrency,
		"config_hash": o.configHash,
	}).Info("Starting views run")

	agg := aggregator.New(o.runModel(ctx, log), o.cfg.Aggregation, o.logger, o.metrics)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.Concurrency)

	for _, instrument := range instruments {
		g.Go(func() error {
			res, stage, err := o.processInstrument(gctx, agg, instrument, rc.Now)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.WithFields(map[string]interface{}{
					"instrument": instrument,
					"stage":      stage,
					"error":      err.Error(),
				}).Warn("Instrument failed, skipping")
				o.metrics.ObserveInstrumentError(stage)
				result.Failed[instrument] = err.Error()
				return nil
			}

			result.Instruments[instrument] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("views run cancelled: %w", err)
	}

	distributions := make(map[string]contracts.SentimentDistribution, len(result.Instruments))
	for id, res := range result.Instruments {
		distributions[id] = res.Aggregate.Distribution
		res.View = o.generator.View(id, res.Aggregate.Distribution)
	}
	result.Views = o.generator.Generate(distributions)

	if o.marketCaps != nil && len(result.Instruments) > 0 {
		caps, err := o.marketCaps.GetMarketCaps(ctx, sortedKeys(result.Instruments))
		if err != nil {
			log.WithError(err).Warn("Market cap lookup failed")
		} else {
			result.MarketCaps = caps
		}
	}

	result.Duration = time.Since(startTime)
	o.metrics.ObserveRun(result.Duration, time.Now())

	log.WithFields(map[string]interface{}{
		"total":    len(instruments),
		"success":  len(result.Instruments),
		"failed":   len(result.Failed),
		"views":    len(result.Views),
		"duration": result.Duration.String(),
	}).Info("Views run completed")

	return result, nil
}

// Evaluate runs the pure core on pre-scored articles: no article source or classifier involved.
// Credibility overrides apply exactly as in Run.
func (o *Orchestrator) Evaluate(ctx context.Context, instrument string, scored []contracts.ScoredArticle, now time.Time) (*InstrumentResult, error) {
	agg := aggregator.New(o.runModel(ctx, o.logger), o.cfg.Aggregation, o.logger, o.metrics)
	return o.evaluate(agg, strings.ToUpper(strings.TrimSpace(instrument)), scored, now)
}

// EvaluateAll evaluates several instruments and builds the sparse view set.
// Ids are normalized as in Run; articles of ids that collapse together are merged.
// Any malformed input fails the whole call.
func (o *Orchestrator) EvaluateAll(ctx context.Context, scored map[string][]contracts.ScoredArticle, now time.Time) (contracts.ViewSet, map[string]*InstrumentResult, error) {
	merged := make(map[string][]contracts.ScoredArticle, len(scored))
	for _, id := range sortedKeys(scored) {
		norm := NormalizeInstruments([]string{id})
		if len(norm) == 0 {
			continue
		}
		merged[norm[0]] = append(merged[norm[0]], scored[id]...)
	}

	agg := aggregator.New(o.runModel(ctx, o.logger), o.cfg.Aggregation, o.logger, o.metrics)

	results := make(map[string]*InstrumentResult, len(merged))
	distributions := make(map[string]contracts.SentimentDistribution, len(merged))

	for id, articles := range merged {
		res, err := o.evaluate(agg, id, articles, now)
		if err != nil {
			return nil, nil, err
		}
		results[id] = res
		distributions[id] = res.Aggregate.Distribution
	}

	return o.generator.Generate(distributions), results, nil
}

func (o *Orchestrator) evaluate(agg *aggregator.Aggregator, instrument string, scored []contracts.ScoredArticle, now time.Time) (*InstrumentResult, error) {
	res, err := agg.Aggregate(instrument, scored, now)
	if err != nil {
		return nil, err
	}

	return &InstrumentResult{
		Instrument: instrument,
		Articles:   scored,
		Aggregate:  res,
		View:       o.generator.View(instrument, res.Distribution),
	}, nil
}

func (o *Orchestrator) processInstrument(ctx context.Context, agg *aggregator.Aggregator, instrument string, now time.Time) (*InstrumentResult, string, error) {
	articles, err := o.source.FetchArticles(ctx, instrument, o.maxArticles)
	if err != nil {
		return nil, StageFetch, fmt.Errorf("fetch articles: %w", err)
	}

	scored, err := o.scorer.Score(ctx, instrument, articles)
	if err != nil {
		return nil, StageClassify, err
	}

	res, err := agg.Aggregate(instrument, scored, now)
	if err != nil {
		return nil, StageAggregate, err
	}

	return &InstrumentResult{
		Instrument: instrument,
		Articles:   scored,
		Aggregate:  res,
	}, "", nil
}

// runModel applies credibility overrides for this run; a lookup failure falls back to the configured table
func (o *Orchestrator) runModel(ctx context.Context, log *logger.Logger) *weighting.Model {
	if o.credibility == nil {
		return o.model
	}

	overrides, err := o.credibility.LoadCredibility(ctx)
	if err != nil {
		log.WithError(err).Warn("Credibility overrides unavailable, using configured table")
		return o.model
	}

	valid := make(map[string]float64, len(overrides))
	for domain, w := range overrides {
		if w <= 0 || w > 1 {
			log.WithFields(map[string]interface{}{
				"domain": domain,
				"weight": w,
			}).Warn("Ignoring out-of-range credibility override")
			continue
		}
		valid[domain] = w
	}

	return o.model.WithOverrides(valid)
}

// NormalizeInstruments trims, upper-cases and deduplicates ids, keeping first-seen order
func NormalizeInstruments(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
