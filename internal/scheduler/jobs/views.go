package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/newsviews/internal/pipeline"
	"github.com/wonny/newsviews/pkg/logger"
)

// ViewsJob regenerates views for the configured instruments.
// Results are logged only; nothing is persisted.
type ViewsJob struct {
	orchestrator *pipeline.Orchestrator
	instruments  []string
	schedule     string
	logger       *logger.Logger

	// OnResult receives every completed run (optional)
	OnResult func(*pipeline.RunResult)
}

// NewViewsJob creates a new views generation job
func NewViewsJob(o *pipeline.Orchestrator, instruments []string, schedule string, log *logger.Logger) *ViewsJob {
	return &ViewsJob{
		orchestrator: o,
		instruments:  instruments,
		schedule:     schedule,
		logger:       log,
	}
}

// Name returns the job name
func (j *ViewsJob) Name() string {
	return "views_generation"
}

// Schedule returns the cron schedule (with seconds)
func (j *ViewsJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run.
// Partial failures are tolerated; the job fails only when no instrument succeeded.
func (j *ViewsJob) Run(ctx context.Context) error {
	j.logger.WithField("instruments", len(j.instruments)).Info("Starting scheduled views generation")

	result, err := j.orchestrator.Run(ctx, pipeline.RunConfig{Instruments: j.instruments})
	if err != nil {
		return fmt.Errorf("views run: %w", err)
	}

	if len(result.Instruments) == 0 && len(result.Failed) > 0 {
		return fmt.Errorf("views run %s: all %d instruments failed", result.RunID, len(result.Failed))
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"views":  result.Views,
		"failed": len(result.Failed),
	}).Info("Scheduled views generated")

	if j.OnResult != nil {
		j.OnResult(result)
	}

	return nil
}
