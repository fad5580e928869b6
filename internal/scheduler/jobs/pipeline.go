package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/gainers/internal/pipeline"
	"github.com/wonny/gainers/internal/report"
	"github.com/wonny/gainers/pkg/logger"
)

// PipelineJob runs the full gainers pipeline on schedule, writes the
// CSV reports, and publishes the result to the API store.
type PipelineJob struct {
	pipeline *pipeline.Pipeline
	writer   *report.Writer
	store    *report.Store
	schedule string
	logger   *logger.Logger
}

func NewPipelineJob(p *pipeline.Pipeline, w *report.Writer, store *report.Store, schedule string, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		pipeline: p,
		writer:   w,
		store:    store,
		schedule: schedule,
		logger:   log,
	}
}

func (j *PipelineJob) Name() string { return "gainers-pipeline" }

func (j *PipelineJob) Schedule() string { return j.schedule }

func (j *PipelineJob) Run(ctx context.Context) error {
	result, err := j.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	if err := j.writer.WriteAll(result); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	j.store.Set(result)
	j.logger.WithFields(map[string]interface{}{
		"gainers":  len(result.Gainers),
		"selected": len(result.Summary.Selected),
	}).Info("Pipeline result published")

	return nil
}
