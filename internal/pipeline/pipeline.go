// Package pipeline runs an ordered list of provisioning stages.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Status values used across RunResult and StageResult.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Stage is a single named pipeline step. Critical stages abort the run on
// failure; best-effort stages only log a warning.
type Stage struct {
	Name     string
	Label    string
	Critical bool
	Run      func(ctx context.Context) error
}

// StageResult records the outcome of one stage.
type StageResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "error", "skipped"
	Error  string `json:"error,omitempty"`
}

// RunResult is the aggregate outcome of a pipeline run. Stages keep the
// execution order; stages after an aborting failure are recorded as skipped.
type RunResult struct {
	Status string        `json:"status"` // "ok", "error"
	Stages []StageResult `json:"stages"`
}

// Runner executes stages strictly in order on a single goroutine. There is
// no rollback: a run is forward-only.
type Runner struct {
	stages []Stage
}

// New constructs a Runner over the given stages.
func New(stages []Stage) *Runner {
	return &Runner{stages: stages}
}

// Run executes every stage in order. A critical stage failure stops the run:
// the failing stage is recorded with StatusError, every remaining stage with
// StatusSkipped, and the stage's error is returned wrapped with its name. A
// best-effort failure is logged at WARN and the run continues. The returned
// RunResult is non-nil in all cases.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		Status: StatusOK,
		Stages: make([]StageResult, 0, len(r.stages)),
	}

	for i, stage := range r.stages {
		slog.InfoContext(ctx, "stage started", "stage", stage.Name, "label", stage.Label)

		err := stage.Run(ctx)
		if err == nil {
			result.Stages = append(result.Stages, StageResult{Name: stage.Name, Status: StatusOK})
			slog.InfoContext(ctx, "stage ok", "stage", stage.Name)
			continue
		}

		result.Stages = append(result.Stages, StageResult{
			Name:   stage.Name,
			Status: StatusError,
			Error:  err.Error(),
		})

		if !stage.Critical {
			slog.WarnContext(ctx, "best-effort stage failed", "stage", stage.Name, "error", err)
			continue
		}

		slog.ErrorContext(ctx, "critical stage failed", "stage", stage.Name, "error", err)
		for _, rest := range r.stages[i+1:] {
			result.Stages = append(result.Stages, StageResult{Name: rest.Name, Status: StatusSkipped})
		}
		result.Status = StatusError
		return result, fmt.Errorf("stage %s: %w", stage.Name, err)
	}

	return result, nil
}
