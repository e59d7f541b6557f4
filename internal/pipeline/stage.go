package pipeline

import (
	"context"
	"time"
)

// Stage names in execution order.
const (
	StagePrepare    = "prepare"
	StageLogReport  = "log-report"
	StageInventory  = "inventory"
	StageUsage      = "usage"
	StageCompliance = "compliance"
	StageSink       = "sink"
	StagePublish    = "publish"
	StageReport     = "report"
	StageCleanup    = "cleanup"
)

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	// StatusSucceeded marks a stage that completed.
	StatusSucceeded StageStatus = "succeeded"
	// StatusFailed marks a stage that returned an error.
	StatusFailed StageStatus = "failed"
	// StatusSkipped marks a stage that did not run.
	StatusSkipped StageStatus = "skipped"
)

// StageFunc performs the work of a stage against the shared run state.
type StageFunc func(executionContext context.Context, environment *Environment, state *State) error

// Stage is one step of a run.
type Stage struct {
	Name     string
	Requires []string
	Disabled bool
	Execute  StageFunc
}

// StageResult records how a stage ended.
type StageResult struct {
	Name     string        `yaml:"name"`
	Status   StageStatus   `yaml:"status"`
	Reason   string        `yaml:"reason,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// Succeeded reports whether the stage completed.
func (result StageResult) Succeeded() bool {
	return result.Status == StatusSucceeded
}
