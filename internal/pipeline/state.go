package pipeline

import (
	"time"

	"github.com/temirov/portalaudit/internal/compliance"
	"github.com/temirov/portalaudit/internal/housekeeping"
	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/publish"
	"github.com/temirov/portalaudit/internal/report"
	"github.com/temirov/portalaudit/internal/sink"
	"github.com/temirov/portalaudit/internal/usage"
)

// State carries the outputs of completed stages to the stages after them.
type State struct {
	RunID        string
	StartedAt    time.Time
	CompletedAt  time.Time
	Layout       housekeeping.RunLayout
	WorkbookPath string
	Inventory    inventory.Result
	Usage        usage.Result
	Compliance   compliance.Result
	Sink         sink.Result
	Publication  publish.Result
	Report       report.Result
	Cleanup      housekeeping.CleanupResult
	Results      []StageResult

	portalClient PortalClient
}

// Result returns the recorded result of the named stage.
func (state *State) Result(stageName string) (StageResult, bool) {
	for _, result := range state.Results {
		if result.Name == stageName {
			return result, true
		}
	}
	return StageResult{}, false
}

// Failed counts stages that failed.
func (state *State) Failed() int {
	failed := 0
	for _, result := range state.Results {
		if result.Status == StatusFailed {
			failed++
		}
	}
	return failed
}
