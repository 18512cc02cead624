package runner

import (
	"math"
	"time"

	"cookbatch/internal/extract"
	"cookbatch/internal/sink"
)

// Repo-level statuses. clone_error and fatal_error route to errors.jsonl,
// everything else to manifest.jsonl.
const (
	StatusDone        = "done"
	StatusNoCookbooks = "no_cookbooks"
	StatusCloneError  = sink.StatusCloneError
	StatusFatalError  = sink.StatusFatalError
)

// Outcome is the durable record of one repository's run: exactly one Outcome
// is produced per repository per run, no matter which internal stage failed.
type Outcome struct {
	Repo      string           `json:"repo"`
	Status    string           `json:"status"`
	Commit    string           `json:"commit,omitempty"`
	Cookbooks []extract.Result `json:"cookbooks,omitempty"`
	Error     string           `json:"error,omitempty"`
	Secs      float64          `json:"secs"`
}

func secsSince(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*100) / 100
}
