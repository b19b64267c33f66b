package engine

import (
	"time"

	"macos-bootstrap/internal/plan"
	"macos-bootstrap/internal/sysinfo"
)

// Status is the terminal fate of one plan item. Every item in a run gets
// exactly one of these.
type Status string

const (
	// StatusSkipped means the prober found the item already present;
	// nothing was executed.
	StatusSkipped Status = "already-present"
	// StatusInstalled means the install (and all follow-up steps)
	// completed successfully.
	StatusInstalled Status = "installed"
	// StatusFailed covers non-zero exits, missing executables, and
	// follow-up step failures after a successful primary install.
	StatusFailed Status = "failed"
	// StatusTimedOut means the install exceeded its timeout ceiling and
	// was killed. Never retried: a hung install is usually an
	// interactive prompt that would hang again.
	StatusTimedOut Status = "timed-out"
	// StatusDryRun means the run was a dry run and the item would have
	// been installed.
	StatusDryRun Status = "dry-run"
)

// StepResult is the durable record of one item's fate. Appended to the
// run report exactly once per item and never mutated afterwards.
type StepResult struct {
	Item     plan.Item
	Status   Status
	Detail   string
	Duration time.Duration
	// Captured output of the decisive command, kept for verbose
	// reporting and the detail log.
	Stdout  string
	Stderr  string
	Retried bool
}

// RunReport aggregates a whole invocation. Owned and mutated only by the
// engine; sinks read it. On completion len(Results) always equals the
// plan length: no drops, no duplicates.
type RunReport struct {
	Results      []StepResult
	StartedAt    time.Time
	FinishedAt   time.Time
	Architecture sysinfo.Arch
	DryRun       bool
}

// Count returns how many results carry the given status.
func (r *RunReport) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// FailedCount counts the items that did not reach a good terminal state.
func (r *RunReport) FailedCount() int {
	return r.Count(StatusFailed) + r.Count(StatusTimedOut)
}

// ExitCode is 0 when every item succeeded, was skipped, or was dry-run
// planned; 1 otherwise. Partial failure is reported here and in the
// completion notification, never by aborting mid-run.
func (r *RunReport) ExitCode() int {
	if r.FailedCount() > 0 {
		return 1
	}
	return 0
}

// Elapsed is the wall-clock duration of the run.
func (r *RunReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
