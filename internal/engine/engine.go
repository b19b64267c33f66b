package engine

import (
	"context"
	"strings"
	"time"

	"macos-bootstrap/internal/installer"
	"macos-bootstrap/internal/plan"
	"macos-bootstrap/internal/sysinfo"
)

// Prober answers whether a plan item is already satisfied. Probes are
// read-only; they run even in dry-run mode.
type Prober interface {
	IsPresent(ctx context.Context, item plan.Item) bool
}

// Strategy performs the mutating install for one item. Never called in
// dry-run mode or for items the prober reports present.
type Strategy interface {
	Install(ctx context.Context, item plan.Item) installer.Result
}

// Sink receives progress events synchronously as the engine produces
// them, plus the final report.
type Sink interface {
	ItemStarted(index, total int, item plan.Item)
	ItemFinished(index, total int, result StepResult)
	RunFinished(report *RunReport)
}

// Engine walks a plan strictly sequentially, one item end to end at a
// time. Installers mutate shared global state (the Homebrew database,
// shell rc files), so there is deliberately no parallelism. A single
// item's failure never stops the walk: every planned item always reaches
// exactly one terminal status.
type Engine struct {
	prober   Prober
	strategy Strategy
	sink     Sink
	arch     sysinfo.Arch
	dryRun   bool
}

// New builds an engine. sink may be nil when no progress output is
// wanted (tests).
func New(prober Prober, strategy Strategy, sink Sink, arch sysinfo.Arch, dryRun bool) *Engine {
	if sink == nil {
		sink = nopSink{}
	}
	return &Engine{prober: prober, strategy: strategy, sink: sink, arch: arch, dryRun: dryRun}
}

// Run executes the plan and returns the report. A report is always
// produced, even when every item fails; the report's exit code is the
// only failure signal.
func (e *Engine) Run(ctx context.Context, items []plan.Item) *RunReport {
	report := &RunReport{
		StartedAt:    time.Now(),
		Architecture: e.arch,
		DryRun:       e.dryRun,
		Results:      make([]StepResult, 0, len(items)),
	}

	total := len(items)
	for i, item := range items {
		e.sink.ItemStarted(i+1, total, item)

		start := time.Now()
		result := e.runItem(ctx, item)
		result.Duration = time.Since(start)

		report.Results = append(report.Results, result)
		e.sink.ItemFinished(i+1, total, result)
	}

	report.FinishedAt = time.Now()
	e.sink.RunFinished(report)
	return report
}

// runItem takes one item through probe, dry-run short-circuit, install,
// and classification.
func (e *Engine) runItem(ctx context.Context, item plan.Item) StepResult {
	if e.prober.IsPresent(ctx, item) {
		return StepResult{Item: item, Status: StatusSkipped, Detail: "already present"}
	}

	if e.dryRun {
		return StepResult{Item: item, Status: StatusDryRun, Detail: "would install"}
	}

	res := e.strategy.Install(ctx, item)
	return classify(item, res)
}

// classify maps a raw install result onto a terminal status. A follow-up
// failure after a successful primary install is a failure, even when the
// follow-up timed out: the timed-out status is reserved for the primary
// install so the no-retry rule stays scoped to genuinely stuck installs.
func classify(item plan.Item, res installer.Result) StepResult {
	result := StepResult{
		Item:    item,
		Detail:  res.Detail,
		Stdout:  res.Outcome.Stdout,
		Stderr:  res.Outcome.Stderr,
		Retried: res.Retried,
	}

	switch {
	case res.PostInstallFailed:
		result.Status = StatusFailed
	case res.Outcome.TimedOut:
		result.Status = StatusTimedOut
	case res.Outcome.OK():
		result.Status = StatusInstalled
	default:
		result.Status = StatusFailed
	}

	if result.Detail == "" {
		switch result.Status {
		case StatusInstalled:
			result.Detail = "installed"
		case StatusTimedOut:
			result.Detail = strings.TrimSpace(res.Outcome.Stderr)
		case StatusFailed:
			result.Detail = failureDetail(res)
		}
	}
	return result
}

// failureDetail trims the decisive command output down to a one-line
// summary for the report table; the full output stays on the StepResult.
func failureDetail(res installer.Result) string {
	out := strings.TrimSpace(res.Outcome.Output())
	if out == "" {
		return "command failed"
	}
	if idx := strings.IndexByte(out, '\n'); idx > 0 {
		out = out[:idx]
	}
	const max = 120
	if len(out) > max {
		out = out[:max] + "..."
	}
	return out
}

// MultiSink fans each event out to several sinks, in order.
type MultiSink []Sink

func (m MultiSink) ItemStarted(index, total int, item plan.Item) {
	for _, s := range m {
		s.ItemStarted(index, total, item)
	}
}

func (m MultiSink) ItemFinished(index, total int, result StepResult) {
	for _, s := range m {
		s.ItemFinished(index, total, result)
	}
}

func (m MultiSink) RunFinished(report *RunReport) {
	for _, s := range m {
		s.RunFinished(report)
	}
}

type nopSink struct{}

func (nopSink) ItemStarted(int, int, plan.Item)   {}
func (nopSink) ItemFinished(int, int, StepResult) {}
func (nopSink) RunFinished(*RunReport)            {}
