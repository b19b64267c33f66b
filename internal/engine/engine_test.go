package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/installer"
	"macos-bootstrap/internal/plan"
	"macos-bootstrap/internal/sysinfo"
)

// stubProber reports the listed identifiers as already present.
type stubProber struct {
	present map[string]bool
	probes  []string
}

func (p *stubProber) IsPresent(_ context.Context, item plan.Item) bool {
	p.probes = append(p.probes, item.Identifier)
	return p.present[item.Identifier]
}

// stubStrategy returns a scripted result per identifier and records
// every invocation.
type stubStrategy struct {
	results map[string]installer.Result
	calls   []string
}

func (s *stubStrategy) Install(_ context.Context, item plan.Item) installer.Result {
	s.calls = append(s.calls, item.Identifier)
	if res, ok := s.results[item.Identifier]; ok {
		return res
	}
	return installer.Result{Outcome: executor.Outcome{ExitCode: 0}}
}

// recordSink captures the event stream.
type recordSink struct {
	started  []string
	finished []StepResult
	report   *RunReport
}

func (r *recordSink) ItemStarted(_, _ int, item plan.Item)  { r.started = append(r.started, item.Identifier) }
func (r *recordSink) ItemFinished(_, _ int, res StepResult) { r.finished = append(r.finished, res) }
func (r *recordSink) RunFinished(rep *RunReport)            { r.report = rep }

func items(ids ...string) []plan.Item {
	out := make([]plan.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, plan.Item{Identifier: id, Category: plan.CliTool})
	}
	return out
}

func TestRunProducesOneResultPerItem(t *testing.T) {
	prober := &stubProber{}
	strategy := &stubStrategy{}
	sink := &recordSink{}
	eng := New(prober, strategy, sink, sysinfo.AppleSilicon, false)

	p := items("a", "b", "c")
	report := eng.Run(context.Background(), p)

	require.Len(t, report.Results, len(p))
	seen := map[string]int{}
	for i, res := range report.Results {
		assert.Equal(t, p[i].Identifier, res.Item.Identifier)
		seen[res.Item.Identifier]++
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "item %s recorded %d times", id, n)
	}
	assert.Equal(t, []string{"a", "b", "c"}, sink.started)
	assert.Same(t, report, sink.report)
	assert.Equal(t, sysinfo.AppleSilicon, report.Architecture)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestFailureDoesNotStopTheRun(t *testing.T) {
	strategy := &stubStrategy{results: map[string]installer.Result{
		"b": {Outcome: executor.Outcome{ExitCode: 1, Stderr: "boom"}},
	}}
	eng := New(&stubProber{}, strategy, nil, sysinfo.Intel, false)

	report := eng.Run(context.Background(), items("a", "b", "c"))

	require.Len(t, report.Results, 3)
	assert.Equal(t, StatusInstalled, report.Results[0].Status)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	assert.Equal(t, StatusInstalled, report.Results[2].Status)
	assert.Equal(t, []string{"a", "b", "c"}, strategy.calls)
	assert.Equal(t, 1, report.ExitCode())
}

func TestPresentItemsAreSkippedWithoutInstall(t *testing.T) {
	prober := &stubProber{present: map[string]bool{"firefox": true}}
	strategy := &stubStrategy{}
	eng := New(prober, strategy, nil, sysinfo.AppleSilicon, false)

	report := eng.Run(context.Background(), []plan.Item{
		{Identifier: "firefox", Category: plan.GuiApp},
	})

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSkipped, report.Results[0].Status)
	assert.Empty(t, strategy.calls, "no install may run for a present item")
	assert.Equal(t, 0, report.ExitCode())
}

func TestDryRunNeverInstalls(t *testing.T) {
	prober := &stubProber{present: map[string]bool{"b": true}}
	strategy := &stubStrategy{}
	eng := New(prober, strategy, nil, sysinfo.AppleSilicon, true)

	report := eng.Run(context.Background(), items("a", "b", "c"))

	require.Len(t, report.Results, 3)
	assert.Empty(t, strategy.calls, "dry run must not invoke any strategy")
	assert.Equal(t, StatusDryRun, report.Results[0].Status)
	assert.Equal(t, StatusSkipped, report.Results[1].Status)
	assert.Equal(t, StatusDryRun, report.Results[2].Status)
	assert.True(t, report.DryRun)
	assert.Equal(t, 0, report.ExitCode())
	// Probing still happens: dry run reports what a real run would do.
	assert.Equal(t, []string{"a", "b", "c"}, prober.probes)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name       string
		res        installer.Result
		wantStatus Status
		wantDetail string
	}{
		{
			name:       "clean install",
			res:        installer.Result{Outcome: executor.Outcome{ExitCode: 0}},
			wantStatus: StatusInstalled,
			wantDetail: "installed",
		},
		{
			name:       "non-zero exit",
			res:        installer.Result{Outcome: executor.Outcome{ExitCode: 1, Stderr: "Error: no formula found"}},
			wantStatus: StatusFailed,
			wantDetail: "Error: no formula found",
		},
		{
			name:       "timeout",
			res:        installer.Result{Outcome: executor.Outcome{ExitCode: executor.ExitTimedOut, TimedOut: true, Stderr: "command timed out after 5s"}},
			wantStatus: StatusTimedOut,
			wantDetail: "command timed out after 5s",
		},
		{
			name: "post-install failure downgrades to failed",
			res: installer.Result{
				Outcome:           executor.Outcome{ExitCode: 1, Stderr: "link failed"},
				PostInstallFailed: true,
				Detail:            "yarn installed, but follow-up step failed: brew link --overwrite yarn",
			},
			wantStatus: StatusFailed,
			wantDetail: "yarn installed, but follow-up step failed: brew link --overwrite yarn",
		},
		{
			name: "timed-out follow-up is still a failure",
			res: installer.Result{
				Outcome:           executor.Outcome{ExitCode: executor.ExitTimedOut, TimedOut: true},
				PostInstallFailed: true,
				Detail:            "tool installed, but follow-up step failed: brew link tool",
			},
			wantStatus: StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(plan.Item{Identifier: "x", Category: plan.CliTool}, tt.res)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, got.Detail)
			}
		})
	}
}

func TestRetriedFlagSurvivesClassification(t *testing.T) {
	res := installer.Result{
		Outcome: executor.Outcome{ExitCode: 0},
		Retried: true,
		Detail:  "installed after one retry (transient network failure)",
	}
	got := classify(plan.Item{Identifier: "ripgrep", Category: plan.CliTool}, res)

	assert.Equal(t, StatusInstalled, got.Status)
	assert.True(t, got.Retried)
	assert.Contains(t, got.Detail, "retry")
}

func TestFailureDetailTruncation(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	res := installer.Result{Outcome: executor.Outcome{ExitCode: 1, Stderr: string(long)}}
	got := classify(plan.Item{Identifier: "x", Category: plan.CliTool}, res)

	assert.LessOrEqual(t, len(got.Detail), 130)
	assert.Contains(t, got.Detail, "...")
	// The full output stays available for verbose reporting.
	assert.Len(t, got.Stderr, 500)
}

func TestReportCountsAndExitCode(t *testing.T) {
	report := &RunReport{
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Results: []StepResult{
			{Status: StatusInstalled},
			{Status: StatusSkipped},
			{Status: StatusFailed},
			{Status: StatusTimedOut},
			{Status: StatusDryRun},
		},
	}

	assert.Equal(t, 1, report.Count(StatusInstalled))
	assert.Equal(t, 2, report.FailedCount())
	assert.Equal(t, 1, report.ExitCode())
	assert.InDelta(t, time.Minute.Seconds(), report.Elapsed().Seconds(), 1)

	clean := &RunReport{Results: []StepResult{{Status: StatusInstalled}, {Status: StatusSkipped}}}
	assert.Equal(t, 0, clean.ExitCode())
}

func TestUnknownCategoryPanics(t *testing.T) {
	// Misuse of the contract is a programmer error, not a step result.
	assert.Panics(t, func() {
		inst := installer.New(nil, nil, sysinfo.Info{})
		inst.Install(context.Background(), plan.Item{Identifier: "x", Category: plan.Category("bogus")})
	})
}
