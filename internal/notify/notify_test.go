package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/engine"
	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/plan"
)

type recordRunner struct {
	commands []executor.Command
}

func (r *recordRunner) Run(_ context.Context, cmd executor.Command) executor.Outcome {
	r.commands = append(r.commands, cmd)
	return executor.Outcome{ExitCode: 0}
}

func boolPtr(b bool) *bool { return &b }

func TestSendDispatchesOsascript(t *testing.T) {
	run := &recordRunner{}
	n := New(run, config.Notifications{}, false)

	n.Send("macOS Setup", "Starting development environment setup...")

	require.Len(t, run.commands, 1)
	cmd := run.commands[0]
	assert.Equal(t, "osascript", cmd.Name)
	require.Len(t, cmd.Args, 2)
	assert.Equal(t, "-e", cmd.Args[0])
	assert.Contains(t, cmd.Args[1], "display notification")
	assert.Contains(t, cmd.Args[1], "macOS Setup")
}

func TestSuppressWinsOverConfig(t *testing.T) {
	run := &recordRunner{}
	n := New(run, config.Notifications{Enabled: boolPtr(true)}, true)

	n.Send("title", "message")

	assert.Empty(t, run.commands)
}

func TestDisabledInConfig(t *testing.T) {
	run := &recordRunner{}
	n := New(run, config.Notifications{Enabled: boolPtr(false)}, false)

	n.Send("title", "message")

	assert.Empty(t, run.commands)
}

func TestItemFinishedNotifiesOnFailure(t *testing.T) {
	run := &recordRunner{}
	n := New(run, config.Notifications{}, false)

	n.ItemFinished(1, 3, engine.StepResult{
		Item:   plan.Item{Identifier: "ripgrep", Category: plan.CliTool},
		Status: engine.StatusFailed,
	})
	n.ItemFinished(2, 3, engine.StepResult{
		Item:   plan.Item{Identifier: "jq", Category: plan.CliTool},
		Status: engine.StatusInstalled,
	})

	require.Len(t, run.commands, 1, "only the failure notifies")
	assert.Contains(t, run.commands[0].Args[1], "Setup Error")
	assert.Contains(t, run.commands[0].Args[1], "cli-tool/ripgrep")
}

func TestItemFinishedRespectsOnErrorFlag(t *testing.T) {
	run := &recordRunner{}
	n := New(run, config.Notifications{OnError: boolPtr(false)}, false)

	n.ItemFinished(1, 1, engine.StepResult{
		Item:   plan.Item{Identifier: "ripgrep", Category: plan.CliTool},
		Status: engine.StatusFailed,
	})

	assert.Empty(t, run.commands)
}

func TestRunFinishedWording(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		results []engine.StepResult
		want    string
	}{
		{
			name:    "all ok",
			results: []engine.StepResult{{Status: engine.StatusInstalled}, {Status: engine.StatusSkipped}},
			want:    "Setup Completed Successfully",
		},
		{
			name:    "all failed",
			results: []engine.StepResult{{Status: engine.StatusFailed}, {Status: engine.StatusTimedOut}},
			want:    "Setup Failed",
		},
		{
			name:    "partial",
			results: []engine.StepResult{{Status: engine.StatusInstalled}, {Status: engine.StatusFailed}},
			want:    "Setup Completed with Errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &recordRunner{}
			n := New(run, config.Notifications{}, false)

			n.RunFinished(&engine.RunReport{
				Results:    tt.results,
				StartedAt:  now.Add(-time.Minute),
				FinishedAt: now,
			})

			require.Len(t, run.commands, 1)
			assert.Contains(t, run.commands[0].Args[1], tt.want)
		})
	}
}

func TestRunFinishedSkipsDryRun(t *testing.T) {
	run := &recordRunner{}
	n := New(run, config.Notifications{}, false)

	n.RunFinished(&engine.RunReport{
		DryRun:  true,
		Results: []engine.StepResult{{Status: engine.StatusDryRun}},
	})

	assert.Empty(t, run.commands)
}

func TestSanitizeNeutralizesQuoting(t *testing.T) {
	assert.Equal(t, "it's 'quoted'", sanitize(`it's "quoted"`))
	assert.Equal(t, "a'b", sanitize(`a\b`))
	assert.Equal(t, "plain text", sanitize("plain text"))
}
