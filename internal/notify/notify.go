package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/engine"
	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
)

const sendTimeout = 10 * time.Second

// Notifier dispatches macOS notification center messages through
// osascript. It implements engine.Sink so failures can be surfaced the
// moment they happen and a summary lands when the run completes.
// Delivery failures are logged and otherwise ignored.
type Notifier struct {
	run        executor.Runner
	enabled    bool
	onComplete bool
	onError    bool
}

// New builds a notifier from the config flags. suppress (the
// --no-notifications flag) wins over everything in the config.
func New(run executor.Runner, cfg config.Notifications, suppress bool) *Notifier {
	return &Notifier{
		run:        run,
		enabled:    !suppress && config.Enabled(cfg.Enabled),
		onComplete: config.Enabled(cfg.OnComplete),
		onError:    config.Enabled(cfg.OnError),
	}
}

// Send posts one notification with the Glass completion sound.
func (n *Notifier) Send(title, message string) {
	if !n.enabled {
		return
	}
	script := fmt.Sprintf("display notification %q with title %q sound name \"Glass\"",
		sanitize(message), sanitize(title))
	out := n.run.Run(context.Background(), executor.Command{
		Name:    "osascript",
		Args:    []string{"-e", script},
		Timeout: sendTimeout,
	})
	if !out.OK() {
		logger.Debug("[DEBUG] Notification failed: %s\n", out.Output())
	}
}

// ItemStarted is part of engine.Sink; start of an item is not worth a
// notification.
func (n *Notifier) ItemStarted(int, int, plan.Item) {}

// ItemFinished posts an immediate notification for failed or timed-out
// items when on_error is set.
func (n *Notifier) ItemFinished(_, _ int, result engine.StepResult) {
	if !n.onError {
		return
	}
	switch result.Status {
	case engine.StatusFailed, engine.StatusTimedOut:
		n.Send("Setup Error", fmt.Sprintf("%s: %s", result.Item.Name(), result.Status))
	}
}

// RunFinished posts the completion notification, worded by outcome.
func (n *Notifier) RunFinished(report *engine.RunReport) {
	if !n.onComplete || report.DryRun {
		return
	}
	total := len(report.Results)
	failed := report.FailedCount()
	switch {
	case failed == 0:
		n.Send("Setup Completed Successfully",
			fmt.Sprintf("All %d items completed in %s", total, report.Elapsed().Round(time.Second)))
	case failed == total:
		n.Send("Setup Failed", fmt.Sprintf("All %d items failed", total))
	default:
		n.Send("Setup Completed with Errors",
			fmt.Sprintf("Completed %d/%d items", total-failed, total))
	}
}

// sanitize keeps the message safe inside the AppleScript string literal.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' {
			return '\''
		}
		return r
	}, s)
}
