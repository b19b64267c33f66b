package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/engine"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
)

const rule = "============================================================"

// Console renders engine progress events at the configured verbosity.
// Minimal shows one line per item; normal adds progress headers, elapsed
// time, and a time-remaining estimate; verbose adds captured command
// output. Everything normal-and-above also lands in the detail log via
// the logger, whatever the console mode.
type Console struct {
	mode          config.OutputMode
	showRemaining bool
	start         time.Time
	completed     int
}

// NewConsole builds a console sink.
func NewConsole(mode config.OutputMode, showRemaining bool) *Console {
	return &Console{mode: mode, showRemaining: showRemaining, start: time.Now()}
}

// ItemStarted prints the progress header for one item.
func (c *Console) ItemStarted(index, total int, item plan.Item) {
	if c.mode == config.ModeMinimal {
		fmt.Printf("[%d/%d] %s\n", index, total, item.Name())
		logger.Info("Starting step %d/%d: %s\n", index, total, item.Detail)
		return
	}

	elapsed := time.Since(c.start).Round(time.Second)
	logger.Info("\n%s\n", rule)
	logger.Info("Progress: step %d/%d (%d%%)  elapsed %s\n", index, total, (index-1)*100/total, elapsed)
	if c.showRemaining {
		logger.Info("Estimated remaining: %s\n", c.remaining(total))
	}
	logger.Info("Current: %s\n", item.Detail)
	logger.Info("%s\n", rule)
}

// remaining projects time left from the average pace of completed items.
func (c *Console) remaining(total int) string {
	if c.completed == 0 {
		return "calculating..."
	}
	elapsed := time.Since(c.start)
	perStep := elapsed / time.Duration(c.completed)
	left := perStep * time.Duration(total-c.completed)
	return left.Round(time.Second).String()
}

// ItemFinished prints the item's terminal status.
func (c *Console) ItemFinished(index, total int, result engine.StepResult) {
	c.completed++

	line := fmt.Sprintf("[%s] %s: %s", statusTag(result.Status), result.Item.Name(), result.Detail)
	if result.Retried {
		line += " (retried)"
	}

	switch result.Status {
	case engine.StatusFailed, engine.StatusTimedOut:
		logger.Error("%s\n", line)
	default:
		if c.mode == config.ModeMinimal {
			// Minimal still shows the outcome on the console; the full
			// line goes to the file through the logger as well.
			fmt.Printf("  %s\n", statusTag(result.Status))
		}
		logger.Info("%s (%s)\n", line, result.Duration.Round(time.Millisecond))
	}

	if c.mode == config.ModeVerbose {
		if strings.TrimSpace(result.Stdout) != "" {
			logger.Debug("--- stdout ---\n%s\n", strings.TrimSpace(result.Stdout))
		}
		if strings.TrimSpace(result.Stderr) != "" {
			logger.Debug("--- stderr ---\n%s\n", strings.TrimSpace(result.Stderr))
		}
	}
}

// RunFinished prints the summary table: every item with its status, then
// the counts. The run never aborts mid-plan, so this always covers the
// whole plan.
func (c *Console) RunFinished(report *engine.RunReport) {
	elapsed := report.Elapsed().Round(time.Second)

	if c.mode == config.ModeMinimal {
		fmt.Printf("\nCompleted: %d/%d ok in %s\n",
			len(report.Results)-report.FailedCount(), len(report.Results), elapsed)
		logger.Info("Run finished: %d/%d ok in %s\n",
			len(report.Results)-report.FailedCount(), len(report.Results), elapsed)
		return
	}

	title := "SETUP COMPLETE"
	if report.DryRun {
		title = "DRY RUN COMPLETE (no changes were made)"
	}
	logger.Info("\n%s\n%s\n%s\n", rule, title, rule)
	logger.Info("Total time: %s  architecture: %s\n", elapsed, report.Architecture)

	for _, res := range report.Results {
		line := fmt.Sprintf("  %-14s %s", statusTag(res.Status), res.Item.Name())
		if res.Status == engine.StatusFailed || res.Status == engine.StatusTimedOut {
			logger.Error("%s: %s\n", line, res.Detail)
		} else {
			logger.Info("%s\n", line)
		}
	}

	logger.Info("Results: %d installed, %d already present, %d planned, %d failed, %d timed out\n",
		report.Count(engine.StatusInstalled),
		report.Count(engine.StatusSkipped),
		report.Count(engine.StatusDryRun),
		report.Count(engine.StatusFailed),
		report.Count(engine.StatusTimedOut))

	if n := report.FailedCount(); n > 0 {
		logger.Warn("%d of %d items did not complete; see the log for full output\n", n, len(report.Results))
	}
}

// statusTag is the short colored token used in per-item lines.
func statusTag(status engine.Status) string {
	switch status {
	case engine.StatusInstalled:
		return color.GreenString("ok")
	case engine.StatusSkipped:
		return color.CyanString("skip")
	case engine.StatusDryRun:
		return color.CyanString("plan")
	case engine.StatusTimedOut:
		return color.RedString("timeout")
	default:
		return color.RedString("fail")
	}
}
