package installer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
	"macos-bootstrap/internal/sysinfo"
)

// Per-category timeout ceilings. GUI apps and toolchain installs pull
// large downloads; probes and preference writes must return quickly.
const (
	probeTimeout     = 30 * time.Second
	configTimeout    = 30 * time.Second
	cliTimeout       = 5 * time.Minute
	guiTimeout       = 10 * time.Minute
	toolchainTimeout = 10 * time.Minute
	shellTimeout     = 5 * time.Minute
	downloadTimeout  = 5 * time.Minute
)

// transientSignatures is the fixed set of output substrings treated as a
// transient network failure. A failed (not timed-out) CLI tool install
// whose output matches one of these is retried exactly once.
var transientSignatures = []string{
	"Could not resolve host",
	"Connection reset",
	"Connection refused",
	"Operation timed out",
	"Failed to connect",
	"temporarily unavailable",
	"curl: (",
	"TLS",
}

// Result is the raw outcome of one install attempt, before the engine
// classifies it into a step status. Outcome is the primary command's
// outcome, or the failing post-install command's when PostInstallFailed
// is set.
type Result struct {
	Outcome           executor.Outcome
	Detail            string
	Retried           bool
	PostInstallFailed bool
}

// Installer holds the per-category install strategies. Every strategy
// shells out through the shared Runner, resolves paths against the
// architecture-specific Homebrew prefix, and reports failures as data.
type Installer struct {
	run executor.Runner
	cfg *config.Config
	sys sysinfo.Info
}

// New builds an Installer bound to a runner, validated config, and the
// system facts resolved at startup.
func New(run executor.Runner, cfg *config.Config, sys sysinfo.Info) *Installer {
	return &Installer{run: run, cfg: cfg, sys: sys}
}

// Install runs the strategy for the item's category. The caller has
// already probed for presence and handled dry-run; this always mutates.
// An unknown category is a programmer error, not a runtime condition.
func (in *Installer) Install(ctx context.Context, item plan.Item) Result {
	switch item.Category {
	case plan.PackageManager:
		return in.installHomebrew(ctx)
	case plan.GuiApp:
		return in.installGuiApp(ctx, item)
	case plan.CliTool:
		return in.installCliToolWithRetry(ctx, item)
	case plan.LanguageToolchain:
		return in.installToolchain(ctx, item)
	case plan.ShellFramework:
		return in.installShellFramework(ctx, item)
	case plan.SystemConfig:
		return in.applySetting(ctx, item)
	case plan.SshKey:
		return in.generateSSHKey(ctx, item)
	case plan.GitConfig:
		return in.applyGitConfig(ctx, item)
	case plan.Font:
		return in.installFont(ctx, item)
	default:
		panic(fmt.Sprintf("installer: unknown plan category %q", item.Category))
	}
}

// installCliToolWithRetry applies the documented retry rule: one retry,
// CLI tools only, transient network signatures only, never on timeout.
func (in *Installer) installCliToolWithRetry(ctx context.Context, item plan.Item) Result {
	res := in.installCliTool(ctx, item)
	if res.Outcome.OK() || res.Outcome.TimedOut || res.PostInstallFailed {
		return res
	}
	if !config.Enabled(in.cfg.Retry.Enabled) || !isTransient(res.Outcome.Output()) {
		return res
	}

	logger.Warn("[WARN] %s failed with a transient network error, retrying once...\n", item.Identifier)
	retried := in.installCliTool(ctx, item)
	retried.Retried = true
	if retried.Outcome.OK() && retried.Detail == "" {
		retried.Detail = "installed after one retry (transient network failure)"
	}
	return retried
}

// isTransient reports whether captured command output matches the fixed
// transient-network signature set.
func isTransient(output string) bool {
	for _, sig := range transientSignatures {
		if strings.Contains(output, sig) {
			return true
		}
	}
	return false
}

// postSteps runs follow-up commands after a successful primary install.
// The first failing step downgrades the whole result: the item is
// recorded as failed, with a detail distinguishing "installed, follow-up
// failed" from a primary failure.
func (in *Installer) postSteps(ctx context.Context, primary executor.Outcome, what string, steps []executor.Command) Result {
	for _, step := range steps {
		out := in.run.Run(ctx, step)
		if !out.OK() {
			return Result{
				Outcome:           out,
				PostInstallFailed: true,
				Detail:            fmt.Sprintf("%s installed, but follow-up step failed: %s", what, step.String()),
			}
		}
	}
	return Result{Outcome: primary}
}

// okResult wraps a successful non-command mutation (direct file edits)
// in a zero exit outcome so the engine classifies it uniformly.
func okResult(detail string) Result {
	return Result{Outcome: executor.Outcome{ExitCode: 0}, Detail: detail}
}

// failResult wraps a Go-side error as a failed outcome. Install errors
// are data to the engine, never faults.
func failResult(err error) Result {
	return Result{Outcome: executor.Outcome{ExitCode: 1, Stderr: err.Error()}}
}
