package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"macos-bootstrap/internal/logger"
)

// Synthetic exit codes for outcomes that never produced a real one.
// 124 follows the coreutils timeout convention, 127 the shell's
// command-not-found convention.
const (
	ExitTimedOut = 124
	ExitNotFound = 127
)

// waitGrace bounds how long Run keeps waiting on the stdio pipes after
// the process exits or the deadline fires. Install scripts background
// helper processes that inherit the pipes; without this cutoff a
// backgrounded child would hold Run open until it exits, long past the
// timeout ceiling.
const waitGrace = time.Second

// Command describes one external invocation. When Shell is set, the
// command runs through `/bin/bash -c` and Name/Args are ignored.
type Command struct {
	Name    string
	Args    []string
	Shell   string
	Dir     string
	Timeout time.Duration
}

// String renders the command the way it would be typed at a prompt.
func (c Command) String() string {
	if c.Shell != "" {
		return c.Shell
	}
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Outcome is the structured result of one invocation. Execution failures
// are data, not errors: a missing executable or an expired timeout is
// represented here, never raised to the caller.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
	TimedOut bool
}

// OK reports whether the command completed with a zero exit code.
func (o Outcome) OK() bool {
	return !o.TimedOut && o.ExitCode == 0
}

// Output returns stderr if present, otherwise stdout. Used for failure
// detail messages and transient-error matching.
func (o Outcome) Output() string {
	if strings.TrimSpace(o.Stderr) != "" {
		return o.Stderr
	}
	return o.Stdout
}

// Runner is the execution interface the prober, strategies, and notifier
// depend on. Tests substitute a stub to avoid touching the system.
type Runner interface {
	Run(ctx context.Context, cmd Command) Outcome
}

// Executor runs commands in isolated child processes with a hard timeout
// ceiling. It retains no state between calls.
type Executor struct{}

// New returns a ready Executor.
func New() *Executor {
	return &Executor{}
}

// Run executes cmd, blocking until the process exits or the timeout
// fires, whichever comes first. On timeout the process is killed and the
// outcome is marked TimedOut with a synthetic exit code.
func (e *Executor) Run(ctx context.Context, cmd Command) Outcome {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	var c *exec.Cmd
	if cmd.Shell != "" {
		c = exec.CommandContext(ctx, "/bin/bash", "-c", cmd.Shell)
	} else {
		c = exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	}
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	c.WaitDelay = waitGrace

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	logger.Debug("[DEBUG] Executing: %s\n", cmd.String())

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	outcome := Outcome{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: elapsed,
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		outcome.TimedOut = true
		outcome.ExitCode = ExitTimedOut
		if outcome.Stderr == "" {
			outcome.Stderr = fmt.Sprintf("command timed out after %s", cmd.Timeout)
		}
		logger.Debug("[DEBUG] Command timed out after %s: %s\n", cmd.Timeout, cmd.String())
	case err == nil:
		outcome.ExitCode = 0
	case errors.Is(err, exec.ErrWaitDelay):
		// The process exited cleanly but a background child still held
		// the stdio pipes past the grace cutoff. The command itself
		// succeeded; output captured so far is kept.
		outcome.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else if errors.Is(err, exec.ErrNotFound) {
			outcome.ExitCode = ExitNotFound
			if outcome.Stderr == "" {
				outcome.Stderr = err.Error()
			}
		} else {
			// Start failures (bad dir, permission denied) have no exit
			// code of their own; surface the error text as stderr.
			outcome.ExitCode = 1
			if outcome.Stderr == "" {
				outcome.Stderr = err.Error()
			}
		}
		logger.Debug("[DEBUG] Command exited %d: %s\n", outcome.ExitCode, cmd.String())
	}

	if outcome.Stdout != "" {
		logger.Debug("[DEBUG] STDOUT:\n%s", outcome.Stdout)
	}
	if outcome.Stderr != "" {
		logger.Debug("[DEBUG] STDERR:\n%s", outcome.Stderr)
	}

	return outcome
}
