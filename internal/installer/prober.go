package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
)

// IsPresent reports whether the item is already installed or applied.
// Probes are pure reads bounded by probeTimeout. The check is
// deliberately conservative: when a probe is ambiguous (the probe
// command itself fails, brew is missing, a file cannot be read) it
// answers "not present", because a redundant idempotent install is
// cheaper than silently skipping a missing one.
func (in *Installer) IsPresent(ctx context.Context, item plan.Item) bool {
	switch item.Category {
	case plan.PackageManager:
		_, err := os.Stat(in.sys.BrewBin())
		return err == nil

	case plan.GuiApp:
		return in.brewListed(ctx, "--cask", item.Identifier)

	case plan.CliTool:
		return in.brewListed(ctx, item.Identifier)

	case plan.LanguageToolchain:
		return in.toolchainPresent(item.Identifier)

	case plan.ShellFramework:
		return in.shellFrameworkPresent(ctx, item.Identifier)

	case plan.SystemConfig:
		return in.settingApplied(ctx, item)

	case plan.SshKey:
		_, err := os.Stat(filepath.Join(in.sys.Home, ".ssh", item.Identifier))
		return err == nil

	case plan.GitConfig:
		out := in.run.Run(ctx, executor.Command{
			Name:    "git",
			Args:    []string{"config", "--global", "--get", item.GitKey},
			Timeout: probeTimeout,
		})
		return out.OK() && strings.TrimSpace(out.Stdout) == item.GitValue

	case plan.Font:
		matches, err := filepath.Glob(filepath.Join(in.sys.Home, "Library", "Fonts", item.Identifier+"*"))
		return err == nil && len(matches) > 0

	default:
		panic(fmt.Sprintf("installer: unknown plan category %q", item.Category))
	}
}

// brewListed asks the local Homebrew receipt database whether a formula
// or cask is installed. Any failure (including brew itself missing)
// counts as not installed.
func (in *Installer) brewListed(ctx context.Context, args ...string) bool {
	out := in.run.Run(ctx, executor.Command{
		Name:    in.sys.BrewBin(),
		Args:    append([]string{"list"}, args...),
		Timeout: probeTimeout,
	})
	return out.OK()
}

// toolchainPresent checks version marker files rather than shelling out:
// rustup leaves rustc under ~/.cargo/bin, NVM keeps installed versions
// under ~/.nvm/versions/node.
func (in *Installer) toolchainPresent(identifier string) bool {
	switch identifier {
	case "rust":
		_, err := os.Stat(filepath.Join(in.sys.Home, ".cargo", "bin", "rustc"))
		return err == nil
	case "node":
		entries, err := os.ReadDir(filepath.Join(in.sys.Home, ".nvm", "versions", "node"))
		return err == nil && len(entries) > 0
	default:
		return false
	}
}

func (in *Installer) shellFrameworkPresent(ctx context.Context, identifier string) bool {
	switch identifier {
	case "oh-my-zsh":
		_, err := os.Stat(filepath.Join(in.sys.Home, ".oh-my-zsh"))
		return err == nil
	case "starship":
		return in.brewListed(ctx, "starship")
	case "shell-paths":
		// The brew shellenv line is the first block the strategy adds;
		// its presence means PATH wiring already ran to completion.
		raw, err := os.ReadFile(in.shellRC())
		return err == nil && strings.Contains(string(raw), "brew shellenv")
	default:
		return false
	}
}

// settingApplied compares the live `defaults` value against the desired
// one. Raw shell settings (chflags) cannot be read back cheaply and are
// treated as not applied; re-running them is harmless.
func (in *Installer) settingApplied(ctx context.Context, item plan.Item) bool {
	s := item.Setting
	if s == nil || s.Shell != "" {
		return false
	}
	out := in.run.Run(ctx, executor.Command{
		Name:    "defaults",
		Args:    []string{"read", s.Domain, s.Key},
		Timeout: probeTimeout,
	})
	if !out.OK() {
		return false
	}
	applied := defaultsValuesEqual(s.Type, strings.TrimSpace(out.Stdout), s.Value)
	if applied {
		logger.Debug("[DEBUG] Setting %s:%s already %s\n", s.Domain, s.Key, s.Value)
	}
	return applied
}

// defaultsValuesEqual normalizes the `defaults read` output, which
// renders booleans as 0/1 regardless of how they were written.
func defaultsValuesEqual(typ, actual, want string) bool {
	if typ == "bool" {
		return normalizeBool(actual) == normalizeBool(want)
	}
	return strings.EqualFold(actual, want)
}

func normalizeBool(v string) string {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return "1"
	default:
		return "0"
	}
}
