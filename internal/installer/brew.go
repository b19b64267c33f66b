package installer

import (
	"context"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/plan"
)

// homebrewInstallScript is the upstream bootstrap command. NONINTERACTIVE
// suppresses the script's confirmation prompt, which would otherwise
// hang until the timeout.
const homebrewInstallScript = `NONINTERACTIVE=1 /bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"`

// installHomebrew bootstraps the package manager itself. When the config
// asks for it, `brew update` runs as a follow-up so the formula database
// is current before any package items execute.
func (in *Installer) installHomebrew(ctx context.Context) Result {
	out := in.run.Run(ctx, executor.Command{
		Shell:   homebrewInstallScript,
		Timeout: toolchainTimeout,
	})
	if !out.OK() {
		return Result{Outcome: out}
	}

	var steps []executor.Command
	if config.Enabled(in.cfg.Packages.Homebrew.Update) {
		steps = append(steps, executor.Command{
			Name:    in.sys.BrewBin(),
			Args:    []string{"update"},
			Timeout: cliTimeout,
		})
	}
	return in.postSteps(ctx, out, "Homebrew", steps)
}

// installGuiApp installs a GUI application as a Homebrew cask. --force
// keeps Homebrew authoritative even when an app bundle was dragged into
// /Applications by hand.
func (in *Installer) installGuiApp(ctx context.Context, item plan.Item) Result {
	out := in.run.Run(ctx, executor.Command{
		Name:    in.sys.BrewBin(),
		Args:    []string{"install", "--cask", "--force", item.Identifier},
		Timeout: guiTimeout,
	})
	return Result{Outcome: out}
}

// installCliTool installs a Homebrew formula. Linkable tools (yarn,
// pnpm) get a `brew link --overwrite` follow-up so their shims win over
// any preexisting binaries.
func (in *Installer) installCliTool(ctx context.Context, item plan.Item) Result {
	out := in.run.Run(ctx, executor.Command{
		Name:    in.sys.BrewBin(),
		Args:    []string{"install", "--force", item.Identifier},
		Timeout: cliTimeout,
	})
	if !out.OK() {
		return Result{Outcome: out}
	}

	var steps []executor.Command
	if item.Linkable {
		steps = append(steps, executor.Command{
			Name:    in.sys.BrewBin(),
			Args:    []string{"link", "--overwrite", item.Identifier},
			Timeout: configTimeout,
		})
	}
	return in.postSteps(ctx, out, item.Identifier, steps)
}
