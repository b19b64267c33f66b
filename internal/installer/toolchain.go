package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
)

// installToolchain dispatches the language-toolchain items.
func (in *Installer) installToolchain(ctx context.Context, item plan.Item) Result {
	switch item.Identifier {
	case "rust":
		return in.installRust(ctx)
	case "node":
		return in.installNode(ctx)
	default:
		panic(fmt.Sprintf("installer: unknown toolchain %q", item.Identifier))
	}
}

// installRust installs the Rust toolchain: rustup via Homebrew, then the
// toolchain itself, then components and configured cargo tools as
// follow-up steps.
func (in *Installer) installRust(ctx context.Context) Result {
	if !in.brewListed(ctx, "rustup") {
		out := in.run.Run(ctx, executor.Command{
			Name:    in.sys.BrewBin(),
			Args:    []string{"install", "rustup"},
			Timeout: cliTimeout,
		})
		if !out.OK() {
			return Result{Outcome: out, Detail: "failed to install rustup via Homebrew"}
		}
	}

	// rustup-init lands in the Homebrew prefix; the toolchain it
	// installs lands under ~/.cargo.
	primary := in.run.Run(ctx, executor.Command{
		Name:    filepath.Join(in.sys.BrewPrefix, "bin", "rustup-init"),
		Args:    []string{"-y"},
		Timeout: toolchainTimeout,
	})
	if !primary.OK() {
		return Result{Outcome: primary}
	}

	cargoBin := filepath.Join(in.sys.Home, ".cargo", "bin")
	steps := []executor.Command{{
		Name:    filepath.Join(cargoBin, "rustup"),
		Args:    []string{"component", "add", "clippy", "rustfmt"},
		Timeout: cliTimeout,
	}}
	for _, tool := range in.cfg.Development.Rust.CargoTools {
		steps = append(steps, executor.Command{
			Name:    filepath.Join(cargoBin, "cargo"),
			Args:    []string{"install", "--force", tool},
			Timeout: cliTimeout,
		})
	}
	return in.postSteps(ctx, primary, "Rust toolchain", steps)
}

// installNode installs Node.js through NVM: nvm via Homebrew, then the
// configured version through nvm's shell function, then global npm
// packages as follow-up steps.
func (in *Installer) installNode(ctx context.Context) Result {
	if !in.brewListed(ctx, "nvm") {
		out := in.run.Run(ctx, executor.Command{
			Name:    in.sys.BrewBin(),
			Args:    []string{"install", "nvm"},
			Timeout: cliTimeout,
		})
		if !out.OK() {
			return Result{Outcome: out, Detail: "failed to install nvm via Homebrew"}
		}
		if err := os.MkdirAll(filepath.Join(in.sys.Home, ".nvm"), 0755); err != nil {
			return failResult(fmt.Errorf("failed to create ~/.nvm: %w", err))
		}
	}

	version := in.cfg.Development.Node.Version
	if version == "lts" || version == "LTS" {
		version = "--lts"
	}

	primary := in.run.Run(ctx, executor.Command{
		Shell:   in.nvmScript(fmt.Sprintf("nvm install %[1]s && nvm use %[1]s && nvm alias default %[1]s", version)),
		Timeout: toolchainTimeout,
	})
	if !primary.OK() {
		return Result{Outcome: primary}
	}

	// Linking node through brew is best-effort compatibility glue; nvm
	// owns the real install, so a link failure is not a follow-up failure.
	if out := in.run.Run(ctx, executor.Command{
		Name:    in.sys.BrewBin(),
		Args:    []string{"link", "node"},
		Timeout: configTimeout,
	}); !out.OK() {
		logger.Debug("[DEBUG] brew link node skipped: %s\n", out.Output())
	}

	var steps []executor.Command
	for _, pkg := range in.cfg.Development.Node.NpmPackages {
		steps = append(steps, executor.Command{
			Shell:   in.nvmScript("npm install -g " + pkg),
			Timeout: cliTimeout,
		})
	}
	return in.postSteps(ctx, primary, "Node.js", steps)
}

// nvmScript wraps a command with the NVM sourcing preamble, since nvm is
// a shell function rather than a binary.
func (in *Installer) nvmScript(cmd string) string {
	return fmt.Sprintf(`export NVM_DIR="$HOME/.nvm"
[ -s "$NVM_DIR/nvm.sh" ] && . "$NVM_DIR/nvm.sh"
[ -s "%[1]s/opt/nvm/nvm.sh" ] && . "%[1]s/opt/nvm/nvm.sh"
%[2]s`, in.sys.BrewPrefix, cmd)
}
