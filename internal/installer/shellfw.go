package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
)

const ohMyZshInstallScript = `sh -c "$(curl -fsSL https://raw.githubusercontent.com/ohmyzsh/ohmyzsh/master/tools/install.sh)" "" --unattended`

// Custom plugins that have to be cloned; everything else ships bundled
// with Oh My Zsh and only needs the plugins= line.
var ohMyZshPluginRepos = map[string]string{
	"zsh-autosuggestions":     "https://github.com/zsh-users/zsh-autosuggestions",
	"zsh-syntax-highlighting": "https://github.com/zsh-users/zsh-syntax-highlighting",
	"zsh-completions":         "https://github.com/zsh-users/zsh-completions",
}

var pluginsLineRe = regexp.MustCompile(`(?m)^plugins=\([^)]*\)`)

// installShellFramework dispatches the shell-framework items.
func (in *Installer) installShellFramework(ctx context.Context, item plan.Item) Result {
	switch item.Identifier {
	case "oh-my-zsh":
		return in.installOhMyZsh(ctx)
	case "starship":
		return in.installStarship(ctx)
	case "shell-paths":
		return in.configureShellPaths(ctx)
	default:
		panic(fmt.Sprintf("installer: unknown shell framework %q", item.Identifier))
	}
}

// installOhMyZsh runs the unattended upstream installer, clones the
// configured custom plugins, and rewrites the plugins= line in .zshrc.
func (in *Installer) installOhMyZsh(ctx context.Context) Result {
	primary := in.run.Run(ctx, executor.Command{
		Shell:   ohMyZshInstallScript,
		Timeout: shellTimeout,
	})
	if !primary.OK() {
		return Result{Outcome: primary}
	}

	plugins := in.cfg.Shell.OhMyZsh.Plugins
	if len(plugins) == 0 {
		return Result{Outcome: primary}
	}

	pluginsDir := filepath.Join(in.sys.Home, ".oh-my-zsh", "custom", "plugins")
	var steps []executor.Command
	for _, plugin := range plugins {
		repo, custom := ohMyZshPluginRepos[plugin]
		if !custom {
			continue
		}
		dir := filepath.Join(pluginsDir, plugin)
		if _, err := os.Stat(dir); err == nil {
			logger.Debug("[DEBUG] Plugin %s already cloned\n", plugin)
			continue
		}
		steps = append(steps, executor.Command{
			Name:    "git",
			Args:    []string{"clone", repo, dir},
			Timeout: cliTimeout,
		})
	}
	res := in.postSteps(ctx, primary, "Oh My Zsh", steps)
	if res.PostInstallFailed {
		return res
	}

	if err := in.writePluginsLine(plugins); err != nil {
		return Result{
			Outcome:           executor.Outcome{ExitCode: 1, Stderr: err.Error()},
			PostInstallFailed: true,
			Detail:            "Oh My Zsh installed, but updating the .zshrc plugins line failed",
		}
	}
	return res
}

// writePluginsLine replaces the plugins=(...) line in .zshrc with the
// configured plugin list.
func (in *Installer) writePluginsLine(plugins []string) error {
	zshrc := filepath.Join(in.sys.Home, ".zshrc")
	raw, err := os.ReadFile(zshrc)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // nothing to rewrite; omz install creates it next run
		}
		return err
	}
	updated := pluginsLineRe.ReplaceAllString(string(raw), fmt.Sprintf("plugins=(%s)", strings.Join(plugins, " ")))
	if updated == string(raw) {
		return nil
	}
	logger.Info("[INFO] Updated .zshrc plugins: %s\n", strings.Join(plugins, ", "))
	return os.WriteFile(zshrc, []byte(updated), 0644)
}

const starshipDefaultConfig = `# Starship configuration
[character]
success_symbol = "[>](bold green)"
error_symbol = "[x](bold red)"

[directory]
truncation_length = 3
truncate_to_repo = true
`

// installStarship installs the prompt via Homebrew, then wires the init
// line into .zshrc and drops a starter starship.toml when configured.
func (in *Installer) installStarship(ctx context.Context) Result {
	primary := in.run.Run(ctx, executor.Command{
		Name:    in.sys.BrewBin(),
		Args:    []string{"install", "starship"},
		Timeout: cliTimeout,
	})
	if !primary.OK() || !config.Enabled(in.cfg.Shell.Starship.Configure) {
		return Result{Outcome: primary}
	}

	if err := in.appendToShellRC("# Starship prompt", `eval "$(starship init zsh)"`); err != nil {
		return Result{
			Outcome:           executor.Outcome{ExitCode: 1, Stderr: err.Error()},
			PostInstallFailed: true,
			Detail:            "Starship installed, but updating .zshrc failed",
		}
	}

	configDir := filepath.Join(in.sys.Home, ".config")
	tomlPath := filepath.Join(configDir, "starship.toml")
	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0755); err == nil {
			err = os.WriteFile(tomlPath, []byte(starshipDefaultConfig), 0644)
		}
		if err != nil {
			return Result{
				Outcome:           executor.Outcome{ExitCode: 1, Stderr: err.Error()},
				PostInstallFailed: true,
				Detail:            "Starship installed, but writing starship.toml failed",
			}
		}
		logger.Info("[INFO] Created %s\n", tomlPath)
	}

	return Result{Outcome: primary}
}

// configureShellPaths appends the PATH blocks for everything installed
// earlier in the run: brew shellenv, cargo, NVM sourcing, and fzf
// integration. Each block is added once; reruns are no-ops.
func (in *Installer) configureShellPaths(ctx context.Context) Result {
	rcPath := in.shellRC()
	raw, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return failResult(fmt.Errorf("failed to read %s: %w", rcPath, err))
	}
	content := string(raw)

	var additions []string

	if !strings.Contains(content, "brew shellenv") {
		if _, err := os.Stat(in.sys.BrewBin()); err == nil {
			additions = append(additions,
				fmt.Sprintf("\n# Homebrew\neval \"$(%s shellenv)\"", in.sys.BrewBin()))
		}
	}

	cargoBin := filepath.Join(in.sys.Home, ".cargo", "bin")
	if _, err := os.Stat(cargoBin); err == nil && !strings.Contains(content, ".cargo/bin") {
		additions = append(additions,
			"\n# Rust/Cargo\nexport PATH=\"$HOME/.cargo/bin:$PATH\"")
	}

	if _, err := os.Stat(filepath.Join(in.sys.Home, ".nvm")); err == nil && !strings.Contains(content, "NVM_DIR") {
		nvmOpt := filepath.Join(in.sys.BrewPrefix, "opt", "nvm")
		additions = append(additions, fmt.Sprintf(`
# NVM (Node Version Manager)
export NVM_DIR="$HOME/.nvm"
[ -s "%[1]s/nvm.sh" ] && . "%[1]s/nvm.sh"
[ -s "%[1]s/etc/bash_completion.d/nvm" ] && . "%[1]s/etc/bash_completion.d/nvm"`, nvmOpt))
	}

	if !strings.Contains(content, "fzf") {
		if probe := in.run.Run(ctx, executor.Command{
			Name:    "which",
			Args:    []string{"fzf"},
			Timeout: probeTimeout,
		}); probe.OK() {
			fzfInstall := filepath.Join(in.sys.BrewPrefix, "opt", "fzf", "install")
			if _, err := os.Stat(fzfInstall); err == nil {
				out := in.run.Run(ctx, executor.Command{
					Name:    fzfInstall,
					Args:    []string{"--key-bindings", "--completion", "--no-update-rc"},
					Timeout: configTimeout,
				})
				if !out.OK() {
					logger.Debug("[DEBUG] fzf integration setup skipped: %s\n", out.Output())
				}
				fzfRC := filepath.Join(in.sys.Home, ".fzf.zsh")
				if _, err := os.Stat(fzfRC); err == nil {
					additions = append(additions,
						fmt.Sprintf("\n# FZF\n[ -f %[1]s ] && source %[1]s", fzfRC))
				}
			}
		}
	}

	if len(additions) == 0 {
		return okResult("all PATH entries already present")
	}

	f, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return failResult(fmt.Errorf("failed to open %s: %w", rcPath, err))
	}
	defer f.Close()
	if _, err := f.WriteString("\n" + strings.Join(additions, "\n") + "\n"); err != nil {
		return failResult(fmt.Errorf("failed to update %s: %w", rcPath, err))
	}

	return okResult(fmt.Sprintf("added %d PATH entries to %s", len(additions), filepath.Base(rcPath)))
}

// appendToShellRC appends a commented block to the rc file unless the
// line is already present.
func (in *Installer) appendToShellRC(comment, line string) error {
	rcPath := in.shellRC()
	raw, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if strings.Contains(string(raw), line) {
		return nil
	}
	f, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(fmt.Sprintf("\n%s\n%s\n", comment, line))
	return err
}

// shellRC returns the rc file for the user's shell, defaulting to zsh
// (the macOS default since Catalina).
func (in *Installer) shellRC() string {
	if strings.Contains(os.Getenv("SHELL"), "bash") {
		return filepath.Join(in.sys.Home, ".bash_profile")
	}
	return filepath.Join(in.sys.Home, ".zshrc")
}
