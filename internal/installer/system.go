package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
)

// applySetting writes one macOS preference, either through `defaults
// write` with typed arguments or as a raw shell command. The item owning
// the last Finder-affecting setting restarts Finder afterwards.
func (in *Installer) applySetting(ctx context.Context, item plan.Item) Result {
	s := item.Setting
	if s == nil {
		panic(fmt.Sprintf("installer: system-config item %q has no setting payload", item.Identifier))
	}

	var primary executor.Outcome
	if s.Shell != "" {
		primary = in.run.Run(ctx, executor.Command{Shell: s.Shell, Timeout: configTimeout})
	} else {
		args := []string{"write", s.Domain, s.Key}
		switch s.Type {
		case "bool":
			args = append(args, "-bool", s.Value)
		case "int":
			args = append(args, "-int", s.Value)
		case "float":
			args = append(args, "-float", s.Value)
		default:
			args = append(args, "-string", s.Value)
		}
		primary = in.run.Run(ctx, executor.Command{Name: "defaults", Args: args, Timeout: configTimeout})
	}
	if !primary.OK() {
		return Result{Outcome: primary}
	}

	var steps []executor.Command
	if s.RestartFinder {
		steps = append(steps, executor.Command{Name: "killall", Args: []string{"Finder"}, Timeout: configTimeout})
	}
	return in.postSteps(ctx, primary, item.Identifier, steps)
}

// generateSSHKey creates the configured key without a passphrase, then
// wires it into the keychain: a Host block in ~/.ssh/config and an
// ssh-add into the Apple keychain.
func (in *Installer) generateSSHKey(ctx context.Context, item plan.Item) Result {
	sshDir := filepath.Join(in.sys.Home, ".ssh")
	if err := os.MkdirAll(sshDir, 0700); err != nil {
		return failResult(fmt.Errorf("failed to create %s: %w", sshDir, err))
	}

	keyPath := filepath.Join(sshDir, item.Identifier)
	comment := in.cfg.User.Email

	primary := in.run.Run(ctx, executor.Command{
		Name:    "ssh-keygen",
		Args:    []string{"-t", in.cfg.SSH.KeyType, "-f", keyPath, "-C", comment, "-N", ""},
		Timeout: configTimeout,
	})
	if !primary.OK() {
		return Result{Outcome: primary}
	}

	if !config.Enabled(in.cfg.SSH.AddToKeychain) {
		in.showPublicKey(keyPath)
		return Result{Outcome: primary}
	}

	if err := in.writeSSHConfig(sshDir, keyPath); err != nil {
		return Result{
			Outcome:           executor.Outcome{ExitCode: 1, Stderr: err.Error()},
			PostInstallFailed: true,
			Detail:            "SSH key generated, but updating ~/.ssh/config failed",
		}
	}

	res := in.postSteps(ctx, primary, "SSH key", []executor.Command{{
		Name:    "ssh-add",
		Args:    []string{"--apple-use-keychain", keyPath},
		Timeout: configTimeout,
	}})
	if !res.PostInstallFailed {
		in.showPublicKey(keyPath)
	}
	return res
}

// writeSSHConfig appends the github.com Host block once.
func (in *Installer) writeSSHConfig(sshDir, keyPath string) error {
	configPath := filepath.Join(sshDir, "config")
	block := fmt.Sprintf(`
Host github.com
    AddKeysToAgent yes
    UseKeychain yes
    IdentityFile %s
`, keyPath)

	raw, err := os.ReadFile(configPath)
	if err == nil {
		if strings.Contains(string(raw), "Host github.com") {
			return nil
		}
		f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteString(block)
		return err
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(configPath, []byte(block), 0600)
}

// showPublicKey prints the public key so the user can paste it into
// GitHub right away.
func (in *Installer) showPublicKey(keyPath string) {
	pub, err := os.ReadFile(keyPath + ".pub")
	if err != nil {
		return
	}
	logger.Info("[INFO] Public key for GitHub:\n  %s\n", strings.TrimSpace(string(pub)))
	logger.Info("[INFO] Add it at https://github.com/settings/keys\n")
}

// applyGitConfig sets one global git key. Each identity field, the
// default branch, and each alias is its own plan item so a single bad
// value cannot block the rest.
func (in *Installer) applyGitConfig(ctx context.Context, item plan.Item) Result {
	out := in.run.Run(ctx, executor.Command{
		Name:    "git",
		Args:    []string{"config", "--global", item.GitKey, item.GitValue},
		Timeout: configTimeout,
	})
	return Result{Outcome: out}
}
