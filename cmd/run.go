package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"macos-bootstrap/internal/config"
	"macos-bootstrap/internal/engine"
	"macos-bootstrap/internal/executor"
	"macos-bootstrap/internal/installer"
	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/notify"
	"macos-bootstrap/internal/plan"
	"macos-bootstrap/internal/report"
	"macos-bootstrap/internal/sysinfo"
)

var (
	configPath      string
	modeFlag        string
	dryRun          bool
	noNotifications bool
	onlyFlag        []string
)

// runCmd executes the whole bootstrap plan from a configuration file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision this machine from a config file",
	Long: `Builds the ordered install plan from the configuration file, probes each
item for presence, and installs whatever is missing. The run always
completes and reports every item; partial failure is signaled through
the exit code and the completion notification.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if modeFlag != "" {
			cfg.Output.Mode = config.OutputMode(modeFlag)
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		only, err := parseOnly(onlyFlag)
		if err != nil {
			return err
		}

		level := consoleLevel(cfg.Output.Mode)
		if debug && level < logger.LevelVerbose {
			level = logger.LevelVerbose
		}
		logger.Init(level)

		sys := sysinfo.Detect()
		logPath, err := logger.OpenLogFile(filepath.Join(sys.Home, "macos_setup_logs"))
		if err != nil {
			logger.Warn("[WARN] Continuing without a log file: %v\n", err)
		} else {
			defer logger.CloseLogFile()
		}

		items := plan.Filter(plan.Build(cfg), only)
		if len(items) == 0 {
			return fmt.Errorf("nothing to do: the configuration enables no plan items")
		}

		printBanner(cfg, sys, items, logPath)

		exec := executor.New()
		inst := installer.New(exec, cfg, sys)
		notifier := notify.New(exec, cfg.Notifications, noNotifications || dryRun)
		console := report.NewConsole(cfg.Output.Mode, config.Enabled(cfg.Output.ShowTimeRemaining))

		notifier.Send("macOS Setup", "Starting development environment setup...")

		eng := engine.New(inst, inst, engine.MultiSink{console, notifier}, sys.Arch, dryRun)
		rep := eng.Run(cmd.Context(), items)

		logger.CloseLogFile()
		os.Exit(rep.ExitCode())
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (JSON or YAML)")
	runCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Output mode: minimal, normal, or verbose")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Probe and plan, but install nothing")
	runCmd.Flags().BoolVar(&noNotifications, "no-notifications", false, "Disable macOS notifications")
	runCmd.Flags().StringSliceVar(&onlyFlag, "only", nil, "Only run the given categories (e.g. cli-tool,gui-app)")
	_ = runCmd.MarkFlagRequired("config")
}

// parseOnly resolves the --only category names.
func parseOnly(names []string) ([]plan.Category, error) {
	var out []plan.Category
	for _, name := range names {
		c, err := plan.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func consoleLevel(mode config.OutputMode) logger.Level {
	switch mode {
	case config.ModeMinimal:
		return logger.LevelMinimal
	case config.ModeVerbose:
		return logger.LevelVerbose
	default:
		return logger.LevelNormal
	}
}

// printBanner shows what the run is about to do: mode, log location,
// total estimate, and the ordered step list.
func printBanner(cfg *config.Config, sys sysinfo.Info, items []plan.Item, logPath string) {
	logger.Info("Starting macOS development environment setup\n")
	logger.Info("User: %s <%s>  architecture: %s\n", cfg.User.Name, cfg.User.Email, sys.Arch)
	if logPath != "" {
		logger.Info("Log file: %s\n", logPath)
	}
	if config.Enabled(cfg.Output.ShowTimeRemaining) {
		logger.Info("Estimated time: %s\n", (time.Duration(plan.TotalEstimate(items)) * time.Second).String())
	}
	if dryRun {
		logger.Info("Dry run: nothing will be installed\n")
	}

	logger.Info("Steps to execute:\n")
	for i, item := range items {
		logger.Info("  %2d. %s\n", i+1, item.Detail)
	}
}
