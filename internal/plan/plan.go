package plan

import (
	"fmt"
	"sort"
	"strings"

	"macos-bootstrap/internal/config"
)

// Category tags one kind of installable unit. The set is closed: every
// item in a plan carries exactly one of these, and the installer
// dispatches on it.
type Category string

const (
	PackageManager    Category = "package-manager"
	GuiApp            Category = "gui-app"
	CliTool           Category = "cli-tool"
	LanguageToolchain Category = "language-toolchain"
	ShellFramework    Category = "shell-framework"
	SystemConfig      Category = "system-config"
	SshKey            Category = "ssh-key"
	GitConfig         Category = "git-config"
	Font              Category = "font"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	PackageManager, GuiApp, CliTool, LanguageToolchain,
	ShellFramework, SystemConfig, SshKey, GitConfig, Font,
}

// ParseCategory resolves a user-supplied category name (for --only).
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == strings.TrimSpace(strings.ToLower(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Setting is the resolved payload of a SystemConfig item: either a
// `defaults write` invocation or a raw shell command.
type Setting struct {
	Domain string
	Key    string
	Value  string
	Type   string // bool, int, float, or string
	Shell  string // when set, run this instead of defaults write
	// RestartFinder marks the last Finder-affecting setting; the
	// strategy runs `killall Finder` after applying it.
	RestartFinder bool
}

// Item is one unit of work in a plan. Identifier+Category is unique
// within a plan; items carry no dependency edges, so one item's failure
// never blocks another.
type Item struct {
	Identifier      string
	Category        Category
	Detail          string
	EstimateSeconds int

	// Category-specific payloads. Only the field matching Category is set.
	Setting  *Setting
	Font     *config.Font
	GitKey   string
	GitValue string
	// Linkable marks formulas that need `brew link --overwrite` after
	// install (yarn, pnpm).
	Linkable bool
}

// Name returns the display form "category/identifier".
func (i Item) Name() string {
	return fmt.Sprintf("%s/%s", i.Category, i.Identifier)
}

// Build assembles the ordered plan from a validated configuration. The
// order mirrors the manual bootstrap sequence: preferences first, then
// the package manager, keys and git identity, toolchains, shell
// frameworks, packages, fonts, and finally the shell PATH wiring.
func Build(cfg *config.Config) []Item {
	var items []Item

	items = append(items, settingItems(cfg)...)

	if config.Enabled(cfg.Packages.Homebrew.Install) {
		items = append(items, Item{
			Identifier:      "homebrew",
			Category:        PackageManager,
			Detail:          "Install or update Homebrew",
			EstimateSeconds: cfg.Estimate("configuration"),
		})
	}

	if config.Enabled(cfg.SSH.GenerateKey) {
		items = append(items, Item{
			Identifier:      fmt.Sprintf("id_%s_%s", cfg.SSH.KeyType, cfg.SSH.KeyName),
			Category:        SshKey,
			Detail:          fmt.Sprintf("Generate %s SSH key for GitHub", cfg.SSH.KeyType),
			EstimateSeconds: cfg.Estimate("configuration"),
		})
	}

	items = append(items, gitItems(cfg)...)

	if config.Enabled(cfg.Development.Rust.Install) {
		items = append(items, Item{
			Identifier:      "rust",
			Category:        LanguageToolchain,
			Detail:          "Install Rust toolchain via rustup",
			EstimateSeconds: cfg.Estimate("rust_install"),
		})
	}
	if config.Enabled(cfg.Development.Node.Install) {
		items = append(items, Item{
			Identifier:      "node",
			Category:        LanguageToolchain,
			Detail:          fmt.Sprintf("Install Node.js %s via NVM", cfg.Development.Node.Version),
			EstimateSeconds: cfg.Estimate("node_install"),
		})
	}

	if config.Enabled(cfg.Shell.OhMyZsh.Install) {
		items = append(items, Item{
			Identifier:      "oh-my-zsh",
			Category:        ShellFramework,
			Detail:          "Install Oh My Zsh and plugins",
			EstimateSeconds: cfg.Estimate("oh_my_zsh"),
		})
	}
	if config.Enabled(cfg.Shell.Starship.Install) {
		items = append(items, Item{
			Identifier:      "starship",
			Category:        ShellFramework,
			Detail:          "Install and configure Starship prompt",
			EstimateSeconds: cfg.Estimate("oh_my_zsh"),
		})
	}

	if config.Enabled(cfg.Packages.GuiApps.Enabled) {
		for _, app := range cfg.Packages.GuiApps.Apps {
			items = append(items, Item{
				Identifier:      app,
				Category:        GuiApp,
				Detail:          fmt.Sprintf("Install GUI app %s", app),
				EstimateSeconds: cfg.Estimate("gui_app"),
			})
		}
	}
	if config.Enabled(cfg.Packages.CliTools.Enabled) {
		for _, tool := range cfg.Packages.CliTools.Tools {
			items = append(items, Item{
				Identifier:      tool,
				Category:        CliTool,
				Detail:          fmt.Sprintf("Install CLI tool %s", tool),
				EstimateSeconds: cfg.Estimate("cli_tool"),
				Linkable:        tool == "yarn" || tool == "pnpm",
			})
		}
	}

	for i := range cfg.Fonts {
		f := cfg.Fonts[i]
		items = append(items, Item{
			Identifier:      f.Name,
			Category:        Font,
			Detail:          fmt.Sprintf("Install font %s from %s", f.Name, f.Repo),
			EstimateSeconds: cfg.Estimate("font"),
			Font:            &f,
		})
	}

	// PATH wiring depends on everything above, so it goes last.
	items = append(items, Item{
		Identifier:      "shell-paths",
		Category:        ShellFramework,
		Detail:          "Configure shell PATH entries for installed tools",
		EstimateSeconds: cfg.Estimate("configuration"),
	})

	return items
}

// settingItems expands the macOS preference toggles into SystemConfig items.
func settingItems(cfg *config.Config) []Item {
	if !config.Enabled(cfg.MacOS.Configure) {
		return nil
	}

	s := cfg.MacOS.Settings
	estimate := cfg.Estimate("configuration")
	var items []Item

	add := func(id, detail string, setting Setting) {
		items = append(items, Item{
			Identifier:      id,
			Category:        SystemConfig,
			Detail:          detail,
			EstimateSeconds: estimate,
			Setting:         &setting,
		})
	}

	if s.ScreenshotsFormat != "" {
		add("screenshots-format",
			fmt.Sprintf("Set screenshots to %s format", strings.ToUpper(s.ScreenshotsFormat)),
			Setting{Domain: "com.apple.screencapture", Key: "type", Value: s.ScreenshotsFormat, Type: "string"})
	}
	if config.Enabled(s.ShowHiddenFiles) {
		add("show-hidden-files", "Show hidden files in Finder",
			Setting{Domain: "com.apple.finder", Key: "AppleShowAllFiles", Value: "YES", Type: "string"})
	}
	if config.Enabled(s.ShowLibraryFolder) {
		add("show-library-folder", "Show the ~/Library folder",
			Setting{Shell: "chflags nohidden ~/Library"})
	}
	if config.Enabled(s.FinderPathBar) {
		add("finder-path-bar", "Show path bar in Finder",
			Setting{Domain: "com.apple.finder", Key: "ShowPathbar", Value: "true", Type: "bool"})
	}
	if config.Enabled(s.FinderStatusBar) {
		add("finder-status-bar", "Show status bar in Finder",
			Setting{Domain: "com.apple.finder", Key: "ShowStatusBar", Value: "true", Type: "bool"})
	}

	// Finder only picks up defaults changes on restart; the last
	// Finder-domain item owns the killall.
	for i := len(items) - 1; i >= 0; i-- {
		set := items[i].Setting
		if set.Domain == "com.apple.finder" || set.Shell != "" {
			set.RestartFinder = true
			break
		}
	}

	return items
}

// gitItems expands git identity, default branch, and aliases into
// individual GitConfig items so each key gets its own probe and result.
func gitItems(cfg *config.Config) []Item {
	if !config.Enabled(cfg.Git.Configure) {
		return nil
	}

	estimate := cfg.Estimate("configuration")
	var items []Item

	add := func(key, value string) {
		items = append(items, Item{
			Identifier:      key,
			Category:        GitConfig,
			Detail:          fmt.Sprintf("Set git %s to %q", key, value),
			EstimateSeconds: estimate,
			GitKey:          key,
			GitValue:        value,
		})
	}

	if cfg.User.Name != "" {
		add("user.name", cfg.User.Name)
	}
	if cfg.User.Email != "" {
		add("user.email", cfg.User.Email)
	}
	add("init.defaultBranch", cfg.Git.DefaultBranch)

	if config.Enabled(cfg.Git.Aliases.Enabled) {
		// Deterministic order for a stable plan.
		keys := make([]string, 0, len(cfg.Git.Aliases.Custom))
		for alias := range cfg.Git.Aliases.Custom {
			keys = append(keys, alias)
		}
		sort.Strings(keys)
		for _, alias := range keys {
			add("alias."+alias, cfg.Git.Aliases.Custom[alias])
		}
	}

	return items
}

// Filter returns the items whose category is in keep. An empty keep set
// returns the plan unchanged.
func Filter(items []Item, keep []Category) []Item {
	if len(keep) == 0 {
		return items
	}
	set := make(map[Category]bool, len(keep))
	for _, c := range keep {
		set[c] = true
	}
	var out []Item
	for _, it := range items {
		if set[it.Category] {
			out = append(out, it)
		}
	}
	return out
}

// TotalEstimate sums the per-item estimates, for the startup display.
func TotalEstimate(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.EstimateSeconds
	}
	return total
}
