package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macos-bootstrap/internal/config"
)

func boolPtr(b bool) *bool { return &b }

// fullConfig enables every section, the way a realistic machine config does.
func fullConfig() *config.Config {
	return &config.Config{
		User: config.User{Name: "Dev", Email: "dev@example.com"},
		MacOS: config.MacOS{Settings: config.MacOSSettings{
			ScreenshotsFormat: "jpg",
		}},
		Git: config.Git{
			DefaultBranch: "main",
			Aliases: config.GitAliases{Custom: map[string]string{
				"st": "status",
				"co": "checkout",
				"br": "branch",
			}},
		},
		SSH: config.SSH{KeyType: "ed25519", KeyName: "github"},
		Packages: config.Packages{
			GuiApps:  config.GuiApps{Apps: []string{"firefox", "visual-studio-code"}},
			CliTools: config.CliTools{Tools: []string{"ripgrep", "yarn", "jq", "pnpm"}},
		},
		Development: config.Development{
			Rust: config.Rust{CargoTools: []string{"cargo-watch"}},
			Node: config.Node{Version: "lts"},
		},
		Fonts: []config.Font{
			{Name: "JetBrainsMono", Repo: "JetBrains/JetBrainsMono", Tag: "v2.304"},
		},
	}
}

func categoryOrder(items []Item) []Category {
	var out []Category
	for _, it := range items {
		if len(out) == 0 || out[len(out)-1] != it.Category {
			out = append(out, it.Category)
		}
	}
	return out
}

func TestBuildOrdering(t *testing.T) {
	items := Build(fullConfig())

	assert.Equal(t, []Category{
		SystemConfig,
		PackageManager,
		SshKey,
		GitConfig,
		LanguageToolchain,
		ShellFramework,
		GuiApp,
		CliTool,
		Font,
		ShellFramework, // shell PATH wiring goes last
	}, categoryOrder(items))

	last := items[len(items)-1]
	assert.Equal(t, "shell-paths", last.Identifier)
}

func TestBuildItemNamesAreUnique(t *testing.T) {
	items := Build(fullConfig())

	seen := map[string]bool{}
	for _, it := range items {
		require.Falsef(t, seen[it.Name()], "duplicate plan item %s", it.Name())
		seen[it.Name()] = true
	}
}

func TestBuildMarksLinkableTools(t *testing.T) {
	items := Build(fullConfig())

	linkable := map[string]bool{}
	for _, it := range items {
		if it.Category == CliTool {
			linkable[it.Identifier] = it.Linkable
		}
	}
	assert.True(t, linkable["yarn"])
	assert.True(t, linkable["pnpm"])
	assert.False(t, linkable["ripgrep"])
	assert.False(t, linkable["jq"])
}

func TestBuildMarksLastFinderSettingForRestart(t *testing.T) {
	items := Build(fullConfig())

	var settings []Item
	for _, it := range items {
		if it.Category == SystemConfig {
			settings = append(settings, it)
		}
	}
	require.NotEmpty(t, settings)

	// Exactly one setting owns the Finder restart, and it is the last
	// Finder-affecting one so the restart sees every change.
	var owners []string
	for _, it := range settings {
		if it.Setting.RestartFinder {
			owners = append(owners, it.Identifier)
		}
	}
	require.Len(t, owners, 1)
	assert.Equal(t, settings[len(settings)-1].Identifier, owners[0])
}

func TestScreenshotFormatOnlyNeverRestartsFinder(t *testing.T) {
	cfg := fullConfig()
	cfg.MacOS.Settings = config.MacOSSettings{
		ScreenshotsFormat: "png",
		ShowHiddenFiles:   boolPtr(false),
		ShowLibraryFolder: boolPtr(false),
		FinderPathBar:     boolPtr(false),
		FinderStatusBar:   boolPtr(false),
	}
	items := Build(cfg)

	for _, it := range items {
		if it.Category == SystemConfig {
			assert.Falsef(t, it.Setting.RestartFinder, "%s must not restart Finder", it.Identifier)
		}
	}
}

func TestBuildGitAliasesAreSorted(t *testing.T) {
	items := Build(fullConfig())

	var aliases []string
	for _, it := range items {
		if it.Category == GitConfig && len(it.GitKey) > 6 && it.GitKey[:6] == "alias." {
			aliases = append(aliases, it.GitKey)
		}
	}
	assert.Equal(t, []string{"alias.br", "alias.co", "alias.st"}, aliases)
}

func TestBuildHonorsDisabledSections(t *testing.T) {
	cfg := fullConfig()
	cfg.MacOS.Configure = boolPtr(false)
	cfg.Git.Configure = boolPtr(false)
	cfg.SSH.GenerateKey = boolPtr(false)
	cfg.Packages.Homebrew.Install = boolPtr(false)
	cfg.Packages.GuiApps.Enabled = boolPtr(false)
	cfg.Packages.CliTools.Enabled = boolPtr(false)
	cfg.Development.Rust.Install = boolPtr(false)
	cfg.Development.Node.Install = boolPtr(false)
	cfg.Shell.OhMyZsh.Install = boolPtr(false)
	cfg.Shell.Starship.Install = boolPtr(false)
	cfg.Fonts = nil

	items := Build(cfg)

	// Only the PATH wiring survives a fully disabled config.
	require.Len(t, items, 1)
	assert.Equal(t, "shell-paths", items[0].Identifier)
}

func TestFilter(t *testing.T) {
	items := Build(fullConfig())

	kept := Filter(items, []Category{CliTool, Font})
	require.NotEmpty(t, kept)
	for _, it := range kept {
		assert.Contains(t, []Category{CliTool, Font}, it.Category)
	}

	assert.Equal(t, items, Filter(items, nil), "an empty keep set filters nothing")
	assert.Empty(t, Filter(items, []Category{Category("bogus")}))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("cli-tool")
	require.NoError(t, err)
	assert.Equal(t, CliTool, c)

	c, err = ParseCategory("  Gui-App ")
	require.NoError(t, err)
	assert.Equal(t, GuiApp, c)

	_, err = ParseCategory("sparkles")
	assert.Error(t, err)
}

func TestTotalEstimate(t *testing.T) {
	items := []Item{
		{EstimateSeconds: 30},
		{EstimateSeconds: 10},
		{EstimateSeconds: 5},
	}
	assert.Equal(t, 45, TotalEstimate(items))
	assert.Equal(t, 0, TotalEstimate(nil))
}

func TestItemName(t *testing.T) {
	it := Item{Identifier: "ripgrep", Category: CliTool}
	assert.Equal(t, "cli-tool/ripgrep", it.Name())
}
