package config

// OutputMode selects how much progress detail is printed to the console.
type OutputMode string

const (
	ModeMinimal OutputMode = "minimal"
	ModeNormal  OutputMode = "normal"
	ModeVerbose OutputMode = "verbose"
)

// User carries the identity fields applied to git and the SSH key comment.
type User struct {
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	AuthorURL string `yaml:"author_url"`
}

// Output controls console verbosity and progress display.
type Output struct {
	Mode              OutputMode `yaml:"mode"`
	ShowTimeRemaining *bool      `yaml:"show_time_remaining"`
}

// Notifications controls macOS notification dispatch.
type Notifications struct {
	Enabled    *bool `yaml:"enabled"`
	OnComplete *bool `yaml:"on_complete"`
	OnError    *bool `yaml:"on_error"`
}

// MacOSSettings are the supported `defaults` preference toggles.
// Boolean fields default to true when omitted.
type MacOSSettings struct {
	ScreenshotsFormat string `yaml:"screenshots_format"`
	ShowHiddenFiles   *bool  `yaml:"show_hidden_files"`
	ShowLibraryFolder *bool  `yaml:"show_library_folder"`
	FinderPathBar     *bool  `yaml:"finder_path_bar"`
	FinderStatusBar   *bool  `yaml:"finder_status_bar"`
}

// MacOS groups the system preference configuration.
type MacOS struct {
	Configure *bool         `yaml:"configure"`
	Settings  MacOSSettings `yaml:"settings"`
}

// GitAliases configures global git alias entries.
type GitAliases struct {
	Enabled *bool             `yaml:"enabled"`
	Custom  map[string]string `yaml:"custom"`
}

// Git groups global git configuration.
type Git struct {
	Configure     *bool      `yaml:"configure"`
	DefaultBranch string     `yaml:"default_branch"`
	Aliases       GitAliases `yaml:"aliases"`
}

// SSH configures generation of the GitHub SSH key.
type SSH struct {
	GenerateKey   *bool  `yaml:"generate_key"`
	KeyType       string `yaml:"key_type"`
	KeyName       string `yaml:"key_name"`
	AddToKeychain *bool  `yaml:"add_to_keychain"`
}

// Homebrew configures installation of the package manager itself.
type Homebrew struct {
	Install *bool `yaml:"install"`
	Update  *bool `yaml:"update"`
}

// GuiApps lists the Homebrew casks to install.
type GuiApps struct {
	Enabled *bool    `yaml:"enabled"`
	Apps    []string `yaml:"apps"`
}

// CliTools lists the Homebrew formulas to install.
type CliTools struct {
	Enabled *bool    `yaml:"enabled"`
	Tools   []string `yaml:"tools"`
}

// Packages groups everything installed through Homebrew.
type Packages struct {
	Homebrew Homebrew `yaml:"homebrew"`
	GuiApps  GuiApps  `yaml:"gui_apps"`
	CliTools CliTools `yaml:"cli_tools"`
}

// Rust configures the rustup toolchain and cargo-installed tools.
type Rust struct {
	Install    *bool    `yaml:"install"`
	CargoTools []string `yaml:"cargo_tools"`
}

// Node configures the NVM-managed Node.js install and global npm packages.
type Node struct {
	Install     *bool    `yaml:"install"`
	Version     string   `yaml:"version"`
	NpmPackages []string `yaml:"npm_packages"`
}

// Development groups the language toolchains.
type Development struct {
	Rust Rust `yaml:"rust"`
	Node Node `yaml:"node"`
}

// OhMyZsh configures the Oh My Zsh framework and its plugins.
type OhMyZsh struct {
	Install *bool    `yaml:"install"`
	Plugins []string `yaml:"plugins"`
}

// Starship configures the Starship prompt.
type Starship struct {
	Install   *bool `yaml:"install"`
	Configure *bool `yaml:"configure"`
}

// Shell groups the shell framework configuration.
type Shell struct {
	OhMyZsh  OhMyZsh  `yaml:"oh_my_zsh"`
	Starship Starship `yaml:"starship"`
}

// Font describes a font fetched from a GitHub release archive.
type Font struct {
	Name string `yaml:"name"`
	Repo string `yaml:"repo"` // GitHub repo, e.g. JetBrains/JetBrainsMono
	Tag  string `yaml:"tag"`  // release tag, e.g. v2.304
}

// Retry controls the transient-failure retry policy for formula installs.
type Retry struct {
	Enabled *bool `yaml:"enabled"`
}

// Config is the validated top-level configuration consumed by the plan
// builder and the orchestration engine. All pointer booleans default to
// true when omitted; use the Enabled helper to read them.
type Config struct {
	User          User           `yaml:"user"`
	Output        Output         `yaml:"output"`
	Notifications Notifications  `yaml:"notifications"`
	MacOS         MacOS          `yaml:"macos"`
	Git           Git            `yaml:"git"`
	SSH           SSH            `yaml:"ssh"`
	Packages      Packages       `yaml:"packages"`
	Development   Development    `yaml:"development"`
	Shell         Shell          `yaml:"shell"`
	Fonts         []Font         `yaml:"fonts"`
	TimeEstimates map[string]int `yaml:"time_estimates"`
	Retry         Retry          `yaml:"retry"`
}

// Enabled reads an optional boolean that defaults to true when omitted.
func Enabled(b *bool) bool {
	return b == nil || *b
}
