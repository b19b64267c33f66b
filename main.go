package main

import (
	"macos-bootstrap/cmd"
)

// macos-bootstrap brings a fresh macOS machine to a configured
// developer-ready state in one run: macOS preferences, Homebrew, SSH
// key, git identity, language toolchains, shell frameworks, packages,
// and fonts, all driven by a declarative configuration file.
//
// The tool is idempotent: every plan item is probed for presence before
// anything executes, and re-running the whole plan is always safe. A
// single item's failure never aborts the run; the summary, exit code,
// and completion notification report what happened.
func main() {
	cmd.Execute()
}
