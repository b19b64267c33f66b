package sysinfo

import (
	"os"
	"path/filepath"
	"runtime"
)

// Arch identifies the CPU family of the machine being provisioned.
// Install prefixes and binary locations differ between the two.
type Arch string

const (
	AppleSilicon Arch = "apple-silicon"
	Intel        Arch = "intel"
)

// Info holds the immutable system facts resolved once at startup and
// passed into every installer strategy.
type Info struct {
	Arch       Arch
	BrewPrefix string // Homebrew install prefix: /opt/homebrew or /usr/local
	Home       string // current user's home directory
}

// BrewBin returns the full path to the brew executable for this machine.
func (i Info) BrewBin() string {
	return filepath.Join(i.BrewPrefix, "bin", "brew")
}

// Detect resolves the architecture and Homebrew prefix for this machine.
// The prefix follows the architecture convention (/opt/homebrew on Apple
// Silicon, /usr/local on Intel), falling back to whichever of the two
// actually exists when the conventional one is missing.
func Detect() Info {
	info := Info{Arch: Intel, BrewPrefix: "/usr/local"}
	if runtime.GOARCH == "arm64" {
		info.Arch = AppleSilicon
		info.BrewPrefix = "/opt/homebrew"
	}

	if _, err := os.Stat(info.BrewPrefix); err != nil {
		if _, err := os.Stat("/opt/homebrew"); err == nil {
			info.BrewPrefix = "/opt/homebrew"
		} else if _, err := os.Stat("/usr/local"); err == nil {
			info.BrewPrefix = "/usr/local"
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	info.Home = home
	return info
}
