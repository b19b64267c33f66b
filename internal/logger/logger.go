package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color" // Colored console output for the different log levels
)

// Level controls how much detail reaches the console. The log file always
// receives everything, regardless of the console level.
type Level int

const (
	// LevelMinimal only surfaces warnings and errors on the console.
	LevelMinimal Level = iota
	// LevelNormal additionally surfaces informational progress messages.
	LevelNormal
	// LevelVerbose additionally surfaces debug messages (resolved commands,
	// captured command output, and so on).
	LevelVerbose
)

// Colorized printf-style functions per level, in the fatih/color idiom.
// Each writes to the console (subject to the configured level) and
// duplicates the message into the detail log file when one is open.

// Info logs informational messages in green.
var Info func(format string, a ...any)

// Warn logs warning messages in bright magenta.
var Warn func(format string, a ...any)

// Error logs error messages in red.
var Error func(format string, a ...any)

// Debug logs debug messages in cyan, only visible at LevelVerbose.
var Debug func(format string, a ...any)

var (
	level   Level
	logFile *os.File
)

func init() {
	// Safe defaults so the package is usable before Init runs (e.g. in tests).
	Init(LevelNormal)
}

// Init configures the console level and rebuilds the level functions.
func Init(l Level) {
	level = l

	infoPrint := color.New(color.FgGreen).PrintfFunc()
	warnPrint := color.New(color.FgHiMagenta).PrintfFunc()
	errorPrint := color.New(color.FgRed).PrintfFunc()
	debugPrint := color.New(color.FgCyan).PrintfFunc()

	Info = func(format string, a ...any) {
		if level >= LevelNormal {
			infoPrint(format, a...)
		}
		toFile(format, a...)
	}
	Warn = func(format string, a ...any) {
		warnPrint(format, a...)
		toFile(format, a...)
	}
	Error = func(format string, a ...any) {
		errorPrint(format, a...)
		toFile(format, a...)
	}
	Debug = func(format string, a ...any) {
		if level >= LevelVerbose {
			debugPrint(format, a...)
		}
		toFile(format, a...)
	}
}

// OpenLogFile creates a timestamped log file under dir (created if missing)
// and starts duplicating all log output into it. It returns the file path.
func OpenLogFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("setup_%s.log", time.Now().Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	logFile = f
	return path, nil
}

// CloseLogFile stops file duplication and closes the current log file.
func CloseLogFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// toFile writes one timestamped line to the detail log, if open.
// File output is plain text; colors stay on the console.
func toFile(format string, a ...any) {
	if logFile == nil {
		return
	}
	line := fmt.Sprintf(format, a...)
	fmt.Fprintf(logFile, "%s - %s", time.Now().Format("2006-01-02 15:04:05"), line)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		fmt.Fprintln(logFile)
	}
}
