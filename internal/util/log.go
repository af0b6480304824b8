package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a console message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

const (
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorReset  = "\033[0m"
)

var console = struct {
	sync.Mutex
	out    io.Writer
	level  LogLevel
	colors bool
}{out: os.Stderr, level: LevelInfo, colors: true}

// LevelFromFlags maps the --verbose and --quiet flags to a level. Quiet wins.
func LevelFromFlags(verbose, quiet bool) LogLevel {
	switch {
	case quiet:
		return LevelError
	case verbose:
		return LevelDebug
	default:
		return LevelInfo
	}
}

// SetLogLevel sets the minimum level printed to the console
func SetLogLevel(level LogLevel) {
	console.Lock()
	defer console.Unlock()
	console.level = level
}

// SetColors enables or disables colored timestamps
func SetColors(enabled bool) {
	console.Lock()
	defer console.Unlock()
	console.colors = enabled
}

// SetLogOutput redirects console messages, os.Stderr by default
func SetLogOutput(w io.Writer) {
	console.Lock()
	defer console.Unlock()
	console.out = w
}

// IsQuiet reports whether only errors are shown
func IsQuiet() bool {
	console.Lock()
	defer console.Unlock()
	return console.level >= LevelError
}

func logf(level LogLevel, tag, color, format string, args []interface{}) {
	console.Lock()
	defer console.Unlock()

	if level < console.level {
		return
	}
	ts := time.Now().Format("15:04:05")
	if console.colors {
		ts = color + ts + colorReset
	}
	fmt.Fprintf(console.out, "%s %-7s %s\n", ts, tag, fmt.Sprintf(format, args...))
}

// DebugLog prints with --verbose only
func DebugLog(format string, args ...interface{}) {
	logf(LevelDebug, "[DEBUG]", colorGray, format, args)
}

func InfoLog(format string, args ...interface{}) {
	logf(LevelInfo, "[INFO]", colorCyan, format, args)
}

func WarnLog(format string, args ...interface{}) {
	logf(LevelWarn, "[WARN]", colorYellow, format, args)
}

// ErrorLog prints even with --quiet
func ErrorLog(format string, args ...interface{}) {
	logf(LevelError, "[ERROR]", colorRed, format, args)
}

// SuccessLog prints at info level
func SuccessLog(format string, args ...interface{}) {
	logf(LevelInfo, "[OK]", colorGreen, format, args)
}
