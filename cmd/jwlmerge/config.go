package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/franz/jwl-merge/internal/backup"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/util"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (JWLMERGE_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

func setupLogging() {
	util.SetLogLevel(util.LevelFromFlags(viper.GetBool("verbose"), viper.GetBool("quiet")))
	util.SetColors(!viper.GetBool("no-color") && util.IsTerminal(os.Stderr))
}

// openEventLogger starts the JSONL event log in the artifacts directory.
// An event level of "off" disables it.
func openEventLogger() (*report.EventLogger, error) {
	levelName := GetConfigString("event-level", string(report.LevelInfo))
	if levelName == "off" {
		return report.NullLogger(), nil
	}
	level, err := report.ParseLevel(levelName)
	if err != nil {
		return nil, errors.Join(util.ErrInvalidConfig, err)
	}

	events, err := report.NewEventLogger(util.GetArtifactsDir(), level)
	if err != nil {
		return nil, err
	}
	util.DebugLog("Event log: %s", events.Path())
	return events, nil
}

func newService(events *report.EventLogger) *backup.Service {
	return backup.New(&backup.Config{
		Events:      events,
		Concurrency: GetConfigInt("concurrency", 4),
		TempDir:     GetConfigString("temp-dir", os.TempDir()),
	})
}

// signalContext is cancelled on interrupt or termination
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case errors.Is(err, util.ErrUsage), errors.Is(err, util.ErrInvalidConfig):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
