package util

import (
	"time"

	"github.com/spf13/viper"
)

// GetArtifactsDir returns the directory for event logs and reports
func GetArtifactsDir() string {
	if dir := viper.GetString("artifacts"); dir != "" {
		return dir
	}
	return "artifacts"
}

// GetSettleDelay returns how long the watcher waits for a burst of file
// events to finish before merging
func GetSettleDelay() time.Duration {
	if d := viper.GetDuration("watch.settle"); d > 0 {
		return d
	}
	return 2 * time.Second
}
