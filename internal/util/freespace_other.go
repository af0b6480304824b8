//go:build !linux && !darwin && !freebsd && !windows

package util

import "fmt"

// FreeSpace is not available on this platform
func FreeSpace(path string) (uint64, error) {
	return 0, fmt.Errorf("%w: free space of %s", ErrUnsupported, path)
}
