//go:build linux || darwin || freebsd

package util

import "syscall"

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path
func FreeSpace(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
