//go:build windows

package util

import "golang.org/x/sys/windows"

// FreeSpace returns the bytes available to the current user on the volume
// holding path
func FreeSpace(path string) (uint64, error) {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var avail, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &avail, &total, &free); err != nil {
		return 0, err
	}
	return avail, nil
}
