package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrUsage indicates the command was invoked with invalid arguments
	ErrUsage = errors.New("usage error")

	// ErrUnsupported indicates a file format or version is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrCorrupt indicates a file is corrupt or unreadable
	ErrCorrupt = errors.New("corrupt file")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPermission indicates a permission error
	ErrPermission = errors.New("permission denied")
)
