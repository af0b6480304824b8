package backup

import "errors"

var (
	// ErrInvalidArchive indicates a backup that is not a zip archive or lacks
	// one of its required entries
	ErrInvalidArchive = errors.New("invalid backup archive")
)

// LoadError records which archive a load failed on
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
