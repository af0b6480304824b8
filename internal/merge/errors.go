package merge

import "errors"

var (
	// ErrNoSources indicates Merge was called without any input
	ErrNoSources = errors.New("no databases to merge")

	// ErrIntegrity indicates a database violates a referential or uniqueness invariant
	ErrIntegrity = errors.New("integrity violation")
)
