package bwtailwind

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidInput marks a referenced file that does not exist, or an input
	// file that is not part of the configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIncompatibleOption marks an option the resolved binary does not support.
	ErrIncompatibleOption = errors.New("incompatible option")

	// ErrNotBuiltYet marks a read of output CSS that has not been built.
	ErrNotBuiltYet = errors.New("not built yet")
)
