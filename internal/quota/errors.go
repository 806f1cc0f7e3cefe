package quota

import "errors"

var (
	// ErrInsufficientSpace indicates a commit would push usage past the limit.
	ErrInsufficientSpace = errors.New("insufficient quota space")

	// ErrNegativeUsage indicates a release would push usage below zero.
	ErrNegativeUsage = errors.New("quota usage would become negative")

	errStoreReadOnly = errors.New("quota store does not support writes")
)
