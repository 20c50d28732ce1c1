package errors

import "errors"

var (
	ErrNotFound = errors.New("profile not found")

	ErrCorruptSecret = errors.New("stored secret cannot be opened with the current sealer key")
)
