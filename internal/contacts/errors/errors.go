package errors

import "errors"

var (
	ErrNotFound = errors.New("contact not found")

	ErrInvalidID = errors.New("invalid contact ID format")

	ErrDuplicatePhone = errors.New("a contact with this phone already exists")
)
