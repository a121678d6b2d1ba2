package submissions

import "errors"

var (
	ErrNotFound     = errors.New("submission not found")
	ErrForbidden    = errors.New("submission belongs to another user")
	ErrInvalidInput = errors.New("invalid input")
	ErrOwnerMissing = errors.New("submission owner does not exist")
)
