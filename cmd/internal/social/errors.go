package social

import "errors"

var (
	ErrInvalidInput = errors.New("social: invalid input")
	ErrNotFound     = errors.New("social: not found")
	ErrForbidden    = errors.New("social: forbidden")
)
