package auth

import "errors"

var (
	ErrConfig       = errors.New("auth: invalid configuration")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrNoToken      = errors.New("auth: missing token")
)
