package account

import "errors"

var (
	// ErrTokenNotFound is returned when no activation token matches.
	ErrTokenNotFound = errors.New("activation token not found")
	// ErrTokenExpired is returned when the token is past its TTL.
	ErrTokenExpired = errors.New("activation token expired")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
