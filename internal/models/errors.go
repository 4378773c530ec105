package models

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when another record already holds the email.
	ErrEmailExists = errors.New("email already exists")
)
