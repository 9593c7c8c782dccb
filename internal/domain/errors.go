package domain

import "errors"

var (
	// ErrNotFound is returned when a recipe or record does not exist
	ErrNotFound = errors.New("not found")
	// ErrUsernameExists is returned by signup when the username is taken
	ErrUsernameExists = errors.New("username already exists")
	// ErrInvalidCredentials is returned by login for an unknown user or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyUsername is returned by signup for a blank username
	ErrEmptyUsername = errors.New("username is required")
)
