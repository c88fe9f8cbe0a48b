package service

import "errors"

var (
	// ErrUnauthorized is returned when an operation requires a caller identity and none was supplied.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUserNotFound is returned when logging in as an unknown user.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrWrongPassword is returned when the password does not match the stored hash.
	ErrWrongPassword = errors.New("wrong password")
	// ErrPostNotFound is returned when updating a post that does not exist.
	ErrPostNotFound = errors.New("post not found")
)
