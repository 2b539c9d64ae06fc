package service

import (
	"errors"

	"everytask/internal/repository"
)

var (
	// ErrNotFound is returned when a referenced record does not exist for the user.
	ErrNotFound = repository.ErrNotFound
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)
