package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when the requested record does not exist
	ErrNotFound = errors.New("not found")

	ErrInvalidLocalType      = errors.New("invalid local type")
	ErrInvalidSimulationType = errors.New("invalid simulation type")
	ErrInvalidField          = errors.New("invalid breakdown field")

	// ErrInvalidInput wraps request-level validation failures detected by the services
	ErrInvalidInput = errors.New("invalid input")

	// ErrSelectionFull is returned when a project already holds the maximum number of validated comparables
	ErrSelectionFull = errors.New("comparable selection is full")
)
