package tasks

import "errors"

// Service and repository errors.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidInput = errors.New("invalid task input")
)
