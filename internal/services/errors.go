package services

import "errors"

// Failure kinds detected locally, before any remote call is made.
var (
	ErrQuestionNotFound = errors.New("invalid question key")
	ErrUnauthorized     = errors.New("authentication required")
	ErrForbidden        = errors.New("caller is not the owner or an admin")
)
