package domain

import "errors"

var (
	// Input-shape errors: abort the run before feature engineering.
	ErrEmptyInput    = errors.New("empty input")
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidValue  = errors.New("invalid value")

	// Model-fit errors.
	ErrTooFewMembers = errors.New("class has too few members for a stratified split")
	ErrSingleClass   = errors.New("outcome has a single class")

	// Persistence errors.
	ErrArtifactMissing = errors.New("artifact missing")
	ErrSchemaMismatch  = errors.New("feature schema mismatch")

	ErrNotFound = errors.New("not found")
)
