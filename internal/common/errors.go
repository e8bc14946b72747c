// Package common defines shared constants and sentinel errors used across
// formsync layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Media materialization errors. Both collapse to "this file could not be
	// materialized" at the sync layer.
	ErrTransferFailure = errors.New("transfer failure")
	ErrLocalIO         = errors.New("local io failure")

	// Validation errors.
	ErrInvalidDigest     = errors.New("invalid digest")
	ErrInvalidManifest   = errors.New("invalid manifest")
	ErrInvalidEntityList = errors.New("invalid entity list")
)
