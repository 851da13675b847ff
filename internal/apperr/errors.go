// Package apperr holds the sentinel errors shared across Folio layers.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrUnrecognizedType = errors.New("unrecognized document type")
	ErrInvalidName      = errors.New("invalid name")
	ErrRootDirectory    = errors.New("operation not allowed on library root")
)
