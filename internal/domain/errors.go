package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Handlers use it to translate domain failures without type-switching on
// every concrete error.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a referenced folder does not exist.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input.
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates the operation requires an authenticated
	// actor and none was present.
	UnauthorizedError struct {
		Message string
	}

	// RootProtectedError indicates an attempt to rename, move, or delete
	// the root folder.
	RootProtectedError struct {
		Message string
	}

	// HasChildrenError indicates a delete was blocked by existing children.
	HasChildrenError struct {
		Message string
	}

	// CycleError indicates a move that would make a folder its own ancestor.
	CycleError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string      { return e.Message }
func (e *ValidationError) Error() string    { return e.Message }
func (e *UnauthorizedError) Error() string  { return e.Message }
func (e *RootProtectedError) Error() string { return e.Message }
func (e *HasChildrenError) Error() string   { return e.Message }
func (e *CycleError) Error() string         { return e.Message }

func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int    { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int  { return http.StatusUnauthorized }
func (e *RootProtectedError) StatusCode() int { return http.StatusForbidden }
func (e *HasChildrenError) StatusCode() int   { return http.StatusConflict }
func (e *CycleError) StatusCode() int         { return http.StatusConflict }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRootProtected = errors.New("root folder is protected")
	ErrHasChildren   = errors.New("folder has children")
	ErrCycle         = errors.New("move would create a cycle")
)

func (e *NotFoundError) Is(target error) bool      { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool    { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool  { return target == ErrUnauthorized }
func (e *RootProtectedError) Is(target error) bool { return target == ErrRootProtected }
func (e *HasChildrenError) Is(target error) bool   { return target == ErrHasChildren }
func (e *CycleError) Is(target error) bool         { return target == ErrCycle }

// ConflictError represents a slug or name uniqueness violation reported by
// the persistence layer.
type ConflictError struct {
	Message string // Human-readable error message
	Slug    string // The colliding slug, when known
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
