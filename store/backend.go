// Package store owns the canonical in-memory collection of posts and keeps
// it in step with a persistence backend.
package store

import (
	"context"
	"errors"

	"tasublog/domain"
)

var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotFound           = errors.New("post not found")
	ErrMigration          = errors.New("legacy migration failed")
)

// OrderByDate asks a backend for newest-first ordering.
const OrderByDate = "date"

// Backend is an opaque CRUD document store. Records may lack a slug or a
// subtitle; callers backfill what they need.
type Backend interface {
	// ListAll returns every record, ordered by orderBy when the backend
	// supports it and in native order when orderBy is empty.
	ListAll(ctx context.Context, orderBy string) ([]domain.Post, error)
	// Insert stores p (its ID is ignored) and returns the generated id.
	Insert(ctx context.Context, p domain.Post) (string, error)
	// Replace overwrites the record with the given id, or ErrNotFound.
	Replace(ctx context.Context, id string, p domain.Post) error
	// Remove deletes the record with the given id, or ErrNotFound.
	Remove(ctx context.Context, id string) error
}

// OpError records which Post Store operation a failure interrupted.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// Notice turns an error from this package into the message shown to the
// visitor. It returns "" for nil.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "Title and content are required."
	case errors.Is(err, ErrMigration):
		return "Error migrating articles. Please contact support."
	case errors.Is(err, ErrNotFound):
		return "Article not found. It may have been deleted."
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "load":
			return "Error loading articles. Please refresh the page."
		case "delete":
			return "Error deleting article. Please try again."
		}
	}
	return "Error saving article. Please try again."
}
