// Package repository holds the persistence capability and its two backends.
package repository

import (
	"context"

	"github.com/Makepad-fr/tada/internal/model"
)

// Repository is implemented identically by Local and Remote.
type Repository interface {
	// GetAll returns the todos matching filter; an empty filter returns all.
	GetAll(ctx context.Context, filter model.TodoFilter) ([]model.Todo, error)
	// GetByID returns nil, nil when no todo has that id.
	GetByID(ctx context.Context, id string) (*model.Todo, error)
	// Create assigns the id (and CreatedAt when zero) and returns the stored record.
	Create(ctx context.Context, in model.NewTodo) (model.Todo, error)
	// Update merges patch onto the stored record and stamps UpdatedAt unless
	// the patch carries one. Unknown ids yield model.ErrNotFound.
	Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error)
	// Delete reports whether a record was removed. It never fails.
	Delete(ctx context.Context, id string) bool
}
