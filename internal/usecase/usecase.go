// Package usecase wraps each todo action around an injected repository.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/repository"
)

// Clock returns the current time. Tests swap it.
type Clock func() time.Time

type GetTodos struct {
	repo repository.Repository
}

func (u *GetTodos) Execute(ctx context.Context, filter model.TodoFilter) ([]model.Todo, error) {
	return u.repo.GetAll(ctx, filter)
}

type GetTodoByID struct {
	repo repository.Repository
}

// Execute returns nil, nil when the todo does not exist.
func (u *GetTodoByID) Execute(ctx context.Context, id string) (*model.Todo, error) {
	return u.repo.GetByID(ctx, id)
}

type CreateTodo struct {
	repo repository.Repository
	now  Clock
}

// Execute rejects blank titles before touching the repository.
func (u *CreateTodo) Execute(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return model.Todo{}, fmt.Errorf("%w: title is empty", model.ErrValidation)
	}
	in.CreatedAt = u.now()
	return u.repo.Create(ctx, in)
}

type UpdateTodo struct {
	repo repository.Repository
	now  Clock
}

func (u *UpdateTodo) Execute(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Todo{}, fmt.Errorf("%w: title is empty", model.ErrValidation)
		}
		patch.Title = &title
	}
	now := u.now()
	patch.UpdatedAt = &now
	return u.repo.Update(ctx, id, patch)
}

type DeleteTodo struct {
	repo repository.Repository
}

func (u *DeleteTodo) Execute(ctx context.Context, id string) bool {
	return u.repo.Delete(ctx, id)
}

// ToggleTodo is a read-modify-write without atomicity: a concurrent toggle
// from another session can be lost.
type ToggleTodo struct {
	repo repository.Repository
	now  Clock
}

func (u *ToggleTodo) Execute(ctx context.Context, id string) (model.Todo, error) {
	t, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return model.Todo{}, err
	}
	if t == nil {
		return model.Todo{}, fmt.Errorf("toggle %s: %w", id, model.ErrNotFound)
	}
	now := u.now()
	return u.repo.Update(ctx, id, model.TodoPatch{
		Completed: model.Bool(!t.Completed),
		UpdatedAt: &now,
	})
}

// Set is every use case bound to one repository.
type Set struct {
	GetTodos    *GetTodos
	GetTodoByID *GetTodoByID
	CreateTodo  *CreateTodo
	UpdateTodo  *UpdateTodo
	DeleteTodo  *DeleteTodo
	ToggleTodo  *ToggleTodo
}

func New(repo repository.Repository) *Set {
	return NewWithClock(repo, time.Now)
}

func NewWithClock(repo repository.Repository, now Clock) *Set {
	return &Set{
		GetTodos:    &GetTodos{repo: repo},
		GetTodoByID: &GetTodoByID{repo: repo},
		CreateTodo:  &CreateTodo{repo: repo, now: now},
		UpdateTodo:  &UpdateTodo{repo: repo, now: now},
		DeleteTodo:  &DeleteTodo{repo: repo},
		ToggleTodo:  &ToggleTodo{repo: repo, now: now},
	}
}
