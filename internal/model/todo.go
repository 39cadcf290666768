package model

import (
	"strings"
	"time"
)

// Todo is the domain model for a todo entry.
// ID is assigned by the storage backend; CreatedAt never changes after creation.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// NewTodo is the input for creating a todo. There is no ID: backends assign it.
type NewTodo struct {
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// TodoPatch is a partial update. Nil fields keep their stored value.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	UpdatedAt   *time.Time
}

// Apply merges p onto t and returns the result. ID and CreatedAt are untouched.
func (p TodoPatch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.UpdatedAt != nil {
		u := *p.UpdatedAt
		t.UpdatedAt = &u
	}
	return t
}

// TodoFilter narrows a listing. Absent fields impose no restriction.
type TodoFilter struct {
	Completed  *bool
	SearchTerm string
}

// IsEmpty reports whether the filter matches everything.
func (f TodoFilter) IsEmpty() bool {
	return f.Completed == nil && f.SearchTerm == ""
}

// Matches reports whether t satisfies every present criterion.
func (f TodoFilter) Matches(t Todo) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

// Filter returns the todos matching f, in order. The input is not modified.
func (f TodoFilter) Filter(todos []Todo) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Bool and String return pointers for building filters and patches.
func Bool(b bool) *bool       { return &b }
func String(s string) *string { return &s }
