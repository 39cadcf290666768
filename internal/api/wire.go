package api

import (
	"fmt"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// TimeLayout is the canonical timestamp text on the wire.
const TimeLayout = time.RFC3339Nano

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts RFC 3339 with or without fractional seconds.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// TodoDTO is a todo as it travels over HTTP: timestamps are text.
type TodoDTO struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   *string `json:"updatedAt,omitempty"`
}

// PatchDTO is a partial update body. Absent keys keep their stored value.
type PatchDTO struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	UpdatedAt   *string `json:"updatedAt,omitempty"`
}

func FromTodo(t model.Todo) TodoDTO {
	d := TodoDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   FormatTime(t.CreatedAt),
	}
	if t.UpdatedAt != nil {
		s := FormatTime(*t.UpdatedAt)
		d.UpdatedAt = &s
	}
	return d
}

// FromNewTodo never carries an id: the server assigns one.
func FromNewTodo(n model.NewTodo) TodoDTO {
	return TodoDTO{
		Title:       n.Title,
		Description: n.Description,
		Completed:   n.Completed,
		CreatedAt:   FormatTime(n.CreatedAt),
	}
}

// ToTodo parses timestamps. A missing createdAt becomes now.
func (d TodoDTO) ToTodo(now time.Time) (model.Todo, error) {
	t := model.Todo{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   now,
	}
	if d.CreatedAt != "" {
		c, err := ParseTime(d.CreatedAt)
		if err != nil {
			return model.Todo{}, err
		}
		t.CreatedAt = c
	}
	if d.UpdatedAt != nil && *d.UpdatedAt != "" {
		u, err := ParseTime(*d.UpdatedAt)
		if err != nil {
			return model.Todo{}, err
		}
		t.UpdatedAt = &u
	}
	return t, nil
}

// ToNewTodo converts a create body. A missing createdAt becomes the zero time
// so the repository stamps it.
func (d TodoDTO) ToNewTodo() (model.NewTodo, error) {
	n := model.NewTodo{Title: d.Title, Description: d.Description, Completed: d.Completed}
	if d.CreatedAt != "" {
		c, err := ParseTime(d.CreatedAt)
		if err != nil {
			return model.NewTodo{}, err
		}
		n.CreatedAt = c
	}
	return n, nil
}

func FromPatch(p model.TodoPatch) PatchDTO {
	d := PatchDTO{Title: p.Title, Description: p.Description, Completed: p.Completed}
	if p.UpdatedAt != nil {
		s := FormatTime(*p.UpdatedAt)
		d.UpdatedAt = &s
	}
	return d
}

func (d PatchDTO) ToPatch() (model.TodoPatch, error) {
	p := model.TodoPatch{Title: d.Title, Description: d.Description, Completed: d.Completed}
	if d.UpdatedAt != nil && *d.UpdatedAt != "" {
		u, err := ParseTime(*d.UpdatedAt)
		if err != nil {
			return model.TodoPatch{}, err
		}
		p.UpdatedAt = &u
	}
	return p, nil
}
