package model

import (
	"testing"
	"time"
)

func TestFilterMatches(t *testing.T) {
	fooBar := Todo{ID: "1", Title: "Foo bar"}
	baz := Todo{ID: "2", Title: "baz", Description: "has FOOD inside", Completed: true}
	plain := Todo{ID: "3", Title: "baz"}

	tests := []struct {
		name   string
		filter TodoFilter
		todo   Todo
		want   bool
	}{
		{"empty matches", TodoFilter{}, plain, true},
		{"completed true on pending", TodoFilter{Completed: Bool(true)}, fooBar, false},
		{"completed true on done", TodoFilter{Completed: Bool(true)}, baz, true},
		{"completed false on pending", TodoFilter{Completed: Bool(false)}, fooBar, true},
		{"search title case-insensitive", TodoFilter{SearchTerm: "foo"}, fooBar, true},
		{"search description", TodoFilter{SearchTerm: "food"}, baz, true},
		{"search miss", TodoFilter{SearchTerm: "foo"}, plain, false},
		{"and composition", TodoFilter{Completed: Bool(false), SearchTerm: "foo"}, baz, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.todo); got != tt.want {
				t.Errorf("Matches: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterSearchOnlyFooBar(t *testing.T) {
	todos := []Todo{{ID: "1", Title: "Foo bar"}, {ID: "2", Title: "baz"}}
	got := TodoFilter{SearchTerm: "foo"}.Filter(todos)
	if len(got) != 1 || got[0].Title != "Foo bar" {
		t.Fatalf("Filter: got %+v, want only Foo bar", got)
	}
}

func TestFilterIsEmpty(t *testing.T) {
	if !(TodoFilter{}).IsEmpty() {
		t.Error("zero filter should be empty")
	}
	if (TodoFilter{SearchTerm: "x"}).IsEmpty() {
		t.Error("filter with search term should not be empty")
	}
}

func TestPatchApplyPreservesUnsetFields(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := Todo{ID: "a", Title: "t", Description: "d", CreatedAt: created}
	now := created.Add(time.Hour)

	got := TodoPatch{Completed: Bool(true), UpdatedAt: &now}.Apply(orig)
	if got.Title != "t" || got.Description != "d" || got.ID != "a" {
		t.Errorf("unset fields changed: %+v", got)
	}
	if !got.Completed {
		t.Error("Completed: got false, want true")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, created)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, now)
	}
}
