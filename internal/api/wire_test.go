package api

import (
	"testing"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2025, 3, 4, 5, 6, 7, 890, time.FixedZone("X", 3600))
	s := FormatTime(in)
	if s != "2025-03-04T04:06:07.00000089Z" {
		t.Errorf("FormatTime: got %q", s)
	}
	out, err := ParseTime(s)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !out.Equal(in) {
		t.Errorf("ParseTime: got %v, want %v", out, in)
	}
	if _, err := ParseTime("2025-03-04T04:06:07Z"); err != nil {
		t.Errorf("ParseTime without fraction: %v", err)
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("ParseTime: expected error for garbage")
	}
}

func TestDTOMissingCreatedAtDefaultsToNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := TodoDTO{ID: "1", Title: "x"}.ToTodo(now)
	if err != nil {
		t.Fatalf("ToTodo: %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, now)
	}
	if got.UpdatedAt != nil {
		t.Errorf("UpdatedAt: got %v, want nil", got.UpdatedAt)
	}
}

func TestFromNewTodoHasNoID(t *testing.T) {
	d := FromNewTodo(model.NewTodo{Title: "x", CreatedAt: time.Unix(0, 0)})
	if d.ID != "" {
		t.Errorf("ID: got %q, want empty", d.ID)
	}
	if d.CreatedAt != "1970-01-01T00:00:00Z" {
		t.Errorf("CreatedAt: got %q", d.CreatedAt)
	}
}
