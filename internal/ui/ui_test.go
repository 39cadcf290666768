package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total, width int
		want               string
	}{
		{0, 0, 10, "░░░░░░░░░░   0%"},
		{1, 2, 10, "█████░░░░░  50%"},
		{4, 4, 2, "█████ 100%"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.done, tt.total, tt.width); got != tt.want {
			t.Errorf("ProgressBar(%d, %d, %d) = %q, want %q", tt.done, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("classic")
	if got := SetTheme("NEON").Name; got != "neon" {
		t.Errorf("got %q, want neon", got)
	}
	if got := SetTheme("unknown").Name; got != "classic" {
		t.Errorf("got %q, want classic fallback", got)
	}
}

func TestMonoPanel(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")

	out := Panel([]string{"one", "three"})
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if lines[0] != "+-------+" {
		t.Errorf("top border: got %q", lines[0])
	}
	if lines[1] != "| one   |" {
		t.Errorf("padded row: got %q", lines[1])
	}
}

func TestOKAndFail(t *testing.T) {
	SetTheme("mono")
	defer SetTheme("classic")

	var buf bytes.Buffer
	OK(&buf, "added")
	Fail(&buf, "nope")
	if got := buf.String(); got != "x added\n✖ nope\n" {
		t.Errorf("got %q", got)
	}
}
