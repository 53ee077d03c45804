package pocket

import (
	"testing"
)

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "unchanged",
			input: "Feature-A",
			want:  "Feature-A",
		},
		{
			name:  "trim whitespace",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "collapse internal whitespace",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "case preserved",
			input: "  Hello   WORLD  ",
			want:  "Hello WORLD",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\n  world",
			want:  "hello world",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanLabel(tt.input)
			if got != tt.want {
				t.Errorf("CleanLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompartmentLabel(t *testing.T) {
	if got := CompartmentLabel(2); got != "Group 2" {
		t.Errorf("CompartmentLabel(2) = %q, want %q", got, "Group 2")
	}
}

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()
	if len(a) != 26 {
		t.Errorf("ID length = %d, want 26 (ULID)", len(a))
	}
	if a == b {
		t.Errorf("NewID returned duplicate %q", a)
	}
}
