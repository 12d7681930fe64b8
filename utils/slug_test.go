package utils

import (
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john_doe", "john-doe"},
		{"José Peña", "jose-pena"},
		{"  Mixed CASE  ", "mixed-case"},
		{"a__b", "a-b"},
		{"tester42", "tester42"},
		{"___", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	used := map[string]bool{"john-doe": true, "john-doe-1": true, "user": true}
	taken := func(slug string) (bool, error) { return used[slug], nil }

	tests := []struct {
		in   string
		want string
	}{
		{"John Doe", "john-doe-2"},
		{"jane", "jane"},
		{"!!!", "user-1"},
	}
	for _, tt := range tests {
		got, err := UniqueSlug(tt.in, taken)
		if err != nil || got != tt.want {
			t.Errorf("UniqueSlug(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	boom := errors.New("boom")
	if _, err := UniqueSlug("x", func(string) (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
