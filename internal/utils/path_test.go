package utils

import "testing"

func TestJoinPath(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{nil, "/"},
		{[]string{"", "/"}, "/"},
		{[]string{"docs"}, "/docs"},
		{[]string{"/docs/", "intro"}, "/docs/intro"},
		{[]string{"a", "", "b/"}, "/a/b"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.parts...); got != tt.want {
			t.Errorf("JoinPath(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{nil, ""},
		{[]string{"projects", "p1", "items", "i1", "shot.png"}, "projects/p1/items/i1/shot.png"},
		{[]string{"/a/", "b"}, "a/b"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.parts...); got != tt.want {
			t.Errorf("ObjectKey(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Home", "Home"},
		{"  spaced  ", "spaced"},
		{"a/b", "a_b"},
		{`win\dows`, "win_dows"},
		{"", "_"},
		{".", "_"},
		{"..", "_"},
		{"...", "..."},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
