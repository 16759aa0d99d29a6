package filesystem

import (
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		in   string
		want string
	}{
		{in: "~/x/y.yaml", want: filepath.Join("/home/tester", "x/y.yaml")},
		{in: "~", want: "/home/tester"},
		{in: "/abs/path", want: "/abs/path"},
		{in: "rel/path", want: "rel/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := AppPath("logs"); got != filepath.Join("/home/tester", ".dexter", "logs") {
		t.Errorf("AppPath = %q", got)
	}
}
