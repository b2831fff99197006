package fmtx

import (
	"bytes"
	"errors"
	"testing"
)

func TestSprintfConsoleVerbs(t *testing.T) {
	for _, c := range []struct {
		fmt  string
		args []any
		want string
	}{
		{"mode %s", []any{"wave"}, "mode wave"},
		{"I=%d uA", []any{int32(12000)}, "I=12000 uA"},
		{"on=%t", []any{true}, "on=true"},
		{"100%%", nil, "100%"},
		{"[%6d]", []any{42}, "[    42]"},
		{"[%-6s]", []any{"tri"}, "[tri   ]"},
		{"err: %v", []any{errors.New("boom")}, "err: boom"},
	} {
		if got := Sprintf(c.fmt, c.args...); got != c.want {
			t.Fatalf("Sprintf(%q) = %q, want %q", c.fmt, got, c.want)
		}
	}
}

func TestFprintfWrites(t *testing.T) {
	var buf bytes.Buffer
	n, err := Fprintf(&buf, "cycle %d/%d\n", 3, 10)
	if err != nil {
		t.Fatalf("Fprintf error: %v", err)
	}
	if got, want := buf.String(), "cycle 3/10\n"; got != want || n != len(want) {
		t.Fatalf("Fprintf wrote %q (%d bytes), want %q", got, n, want)
	}
}

func TestErrorf(t *testing.T) {
	if got := Errorf("bad %s", "arg").Error(); got != "bad arg" {
		t.Fatalf("Errorf = %q", got)
	}
}
