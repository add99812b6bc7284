package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate: got %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate should not modify short strings, got %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Errorf("Truncate with maxLen 0 should be a no-op, got %q", got)
	}
}

func TestTruncate_neverSplitsRunes(t *testing.T) {
	// Each rune is 3 bytes; cutting at 4 lands mid-rune and must back up.
	if got := Truncate("日本語テキスト", 4); got != "日..." {
		t.Errorf("Truncate = %q, want %q", got, "日...")
	}
	s := strings.Repeat("é", 100)
	for maxLen := 1; maxLen < 10; maxLen++ {
		if got := Truncate(s, maxLen); !utf8.ValidString(got) {
			t.Errorf("Truncate(%d) produced invalid UTF-8: %q", maxLen, got)
		}
	}
}

func TestWordJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"what is machine learning", "what is machine learning", 1.0},
		{"a b c d", "c d e f", 1.0 / 3.0},
		{"alpha beta", "gamma delta", 0},
		{"", "", 0},
		{"Case DOES not Matter", "case does NOT matter", 1.0},
	}
	for _, tt := range tests {
		if got := WordJaccard(tt.a, tt.b); got != tt.want {
			t.Errorf("WordJaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	if Clamp01(-0.5) != 0 {
		t.Error("negative values should clamp to 0")
	}
	if Clamp01(1.5) != 1 {
		t.Error("values over 1 should clamp to 1")
	}
	if Clamp01(0.42) != 0.42 {
		t.Error("in-range values should pass through")
	}
}
