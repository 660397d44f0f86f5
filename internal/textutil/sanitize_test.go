package textutil_test

import (
	"testing"

	"tidybox/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  Playbook: v2/final?  ": "Playbook- v2-final",
		`a"b<c>d|e`:               "abcde",
		"":                        "",
		"Q3\tReview\n":            "Q3Review",
	}
	for in, want := range cases {
		if got := textutil.SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := textutil.Truncate("héllo", 2); got != "hé" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := textutil.Truncate("abc", 10); got != "abc" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := textutil.Truncate("abc", 0); got != "" {
		t.Fatalf("Truncate = %q", got)
	}
}
