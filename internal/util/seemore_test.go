package util

import (
	"strings"
	"testing"
)

func TestApplySeeMore(t *testing.T) {
	out := ApplySeeMore("📜 Recent rounds\n• one\n• two", "📜 Recent rounds")
	if !strings.HasPrefix(out, "📜 Recent rounds"+ZeroWidthSpace) {
		t.Fatalf("title must lead the message: %q", out[:40])
	}
	if strings.Count(out, ZeroWidthSpace) != SeeMorePadding {
		t.Fatalf("expected %d padding runes", SeeMorePadding)
	}
	if !strings.HasSuffix(out, "\n• one\n• two") {
		t.Fatalf("body lost or header duplicated: %q", out[len(out)-30:])
	}
	if strings.Count(out, "Recent rounds") != 1 {
		t.Fatalf("header repeated")
	}
}

func TestApplySeeMoreBlank(t *testing.T) {
	if got := ApplySeeMore("  ", "title"); got != "  " {
		t.Fatalf("blank text changed: %q", got)
	}
}

func TestStripLeadingHeader(t *testing.T) {
	cases := map[string]string{
		"H\r\n\r\nbody": "body",
		"H\nbody":       "body",
		"Hbody":         "body",
		"body":          "body",
	}
	for in, want := range cases {
		if got := StripLeadingHeader(in, "H"); got != want {
			t.Fatalf("StripLeadingHeader(%q) = %q, want %q", in, got, want)
		}
	}
	if got := StripLeadingHeader("H\nbody", " "); got != "H\nbody" {
		t.Fatalf("blank header must be a no-op")
	}
}
