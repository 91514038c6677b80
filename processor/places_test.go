package processor

import (
	"testing"
)

func TestParseIntField(t *testing.T) {
	if got := parseIntField("1234567"); got != 1234567 {
		t.Errorf("got %v, want 1234567", got)
	}
	if got := parseIntField(" 42 "); got != 42 {
		t.Errorf("padded field: got %v, want 42", got)
	}
	if got := parseIntField("0"); got != 0 {
		t.Errorf("real zero must stay a number, got %v", got)
	}

	// Missing or malformed attributes must not masquerade as zero.
	for _, s := range []string{"", "n/a", "12.5"} {
		if got := parseIntField(s); got != nil {
			t.Errorf("parseIntField(%q): got %v, want nil", s, got)
		}
	}
}
