package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/docquery-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	page := strings.Repeat("The quarterly invoice totals forty-two dollars. ", 80)
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty document", "", 0},
		{"short question", "What is the total?", 4},
		{"extracted page", page, len(page)/4 - 1},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d tokens, want at least %d", c.name, got, c.min)
		}
	}
}

func TestCountTokensNonEmptyIsAtLeastOne(t *testing.T) {
	if got := utils.CountTokens("ok"); got < 1 {
		t.Fatalf("non-empty text must count as at least 1 token, got %d", got)
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	doc := strings.Repeat("Contract clause 4.2 renews annually. ", 200)
	trunc := utils.TruncateToTokenLimit(doc, 250)
	if n := utils.CountTokens(trunc); n > 250 {
		t.Fatalf("truncated document still counts %d tokens", n)
	}
	if trunc == "" || !strings.HasPrefix(doc, trunc) {
		t.Fatalf("truncation must keep a prefix of the document")
	}
}

func TestTruncateToTokenLimitShortDocumentUntouched(t *testing.T) {
	doc := "Signed by both parties on March 3rd."
	if got := utils.TruncateToTokenLimit(doc, 1000); got != doc {
		t.Fatalf("document under the limit must pass through unchanged, got %q", got)
	}
	if got := utils.TruncateToTokenLimit(doc, 0); got != "" {
		t.Fatalf("zero limit must yield empty text, got %q", got)
	}
}
