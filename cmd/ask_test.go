package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadQuestionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	content := "# billing questions\nWhat is the total?\n\n  Who signed the contract?  \n#skip me\nWhen does it expire?\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write questions file: %v", err)
	}

	got, err := readQuestionsFile(path)
	if err != nil {
		t.Fatalf("readQuestionsFile: %v", err)
	}
	want := []string{"What is the total?", "Who signed the contract?", "When does it expire?"}
	if len(got) != len(want) {
		t.Fatalf("expected %d questions, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("question %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadQuestionsFileMissing(t *testing.T) {
	if _, err := readQuestionsFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tc := range cases {
		if got := humanBytes(tc.n); got != tc.want {
			t.Fatalf("humanBytes(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
