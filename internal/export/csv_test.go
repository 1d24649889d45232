package export_test

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/docquery-cli/internal/batch"
	"github.com/KaramelBytes/docquery-cli/internal/export"
)

func TestWriteCSVQuotesEverything(t *testing.T) {
	pairs := []batch.QAPair{
		{
			DocumentName:  `report "Q3", final.pdf`,
			QuestionIndex: 1,
			Question:      "What is the total?",
			Answer:        "Line one\n\nLine two  with   extra spaces\n",
			Model:         "gemma2:2b",
			Provider:      "ollama",
			Status:        batch.StatusSuccess,
		},
		{
			DocumentName:  "other.pdf",
			QuestionIndex: 2,
			Question:      "Who signed?",
			Model:         "gemma2:2b",
			Provider:      "ollama",
			Status:        batch.StatusError,
			Error:         "request timed out\nafter retry",
		},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := export.WriteCSV(pairs, path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	// Every field is quoted, even plain ones.
	if !strings.HasPrefix(string(raw), `"document_name","question_number"`) {
		t.Fatalf("header fields not quoted: %q", string(raw)[:40])
	}

	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	if err != nil {
		t.Fatalf("artifact does not parse as CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if len(records[0]) != 8 || records[0][0] != "document_name" || records[0][7] != "error" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	row := records[1]
	if row[0] != `report "Q3", final.pdf` {
		t.Fatalf("document name mangled: %q", row[0])
	}
	if row[3] != "Line one Line two with extra spaces" {
		t.Fatalf("answer not normalized: %q", row[3])
	}
	if row[6] != "success" || row[7] != "" {
		t.Fatalf("unexpected status columns: %v", row)
	}
	// Error messages pass through verbatim, newline included.
	if records[2][7] != "request timed out\nafter retry" || records[2][3] != "" {
		t.Fatalf("error row mangled: %v", records[2])
	}
}

func TestWriteCSVRejectsEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := export.WriteCSV(nil, path); !errors.Is(err, export.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no artifact should exist for an empty batch")
	}
}

func TestWriteCSVCreatesOutputDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "nested", "out.csv")
	pairs := []batch.QAPair{{DocumentName: "a.pdf", QuestionIndex: 1, Status: batch.StatusSuccess, Answer: "x"}}
	if err := export.WriteCSV(pairs, path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := export.Filename(now); got != "qa_results_20250314_092653.csv" {
		t.Fatalf("unexpected filename: %q", got)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Line one\n\nLine two  with   extra spaces\n", "Line one Line two with extra spaces"},
		{"  already clean  ", "already clean"},
		{"tabs\tand\r\nwindows lines", "tabs and windows lines"},
		{"", ""},
		{"   \n\t ", ""},
	}
	for _, tc := range cases {
		if got := export.NormalizeAnswer(tc.in); got != tc.want {
			t.Fatalf("NormalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
