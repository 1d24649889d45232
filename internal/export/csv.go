// Package export serializes finished batches to CSV. Answer text is free-form
// model output, so every field is quoted and the artifact is written
// atomically.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/docquery-cli/internal/batch"
	"github.com/KaramelBytes/docquery-cli/internal/utils"
)

// Columns is the fixed output column order.
var Columns = []string{
	"document_name",
	"question_number",
	"question",
	"answer",
	"model",
	"provider",
	"status",
	"error",
}

// ErrNoResults indicates an empty batch was handed to the exporter.
var ErrNoResults = errors.New("no results to export")

// Filename returns the default artifact name for a run at the given time.
func Filename(now time.Time) string {
	return fmt.Sprintf("qa_results_%s.csv", now.Format("20060102_150405"))
}

// WriteCSV writes one row per pair, in input order, to path. Successful
// answers are normalized to single-line text first; error messages pass
// through unmodified. The file is written to a temporary location and renamed
// into place so a failed export never leaves a partial artifact.
func WriteCSV(pairs []batch.QAPair, path string) error {
	if len(pairs) == 0 {
		return ErrNoResults
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	var buf bytes.Buffer
	writeRow(&buf, Columns)
	for _, p := range pairs {
		answer := p.Answer
		if p.Status == batch.StatusSuccess {
			answer = NormalizeAnswer(answer)
		}
		writeRow(&buf, []string{
			p.DocumentName,
			strconv.Itoa(p.QuestionIndex),
			p.Question,
			answer,
			p.Model,
			p.Provider,
			string(p.Status),
			p.Error,
		})
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// writeRow emits one record with every field quoted, so embedded delimiters,
// quotes, or newlines can never break row boundaries.
func writeRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// NormalizeAnswer collapses internal line breaks and whitespace runs into
// single spaces and trims the result. Tabular consumers choke on multi-line
// cells even when properly quoted.
func NormalizeAnswer(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
