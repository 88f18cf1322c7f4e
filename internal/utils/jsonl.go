package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// maxJSONLLineSize bounds a single JSON Lines record (10 MB). Batch results
// carry whole model responses per line, so the default bufio limit is too small.
const maxJSONLLineSize = 10 * 1024 * 1024

// JSONLScanner reads newline-delimited JSON records. Blank lines are skipped.
type JSONLScanner struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLScanner returns a scanner reading records from reader.
func NewJSONLScanner(reader io.Reader) *JSONLScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLineSize)
	return &JSONLScanner{scanner: scanner}
}

// Next returns the next non-blank record. The returned slice is only valid
// until the following call. Returns io.EOF when the input is exhausted.
func (s *JSONLScanner) Next() ([]byte, error) {
	for s.scanner.Scan() {
		s.line++
		record := bytes.TrimSpace(s.scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		return record, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("jsonl scanner error at line %d: %w", s.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the 1-based line number of the record last returned by Next.
func (s *JSONLScanner) Line() int {
	return s.line
}
