package extract

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
)

const (
	// maxLineBytes bounds a single dump line. Open Food Facts records with
	// full localized ingredient lists can exceed bufio's default 64K.
	maxLineBytes = 4 * 1024 * 1024
)

// FileSource reads raw records from a JSONL dump file, one JSON object per
// line. The sequence returned by Records reopens the file on every iteration,
// which makes extraction restartable.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the dump file at path.
// The file is not opened until the sequence is iterated.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Records returns a lazy sequence over all records in the dump.
// Blank lines are skipped. A malformed line yields a non-nil error alongside a
// nil record; iteration continues, leaving the drop decision to the caller.
// An unreadable file yields a single error and ends the sequence.
func (s *FileSource) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err))
			return
		}
		defer f.Close()

		scanRecords(f, yield)
	}
}

// ReaderSource reads raw records from an in-memory reader. It is restartable
// only if the underlying reader is a *bytes.Reader or similar seekable type;
// it exists mainly for tests and piped input.
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource creates a source over r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Records returns a lazy sequence over all records readable from the reader.
func (s *ReaderSource) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		if seeker, ok := s.r.(io.Seeker); ok {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				yield(nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err))
				return
			}
		}
		scanRecords(s.r, yield)
	}
}

func scanRecords(r io.Reader, yield func(*Record, error) bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			if !yield(nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)) {
				return
			}
			continue
		}
		if !yield(&rec, nil) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		yield(nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err))
	}
}
