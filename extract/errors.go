package extract

import "errors"

var (
	// ErrSourceUnreachable indicates the raw source store could not be read
	// at all. This is the one catastrophic extraction error; it aborts the
	// whole run.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrMalformedRecord indicates a single raw record that could not be
	// decoded. The record is dropped and extraction continues.
	ErrMalformedRecord = errors.New("malformed source record")
)
