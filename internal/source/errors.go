package source

import (
	"errors"
	"fmt"
)

// ErrEndOfSequence is returned by Next once a source has no more records.
var ErrEndOfSequence = errors.New("end of job sequence")

// SourceError reports a transport or payload failure while fetching a page.
// Callers render it exactly like the end of the sequence.
type SourceError struct {
	URL string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("fetch job page %s: %v", e.URL, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// MalformedRecord reports a job record that failed validation. The record is
// skipped and its siblings are still processed.
type MalformedRecord struct {
	ID     string // Empty when the id itself was the problem
	Reason string
	Err    error
}

func (e *MalformedRecord) Error() string {
	msg := "malformed job record"
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecord) Unwrap() error {
	return e.Err
}
