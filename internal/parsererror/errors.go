// Package parsererror defines the error taxonomy shared by the extraction
// pipeline and the recurrence engine. Batch processing reports these per item
// instead of aborting the run.
package parsererror

import "fmt"

// NotFoundError indicates that a source document path does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file does not exist: %s", e.Path)
}

// DecodeError indicates that a byte stream could not be interpreted as a
// document of the claimed kind (corrupt image, non-PDF content, etc.).
type DecodeError struct {
	Path string
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s as %s: %v", e.Path, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExtractionError indicates an engine-internal failure while extracting text.
type ExtractionError struct {
	Path   string
	Engine string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed for %s: %v", e.Engine, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ParseError indicates a failure to turn raw text into a structured field.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s='%s': %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CategorizationError indicates a categorization strategy failure. The
// categorizer itself never surfaces this to callers; it is logged and the
// fallback category is used instead.
type CategorizationError struct {
	Strategy string
	Err      error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization via %s failed: %v", e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}

// UnknownFrequencyError indicates a recurring definition carries a frequency
// token the engine does not understand. Generation for that definition stops
// with zero occurrences rather than guessing a cadence.
type UnknownFrequencyError struct {
	RecurrenceID int64
	Frequency    string
}

func (e *UnknownFrequencyError) Error() string {
	return fmt.Sprintf("unknown frequency '%s' for recurrence %d", e.Frequency, e.RecurrenceID)
}
