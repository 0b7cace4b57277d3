package errors

import "fmt"

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError records a failed read or write of a persisted record.
type StorageError struct {
	Op     string
	Record string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Record, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Define specific error types for better error handling
var (
	ErrInvalidFieldCount = fmt.Errorf("invalid field count")
	ErrInvalidAction     = fmt.Errorf("invalid action")
	ErrUnknownSegment    = fmt.Errorf("unknown segment")
	ErrUnknownMetric     = fmt.Errorf("unknown metric")
	ErrUnknownMonth      = fmt.Errorf("unknown month")
	ErrInvalidSentiment  = fmt.Errorf("invalid sentiment")
	ErrRecordNotFound    = fmt.Errorf("record not found")
)
