package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrDuplicateRecord = errors.New("duplicate payment record")
)

// ValidationError carries field-level messages keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// FieldError is a shorthand for a single-field validation failure.
func FieldError(field, msg string) *ValidationError {
	return NewValidationError().Add(field, msg)
}

// Add records a message for field; the first message per field wins.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
	return e
}

// OrNil returns nil when no field failed so callers can `return verr.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError references a missing group, member or payment record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateRecordError is returned when a (cycle, member) pair already has a record.
type DuplicateRecordError struct {
	Cycle    int
	MemberID string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("payment record for cycle %d and member %q already exists", e.Cycle, e.MemberID)
}

func (e *DuplicateRecordError) Is(target error) bool { return target == ErrDuplicateRecord }

// ValidationFields extracts field messages from anywhere in err's chain.
func ValidationFields(err error) (map[string]string, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
