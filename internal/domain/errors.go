package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrContentLoad         = errors.New("content: load failed")
	ErrInvalidCategory     = errors.New("content: invalid category")
	ErrInvalidEventDate    = errors.New("content: invalid event date")
	ErrLocationUnsupported = errors.New("location: unsupported")
	ErrPermissionDenied    = errors.New("location: permission denied")
)

// ContentLoadError reports a data source that is missing, unreadable or
// structurally invalid.
type ContentLoadError struct {
	Source string
	Err    error
}

func (e *ContentLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *ContentLoadError) Unwrap() error { return e.Err }

func (e *ContentLoadError) Is(target error) bool { return target == ErrContentLoad }

type InvalidCategoryError struct {
	Value string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category %q", e.Value)
}

func (e *InvalidCategoryError) Is(target error) bool { return target == ErrInvalidCategory }

// EventDateError lists events whose date could not be parsed. It is returned
// next to the events that did parse so bad data is surfaced, not hidden.
type EventDateError struct {
	Entries []error
}

func (e *EventDateError) Error() string {
	msgs := make([]string, 0, len(e.Entries))
	for _, err := range e.Entries {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d event(s) with invalid date: %s", len(e.Entries), strings.Join(msgs, "; "))
}

func (e *EventDateError) Unwrap() []error { return e.Entries }
