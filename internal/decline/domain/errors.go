package decline

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyWellID is returned when a well id is empty.
	ErrEmptyWellID = errors.New("decline: empty well id")
	// ErrModelNotFound is returned when a well has no decline model.
	ErrModelNotFound = errors.New("decline: model not found")
	// ErrWellNotFound is returned when a well has no rows in the production table.
	ErrWellNotFound = errors.New("decline: well not found")
	// ErrInvalidPeakDate is returned when a peak date is missing or cannot be parsed.
	ErrInvalidPeakDate = errors.New("decline: invalid peak date")
	// ErrMalformedModel is returned when a required model field is missing or invalid.
	ErrMalformedModel = errors.New("decline: malformed model")
	// ErrSamplesOutOfOrder is returned when a well's samples are not ascending by date.
	ErrSamplesOutOfOrder = errors.New("decline: samples out of order")
	// ErrWellMismatch is returned when a sample belongs to another well.
	ErrWellMismatch = errors.New("decline: sample well mismatch")
	// ErrEmptyGrid is returned when a decline search grid has no candidates.
	ErrEmptyGrid = errors.New("decline: empty search grid")
	// ErrUnknownPolicy is returned when an aggregate policy name is unsupported.
	ErrUnknownPolicy = errors.New("decline: unknown aggregate policy")
)

// MalformedModelError names the offending field of a malformed model.
type MalformedModelError struct {
	WellID string
	Field  string
	Value  string
	Reason string
}

func (e *MalformedModelError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("decline: malformed model well=%s field=%s: %s", e.WellID, e.Field, e.Reason)
	}
	return fmt.Sprintf("decline: malformed model well=%s field=%s value=%q: %s", e.WellID, e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedModel.
func (e *MalformedModelError) Unwrap() error { return ErrMalformedModel }

func malformed(wellID, field, value, reason string) error {
	return &MalformedModelError{WellID: wellID, Field: field, Value: value, Reason: reason}
}
