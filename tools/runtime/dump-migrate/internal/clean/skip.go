package clean

import "fmt"

// SkipReason says why a legacy row was not migrated
type SkipReason string

const (
	ReasonInvalidEmail   SkipReason = "invalid email"
	ReasonSpamEmail      SkipReason = "spam email"
	ReasonInvalidAmount  SkipReason = "invalid amount"
	ReasonUnresolvedUser SkipReason = "unresolved user"
)

// SkipError marks a row that failed validation. It is counted as skipped
// and never reported as a write error.
type SkipError struct {
	Reason SkipReason
	Value  string
}

func (e *SkipError) Error() string {
	if e.Value == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Value)
}

func skip(reason SkipReason, value string) error {
	return &SkipError{Reason: reason, Value: value}
}
