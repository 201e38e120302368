package model

import "fmt"

// OutcomeStatus tags the result of writing a TallyRow to the tabular store.
type OutcomeStatus string

const (
	OutcomeSaved              OutcomeStatus = "saved"
	OutcomeMissingCredentials OutcomeStatus = "missing_credentials"
	OutcomePermissionDenied   OutcomeStatus = "permission_denied"
	OutcomeWriteFailed        OutcomeStatus = "write_failed"
)

// MaxReasonLength bounds the failure reason carried in an Outcome.
const MaxReasonLength = 200

// Outcome describes whether and why a row was durably recorded.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// Saved reports whether the row reached the store.
func (o Outcome) Saved() bool {
	return o.Status == OutcomeSaved
}

// Message is the human-readable status shown to callers.
func (o Outcome) Message() string {
	switch o.Status {
	case OutcomeSaved:
		return "Saved to sheet"
	case OutcomeMissingCredentials:
		return "Sheet credentials not configured, row not saved"
	case OutcomePermissionDenied:
		return fmt.Sprintf("Sheet rejected the write: %s", o.Reason)
	default:
		return fmt.Sprintf("Sheet write failed: %s", o.Reason)
	}
}

// TruncateReason cuts s to MaxReasonLength bytes without splitting a UTF-8 rune.
func TruncateReason(s string) string {
	if len(s) <= MaxReasonLength {
		return s
	}
	cut := MaxReasonLength
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
