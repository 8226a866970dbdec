package model

import "fmt"

// Severity classifies a validation problem.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationError is one structural or matching problem found by the
// validator. ElementID is empty when the problem is not tied to a piece.
type ValidationError struct {
	ElementID string   `json:"elementId,omitempty"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

func (e ValidationError) Error() string {
	if e.ElementID != "" {
		return fmt.Sprintf("%s: %s (element: %s)", e.Severity, e.Message, e.ElementID)
	}
	return fmt.Sprintf("%s: %s", e.Severity, e.Message)
}
