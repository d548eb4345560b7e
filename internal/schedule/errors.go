package schedule

import "strings"

// Validation codes surfaced to the front end. These are part of the API
// contract and must not change without coordinating with the client.
const (
	CodeInvalidTimeFormat = "invalid_time_format"
	CodeRequiredField     = "required_field"
	CodeInvalidTimeRange  = "invalid_time_range"
	CodeRecurringFailed   = "recurring_generation_failed"
	CodeTimeConflict      = "time_conflict"
)

// FieldError is a single structured validation problem. The front end
// renders Message verbatim, so messages are written in the product's
// language (pt-BR).
type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
}

func (e FieldError) Error() string {
	return e.Code + ": " + e.Message
}

// ValidationErrors aggregates field errors so a caller can display several
// simultaneous problems (e.g. multiple conflicting recurring instances).
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func invalidTimeError() FieldError {
	return FieldError{
		Message: "Formato de horário inválido. Use HH:MM (ex: 14:30)",
		Field:   "time",
		Code:    CodeInvalidTimeFormat,
	}
}
