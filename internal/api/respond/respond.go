package respond

import (
	"encoding/json"
	"net/http"

	"github.com/brclinics/clinic-platform/internal/schedule"
)

// Envelope is the response shape the web client consumes for every
// endpoint: {status, message, data}.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func write(w http.ResponseWriter, code int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// JSONRaw writes an arbitrary payload without the envelope, for the few
// endpoints whose client expects a bare shape (e.g. slug validation).
func JSONRaw(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

// Created writes a success envelope with 201.
func Created(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusCreated, Envelope{Status: "success", Message: message, Data: data})
}

// Error writes an error envelope with the given HTTP status.
func Error(w http.ResponseWriter, code int, message string) {
	write(w, code, Envelope{Status: "error", Message: message})
}

// ValidationFailed writes the structured field-error list as a 422 so the
// client can display several simultaneous problems.
func ValidationFailed(w http.ResponseWriter, errs []schedule.FieldError) {
	write(w, http.StatusUnprocessableEntity, Envelope{
		Status:  "error",
		Message: "validation failed",
		Data:    errs,
	})
}
