package appointments

import (
	"time"

	"github.com/brclinics/clinic-platform/internal/schedule"
)

// Appointment statuses. Cancelled and completed are terminal.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment is one scheduled session. Recurring series share a
// RecurrenceGroup id and carry per-instance metadata in Recurrence.
type Appointment struct {
	ID              int64          `json:"id"`
	ClinicID        int64          `json:"-"`
	DoctorID        int64          `json:"doctorId"`
	PatientID       int64          `json:"patientId"`
	Date            string         `json:"date"`
	StartTime       string         `json:"startTime"`
	EndTime         string         `json:"endTime"`
	Status          string         `json:"status"`
	Notes           string         `json:"notes,omitempty"`
	Recurrence      *schedule.Rule `json:"recurrence,omitempty"`
	RecurrenceGroup *string        `json:"recurrenceGroup,omitempty"`
	DoctorName      string         `json:"doctorName,omitempty"`
	PatientName     string         `json:"patientName,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// CreateRequest is the appointment submission payload. Field presence is
// checked by the service so each missing field gets its own structured
// error, not a single opaque 400.
type CreateRequest struct {
	DoctorID   int64          `json:"doctorId"`
	PatientID  int64          `json:"patientId"`
	Date       string         `json:"date"`
	StartTime  string         `json:"startTime"`
	EndTime    string         `json:"endTime"`
	Notes      string         `json:"notes"`
	Recurrence *schedule.Rule `json:"recurrence"`
}

// UpdateRequest carries a partial update. Nil fields stay unchanged.
// UpdateAll applies time and note changes to every future instance of the
// appointment's recurrence series.
type UpdateRequest struct {
	DoctorID  *int64  `json:"doctorId"`
	PatientID *int64  `json:"patientId"`
	Date      *string `json:"date"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Notes     *string `json:"notes"`
	UpdateAll bool    `json:"updateAll"`
}

// ValidateTimeRequest asks whether a slot is free for a doctor on a date.
// ExcludeID skips one existing appointment, for reschedule checks.
type ValidateTimeRequest struct {
	DoctorID  int64  `json:"doctorId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	ExcludeID *int64 `json:"excludeId"`
}

// ValidateTimeResult is the conflict-authority verdict for one slot.
type ValidateTimeResult struct {
	Valid  bool                  `json:"valid"`
	Errors []schedule.FieldError `json:"errors,omitempty"`
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	DoctorID *int64
	Status   string
	DateFrom string
	DateTo   string
}

// requiredFields maps each mandatory CreateRequest field to the message the
// front end shows. Messages mirror the client's own copy.
func (r CreateRequest) requiredFieldErrors() []schedule.FieldError {
	var errs []schedule.FieldError
	add := func(field, message string) {
		errs = append(errs, schedule.FieldError{
			Message: message,
			Field:   field,
			Code:    schedule.CodeRequiredField,
		})
	}
	if r.DoctorID == 0 {
		add("doctor_id", "Médico é obrigatório")
	}
	if r.PatientID == 0 {
		add("patient_id", "Paciente é obrigatório")
	}
	if r.Date == "" {
		add("date", "Data é obrigatória")
	}
	if r.StartTime == "" {
		add("start_time", "Horário de início é obrigatório")
	}
	if r.EndTime == "" {
		add("end_time", "Horário de término é obrigatório")
	}
	return errs
}
