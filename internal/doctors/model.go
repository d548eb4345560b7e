package doctors

import "time"

// Doctor is a clinic professional who can receive appointments.
type Doctor struct {
	ID             int64     `json:"id"`
	ClinicID       int64     `json:"-"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Specialization string    `json:"specialization"`
	CRM            string    `json:"crm"`
	AvailableDays  []string  `json:"available_days,omitempty"`
	AvailableHours []string  `json:"available_hours,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateDoctorRequest registers a professional.
type CreateDoctorRequest struct {
	Name           string   `json:"name" validate:"required,min=2,max=120"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone" validate:"required"`
	Specialization string   `json:"specialization" validate:"required"`
	CRM            string   `json:"crm" validate:"required"`
	AvailableDays  []string `json:"available_days" validate:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	AvailableHours []string `json:"available_hours"`
}

// UpdateDoctorRequest carries a partial update. Nil fields stay unchanged.
type UpdateDoctorRequest struct {
	Name           *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Email          *string  `json:"email" validate:"omitempty,email"`
	Phone          *string  `json:"phone"`
	Specialization *string  `json:"specialization"`
	CRM            *string  `json:"crm"`
	AvailableDays  []string `json:"available_days"`
	AvailableHours []string `json:"available_hours"`
	IsActive       *bool    `json:"is_active"`
}
