package clinics

import "time"

// Clinic is a tenant of the platform, addressed by its URL slug.
type Clinic struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clinic lifecycle states.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
)

// CreateClinicRequest is the super-admin payload for registering a tenant.
type CreateClinicRequest struct {
	Slug string `json:"slug" validate:"required,min=2,max=64"`
	Name string `json:"name" validate:"required,min=2,max=120"`
	Plan string `json:"plan" validate:"omitempty,oneof=basic premium enterprise"`
}

// UpdateClinicRequest is a partial update; nil fields are left untouched.
type UpdateClinicRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=120"`
	Plan   *string `json:"plan" validate:"omitempty,oneof=basic premium enterprise"`
	Status *string `json:"status" validate:"omitempty,oneof=active suspended cancelled"`
}
