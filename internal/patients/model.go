package patients

import "time"

// Patient holds demographics, documents and clinical context for one
// person treated at the clinic.
type Patient struct {
	ID                    int64     `json:"id"`
	ClinicID              int64     `json:"-"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	BirthDate             string    `json:"birth_date"`
	Gender                string    `json:"gender"`
	CPF                   string    `json:"cpf"`
	RG                    string    `json:"rg,omitempty"`
	Address               string    `json:"address,omitempty"`
	City                  string    `json:"city,omitempty"`
	State                 string    `json:"state,omitempty"`
	ZipCode               string    `json:"zip_code,omitempty"`
	HealthInsurance       string    `json:"health_insurance,omitempty"`
	HealthInsuranceNumber string    `json:"health_insurance_number,omitempty"`
	Allergies             string    `json:"allergies,omitempty"`
	ChronicConditions     string    `json:"chronic_conditions,omitempty"`
	Medications           string    `json:"medications,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// CreatePatientRequest registers a patient.
type CreatePatientRequest struct {
	Name                  string `json:"name" validate:"required,min=2,max=120"`
	Email                 string `json:"email" validate:"omitempty,email"`
	Phone                 string `json:"phone" validate:"required"`
	BirthDate             string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Gender                string `json:"gender" validate:"omitempty,oneof=feminino masculino outro"`
	CPF                   string `json:"cpf" validate:"required"`
	RG                    string `json:"rg"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	State                 string `json:"state" validate:"omitempty,len=2"`
	ZipCode               string `json:"zip_code"`
	HealthInsurance       string `json:"health_insurance"`
	HealthInsuranceNumber string `json:"health_insurance_number"`
	Allergies             string `json:"allergies"`
	ChronicConditions     string `json:"chronic_conditions"`
	Medications           string `json:"medications"`
	Notes                 string `json:"notes"`
}

// UpdatePatientRequest carries a partial update. Nil fields stay unchanged.
type UpdatePatientRequest struct {
	Name                  *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email                 *string `json:"email" validate:"omitempty,email"`
	Phone                 *string `json:"phone"`
	BirthDate             *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender                *string `json:"gender" validate:"omitempty,oneof=feminino masculino outro"`
	CPF                   *string `json:"cpf"`
	RG                    *string `json:"rg"`
	Address               *string `json:"address"`
	City                  *string `json:"city"`
	State                 *string `json:"state" validate:"omitempty,len=2"`
	ZipCode               *string `json:"zip_code"`
	HealthInsurance       *string `json:"health_insurance"`
	HealthInsuranceNumber *string `json:"health_insurance_number"`
	Allergies             *string `json:"allergies"`
	ChronicConditions     *string `json:"chronic_conditions"`
	Medications           *string `json:"medications"`
	Notes                 *string `json:"notes"`
	IsActive              *bool   `json:"is_active"`
}
