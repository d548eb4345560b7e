package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// ErrPatientNotFound is returned for ids outside the clinic's scope.
var ErrPatientNotFound = errors.New("patients: not found")

// Repository stores patients. Every query is clinic-scoped.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{pool: pool}
}

const patientColumns = `id, clinic_id, name, COALESCE(email, ''), phone,
	to_char(birth_date, 'YYYY-MM-DD'), COALESCE(gender, ''), cpf,
	COALESCE(rg, ''), COALESCE(address, ''), COALESCE(city, ''),
	COALESCE(state, ''), COALESCE(zip_code, ''),
	COALESCE(health_insurance, ''), COALESCE(health_insurance_number, ''),
	COALESCE(allergies, ''), COALESCE(chronic_conditions, ''),
	COALESCE(medications, ''), COALESCE(notes, ''), is_active,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ClinicID, &p.Name, &p.Email, &p.Phone,
		&p.BirthDate, &p.Gender, &p.CPF, &p.RG, &p.Address, &p.City,
		&p.State, &p.ZipCode, &p.HealthInsurance, &p.HealthInsuranceNumber,
		&p.Allergies, &p.ChronicConditions, &p.Medications, &p.Notes,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: scan: %w", err)
	}
	return &p, nil
}

// List returns the clinic's patients alphabetically. search filters by
// name, CPF or phone.
func (r *Repository) List(ctx context.Context, clinicID int64, search string) ([]Patient, error) {
	query := "SELECT " + patientColumns + " FROM patients WHERE clinic_id = $1"
	args := []any{clinicID}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += " AND (name ILIKE $2 OR cpf LIKE $2 OR phone LIKE $2)"
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()

	out := []Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetByID fetches one patient within the clinic.
func (r *Repository) GetByID(ctx context.Context, clinicID, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE clinic_id = $1 AND id = $2",
		clinicID, id)
	return scanPatient(row)
}

// Create registers an active patient.
func (r *Repository) Create(ctx context.Context, clinicID int64, req *CreatePatientRequest) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients
			(clinic_id, name, email, phone, birth_date, gender, cpf, rg,
			 address, city, state, zip_code, health_insurance,
			 health_insurance_number, allergies, chronic_conditions,
			 medications, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, true)
		RETURNING `+patientColumns,
		clinicID, req.Name, req.Email, req.Phone, req.BirthDate, req.Gender,
		req.CPF, req.RG, req.Address, req.City, req.State, req.ZipCode,
		req.HealthInsurance, req.HealthInsuranceNumber, req.Allergies,
		req.ChronicConditions, req.Medications, req.Notes)
	return scanPatient(row)
}

// Update applies a partial update and returns the new row.
func (r *Repository) Update(ctx context.Context, clinicID, id int64, req *UpdatePatientRequest) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			birth_date = COALESCE($6::date, birth_date),
			gender = COALESCE($7, gender),
			cpf = COALESCE($8, cpf),
			rg = COALESCE($9, rg),
			address = COALESCE($10, address),
			city = COALESCE($11, city),
			state = COALESCE($12, state),
			zip_code = COALESCE($13, zip_code),
			health_insurance = COALESCE($14, health_insurance),
			health_insurance_number = COALESCE($15, health_insurance_number),
			allergies = COALESCE($16, allergies),
			chronic_conditions = COALESCE($17, chronic_conditions),
			medications = COALESCE($18, medications),
			notes = COALESCE($19, notes),
			is_active = COALESCE($20, is_active),
			updated_at = now()
		WHERE clinic_id = $1 AND id = $2
		RETURNING `+patientColumns,
		clinicID, id, req.Name, req.Email, req.Phone, req.BirthDate,
		req.Gender, req.CPF, req.RG, req.Address, req.City, req.State,
		req.ZipCode, req.HealthInsurance, req.HealthInsuranceNumber,
		req.Allergies, req.ChronicConditions, req.Medications, req.Notes,
		req.IsActive)
	return scanPatient(row)
}

// Delete removes a patient and their dependent rows.
func (r *Repository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM patients WHERE clinic_id = $1 AND id = $2", clinicID, id)
	if err != nil {
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
