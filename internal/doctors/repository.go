package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// ErrDoctorNotFound is returned for ids outside the clinic's scope.
var ErrDoctorNotFound = errors.New("doctors: not found")

// Repository stores doctors. Every query is clinic-scoped.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &Repository{pool: pool}
}

const doctorColumns = `id, clinic_id, name, email, phone, specialization, crm,
	available_days, available_hours, is_active, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.ClinicID, &d.Name, &d.Email, &d.Phone,
		&d.Specialization, &d.CRM, &d.AvailableDays, &d.AvailableHours,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: scan: %w", err)
	}
	return &d, nil
}

// List returns the clinic's doctors, active first, alphabetically.
func (r *Repository) List(ctx context.Context, clinicID int64) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+doctorColumns+" FROM doctors WHERE clinic_id = $1 ORDER BY is_active DESC, name",
		clinicID)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()

	out := []Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetByID fetches one doctor within the clinic.
func (r *Repository) GetByID(ctx context.Context, clinicID, id int64) (*Doctor, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+doctorColumns+" FROM doctors WHERE clinic_id = $1 AND id = $2",
		clinicID, id)
	return scanDoctor(row)
}

// Create registers an active doctor.
func (r *Repository) Create(ctx context.Context, clinicID int64, req *CreateDoctorRequest) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors
			(clinic_id, name, email, phone, specialization, crm, available_days, available_hours, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING `+doctorColumns,
		clinicID, req.Name, req.Email, req.Phone, req.Specialization, req.CRM,
		req.AvailableDays, req.AvailableHours)
	return scanDoctor(row)
}

// Update applies a partial update and returns the new row.
func (r *Repository) Update(ctx context.Context, clinicID, id int64, req *UpdateDoctorRequest) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctors SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			specialization = COALESCE($6, specialization),
			crm = COALESCE($7, crm),
			available_days = COALESCE($8, available_days),
			available_hours = COALESCE($9, available_hours),
			is_active = COALESCE($10, is_active),
			updated_at = now()
		WHERE clinic_id = $1 AND id = $2
		RETURNING `+doctorColumns,
		clinicID, id, req.Name, req.Email, req.Phone, req.Specialization,
		req.CRM, req.AvailableDays, req.AvailableHours, req.IsActive)
	return scanDoctor(row)
}

// Delete removes a doctor. Appointments referencing them cascade in the
// schema.
func (r *Repository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM doctors WHERE clinic_id = $1 AND id = $2", clinicID, id)
	if err != nil {
		return fmt.Errorf("doctors: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}
