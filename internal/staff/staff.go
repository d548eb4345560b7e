package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// Staff statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusVacation = "vacation"
)

// ErrMemberNotFound is returned for ids outside the clinic's scope.
var ErrMemberNotFound = errors.New("staff: not found")

// Member is a non-clinical employee (reception, administration).
type Member struct {
	ID        int64     `json:"id"`
	ClinicID  int64     `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateMemberRequest registers an employee.
type CreateMemberRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
	Role  string `json:"role" validate:"required"`
}

// UpdateMemberRequest carries a partial update. Nil fields stay unchanged.
type UpdateMemberRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Phone  *string `json:"phone"`
	Role   *string `json:"role"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive vacation"`
}

// Repository stores staff members. Every query is clinic-scoped.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("staff: pgx pool required")
	}
	return &Repository{pool: pool}
}

const memberColumns = `id, clinic_id, name, COALESCE(email, ''),
	COALESCE(phone, ''), role, status, created_at, updated_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.ClinicID, &m.Name, &m.Email, &m.Phone,
		&m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("staff: scan: %w", err)
	}
	return &m, nil
}

// List returns the clinic's staff alphabetically.
func (r *Repository) List(ctx context.Context, clinicID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+memberColumns+" FROM staff WHERE clinic_id = $1 ORDER BY name",
		clinicID)
	if err != nil {
		return nil, fmt.Errorf("staff: list: %w", err)
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// GetByID fetches one member within the clinic.
func (r *Repository) GetByID(ctx context.Context, clinicID, id int64) (*Member, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+memberColumns+" FROM staff WHERE clinic_id = $1 AND id = $2",
		clinicID, id)
	return scanMember(row)
}

// Create registers an active member.
func (r *Repository) Create(ctx context.Context, clinicID int64, req *CreateMemberRequest) (*Member, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO staff (clinic_id, name, email, phone, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+memberColumns,
		clinicID, req.Name, req.Email, req.Phone, req.Role, StatusActive)
	return scanMember(row)
}

// Update applies a partial update and returns the new row.
func (r *Repository) Update(ctx context.Context, clinicID, id int64, req *UpdateMemberRequest) (*Member, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE staff SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			role = COALESCE($6, role),
			status = COALESCE($7, status),
			updated_at = now()
		WHERE clinic_id = $1 AND id = $2
		RETURNING `+memberColumns,
		clinicID, id, req.Name, req.Email, req.Phone, req.Role, req.Status)
	return scanMember(row)
}

// Delete removes a member.
func (r *Repository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM staff WHERE clinic_id = $1 AND id = $2", clinicID, id)
	if err != nil {
		return fmt.Errorf("staff: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}
