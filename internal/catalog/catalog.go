package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// ErrServiceNotFound is returned for ids outside the clinic's scope.
var ErrServiceNotFound = errors.New("catalog: service not found")

// Service is a billable offering of the clinic (session type, evaluation,
// group therapy).
type Service struct {
	ID           int64     `json:"id"`
	ClinicID     int64     `json:"-"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Duration     string    `json:"duration"`
	Price        float64   `json:"price"`
	Category     string    `json:"category,omitempty"`
	Availability []string  `json:"availability,omitempty"`
	MaxPatients  int       `json:"max_patients"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateServiceRequest adds an offering to the catalog.
type CreateServiceRequest struct {
	Name         string   `json:"name" validate:"required,min=2,max=120"`
	Description  string   `json:"description"`
	Duration     string   `json:"duration" validate:"required"`
	Price        float64  `json:"price" validate:"gte=0"`
	Category     string   `json:"category"`
	Availability []string `json:"availability"`
	MaxPatients  int      `json:"max_patients" validate:"omitempty,gte=1"`
}

// UpdateServiceRequest carries a partial update. Nil fields stay unchanged.
type UpdateServiceRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Description  *string  `json:"description"`
	Duration     *string  `json:"duration"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Category     *string  `json:"category"`
	Availability []string `json:"availability"`
	MaxPatients  *int     `json:"max_patients" validate:"omitempty,gte=1"`
	IsActive     *bool    `json:"is_active"`
}

// Repository stores the service catalog. Every query is clinic-scoped.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{pool: pool}
}

const serviceColumns = `id, clinic_id, name, COALESCE(description, ''),
	duration, price, COALESCE(category, ''), availability, max_patients,
	is_active, created_at, updated_at`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.ClinicID, &s.Name, &s.Description, &s.Duration,
		&s.Price, &s.Category, &s.Availability, &s.MaxPatients, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: scan: %w", err)
	}
	return &s, nil
}

// List returns the clinic's catalog alphabetically.
func (r *Repository) List(ctx context.Context, clinicID int64) ([]Service, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE clinic_id = $1 ORDER BY name",
		clinicID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	out := []Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetByID fetches one offering within the clinic.
func (r *Repository) GetByID(ctx context.Context, clinicID, id int64) (*Service, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE clinic_id = $1 AND id = $2",
		clinicID, id)
	return scanService(row)
}

// Create adds an active offering. MaxPatients defaults to 1 (individual
// session).
func (r *Repository) Create(ctx context.Context, clinicID int64, req *CreateServiceRequest) (*Service, error) {
	maxPatients := req.MaxPatients
	if maxPatients < 1 {
		maxPatients = 1
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO services
			(clinic_id, name, description, duration, price, category, availability, max_patients, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING `+serviceColumns,
		clinicID, req.Name, req.Description, req.Duration, req.Price,
		req.Category, req.Availability, maxPatients)
	return scanService(row)
}

// Update applies a partial update and returns the new row.
func (r *Repository) Update(ctx context.Context, clinicID, id int64, req *UpdateServiceRequest) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			duration = COALESCE($5, duration),
			price = COALESCE($6, price),
			category = COALESCE($7, category),
			availability = COALESCE($8, availability),
			max_patients = COALESCE($9, max_patients),
			is_active = COALESCE($10, is_active),
			updated_at = now()
		WHERE clinic_id = $1 AND id = $2
		RETURNING `+serviceColumns,
		clinicID, id, req.Name, req.Description, req.Duration, req.Price,
		req.Category, req.Availability, req.MaxPatients, req.IsActive)
	return scanService(row)
}

// Delete removes an offering.
func (r *Repository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM services WHERE clinic_id = $1 AND id = $2", clinicID, id)
	if err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}
