package clinics

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// ErrClinicNotFound is returned when a slug or id resolves to nothing.
var ErrClinicNotFound = errors.New("clinics: not found")

// Repository stores clinics in the relational database.
type Repository struct {
	pool storage.DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("clinics: pgx pool required")
	}
	return &Repository{pool: pool}
}

const clinicColumns = "id, slug, name, plan, status, created_at, updated_at"

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	if err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.Plan, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, fmt.Errorf("clinics: scan: %w", err)
	}
	return &c, nil
}

// GetBySlug fetches a clinic by its URL slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Clinic, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+clinicColumns+" FROM clinics WHERE slug = $1", slug)
	return scanClinic(row)
}

// GetByID fetches a clinic by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Clinic, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+clinicColumns+" FROM clinics WHERE id = $1", id)
	return scanClinic(row)
}

// List returns all clinics, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]Clinic, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+clinicColumns+" FROM clinics ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("clinics: list: %w", err)
	}
	defer rows.Close()

	out := []Clinic{}
	for rows.Next() {
		var c Clinic
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Plan, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("clinics: scan row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create registers a new tenant in active status.
func (r *Repository) Create(ctx context.Context, req *CreateClinicRequest) (*Clinic, error) {
	plan := req.Plan
	if plan == "" {
		plan = "basic"
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clinics (slug, name, plan, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+clinicColumns,
		req.Slug, req.Name, plan, StatusActive)
	return scanClinic(row)
}

// Update applies a partial update and returns the new row.
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateClinicRequest) (*Clinic, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE clinics SET
			name   = COALESCE($2, name),
			plan   = COALESCE($3, plan),
			status = COALESCE($4, status),
			updated_at = now()
		WHERE id = $1
		RETURNING `+clinicColumns,
		id, req.Name, req.Plan, req.Status)
	return scanClinic(row)
}

// Delete removes a tenant. Dependent rows cascade in the schema.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM clinics WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("clinics: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClinicNotFound
	}
	return nil
}
