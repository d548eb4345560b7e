package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// ErrUserNotFound is returned for unknown credentials or ids.
var ErrUserNotFound = errors.New("auth: user not found")

// User is an account that can sign in. Superadmin users have no clinic.
type User struct {
	ID           int64     `json:"id"`
	ClinicID     *int64    `json:"clinic_id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository stores user accounts.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("auth: pgx pool required")
	}
	return &Repository{pool: pool}
}

const userColumns = "id, clinic_id, name, email, password_hash, role, is_active, created_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.ClinicID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: scan user: %w", err)
	}
	return &u, nil
}

// GetByEmailForClinic fetches an active clinic-scoped account.
func (r *Repository) GetByEmailForClinic(ctx context.Context, email string, clinicID int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1 AND clinic_id = $2 AND is_active",
		email, clinicID)
	return scanUser(row)
}

// GetSuperAdminByEmail fetches an active super-admin account.
func (r *Repository) GetSuperAdminByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1 AND role = $2 AND is_active",
		email, RoleSuperAdmin)
	return scanUser(row)
}

// GetByID fetches any account by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// Create inserts a new active account.
func (r *Repository) Create(ctx context.Context, clinicID *int64, name, email, passwordHash, role string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (clinic_id, name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING `+userColumns,
		clinicID, name, email, passwordHash, role)
	return scanUser(row)
}
