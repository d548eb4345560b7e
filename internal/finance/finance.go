package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// Payment statuses form the reconciliation pipeline.
const (
	StatusPending    = "pending"
	StatusCompleted  = "completed"
	StatusReconciled = "reconciled"
)

// ErrPaymentNotFound is returned for ids outside the clinic's scope.
var ErrPaymentNotFound = errors.New("finance: payment not found")

// Payment tracks one expected or received amount. LinkedPayments groups
// installments of the same treatment.
type Payment struct {
	ID             int64     `json:"id"`
	ClinicID       int64     `json:"-"`
	Patient        string    `json:"patient"`
	Service        string    `json:"service"`
	Value          float64   `json:"value"`
	DueDate        string    `json:"dueDate"`
	Status         string    `json:"status"`
	LinkedPayments []int64   `json:"linkedPayments,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreatePaymentRequest registers an expected payment.
type CreatePaymentRequest struct {
	Patient        string  `json:"patient" validate:"required"`
	Service        string  `json:"service" validate:"required"`
	Value          float64 `json:"value" validate:"required,gt=0"`
	DueDate        string  `json:"dueDate" validate:"required,datetime=2006-01-02"`
	LinkedPayments []int64 `json:"linkedPayments"`
}

// UpdatePaymentRequest carries a partial update. Nil fields stay unchanged.
type UpdatePaymentRequest struct {
	Patient        *string  `json:"patient"`
	Service        *string  `json:"service"`
	Value          *float64 `json:"value" validate:"omitempty,gt=0"`
	DueDate        *string  `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Status         *string  `json:"status" validate:"omitempty,oneof=pending completed reconciled"`
	LinkedPayments []int64  `json:"linkedPayments"`
}

// Summary aggregates the clinic's receivables by status.
type Summary struct {
	Pending    float64 `json:"pending"`
	Completed  float64 `json:"completed"`
	Reconciled float64 `json:"reconciled"`
	Total      float64 `json:"total"`
	Count      int64   `json:"count"`
}

// Repository stores payments. Every query is clinic-scoped.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("finance: pgx pool required")
	}
	return &Repository{pool: pool}
}

const paymentColumns = `id, clinic_id, patient, service, value,
	to_char(due_date, 'YYYY-MM-DD'), status, linked_payments, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.ClinicID, &p.Patient, &p.Service, &p.Value,
		&p.DueDate, &p.Status, &p.LinkedPayments, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("finance: scan: %w", err)
	}
	return &p, nil
}

// List returns the clinic's payments, optionally filtered by status, due
// soonest first.
func (r *Repository) List(ctx context.Context, clinicID int64, status string) ([]Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments WHERE clinic_id = $1"
	args := []any{clinicID}
	if status != "" {
		args = append(args, status)
		query += " AND status = $2"
	}
	query += " ORDER BY due_date, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finance: list: %w", err)
	}
	defer rows.Close()

	out := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Create registers a pending payment.
func (r *Repository) Create(ctx context.Context, clinicID int64, req *CreatePaymentRequest) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (clinic_id, patient, service, value, due_date, status, linked_payments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+paymentColumns,
		clinicID, req.Patient, req.Service, req.Value, req.DueDate,
		StatusPending, req.LinkedPayments)
	return scanPayment(row)
}

// Update applies a partial update and returns the new row.
func (r *Repository) Update(ctx context.Context, clinicID, id int64, req *UpdatePaymentRequest) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE payments SET
			patient = COALESCE($3, patient),
			service = COALESCE($4, service),
			value = COALESCE($5, value),
			due_date = COALESCE($6::date, due_date),
			status = COALESCE($7, status),
			linked_payments = COALESCE($8, linked_payments),
			updated_at = now()
		WHERE clinic_id = $1 AND id = $2
		RETURNING `+paymentColumns,
		clinicID, id, req.Patient, req.Service, req.Value, req.DueDate,
		req.Status, req.LinkedPayments)
	return scanPayment(row)
}

// Delete removes a payment.
func (r *Repository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM payments WHERE clinic_id = $1 AND id = $2", clinicID, id)
	if err != nil {
		return fmt.Errorf("finance: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// Summarize aggregates receivables by status in a single query.
func (r *Repository) Summarize(ctx context.Context, clinicID int64) (*Summary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(value) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(value) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(value) FILTER (WHERE status = 'reconciled'), 0),
			COALESCE(SUM(value), 0),
			COUNT(*)
		FROM payments WHERE clinic_id = $1`, clinicID)
	var s Summary
	if err := row.Scan(&s.Pending, &s.Completed, &s.Reconciled, &s.Total, &s.Count); err != nil {
		return nil, fmt.Errorf("finance: summarize: %w", err)
	}
	return &s, nil
}
