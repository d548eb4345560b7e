package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/schedule"
	"github.com/brclinics/clinic-platform/internal/storage"
)

// Reminder priorities and statuses.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	StatusPending = "pending"
	StatusDone    = "done"
)

// ErrReminderNotFound is returned for ids outside the clinic's scope.
var ErrReminderNotFound = errors.New("reminders: not found")

// Reminder is a dated task shown on the clinic dashboard.
type Reminder struct {
	ID          int64     `json:"id"`
	ClinicID    int64     `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	Time        string    `json:"time,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Kind        string    `json:"kind,omitempty"`
	AssignedTo  *int64    `json:"assigned_to,omitempty"`
	Notify      bool      `json:"notify"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateReminderRequest adds a reminder. Time accepts any format the
// scheduling normalizer understands.
type CreateReminderRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=160"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time"`
	Priority    string `json:"priority" validate:"omitempty,oneof=high medium low"`
	Kind        string `json:"kind"`
	AssignedTo  *int64 `json:"assigned_to"`
	Notify      bool   `json:"notify"`
}

// UpdateReminderRequest carries a partial update. Nil fields stay
// unchanged.
type UpdateReminderRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=160"`
	Description *string `json:"description"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=high medium low"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending done"`
	Kind        *string `json:"kind"`
	AssignedTo  *int64  `json:"assigned_to"`
	Notify      *bool   `json:"notify"`
}

// normalizeTimes runs reminder time fields through the scheduling
// normalizer so stored values are always canonical HH:MM.
func (r *CreateReminderRequest) normalizeTime() error {
	if r.Time == "" {
		return nil
	}
	normalized, err := schedule.NormalizeTime(r.Time)
	if err != nil {
		return err
	}
	r.Time = normalized
	return nil
}

func (r *UpdateReminderRequest) normalizeTime() error {
	if r.Time == nil || *r.Time == "" {
		return nil
	}
	normalized, err := schedule.NormalizeTime(*r.Time)
	if err != nil {
		return err
	}
	r.Time = &normalized
	return nil
}

// Repository stores reminders. Every query is clinic-scoped.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("reminders: pgx pool required")
	}
	return &Repository{pool: pool}
}

const reminderColumns = `id, clinic_id, title, COALESCE(description, ''),
	to_char(date, 'YYYY-MM-DD'), COALESCE(time, ''), priority, status,
	COALESCE(kind, ''), assigned_to, notify, created_at, updated_at`

func scanReminder(row pgx.Row) (*Reminder, error) {
	var rem Reminder
	err := row.Scan(&rem.ID, &rem.ClinicID, &rem.Title, &rem.Description,
		&rem.Date, &rem.Time, &rem.Priority, &rem.Status, &rem.Kind,
		&rem.AssignedTo, &rem.Notify, &rem.CreatedAt, &rem.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("reminders: scan: %w", err)
	}
	return &rem, nil
}

// List returns the clinic's reminders by date then time.
func (r *Repository) List(ctx context.Context, clinicID int64) ([]Reminder, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+reminderColumns+" FROM reminders WHERE clinic_id = $1 ORDER BY date, time",
		clinicID)
	if err != nil {
		return nil, fmt.Errorf("reminders: list: %w", err)
	}
	defer rows.Close()

	out := []Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rem)
	}
	return out, rows.Err()
}

// Upcoming returns pending reminders dated today or later, soonest first.
func (r *Repository) Upcoming(ctx context.Context, clinicID int64, limit int) ([]Reminder, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+reminderColumns+` FROM reminders
		 WHERE clinic_id = $1 AND status = $2 AND date >= CURRENT_DATE
		 ORDER BY date, time LIMIT $3`,
		clinicID, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("reminders: upcoming: %w", err)
	}
	defer rows.Close()

	out := []Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rem)
	}
	return out, rows.Err()
}

// Create adds a pending reminder. Priority defaults to medium.
func (r *Repository) Create(ctx context.Context, clinicID int64, req *CreateReminderRequest) (*Reminder, error) {
	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reminders
			(clinic_id, title, description, date, time, priority, status, kind, assigned_to, notify)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+reminderColumns,
		clinicID, req.Title, req.Description, req.Date, req.Time, priority,
		StatusPending, req.Kind, req.AssignedTo, req.Notify)
	return scanReminder(row)
}

// Update applies a partial update and returns the new row.
func (r *Repository) Update(ctx context.Context, clinicID, id int64, req *UpdateReminderRequest) (*Reminder, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reminders SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			date = COALESCE($5::date, date),
			time = COALESCE($6, time),
			priority = COALESCE($7, priority),
			status = COALESCE($8, status),
			kind = COALESCE($9, kind),
			assigned_to = COALESCE($10, assigned_to),
			notify = COALESCE($11, notify),
			updated_at = now()
		WHERE clinic_id = $1 AND id = $2
		RETURNING `+reminderColumns,
		clinicID, id, req.Title, req.Description, req.Date, req.Time,
		req.Priority, req.Status, req.Kind, req.AssignedTo, req.Notify)
	return scanReminder(row)
}

// Delete removes a reminder.
func (r *Repository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM reminders WHERE clinic_id = $1 AND id = $2", clinicID, id)
	if err != nil {
		return fmt.Errorf("reminders: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}
	return nil
}
