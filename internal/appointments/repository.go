package appointments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/brclinics/clinic-platform/internal/storage"
)

// ErrAppointmentNotFound is returned for ids outside the clinic's scope.
var ErrAppointmentNotFound = errors.New("appointments: not found")

// Repository stores appointments. Every query is clinic-scoped.
type Repository struct {
	pool storage.DB
}

func NewRepository(pool storage.DB) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{pool: pool}
}

const apptColumns = `a.id, a.clinic_id, a.doctor_id, a.patient_id,
	to_char(a.date, 'YYYY-MM-DD'), a.start_time, a.end_time, a.status,
	COALESCE(a.notes, ''), a.recurrence, a.recurrence_group, a.created_at, a.updated_at`

const apptJoins = `FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id`

func scanAppointment(row pgx.Row, withNames bool) (*Appointment, error) {
	var a Appointment
	dest := []any{
		&a.ID, &a.ClinicID, &a.DoctorID, &a.PatientID,
		&a.Date, &a.StartTime, &a.EndTime, &a.Status,
		&a.Notes, &a.Recurrence, &a.RecurrenceGroup, &a.CreatedAt, &a.UpdatedAt,
	}
	if withNames {
		dest = append(dest, &a.DoctorName, &a.PatientName)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate: %w", err)
	}
	return out, nil
}

// GetByID fetches one appointment with doctor and patient display names.
func (r *Repository) GetByID(ctx context.Context, clinicID, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+apptColumns+", d.name, p.name "+apptJoins+
			" WHERE a.clinic_id = $1 AND a.id = $2",
		clinicID, id)
	return scanAppointment(row, true)
}

// List returns the clinic's appointments, optionally filtered by doctor,
// status and date range, ordered by date and start time.
func (r *Repository) List(ctx context.Context, clinicID int64, filter ListFilter) ([]Appointment, error) {
	query := "SELECT " + apptColumns + ", d.name, p.name " + apptJoins +
		" WHERE a.clinic_id = $1"
	args := []any{clinicID}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		query += " AND a.doctor_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += " AND a.status = $" + strconv.Itoa(len(args))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		query += " AND a.date >= $" + strconv.Itoa(len(args))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		query += " AND a.date <= $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY a.date, a.start_time"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	return collectAppointments(rows)
}

// ListByDoctor returns a doctor's appointments, newest date first.
func (r *Repository) ListByDoctor(ctx context.Context, clinicID, doctorID int64) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+apptColumns+", d.name, p.name "+apptJoins+
			" WHERE a.clinic_id = $1 AND a.doctor_id = $2 ORDER BY a.date DESC, a.start_time",
		clinicID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by doctor: %w", err)
	}
	return collectAppointments(rows)
}

// ListByPatient returns a patient's appointments, newest date first.
func (r *Repository) ListByPatient(ctx context.Context, clinicID, patientID int64) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+apptColumns+", d.name, p.name "+apptJoins+
			" WHERE a.clinic_id = $1 AND a.patient_id = $2 ORDER BY a.date DESC, a.start_time",
		clinicID, patientID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by patient: %w", err)
	}
	return collectAppointments(rows)
}

// ListByGroup returns the instances of a recurrence group on or after
// fromDate, in series order.
func (r *Repository) ListByGroup(ctx context.Context, clinicID int64, group, fromDate string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+apptColumns+", d.name, p.name "+apptJoins+
			" WHERE a.clinic_id = $1 AND a.recurrence_group = $2 AND a.date >= $3 ORDER BY a.date, a.start_time",
		clinicID, group, fromDate)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by group: %w", err)
	}
	return collectAppointments(rows)
}

// FindOverlapping returns non-cancelled appointments for the doctor on the
// date whose interval overlaps [start, end). Two slots overlap when one
// starts before the other ends on both sides. excludeID skips one row so an
// appointment being rescheduled does not conflict with itself.
func (r *Repository) FindOverlapping(ctx context.Context, clinicID, doctorID int64, date, start, end string, excludeID *int64) ([]Appointment, error) {
	query := "SELECT " + apptColumns + ", d.name, p.name " + apptJoins + `
		WHERE a.clinic_id = $1 AND a.doctor_id = $2 AND a.date = $3
		AND a.status <> 'cancelled'
		AND a.start_time < $5 AND a.end_time > $4`
	args := []any{clinicID, doctorID, date, start, end}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += " AND a.id <> $" + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: find overlapping: %w", err)
	}
	return collectAppointments(rows)
}

const insertSQL = `
	INSERT INTO appointments
		(clinic_id, doctor_id, patient_id, date, start_time, end_time, status, notes, recurrence, recurrence_group)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at, updated_at`

// Insert stores a single appointment and fills its generated fields.
func (r *Repository) Insert(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, insertSQL,
		a.ClinicID, a.DoctorID, a.PatientID, a.Date, a.StartTime, a.EndTime,
		a.Status, a.Notes, a.Recurrence, a.RecurrenceGroup)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// InsertBatch stores a recurring series in one transaction. Either every
// instance is persisted or none is.
func (r *Repository) InsertBatch(ctx context.Context, batch []*Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, a := range batch {
		row := tx.QueryRow(ctx, insertSQL,
			a.ClinicID, a.DoctorID, a.PatientID, a.Date, a.StartTime, a.EndTime,
			a.Status, a.Notes, a.Recurrence, a.RecurrenceGroup)
		if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return fmt.Errorf("appointments: insert batch instance: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit batch: %w", err)
	}
	return nil
}

// Update applies a partial update to one appointment and returns the new
// row. Nil request fields keep their current value.
func (r *Repository) Update(ctx context.Context, clinicID, id int64, req UpdateRequest) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments a SET
			doctor_id = COALESCE($3, doctor_id),
			patient_id = COALESCE($4, patient_id),
			date = COALESCE($5::date, date),
			start_time = COALESCE($6, start_time),
			end_time = COALESCE($7, end_time),
			notes = COALESCE($8, notes),
			updated_at = now()
		WHERE a.clinic_id = $1 AND a.id = $2
		RETURNING `+apptColumns,
		clinicID, id, req.DoctorID, req.PatientID, req.Date, req.StartTime, req.EndTime, req.Notes)
	return scanAppointment(row, false)
}

// UpdateSeries applies time and note changes to every instance of a
// recurrence group on or after fromDate.
func (r *Repository) UpdateSeries(ctx context.Context, clinicID int64, group, fromDate string, req UpdateRequest) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET
			doctor_id = COALESCE($4, doctor_id),
			start_time = COALESCE($5, start_time),
			end_time = COALESCE($6, end_time),
			notes = COALESCE($7, notes),
			updated_at = now()
		WHERE clinic_id = $1 AND recurrence_group = $2 AND date >= $3`,
		clinicID, group, fromDate, req.DoctorID, req.StartTime, req.EndTime, req.Notes)
	if err != nil {
		return 0, fmt.Errorf("appointments: update series: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateStatus moves one appointment to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, clinicID, id int64, status string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments a SET status = $3, updated_at = now()
		WHERE a.clinic_id = $1 AND a.id = $2
		RETURNING `+apptColumns,
		clinicID, id, status)
	return scanAppointment(row, false)
}

// Delete removes one appointment.
func (r *Repository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM appointments WHERE clinic_id = $1 AND id = $2", clinicID, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// DeleteSeries removes every instance of a recurrence group on or after
// fromDate and reports how many rows went away.
func (r *Repository) DeleteSeries(ctx context.Context, clinicID int64, group, fromDate string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM appointments WHERE clinic_id = $1 AND recurrence_group = $2 AND date >= $3",
		clinicID, group, fromDate)
	if err != nil {
		return 0, fmt.Errorf("appointments: delete series: %w", err)
	}
	return tag.RowsAffected(), nil
}
