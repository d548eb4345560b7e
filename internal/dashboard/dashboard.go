package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/brclinics/clinic-platform/internal/appointments"
	"github.com/brclinics/clinic-platform/internal/reminders"
	"github.com/brclinics/clinic-platform/internal/storage"
)

// Stats are the headline numbers on the clinic dashboard.
type Stats struct {
	Doctors      int64   `json:"doctors"`
	Patients     int64   `json:"patients"`
	Appointments int64   `json:"appointments"`
	Pending      float64 `json:"payments_pending"`
	Received     float64 `json:"payments_received"`
}

// Data is the full dashboard payload.
type Data struct {
	Stats              Stats                      `json:"stats"`
	RecentAppointments []appointments.Appointment `json:"recentAppointments"`
	UpcomingReminders  []reminders.Reminder       `json:"upcomingReminders"`
}

// AppointmentSource lists appointments for the recent-activity panel.
type AppointmentSource interface {
	List(ctx context.Context, clinicID int64, filter appointments.ListFilter) ([]appointments.Appointment, error)
}

// ReminderSource lists pending reminders for the dashboard.
type ReminderSource interface {
	Upcoming(ctx context.Context, clinicID int64, limit int) ([]reminders.Reminder, error)
}

// Service aggregates the dashboard from the other repositories plus its
// own count queries.
type Service struct {
	pool         storage.DB
	appointments AppointmentSource
	reminders    ReminderSource
	now          func() time.Time
}

func NewService(pool storage.DB, appts AppointmentSource, rems ReminderSource) *Service {
	return &Service{
		pool:         pool,
		appointments: appts,
		reminders:    rems,
		now:          time.Now,
	}
}

// Load builds the dashboard payload for one clinic.
func (s *Service) Load(ctx context.Context, clinicID int64) (*Data, error) {
	stats, err := s.loadStats(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	weekAgo := s.now().AddDate(0, 0, -7).Format("2006-01-02")
	recent, err := s.appointments.List(ctx, clinicID, appointments.ListFilter{DateFrom: weekAgo})
	if err != nil {
		return nil, fmt.Errorf("dashboard: recent appointments: %w", err)
	}
	if len(recent) > 10 {
		recent = recent[:10]
	}

	upcoming, err := s.reminders.Upcoming(ctx, clinicID, 5)
	if err != nil {
		return nil, fmt.Errorf("dashboard: upcoming reminders: %w", err)
	}

	return &Data{
		Stats:              *stats,
		RecentAppointments: recent,
		UpcomingReminders:  upcoming,
	}, nil
}

func (s *Service) loadStats(ctx context.Context, clinicID int64) (*Stats, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM doctors WHERE clinic_id = $1 AND is_active),
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1 AND is_active),
			(SELECT COUNT(*) FROM appointments WHERE clinic_id = $1),
			(SELECT COALESCE(SUM(value), 0) FROM payments WHERE clinic_id = $1 AND status = 'pending'),
			(SELECT COALESCE(SUM(value), 0) FROM payments WHERE clinic_id = $1 AND status IN ('completed', 'reconciled'))`,
		clinicID)
	var st Stats
	if err := row.Scan(&st.Doctors, &st.Patients, &st.Appointments, &st.Pending, &st.Received); err != nil {
		return nil, fmt.Errorf("dashboard: stats: %w", err)
	}
	return &st, nil
}
