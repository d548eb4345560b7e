package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brclinics/clinic-platform/internal/observability/metrics"
	"github.com/brclinics/clinic-platform/internal/schedule"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// maxConcurrentValidations bounds the conflict-check fan-out for a
// recurring series.
const maxConcurrentValidations = 8

// ErrInvalidTransition is returned for status moves the lifecycle does not
// allow (e.g. confirming a cancelled appointment).
var ErrInvalidTransition = errors.New("appointments: invalid status transition")

// Store is the persistence surface the service needs. *Repository satisfies
// it in production.
type Store interface {
	GetByID(ctx context.Context, clinicID, id int64) (*Appointment, error)
	List(ctx context.Context, clinicID int64, filter ListFilter) ([]Appointment, error)
	ListByDoctor(ctx context.Context, clinicID, doctorID int64) ([]Appointment, error)
	ListByPatient(ctx context.Context, clinicID, patientID int64) ([]Appointment, error)
	ListByGroup(ctx context.Context, clinicID int64, group, fromDate string) ([]Appointment, error)
	FindOverlapping(ctx context.Context, clinicID, doctorID int64, date, start, end string, excludeID *int64) ([]Appointment, error)
	Insert(ctx context.Context, a *Appointment) error
	InsertBatch(ctx context.Context, batch []*Appointment) error
	Update(ctx context.Context, clinicID, id int64, req UpdateRequest) (*Appointment, error)
	UpdateSeries(ctx context.Context, clinicID int64, group, fromDate string, req UpdateRequest) (int64, error)
	UpdateStatus(ctx context.Context, clinicID, id int64, status string) (*Appointment, error)
	Delete(ctx context.Context, clinicID, id int64) error
	DeleteSeries(ctx context.Context, clinicID int64, group, fromDate string) (int64, error)
}

// Service implements appointment scheduling on top of the recurrence
// expander and the conflict authority.
type Service struct {
	store   Store
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

func NewService(store Store, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:   store,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates and persists an appointment submission. For recurring
// rules the whole expanded series is conflict-checked and inserted
// all-or-nothing: one conflicting instance rejects the entire batch.
func (s *Service) Create(ctx context.Context, clinicID int64, req CreateRequest) ([]Appointment, error) {
	if errs := req.requiredFieldErrors(); len(errs) > 0 {
		return nil, schedule.ValidationErrors(errs)
	}

	start, err := schedule.NormalizeTime(req.StartTime)
	if err != nil {
		return nil, asValidation(err)
	}
	end, err := schedule.NormalizeTime(req.EndTime)
	if err != nil {
		return nil, asValidation(err)
	}
	if start >= end {
		return nil, schedule.ValidationErrors{{
			Message: "Horário de início deve ser anterior ao horário de término",
			Field:   "time",
			Code:    schedule.CodeInvalidTimeRange,
		}}
	}

	seed, err := time.Parse(schedule.DateLayout, req.Date)
	if err != nil {
		return nil, schedule.ValidationErrors{{
			Message: "Data inválida. Use o formato AAAA-MM-DD",
			Field:   "date",
			Code:    schedule.CodeRequiredField,
		}}
	}

	rule := req.Recurrence
	if !rule.IsRecurring() {
		if err := s.checkConflict(ctx, clinicID, req.DoctorID, req.Date, start, end, nil); err != nil {
			return nil, err
		}
		appt := &Appointment{
			ClinicID:  clinicID,
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			Date:      req.Date,
			StartTime: start,
			EndTime:   end,
			Status:    StatusScheduled,
			Notes:     req.Notes,
		}
		if err := s.store.Insert(ctx, appt); err != nil {
			return nil, err
		}
		s.metrics.ObserveCreated(string(schedule.FreqNone), 1)
		return []Appointment{*appt}, nil
	}

	occurrences, err := schedule.Expand(*rule, seed, s.now())
	if err != nil || len(occurrences) == 0 {
		if err != nil {
			s.logger.Warn("recurrence expansion failed", "error", err)
		}
		return nil, schedule.ValidationErrors{{
			Message: "Não foi possível gerar os agendamentos recorrentes",
			Field:   "recurrence",
			Code:    schedule.CodeRecurringFailed,
		}}
	}
	s.metrics.ObserveExpansion(len(occurrences))

	if err := s.validateSeries(ctx, clinicID, req.DoctorID, occurrences, start, end); err != nil {
		return nil, err
	}

	group := uuid.NewString()
	batch := make([]*Appointment, 0, len(occurrences))
	for _, occ := range occurrences {
		instanceRule := *rule
		instanceRule.IsRecurringInstance = true
		instanceRule.OriginalDate = req.Date
		instanceRule.Sequence = occ.Sequence
		instanceRule.TotalInstances = occ.Total
		groupID := group
		batch = append(batch, &Appointment{
			ClinicID:        clinicID,
			DoctorID:        req.DoctorID,
			PatientID:       req.PatientID,
			Date:            occ.Date.Format(schedule.DateLayout),
			StartTime:       start,
			EndTime:         end,
			Status:          StatusScheduled,
			Notes:           req.Notes,
			Recurrence:      &instanceRule,
			RecurrenceGroup: &groupID,
		})
	}
	if err := s.store.InsertBatch(ctx, batch); err != nil {
		return nil, err
	}
	s.metrics.ObserveCreated(string(rule.Frequency), len(batch))

	out := make([]Appointment, len(batch))
	for i, a := range batch {
		out[i] = *a
	}
	return out, nil
}

// validateSeries conflict-checks every expanded instance concurrently. All
// instances are checked so the client sees every conflicting date at once;
// infrastructure errors cancel the remaining checks.
func (s *Service) validateSeries(ctx context.Context, clinicID, doctorID int64, occurrences []schedule.Occurrence, start, end string) error {
	began := s.now()

	var mu sync.Mutex
	var conflicts []schedule.FieldError

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentValidations)
	for _, occ := range occurrences {
		date := occ.Date.Format(schedule.DateLayout)
		g.Go(func() error {
			overlapping, err := s.store.FindOverlapping(ctx, clinicID, doctorID, date, start, end, nil)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				mu.Lock()
				conflicts = append(conflicts, conflictError(date, overlapping[0]))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("appointments: validate series: %w", err)
	}
	s.metrics.ObserveValidation(s.now().Sub(began).Seconds())

	if len(conflicts) > 0 {
		s.metrics.ObserveConflict()
		sort.Slice(conflicts, func(i, j int) bool {
			return conflicts[i].Message < conflicts[j].Message
		})
		return schedule.ValidationErrors(conflicts)
	}
	return nil
}

func (s *Service) checkConflict(ctx context.Context, clinicID, doctorID int64, date, start, end string, excludeID *int64) error {
	overlapping, err := s.store.FindOverlapping(ctx, clinicID, doctorID, date, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		s.metrics.ObserveConflict()
		return schedule.ValidationErrors{conflictError(date, overlapping[0])}
	}
	return nil
}

func conflictError(date string, existing Appointment) schedule.FieldError {
	return schedule.FieldError{
		Message: fmt.Sprintf("Conflito de horário em %s: já existe um agendamento das %s às %s",
			date, existing.StartTime, existing.EndTime),
		Field: "time",
		Code:  schedule.CodeTimeConflict,
	}
}

// ValidateTime answers the conflict-authority question for a single slot
// without persisting anything.
func (s *Service) ValidateTime(ctx context.Context, clinicID int64, req ValidateTimeRequest) (*ValidateTimeResult, error) {
	began := s.now()
	defer func() { s.metrics.ObserveValidation(s.now().Sub(began).Seconds()) }()

	var errs []schedule.FieldError

	start, err := schedule.NormalizeTime(req.StartTime)
	if err != nil {
		errs = append(errs, fieldErrors(err)...)
	}
	end, err := schedule.NormalizeTime(req.EndTime)
	if err != nil {
		errs = append(errs, fieldErrors(err)...)
	}
	if len(errs) == 0 && start >= end {
		errs = append(errs, schedule.FieldError{
			Message: "Horário de início deve ser anterior ao horário de término",
			Field:   "time",
			Code:    schedule.CodeInvalidTimeRange,
		})
	}
	if len(errs) == 0 {
		overlapping, err := s.store.FindOverlapping(ctx, clinicID, req.DoctorID, req.Date, start, end, req.ExcludeID)
		if err != nil {
			return nil, err
		}
		if len(overlapping) > 0 {
			s.metrics.ObserveConflict()
			errs = append(errs, conflictError(req.Date, overlapping[0]))
		}
	}
	return &ValidateTimeResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, clinicID, id int64) (*Appointment, error) {
	return s.store.GetByID(ctx, clinicID, id)
}

// List returns filtered appointments for the clinic.
func (s *Service) List(ctx context.Context, clinicID int64, filter ListFilter) ([]Appointment, error) {
	return s.store.List(ctx, clinicID, filter)
}

// ListByDoctor returns a doctor's appointments.
func (s *Service) ListByDoctor(ctx context.Context, clinicID, doctorID int64) ([]Appointment, error) {
	return s.store.ListByDoctor(ctx, clinicID, doctorID)
}

// ListByPatient returns a patient's appointments.
func (s *Service) ListByPatient(ctx context.Context, clinicID, patientID int64) ([]Appointment, error) {
	return s.store.ListByPatient(ctx, clinicID, patientID)
}

// Update reschedules or annotates an appointment. Time changes are
// re-validated against the conflict authority, excluding the appointment
// itself. With UpdateAll, time and note changes propagate to the remaining
// instances of the recurrence series.
func (s *Service) Update(ctx context.Context, clinicID, id int64, req UpdateRequest) (*Appointment, error) {
	existing, err := s.store.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	date := existing.Date
	if req.Date != nil {
		if _, err := time.Parse(schedule.DateLayout, *req.Date); err != nil {
			return nil, schedule.ValidationErrors{{
				Message: "Data inválida. Use o formato AAAA-MM-DD",
				Field:   "date",
				Code:    schedule.CodeRequiredField,
			}}
		}
		date = *req.Date
	}
	start := existing.StartTime
	if req.StartTime != nil {
		if start, err = schedule.NormalizeTime(*req.StartTime); err != nil {
			return nil, asValidation(err)
		}
		req.StartTime = &start
	}
	end := existing.EndTime
	if req.EndTime != nil {
		if end, err = schedule.NormalizeTime(*req.EndTime); err != nil {
			return nil, asValidation(err)
		}
		req.EndTime = &end
	}
	if start >= end {
		return nil, schedule.ValidationErrors{{
			Message: "Horário de início deve ser anterior ao horário de término",
			Field:   "time",
			Code:    schedule.CodeInvalidTimeRange,
		}}
	}

	doctorID := existing.DoctorID
	if req.DoctorID != nil {
		doctorID = *req.DoctorID
	}
	if err := s.checkConflict(ctx, clinicID, doctorID, date, start, end, &id); err != nil {
		return nil, err
	}

	if req.UpdateAll && existing.RecurrenceGroup != nil {
		if _, err := s.store.UpdateSeries(ctx, clinicID, *existing.RecurrenceGroup, existing.Date, req); err != nil {
			return nil, err
		}
		return s.store.GetByID(ctx, clinicID, id)
	}
	return s.store.Update(ctx, clinicID, id, req)
}

// UpdateRecurring applies the change to every remaining instance of the
// appointment's recurrence series and returns the updated instances. A
// non-recurring appointment is updated alone.
func (s *Service) UpdateRecurring(ctx context.Context, clinicID, id int64, req UpdateRequest) ([]Appointment, error) {
	req.UpdateAll = true
	updated, err := s.Update(ctx, clinicID, id, req)
	if err != nil {
		return nil, err
	}
	if updated.RecurrenceGroup == nil {
		return []Appointment{*updated}, nil
	}
	return s.store.ListByGroup(ctx, clinicID, *updated.RecurrenceGroup, updated.Date)
}

// Confirm moves a scheduled appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, clinicID, id int64) (*Appointment, error) {
	return s.transition(ctx, clinicID, id, StatusConfirmed, StatusScheduled)
}

// Cancel cancels a scheduled or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, clinicID, id int64) (*Appointment, error) {
	return s.transition(ctx, clinicID, id, StatusCancelled, StatusScheduled, StatusConfirmed)
}

// Complete marks a scheduled or confirmed appointment as done.
func (s *Service) Complete(ctx context.Context, clinicID, id int64) (*Appointment, error) {
	return s.transition(ctx, clinicID, id, StatusCompleted, StatusScheduled, StatusConfirmed)
}

func (s *Service) transition(ctx context.Context, clinicID, id int64, to string, from ...string) (*Appointment, error) {
	existing, err := s.store.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, f := range from {
		if existing.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, existing.Status, to)
	}
	return s.store.UpdateStatus(ctx, clinicID, id, to)
}

// Delete removes one appointment, or the rest of its recurrence series when
// deleteAll is set.
func (s *Service) Delete(ctx context.Context, clinicID, id int64, deleteAll bool) error {
	existing, err := s.store.GetByID(ctx, clinicID, id)
	if err != nil {
		return err
	}
	if deleteAll && existing.RecurrenceGroup != nil {
		_, err := s.store.DeleteSeries(ctx, clinicID, *existing.RecurrenceGroup, existing.Date)
		return err
	}
	return s.store.Delete(ctx, clinicID, id)
}

// asValidation wraps a lone FieldError in the aggregate type the handlers
// unwrap.
func asValidation(err error) error {
	var fe schedule.FieldError
	if errors.As(err, &fe) {
		return schedule.ValidationErrors{fe}
	}
	var ve schedule.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return err
}

func fieldErrors(err error) []schedule.FieldError {
	var fe schedule.FieldError
	if errors.As(err, &fe) {
		return []schedule.FieldError{fe}
	}
	var ve schedule.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return []schedule.FieldError{{Message: err.Error(), Code: schedule.CodeRequiredField}}
}
