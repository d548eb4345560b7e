package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brclinics/clinic-platform/internal/schedule"
)

// stubStore keeps appointments in memory and reports conflicts for the
// dates listed in busy.
type stubStore struct {
	appointments []Appointment
	busy         map[string]Appointment
	nextID       int64

	inserted      []Appointment
	batchInserted [][]Appointment
	overlapErr    error
}

func newStubStore() *stubStore {
	return &stubStore{busy: map[string]Appointment{}, nextID: 1}
}

func (s *stubStore) GetByID(_ context.Context, clinicID, id int64) (*Appointment, error) {
	for i := range s.appointments {
		if s.appointments[i].ID == id && s.appointments[i].ClinicID == clinicID {
			a := s.appointments[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (s *stubStore) List(_ context.Context, clinicID int64, _ ListFilter) ([]Appointment, error) {
	var out []Appointment
	for _, a := range s.appointments {
		if a.ClinicID == clinicID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStore) ListByDoctor(_ context.Context, clinicID, doctorID int64) ([]Appointment, error) {
	var out []Appointment
	for _, a := range s.appointments {
		if a.ClinicID == clinicID && a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStore) ListByPatient(_ context.Context, clinicID, patientID int64) ([]Appointment, error) {
	var out []Appointment
	for _, a := range s.appointments {
		if a.ClinicID == clinicID && a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStore) ListByGroup(_ context.Context, clinicID int64, group, fromDate string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range s.appointments {
		if a.ClinicID == clinicID && a.RecurrenceGroup != nil && *a.RecurrenceGroup == group && a.Date >= fromDate {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubStore) FindOverlapping(_ context.Context, _, _ int64, date, _, _ string, _ *int64) ([]Appointment, error) {
	if s.overlapErr != nil {
		return nil, s.overlapErr
	}
	if existing, ok := s.busy[date]; ok {
		return []Appointment{existing}, nil
	}
	return nil, nil
}

func (s *stubStore) Insert(_ context.Context, a *Appointment) error {
	a.ID = s.nextID
	s.nextID++
	s.appointments = append(s.appointments, *a)
	s.inserted = append(s.inserted, *a)
	return nil
}

func (s *stubStore) InsertBatch(_ context.Context, batch []*Appointment) error {
	stored := make([]Appointment, 0, len(batch))
	for _, a := range batch {
		a.ID = s.nextID
		s.nextID++
		s.appointments = append(s.appointments, *a)
		stored = append(stored, *a)
	}
	s.batchInserted = append(s.batchInserted, stored)
	return nil
}

func (s *stubStore) Update(_ context.Context, clinicID, id int64, req UpdateRequest) (*Appointment, error) {
	for i := range s.appointments {
		a := &s.appointments[i]
		if a.ID != id || a.ClinicID != clinicID {
			continue
		}
		if req.Date != nil {
			a.Date = *req.Date
		}
		if req.StartTime != nil {
			a.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			a.EndTime = *req.EndTime
		}
		if req.Notes != nil {
			a.Notes = *req.Notes
		}
		out := *a
		return &out, nil
	}
	return nil, ErrAppointmentNotFound
}

func (s *stubStore) UpdateSeries(_ context.Context, clinicID int64, group, fromDate string, req UpdateRequest) (int64, error) {
	var n int64
	for i := range s.appointments {
		a := &s.appointments[i]
		if a.ClinicID != clinicID || a.RecurrenceGroup == nil || *a.RecurrenceGroup != group || a.Date < fromDate {
			continue
		}
		if req.StartTime != nil {
			a.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			a.EndTime = *req.EndTime
		}
		if req.Notes != nil {
			a.Notes = *req.Notes
		}
		n++
	}
	return n, nil
}

func (s *stubStore) UpdateStatus(_ context.Context, clinicID, id int64, status string) (*Appointment, error) {
	for i := range s.appointments {
		a := &s.appointments[i]
		if a.ID == id && a.ClinicID == clinicID {
			a.Status = status
			out := *a
			return &out, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (s *stubStore) Delete(_ context.Context, clinicID, id int64) error {
	for i := range s.appointments {
		if s.appointments[i].ID == id && s.appointments[i].ClinicID == clinicID {
			s.appointments = append(s.appointments[:i], s.appointments[i+1:]...)
			return nil
		}
	}
	return ErrAppointmentNotFound
}

func (s *stubStore) DeleteSeries(_ context.Context, clinicID int64, group, fromDate string) (int64, error) {
	var kept []Appointment
	var n int64
	for _, a := range s.appointments {
		if a.ClinicID == clinicID && a.RecurrenceGroup != nil && *a.RecurrenceGroup == group && a.Date >= fromDate {
			n++
			continue
		}
		kept = append(kept, a)
	}
	s.appointments = kept
	return n, nil
}

func newTestService(store *stubStore, now time.Time) *Service {
	service := NewService(store, nil, nil)
	service.now = func() time.Time { return now }
	return service
}

func validCreate() CreateRequest {
	return CreateRequest{
		DoctorID:  1,
		PatientID: 2,
		Date:      "2024-06-10",
		StartTime: "14:30",
		EndTime:   "15:30",
	}
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func codesOf(t *testing.T, err error) []string {
	t.Helper()
	var ve schedule.ValidationErrors
	require.ErrorAs(t, err, &ve)
	codes := make([]string, len(ve))
	for i, fe := range ve {
		codes[i] = fe.Code
	}
	return codes
}

func TestCreateMissingFields(t *testing.T) {
	service := newTestService(newStubStore(), testNow)

	_, err := service.Create(context.Background(), 1, CreateRequest{})
	codes := codesOf(t, err)
	assert.Len(t, codes, 5)
	for _, code := range codes {
		assert.Equal(t, schedule.CodeRequiredField, code)
	}

	var ve schedule.ValidationErrors
	require.ErrorAs(t, err, &ve)
	fields := make([]string, len(ve))
	for i, fe := range ve {
		fields[i] = fe.Field
	}
	assert.Equal(t, []string{"doctor_id", "patient_id", "date", "start_time", "end_time"}, fields)
}

func TestCreateInvalidTimeFormat(t *testing.T) {
	service := newTestService(newStubStore(), testNow)

	req := validCreate()
	req.StartTime = "25:00"
	_, err := service.Create(context.Background(), 1, req)
	assert.Equal(t, []string{schedule.CodeInvalidTimeFormat}, codesOf(t, err))
}

func TestCreateInvalidTimeRange(t *testing.T) {
	service := newTestService(newStubStore(), testNow)

	req := validCreate()
	req.StartTime = "15:30"
	req.EndTime = "14:30"
	_, err := service.Create(context.Background(), 1, req)
	assert.Equal(t, []string{schedule.CodeInvalidTimeRange}, codesOf(t, err))

	req.EndTime = "15:30"
	_, err = service.Create(context.Background(), 1, req)
	assert.Equal(t, []string{schedule.CodeInvalidTimeRange}, codesOf(t, err))
}

func TestCreateSingleNormalizesTimes(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	req := validCreate()
	req.StartTime = "14:30:00"
	req.EndTime = "2024-06-10 15:30:00"
	created, err := service.Create(context.Background(), 1, req)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "14:30", created[0].StartTime)
	assert.Equal(t, "15:30", created[0].EndTime)
	assert.Equal(t, StatusScheduled, created[0].Status)
	assert.Nil(t, created[0].Recurrence)
	require.Len(t, store.inserted, 1)
}

func TestCreateSingleConflict(t *testing.T) {
	store := newStubStore()
	store.busy["2024-06-10"] = Appointment{StartTime: "14:00", EndTime: "15:00"}
	service := newTestService(store, testNow)

	_, err := service.Create(context.Background(), 1, validCreate())
	assert.Equal(t, []string{schedule.CodeTimeConflict}, codesOf(t, err))
	assert.Empty(t, store.inserted)
}

func TestCreateRecurringSeries(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{
		Frequency:   schedule.FreqDaily,
		Interval:    1,
		Occurrences: 3,
	}
	created, err := service.Create(context.Background(), 1, req)
	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12"},
		[]string{created[0].Date, created[1].Date, created[2].Date})

	group := created[0].RecurrenceGroup
	require.NotNil(t, group)
	for i, a := range created {
		require.NotNil(t, a.Recurrence)
		assert.True(t, a.Recurrence.IsRecurringInstance)
		assert.Equal(t, i+1, a.Recurrence.Sequence)
		assert.Equal(t, 3, a.Recurrence.TotalInstances)
		assert.Equal(t, "2024-06-10", a.Recurrence.OriginalDate)
		require.NotNil(t, a.RecurrenceGroup)
		assert.Equal(t, *group, *a.RecurrenceGroup)
	}

	require.Len(t, store.batchInserted, 1)
	assert.Empty(t, store.inserted)
}

func TestCreateRecurringConflictRejectsWholeBatch(t *testing.T) {
	store := newStubStore()
	store.busy["2024-06-11"] = Appointment{StartTime: "14:00", EndTime: "16:00"}
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{Frequency: schedule.FreqDaily, Occurrences: 3}
	_, err := service.Create(context.Background(), 1, req)
	assert.Equal(t, []string{schedule.CodeTimeConflict}, codesOf(t, err))
	assert.Empty(t, store.batchInserted)
	assert.Empty(t, store.appointments)
}

func TestCreateRecurringReportsAllConflicts(t *testing.T) {
	store := newStubStore()
	store.busy["2024-06-10"] = Appointment{StartTime: "14:00", EndTime: "16:00"}
	store.busy["2024-06-12"] = Appointment{StartTime: "14:00", EndTime: "16:00"}
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{Frequency: schedule.FreqDaily, Occurrences: 3}
	_, err := service.Create(context.Background(), 1, req)

	var ve schedule.ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 2)
	assert.Contains(t, ve[0].Message, "2024-06-10")
	assert.Contains(t, ve[1].Message, "2024-06-12")
}

func TestCreateRecurringEmptySeriesFails(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{
		Frequency: schedule.FreqWeekly,
		EndDate:   "2024-06-01",
	}
	_, err := service.Create(context.Background(), 1, req)
	assert.Equal(t, []string{schedule.CodeRecurringFailed}, codesOf(t, err))
	assert.Empty(t, store.batchInserted)
}

func TestCreateRecurringInvalidWeekdayFails(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	// Weekday values outside 0-6 must be rejected, not spun on.
	for _, days := range [][]int{{7}, {-1}} {
		req := validCreate()
		req.Recurrence = &schedule.Rule{Frequency: schedule.FreqWeekly, DaysOfWeek: days}
		_, err := service.Create(context.Background(), 1, req)
		assert.Equal(t, []string{schedule.CodeRecurringFailed}, codesOf(t, err))
	}
	assert.Empty(t, store.batchInserted)
}

func TestCreateRecurringValidationFailureAborts(t *testing.T) {
	store := newStubStore()
	store.overlapErr = errors.New("db down")
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{Frequency: schedule.FreqDaily, Occurrences: 3}
	_, err := service.Create(context.Background(), 1, req)
	require.Error(t, err)
	var ve schedule.ValidationErrors
	assert.False(t, errors.As(err, &ve))
	assert.Empty(t, store.batchInserted)
}

func TestValidateTime(t *testing.T) {
	store := newStubStore()
	store.busy["2024-06-10"] = Appointment{StartTime: "14:00", EndTime: "15:00"}
	service := newTestService(store, testNow)

	result, err := service.ValidateTime(context.Background(), 1, ValidateTimeRequest{
		DoctorID: 1, Date: "2024-06-10", StartTime: "14:30", EndTime: "15:30",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, schedule.CodeTimeConflict, result.Errors[0].Code)

	result, err = service.ValidateTime(context.Background(), 1, ValidateTimeRequest{
		DoctorID: 1, Date: "2024-06-11", StartTime: "14:30", EndTime: "15:30",
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateTimeBadFormat(t *testing.T) {
	service := newTestService(newStubStore(), testNow)

	result, err := service.ValidateTime(context.Background(), 1, ValidateTimeRequest{
		DoctorID: 1, Date: "2024-06-10", StartTime: "9:5", EndTime: "15:30",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, schedule.CodeInvalidTimeFormat, result.Errors[0].Code)
}

func TestStatusTransitions(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	created, err := service.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)
	id := created[0].ID

	confirmed, err := service.Confirm(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	_, err = service.Confirm(context.Background(), 1, id)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	completed, err := service.Complete(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = service.Cancel(context.Background(), 1, id)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateRevalidatesConflicts(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	created, err := service.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)
	id := created[0].ID

	store.busy["2024-06-10"] = Appointment{StartTime: "16:00", EndTime: "17:00"}
	start, end := "16:30", "17:30"
	_, err = service.Update(context.Background(), 1, id, UpdateRequest{StartTime: &start, EndTime: &end})
	assert.Equal(t, []string{schedule.CodeTimeConflict}, codesOf(t, err))
}

func TestUpdateAllPropagatesToSeries(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{Frequency: schedule.FreqDaily, Occurrences: 3}
	created, err := service.Create(context.Background(), 1, req)
	require.NoError(t, err)

	start, end := "09:00", "10:00"
	_, err = service.Update(context.Background(), 1, created[0].ID, UpdateRequest{
		StartTime: &start, EndTime: &end, UpdateAll: true,
	})
	require.NoError(t, err)

	for _, a := range store.appointments {
		assert.Equal(t, "09:00", a.StartTime)
		assert.Equal(t, "10:00", a.EndTime)
	}
}

func TestUpdateRecurringReturnsSeries(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{Frequency: schedule.FreqDaily, Occurrences: 3}
	created, err := service.Create(context.Background(), 1, req)
	require.NoError(t, err)

	start, end := "09:00", "10:00"
	series, err := service.UpdateRecurring(context.Background(), 1, created[0].ID, UpdateRequest{
		StartTime: &start, EndTime: &end,
	})
	require.NoError(t, err)
	require.Len(t, series, 3)
	for _, a := range series {
		assert.Equal(t, "09:00", a.StartTime)
		assert.Equal(t, "10:00", a.EndTime)
	}
}

func TestDeleteSeries(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, testNow)

	req := validCreate()
	req.Recurrence = &schedule.Rule{Frequency: schedule.FreqDaily, Occurrences: 3}
	created, err := service.Create(context.Background(), 1, req)
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), 1, created[1].ID, true))
	assert.Len(t, store.appointments, 1)
	assert.Equal(t, "2024-06-10", store.appointments[0].Date)
}
