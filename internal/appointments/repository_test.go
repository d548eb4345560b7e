package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brclinics/clinic-platform/internal/schedule"
)

var apptRowColumns = []string{
	"id", "clinic_id", "doctor_id", "patient_id", "date", "start_time",
	"end_time", "status", "notes", "recurrence", "recurrence_group",
	"created_at", "updated_at", "doctor_name", "patient_name",
}

// anyInsertArgs matches the ten insert parameters without constraining
// their values; pgxmock/v4 treats a missing WithArgs as "expects zero
// arguments" rather than "matches any arguments".
func anyInsertArgs() []interface{} {
	args := make([]interface{}, 10)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRepository(mock)
}

func sampleRow(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
	now := time.Now()
	return mock.NewRows(apptRowColumns).AddRow(
		int64(10), int64(1), int64(3), int64(7), "2024-06-10", "14:30",
		"15:30", StatusScheduled, "", (*schedule.Rule)(nil), (*string)(nil),
		now, now, "Dra. Carla", "João Pereira",
	)
}

func TestRepositoryGetByID(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT .+ FROM appointments a").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sampleRow(mock))

	appt, err := repo.GetByID(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), appt.ID)
	assert.Equal(t, "Dra. Carla", appt.DoctorName)
	assert.Equal(t, "João Pereira", appt.PatientName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT .+ FROM appointments a").
		WithArgs(int64(1), int64(99)).
		WillReturnRows(mock.NewRows(apptRowColumns))

	_, err := repo.GetByID(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestRepositoryFindOverlappingExcludesID(t *testing.T) {
	mock, repo := newMockRepo(t)

	excludeID := int64(10)
	mock.ExpectQuery("a.start_time < .+ AND a.end_time > .+ AND a.id <>").
		WithArgs(int64(1), int64(3), "2024-06-10", "14:30", "15:30", excludeID).
		WillReturnRows(mock.NewRows(apptRowColumns))

	overlapping, err := repo.FindOverlapping(context.Background(), 1, 3, "2024-06-10", "14:30", "15:30", &excludeID)
	require.NoError(t, err)
	assert.Empty(t, overlapping)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByGroup(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("a.recurrence_group = .+ AND a.date >=").
		WithArgs(int64(1), "4b2c6d2e-4a57-4a0f-9d37-1f9b1a2c3d4e", "2024-06-10").
		WillReturnRows(sampleRow(mock))

	series, err := repo.ListByGroup(context.Background(), 1, "4b2c6d2e-4a57-4a0f-9d37-1f9b1a2c3d4e", "2024-06-10")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryInsertBatchCommits(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	for id := int64(1); id <= 2; id++ {
		mock.ExpectQuery("INSERT INTO appointments").
			WithArgs(anyInsertArgs()...).
			WillReturnRows(mock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(id, now, now))
	}
	mock.ExpectCommit()
	mock.ExpectRollback()

	group := "4b2c6d2e-4a57-4a0f-9d37-1f9b1a2c3d4e"
	batch := []*Appointment{
		{ClinicID: 1, DoctorID: 3, PatientID: 7, Date: "2024-06-10", StartTime: "14:30", EndTime: "15:30", Status: StatusScheduled, RecurrenceGroup: &group},
		{ClinicID: 1, DoctorID: 3, PatientID: 7, Date: "2024-06-11", StartTime: "14:30", EndTime: "15:30", Status: StatusScheduled, RecurrenceGroup: &group},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), batch))
	assert.Equal(t, int64(1), batch[0].ID)
	assert.Equal(t, int64(2), batch[1].ID)
}

func TestRepositoryInsertBatchRollsBackOnFailure(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(anyInsertArgs()...).
		WillReturnRows(mock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), now, now))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(anyInsertArgs()...).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	group := "4b2c6d2e-4a57-4a0f-9d37-1f9b1a2c3d4e"
	batch := []*Appointment{
		{ClinicID: 1, Date: "2024-06-10", RecurrenceGroup: &group},
		{ClinicID: 1, Date: "2024-06-11", RecurrenceGroup: &group},
	}
	err := repo.InsertBatch(context.Background(), batch)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(int64(1), int64(99)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
