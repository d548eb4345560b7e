package patients

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patientRowColumns = []string{
	"id", "clinic_id", "name", "email", "phone", "birth_date", "gender",
	"cpf", "rg", "address", "city", "state", "zip_code", "health_insurance",
	"health_insurance_number", "allergies", "chronic_conditions",
	"medications", "notes", "is_active", "created_at", "updated_at",
}

func patientRow(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
	now := time.Now()
	return mock.NewRows(patientRowColumns).AddRow(
		int64(7), int64(1), "João Pereira", "joao@email.com", "11 98888-1111",
		"1990-03-14", "masculino", "123.456.789-00", "", "", "", "", "",
		"", "", "", "", "", "", true, now, now,
	)
}

func TestRepositoryListWithSearch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	mock.ExpectQuery("name ILIKE").
		WithArgs(int64(1), "%João%").
		WillReturnRows(patientRow(mock))

	out, err := repo.List(context.Background(), 1, "João")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "João Pereira", out[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	mock.ExpectQuery("FROM patients WHERE clinic_id").
		WithArgs(int64(1), int64(99)).
		WillReturnRows(mock.NewRows(patientRowColumns))

	_, err = repo.GetByID(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
