package appointments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brclinics/clinic-platform/internal/schedule"
	"github.com/brclinics/clinic-platform/internal/tenancy"
)

func newTestServer(store *stubStore) *httptest.Server {
	service := NewService(store, nil, nil)
	service.now = func() time.Time { return testNow }
	handler := NewHandler(service, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := tenancy.WithClinic(req.Context(), tenancy.Clinic{ID: 1, Slug: "bemestar"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Mount("/appointments", handler.Routes())
	return httptest.NewServer(r)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestHandlerCreateAppointment(t *testing.T) {
	server := newTestServer(newStubStore())
	defer server.Close()

	body := `{"doctorId":1,"patientId":2,"date":"2024-06-10","startTime":"14:30:00","endTime":"15:30"}`
	resp, err := http.Post(server.URL+"/appointments", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success", env.Status)

	var created Appointment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "14:30", created.StartTime)
	assert.Equal(t, StatusScheduled, created.Status)
}

func TestHandlerCreateValidationErrors(t *testing.T) {
	server := newTestServer(newStubStore())
	defer server.Close()

	resp, err := http.Post(server.URL+"/appointments", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "error", env.Status)

	var errs []schedule.FieldError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 5)
	assert.Equal(t, schedule.CodeRequiredField, errs[0].Code)
	assert.Equal(t, "doctor_id", errs[0].Field)
}

func TestHandlerCreateRecurringReturnsSeries(t *testing.T) {
	server := newTestServer(newStubStore())
	defer server.Close()

	body := `{
		"doctorId": 1, "patientId": 2, "date": "2024-06-10",
		"startTime": "14:30", "endTime": "15:30",
		"recurrence": {"type": "daily", "interval": 1, "occurrences": 3}
	}`
	resp, err := http.Post(server.URL+"/appointments/recurring", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var created []Appointment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 3)
	assert.Equal(t, 1, created[0].Recurrence.Sequence)
	assert.Equal(t, 3, created[2].Recurrence.TotalInstances)
}

func TestHandlerRecurringSingleInstanceReturnsArray(t *testing.T) {
	server := newTestServer(newStubStore())
	defer server.Close()

	// One occurrence is still a series from the client's point of view.
	body := `{
		"doctorId": 1, "patientId": 2, "date": "2024-06-10",
		"startTime": "14:30", "endTime": "15:30",
		"recurrence": {"type": "daily", "occurrences": 1}
	}`
	resp, err := http.Post(server.URL+"/appointments/recurring", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var created []Appointment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 1)
}

func createRecurringSeries(t *testing.T, server *httptest.Server) []Appointment {
	t.Helper()
	body := `{
		"doctorId": 1, "patientId": 2, "date": "2024-06-10",
		"startTime": "14:30", "endTime": "15:30",
		"recurrence": {"type": "daily", "occurrences": 3}
	}`
	resp, err := http.Post(server.URL+"/appointments/recurring", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	var created []Appointment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 3)
	return created
}

func TestHandlerUpdateSeriesRoute(t *testing.T) {
	store := newStubStore()
	server := newTestServer(store)
	defer server.Close()

	createRecurringSeries(t, server)

	req, err := http.NewRequest(http.MethodPut, server.URL+"/appointments/1/recurring",
		strings.NewReader(`{"startTime":"09:00","endTime":"10:00"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var series []Appointment
	require.NoError(t, json.Unmarshal(env.Data, &series))
	require.Len(t, series, 3)
	for _, a := range series {
		assert.Equal(t, "09:00", a.StartTime)
		assert.Equal(t, "10:00", a.EndTime)
	}
}

func TestHandlerDeleteSeriesRoute(t *testing.T) {
	store := newStubStore()
	server := newTestServer(store)
	defer server.Close()

	createRecurringSeries(t, server)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/appointments/2/recurring", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The second instance and everything after it go away.
	require.Len(t, store.appointments, 1)
	assert.Equal(t, "2024-06-10", store.appointments[0].Date)
}

func TestHandlerValidateTime(t *testing.T) {
	store := newStubStore()
	store.busy["2024-06-10"] = Appointment{StartTime: "14:00", EndTime: "15:00"}
	server := newTestServer(store)
	defer server.Close()

	body := `{"doctorId":1,"date":"2024-06-10","startTime":"14:30","endTime":"15:30"}`
	resp, err := http.Post(server.URL+"/appointments/validate-time", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var result ValidateTimeResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, schedule.CodeTimeConflict, result.Errors[0].Code)
}

func TestHandlerGetNotFound(t *testing.T) {
	server := newTestServer(newStubStore())
	defer server.Close()

	resp, err := http.Get(server.URL + "/appointments/999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "error", env.Status)
}

func TestHandlerConfirmFlow(t *testing.T) {
	store := newStubStore()
	server := newTestServer(store)
	defer server.Close()

	body := `{"doctorId":1,"patientId":2,"date":"2024-06-10","startTime":"14:30","endTime":"15:30"}`
	resp, err := http.Post(server.URL+"/appointments", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	env := decodeEnvelope(t, resp)
	var created Appointment
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, err = http.Post(server.URL+"/appointments/1/confirm", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env = decodeEnvelope(t, resp)
	var confirmed Appointment
	require.NoError(t, json.Unmarshal(env.Data, &confirmed))
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	resp, err = http.Post(server.URL+"/appointments/1/confirm", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}
