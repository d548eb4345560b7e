package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/internal/schedule"
	"github.com/brclinics/clinic-platform/internal/tenancy"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// Handler exposes the appointment endpoints under
// /api/v2/{clinicSlug}/appointments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the appointment subtree. The clinic middleware has already
// resolved the tenant.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/recurring", h.Create)
	r.Post("/validate-time", h.ValidateTime)
	r.Get("/doctor/{doctorID}", h.ListByDoctor)
	r.Get("/patient/{patientID}", h.ListByPatient)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Put("/recurring", h.UpdateSeries)
		r.Delete("/recurring", h.DeleteSeries)
		r.Post("/confirm", h.Confirm)
		r.Post("/cancel", h.Cancel)
		r.Post("/complete", h.Complete)
	})
	return r
}

func clinicID(r *http.Request) (int64, bool) {
	clinic, ok := tenancy.ClinicFromContext(r.Context())
	return clinic.ID, ok
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// writeServiceError maps service failures onto the response contract:
// validation problems become structured 422 lists, unknown ids become 404.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var ve schedule.ValidationErrors
	switch {
	case errors.As(err, &ve):
		respond.ValidationFailed(w, ve)
	case errors.Is(err, ErrAppointmentNotFound):
		respond.Error(w, http.StatusNotFound, "Agendamento não encontrado")
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, "Transição de status não permitida")
	default:
		h.logger.Error("appointment request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro interno ao processar agendamento")
	}
}

// Create handles POST /appointments and POST /appointments/recurring.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	created, err := h.service.Create(r.Context(), cid, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	// Recurring submissions always answer with the series array, even a
	// series of one, so the client's contract stays stable.
	if req.Recurrence.IsRecurring() {
		respond.Created(w, "Agendamentos recorrentes criados com sucesso", created)
		return
	}
	respond.Created(w, "Agendamento criado com sucesso", created[0])
}

// ValidateTime handles POST /appointments/validate-time.
func (h *Handler) ValidateTime(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	var req ValidateTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	result, err := h.service.ValidateTime(r.Context(), cid, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Validação concluída", result)
}

// List handles GET /appointments with optional doctor_id, status,
// date_from and date_to query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	filter := ListFilter{
		Status:   r.URL.Query().Get("status"),
		DateFrom: r.URL.Query().Get("date_from"),
		DateTo:   r.URL.Query().Get("date_to"),
	}
	if raw := r.URL.Query().Get("doctor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "doctor_id inválido")
			return
		}
		filter.DoctorID = &id
	}
	list, err := h.service.List(r.Context(), cid, filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamentos carregados", list)
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	appt, err := h.service.Get(r.Context(), cid, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamento carregado", appt)
}

// ListByDoctor handles GET /appointments/doctor/{doctorID}.
func (h *Handler) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	doctorID, err := pathID(r, "doctorID")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	list, err := h.service.ListByDoctor(r.Context(), cid, doctorID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamentos do profissional carregados", list)
}

// ListByPatient handles GET /appointments/patient/{patientID}.
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	patientID, err := pathID(r, "patientID")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	list, err := h.service.ListByPatient(r.Context(), cid, patientID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamentos do paciente carregados", list)
}

// Update handles PUT /appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	appt, err := h.service.Update(r.Context(), cid, id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamento atualizado com sucesso", appt)
}

// UpdateSeries handles PUT /appointments/{id}/recurring, applying the
// change to every remaining instance of the recurrence series and returning
// the updated instances.
func (h *Handler) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	series, err := h.service.UpdateRecurring(r.Context(), cid, id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamentos recorrentes atualizados com sucesso", series)
}

// DeleteSeries handles DELETE /appointments/{id}/recurring, removing the
// rest of the recurrence series.
func (h *Handler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.service.Delete(r.Context(), cid, id, true); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamentos recorrentes removidos com sucesso", nil)
}

// Confirm handles POST /appointments/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.statusTransition(w, r, h.service.Confirm, "Agendamento confirmado")
}

// Cancel handles POST /appointments/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.statusTransition(w, r, h.service.Cancel, "Agendamento cancelado")
}

// Complete handles POST /appointments/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.statusTransition(w, r, h.service.Complete, "Agendamento concluído")
}

func (h *Handler) statusTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, clinicID, id int64) (*Appointment, error), message string) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	appt, err := fn(r.Context(), cid, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, message, appt)
}

// Delete handles DELETE /appointments/{id}. The all=true query flag removes
// the rest of the recurrence series.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	cid, ok := clinicID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	deleteAll := r.URL.Query().Get("all") == "true"
	if err := h.service.Delete(r.Context(), cid, id, deleteAll); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.OK(w, "Agendamento removido com sucesso", nil)
}
