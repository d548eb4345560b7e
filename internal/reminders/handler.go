package reminders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/internal/schedule"
	"github.com/brclinics/clinic-platform/internal/tenancy"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// Handler serves /api/v2/{clinicSlug}/reminders.
type Handler struct {
	repo     *Repository
	validate *validator.Validate
	logger   *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, validate: validator.New(), logger: logger}
}

// Routes mounts the reminder subtree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *Handler) clinicID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	clinic, ok := tenancy.ClinicFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return 0, false
	}
	return clinic.ID, true
}

func writeTimeError(w http.ResponseWriter, err error) {
	var fe schedule.FieldError
	if errors.As(err, &fe) {
		respond.ValidationFailed(w, []schedule.FieldError{fe})
		return
	}
	respond.Error(w, http.StatusBadRequest, "Horário do lembrete inválido")
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	out, err := h.repo.List(r.Context(), cid)
	if err != nil {
		h.logger.Error("list reminders failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao listar lembretes")
		return
	}
	respond.OK(w, "Lembretes carregados", out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do lembrete inválidos")
		return
	}
	if err := req.normalizeTime(); err != nil {
		writeTimeError(w, err)
		return
	}
	rem, err := h.repo.Create(r.Context(), cid, &req)
	if err != nil {
		h.logger.Error("create reminder failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao criar lembrete")
		return
	}
	respond.Created(w, "Lembrete criado com sucesso", rem)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var req UpdateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do lembrete inválidos")
		return
	}
	if err := req.normalizeTime(); err != nil {
		writeTimeError(w, err)
		return
	}
	rem, err := h.repo.Update(r.Context(), cid, id, &req)
	if err != nil {
		if errors.Is(err, ErrReminderNotFound) {
			respond.Error(w, http.StatusNotFound, "Lembrete não encontrado")
			return
		}
		h.logger.Error("update reminder failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao atualizar lembrete")
		return
	}
	respond.OK(w, "Lembrete atualizado com sucesso", rem)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.repo.Delete(r.Context(), cid, id); err != nil {
		if errors.Is(err, ErrReminderNotFound) {
			respond.Error(w, http.StatusNotFound, "Lembrete não encontrado")
			return
		}
		h.logger.Error("delete reminder failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao remover lembrete")
		return
	}
	respond.OK(w, "Lembrete removido com sucesso", nil)
}
