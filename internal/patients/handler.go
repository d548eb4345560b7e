package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/internal/tenancy"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// Handler serves /api/v2/{clinicSlug}/patients.
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

// Routes mounts the patient subtree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
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

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Identificador inválido")
		return 0, false
	}
	return id, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	out, err := h.repo.List(r.Context(), cid, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list patients failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao listar pacientes")
		return
	}
	respond.OK(w, "Pacientes carregados", out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.repo.GetByID(r.Context(), cid, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			respond.Error(w, http.StatusNotFound, "Paciente não encontrado")
			return
		}
		h.logger.Error("get patient failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao carregar paciente")
		return
	}
	respond.OK(w, "Paciente carregado", p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do paciente inválidos")
		return
	}
	p, err := h.repo.Create(r.Context(), cid, &req)
	if err != nil {
		h.logger.Error("create patient failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao cadastrar paciente")
		return
	}
	respond.Created(w, "Paciente cadastrado com sucesso", p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do paciente inválidos")
		return
	}
	p, err := h.repo.Update(r.Context(), cid, id, &req)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			respond.Error(w, http.StatusNotFound, "Paciente não encontrado")
			return
		}
		h.logger.Error("update patient failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao atualizar paciente")
		return
	}
	respond.OK(w, "Paciente atualizado com sucesso", p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), cid, id); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			respond.Error(w, http.StatusNotFound, "Paciente não encontrado")
			return
		}
		h.logger.Error("delete patient failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao remover paciente")
		return
	}
	respond.OK(w, "Paciente removido com sucesso", nil)
}
