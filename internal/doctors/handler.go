package doctors

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

// Handler serves /api/v2/{clinicSlug}/doctors.
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

// Routes mounts the doctor subtree.
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
	out, err := h.repo.List(r.Context(), cid)
	if err != nil {
		h.logger.Error("list doctors failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao listar profissionais")
		return
	}
	respond.OK(w, "Profissionais carregados", out)
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
	d, err := h.repo.GetByID(r.Context(), cid, id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			respond.Error(w, http.StatusNotFound, "Profissional não encontrado")
			return
		}
		h.logger.Error("get doctor failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao carregar profissional")
		return
	}
	respond.OK(w, "Profissional carregado", d)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do profissional inválidos")
		return
	}
	d, err := h.repo.Create(r.Context(), cid, &req)
	if err != nil {
		h.logger.Error("create doctor failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao cadastrar profissional")
		return
	}
	respond.Created(w, "Profissional cadastrado com sucesso", d)
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
	var req UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do profissional inválidos")
		return
	}
	d, err := h.repo.Update(r.Context(), cid, id, &req)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			respond.Error(w, http.StatusNotFound, "Profissional não encontrado")
			return
		}
		h.logger.Error("update doctor failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao atualizar profissional")
		return
	}
	respond.OK(w, "Profissional atualizado com sucesso", d)
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
		if errors.Is(err, ErrDoctorNotFound) {
			respond.Error(w, http.StatusNotFound, "Profissional não encontrado")
			return
		}
		h.logger.Error("delete doctor failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao remover profissional")
		return
	}
	respond.OK(w, "Profissional removido com sucesso", nil)
}
