package clinics

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// Handler serves the public slug validation endpoint and the super-admin
// clinic registry.
type Handler struct {
	repo     *Repository
	validate *validator.Validate
	logger   *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

// GET /api/v2/clinics/validate/{slug}
func (h *Handler) ValidateSlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	c, err := h.repo.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			respond.JSONRaw(w, http.StatusOK, map[string]any{
				"valid":   false,
				"message": "Clínica não encontrada",
			})
			return
		}
		respond.Error(w, http.StatusInternalServerError, "erro ao validar a clínica")
		return
	}
	if c.Status != StatusActive {
		respond.JSONRaw(w, http.StatusOK, map[string]any{
			"valid":   false,
			"message": "Clínica indisponível",
		})
		return
	}
	respond.JSONRaw(w, http.StatusOK, map[string]any{"valid": true})
}

// GET /api/v2/admin/clinics
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list clinics failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "erro ao listar clínicas")
		return
	}
	respond.OK(w, "ok", out)
}

// POST /api/v2/admin/clinics
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClinicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "dados da clínica inválidos")
		return
	}
	c, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("create clinic failed", "error", err, "slug", req.Slug)
		respond.Error(w, http.StatusInternalServerError, "erro ao criar clínica")
		return
	}
	respond.Created(w, "clínica criada", c)
}

// PUT /api/v2/admin/clinics/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	var req UpdateClinicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "dados da clínica inválidos")
		return
	}
	c, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			respond.Error(w, http.StatusNotFound, "clínica não encontrada")
			return
		}
		h.logger.Error("update clinic failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "erro ao atualizar clínica")
		return
	}
	respond.OK(w, "clínica atualizada", c)
}

// DELETE /api/v2/admin/clinics/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			respond.Error(w, http.StatusNotFound, "clínica não encontrada")
			return
		}
		h.logger.Error("delete clinic failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "erro ao remover clínica")
		return
	}
	respond.OK(w, "clínica removida", nil)
}
