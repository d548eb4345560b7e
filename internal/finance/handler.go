package finance

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

// Handler serves /api/v2/{clinicSlug}/payments.
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

// Routes mounts the payments subtree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/summary", h.Summary)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	out, err := h.repo.List(r.Context(), cid, r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("list payments failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao listar pagamentos")
		return
	}
	respond.OK(w, "Pagamentos carregados", out)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	s, err := h.repo.Summarize(r.Context(), cid)
	if err != nil {
		h.logger.Error("payment summary failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao calcular resumo financeiro")
		return
	}
	respond.OK(w, "Resumo financeiro carregado", s)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cid, ok := h.clinicID(w, r)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do pagamento inválidos")
		return
	}
	p, err := h.repo.Create(r.Context(), cid, &req)
	if err != nil {
		h.logger.Error("create payment failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao registrar pagamento")
		return
	}
	respond.Created(w, "Pagamento registrado com sucesso", p)
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
	var req UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados do pagamento inválidos")
		return
	}
	p, err := h.repo.Update(r.Context(), cid, id, &req)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			respond.Error(w, http.StatusNotFound, "Pagamento não encontrado")
			return
		}
		h.logger.Error("update payment failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao atualizar pagamento")
		return
	}
	respond.OK(w, "Pagamento atualizado com sucesso", p)
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
		if errors.Is(err, ErrPaymentNotFound) {
			respond.Error(w, http.StatusNotFound, "Pagamento não encontrado")
			return
		}
		h.logger.Error("delete payment failed", "error", err, "id", id)
		respond.Error(w, http.StatusInternalServerError, "Erro ao remover pagamento")
		return
	}
	respond.OK(w, "Pagamento removido com sucesso", nil)
}
