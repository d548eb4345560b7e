package dashboard

import (
	"net/http"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/internal/tenancy"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// Handler serves GET /api/v2/{clinicSlug}/dashboard.
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

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	clinic, ok := tenancy.ClinicFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Clínica não identificada")
		return
	}
	data, err := h.service.Load(r.Context(), clinic.ID)
	if err != nil {
		h.logger.Error("load dashboard failed", "error", err, "clinic", clinic.Slug)
		respond.Error(w, http.StatusInternalServerError, "Erro ao carregar o painel")
		return
	}
	respond.OK(w, "Painel carregado", data)
}
