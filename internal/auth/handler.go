package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Login handles POST /api/v2/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Email, senha e clínica são obrigatórios")
		return
	}
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "Email ou senha incorretos")
			return
		}
		h.logger.Error("login failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao realizar login")
		return
	}
	respond.OK(w, "Login realizado com sucesso", resp)
}

// AdminLogin handles POST /api/v2/admin/login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Email e senha são obrigatórios")
		return
	}
	resp, err := h.service.AdminLogin(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "Email ou senha incorretos")
			return
		}
		h.logger.Error("admin login failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao realizar login")
		return
	}
	respond.OK(w, "Login realizado com sucesso", resp)
}

// Register handles POST /api/v2/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Dados de cadastro inválidos")
		return
	}
	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.logger.Error("register failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao criar conta")
		return
	}
	respond.Created(w, "Conta criada com sucesso", resp)
}

// Logout handles POST /api/v2/auth/logout. The auth middleware has already
// placed the claims in the context.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Não autenticado")
		return
	}
	if err := h.service.Logout(r.Context(), claims); err != nil {
		h.logger.Error("logout failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao encerrar sessão")
		return
	}
	respond.OK(w, "Logout realizado com sucesso", nil)
}

// Profile handles GET /api/v2/auth/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Não autenticado")
		return
	}
	info, err := h.service.Profile(r.Context(), claims)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "Usuário não encontrado")
			return
		}
		h.logger.Error("profile lookup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Erro ao carregar perfil")
		return
	}
	respond.OK(w, "Perfil carregado", info)
}
