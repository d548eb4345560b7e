package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/brclinics/clinic-platform/internal/clinics"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// ErrInvalidCredentials covers unknown accounts and wrong passwords alike,
// so responses do not leak which one failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// UserStore is the persistence surface the service needs.
type UserStore interface {
	GetByEmailForClinic(ctx context.Context, email string, clinicID int64) (*User, error)
	GetSuperAdminByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, clinicID *int64, name, email, passwordHash, role string) (*User, error)
}

// ClinicResolver resolves tenant slugs during login/registration.
type ClinicResolver interface {
	GetBySlug(ctx context.Context, slug string) (*clinics.Clinic, error)
}

// LoginRequest is the clinic-user sign-in payload.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	ClinicSlug string `json:"clinic_slug" validate:"required"`
}

// AdminLoginRequest is the super-admin portal sign-in payload.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a clinic-scoped account.
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"omitempty,oneof=admin psicologo secretaria"`
	ClinicSlug string `json:"clinicSlug" validate:"required"`
}

// UserInfo is the client-facing account shape.
type UserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	ClinicSlug string `json:"clinicSlug,omitempty"`
}

// AuthResponse is returned by all sign-in flows.
type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	User        UserInfo `json:"user"`
}

// Service implements the authentication flows.
type Service struct {
	users       UserStore
	clinics     ClinicResolver
	tokens      *TokenManager
	adminTokens *TokenManager
	sessions    *SessionStore
	logger      *logging.Logger
}

func NewService(users UserStore, resolver ClinicResolver, tokens, adminTokens *TokenManager, sessions *SessionStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		users:       users,
		clinics:     resolver,
		tokens:      tokens,
		adminTokens: adminTokens,
		sessions:    sessions,
		logger:      logger,
	}
}

// Login authenticates a clinic user against the tenant resolved from the
// slug.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	clinic, err := s.clinics.GetBySlug(ctx, req.ClinicSlug)
	if err != nil {
		if errors.Is(err, clinics.ErrClinicNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: resolve clinic: %w", err)
	}
	if clinic.Status != clinics.StatusActive {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmailForClinic(ctx, req.Email, clinic.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user.ID, user.Name, user.Role, clinic.Slug)
	if err != nil {
		return nil, err
	}
	return authResponse(token, user, clinic.Slug), nil
}

// AdminLogin authenticates a super-admin with the portal secret.
func (s *Service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetSuperAdminByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	token, _, err := s.adminTokens.Issue(user.ID, user.Name, RoleSuperAdmin, "")
	if err != nil {
		return nil, err
	}
	return authResponse(token, user, ""), nil
}

// Register creates a clinic account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	clinic, err := s.clinics.GetBySlug(ctx, req.ClinicSlug)
	if err != nil {
		if errors.Is(err, clinics.ErrClinicNotFound) {
			return nil, fmt.Errorf("auth: unknown clinic %q", req.ClinicSlug)
		}
		return nil, fmt.Errorf("auth: resolve clinic: %w", err)
	}

	role := req.Role
	if role == "" {
		role = RoleSecretary
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user, err := s.users.Create(ctx, &clinic.ID, req.Name, req.Email, string(hash), role)
	if err != nil {
		return nil, err
	}

	token, _, err := s.tokens.Issue(user.ID, user.Name, user.Role, clinic.Slug)
	if err != nil {
		return nil, err
	}
	return authResponse(token, user, clinic.Slug), nil
}

// Logout revokes the token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Profile loads the account behind a set of claims.
func (s *Service) Profile(ctx context.Context, claims *Claims) (*UserInfo, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("auth: bad subject %q: %w", claims.Subject, err)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := userInfo(user, claims.ClinicSlug)
	return &info, nil
}

// VerifyUser parses a clinic-user token and checks revocation.
func (s *Service) VerifyUser(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, s.tokens, token)
}

// VerifyAdmin parses a super-admin token and checks revocation.
func (s *Service) VerifyAdmin(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, s.adminTokens, token)
}

func (s *Service) verify(ctx context.Context, manager *TokenManager, token string) (*Claims, error) {
	claims, err := manager.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("auth: token revoked")
	}
	return claims, nil
}

func authResponse(token string, user *User, clinicSlug string) *AuthResponse {
	return &AuthResponse{
		AccessToken: token,
		User:        userInfo(user, clinicSlug),
	}
}

func userInfo(user *User, clinicSlug string) UserInfo {
	return UserInfo{
		ID:         strconv.FormatInt(user.ID, 10),
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		ClinicSlug: clinicSlug,
	}
}
