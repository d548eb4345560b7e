package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/internal/auth"
)

// TokenVerifier validates bearer tokens and returns their claims.
type TokenVerifier interface {
	VerifyUser(ctx context.Context, token string) (*auth.Claims, error)
	VerifyAdmin(ctx context.Context, token string) (*auth.Claims, error)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireUser rejects requests without a valid clinic-user token and puts
// the claims in the request context.
func RequireUser(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Token de autenticação ausente")
				return
			}
			claims, err := verifier.VerifyUser(r.Context(), token)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Sessão inválida ou expirada")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin rejects requests without a valid super-admin token.
func RequireAdmin(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Token de autenticação ausente")
				return
			}
			claims, err := verifier.VerifyAdmin(r.Context(), token)
			if err != nil || claims.Role != auth.RoleSuperAdmin {
				respond.Error(w, http.StatusUnauthorized, "Acesso restrito ao painel administrativo")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole allows only the listed roles through. It must run after
// RequireUser.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Não autenticado")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				respond.Error(w, http.StatusForbidden, "Permissão insuficiente")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
