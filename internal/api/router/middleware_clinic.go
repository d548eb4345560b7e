package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brclinics/clinic-platform/internal/api/respond"
	"github.com/brclinics/clinic-platform/internal/auth"
	"github.com/brclinics/clinic-platform/internal/clinics"
	"github.com/brclinics/clinic-platform/internal/tenancy"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// ClinicResolver resolves URL slugs to tenant rows.
type ClinicResolver interface {
	GetBySlug(ctx context.Context, slug string) (*clinics.Clinic, error)
}

// ResolveClinic turns the {clinicSlug} URL segment into a tenant in the
// request context. Unknown or non-active clinics are rejected, and a
// clinic user's token must belong to the clinic it addresses.
func ResolveClinic(resolver ClinicResolver, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := chi.URLParam(r, "clinicSlug")
			if slug == "" {
				respond.Error(w, http.StatusNotFound, "Clínica não informada")
				return
			}
			clinic, err := resolver.GetBySlug(r.Context(), slug)
			if err != nil {
				if errors.Is(err, clinics.ErrClinicNotFound) {
					respond.Error(w, http.StatusNotFound, "Clínica não encontrada")
					return
				}
				logger.Error("resolve clinic failed", "error", err, "slug", slug)
				respond.Error(w, http.StatusInternalServerError, "Erro ao identificar a clínica")
				return
			}
			if clinic.Status != clinics.StatusActive {
				respond.Error(w, http.StatusForbidden, "Clínica indisponível")
				return
			}
			if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
				if claims.Role != auth.RoleSuperAdmin && claims.ClinicSlug != slug {
					respond.Error(w, http.StatusForbidden, "Acesso negado a esta clínica")
					return
				}
			}
			ctx := tenancy.WithClinic(r.Context(), tenancy.Clinic{
				ID:   clinic.ID,
				Slug: clinic.Slug,
				Name: clinic.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
