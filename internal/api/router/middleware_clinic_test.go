package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brclinics/clinic-platform/internal/auth"
	"github.com/brclinics/clinic-platform/internal/clinics"
	"github.com/brclinics/clinic-platform/internal/tenancy"
)

type stubResolver struct {
	clinics map[string]*clinics.Clinic
}

func (s *stubResolver) GetBySlug(_ context.Context, slug string) (*clinics.Clinic, error) {
	c, ok := s.clinics[slug]
	if !ok {
		return nil, clinics.ErrClinicNotFound
	}
	return c, nil
}

func clinicEcho(t *testing.T, captured *tenancy.Clinic) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		clinic, ok := tenancy.ClinicFromContext(r.Context())
		require.True(t, ok)
		*captured = clinic
		w.WriteHeader(http.StatusOK)
	}
}

func newClinicRouter(t *testing.T, resolver *stubResolver, captured *tenancy.Clinic) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/{clinicSlug}", func(cr chi.Router) {
		cr.Use(ResolveClinic(resolver, nil))
		cr.Get("/ping", clinicEcho(t, captured))
	})
	return r
}

func TestResolveClinicStoresTenant(t *testing.T) {
	resolver := &stubResolver{clinics: map[string]*clinics.Clinic{
		"bemestar": {ID: 7, Slug: "bemestar", Name: "Clínica Bem Estar", Status: clinics.StatusActive},
	}}
	var captured tenancy.Clinic
	r := newClinicRouter(t, resolver, &captured)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bemestar/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), captured.ID)
	assert.Equal(t, "bemestar", captured.Slug)
}

func TestResolveClinicUnknownSlug(t *testing.T) {
	var captured tenancy.Clinic
	r := newClinicRouter(t, &stubResolver{clinics: map[string]*clinics.Clinic{}}, &captured)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/desconhecida/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveClinicSuspended(t *testing.T) {
	resolver := &stubResolver{clinics: map[string]*clinics.Clinic{
		"suspensa": {ID: 8, Slug: "suspensa", Status: clinics.StatusSuspended},
	}}
	var captured tenancy.Clinic
	r := newClinicRouter(t, resolver, &captured)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suspensa/ping", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResolveClinicCrossTenantTokenRejected(t *testing.T) {
	resolver := &stubResolver{clinics: map[string]*clinics.Clinic{
		"bemestar": {ID: 7, Slug: "bemestar", Status: clinics.StatusActive},
	}}
	var captured tenancy.Clinic
	r := newClinicRouter(t, resolver, &captured)

	req := httptest.NewRequest(http.MethodGet, "/bemestar/ping", nil)
	claims := &auth.Claims{Role: auth.RoleDoctor, ClinicSlug: "outra-clinica"}
	req = req.WithContext(auth.WithClaims(req.Context(), claims))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResolveClinicSuperAdminBypassesSlugCheck(t *testing.T) {
	resolver := &stubResolver{clinics: map[string]*clinics.Clinic{
		"bemestar": {ID: 7, Slug: "bemestar", Status: clinics.StatusActive},
	}}
	var captured tenancy.Clinic
	r := newClinicRouter(t, resolver, &captured)

	req := httptest.NewRequest(http.MethodGet, "/bemestar/ping", nil)
	claims := &auth.Claims{Role: auth.RoleSuperAdmin}
	req = req.WithContext(auth.WithClaims(req.Context(), claims))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), captured.ID)
}
