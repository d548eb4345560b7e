package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/brclinics/clinic-platform/internal/appointments"
	"github.com/brclinics/clinic-platform/internal/auth"
	"github.com/brclinics/clinic-platform/internal/catalog"
	"github.com/brclinics/clinic-platform/internal/clinics"
	"github.com/brclinics/clinic-platform/internal/dashboard"
	"github.com/brclinics/clinic-platform/internal/doctors"
	"github.com/brclinics/clinic-platform/internal/finance"
	httpmiddleware "github.com/brclinics/clinic-platform/internal/http/middleware"
	"github.com/brclinics/clinic-platform/internal/patients"
	"github.com/brclinics/clinic-platform/internal/reminders"
	"github.com/brclinics/clinic-platform/internal/staff"
	"github.com/brclinics/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	AuthHandler         *auth.Handler
	AuthService         *auth.Service
	ClinicsHandler      *clinics.Handler
	ClinicsRepo         ClinicResolver
	AppointmentsHandler *appointments.Handler
	DoctorsHandler      *doctors.Handler
	PatientsHandler     *patients.Handler
	StaffHandler        *staff.Handler
	CatalogHandler      *catalog.Handler
	RemindersHandler    *reminders.Handler
	FinanceHandler      *finance.Handler
	DashboardHandler    *dashboard.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Login endpoints are rate limited per client IP.
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	loginLimit := cfg.LoginRateLimit
	if loginLimit <= 0 {
		loginLimit = 10
	}
	loginWindow := cfg.LoginRateWindow
	if loginWindow <= 0 {
		loginWindow = time.Minute
	}
	loginLimiter := httprate.LimitByIP(loginLimit, loginWindow)

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Get("/api/v2/clinics/validate/{slug}", cfg.ClinicsHandler.ValidateSlug)

		public.With(loginLimiter).Post("/api/v2/auth/login", cfg.AuthHandler.Login)
		public.With(loginLimiter).Post("/api/v2/auth/register", cfg.AuthHandler.Register)
		public.With(loginLimiter).Post("/api/v2/admin/login", cfg.AuthHandler.AdminLogin)
	})

	// Authenticated session endpoints
	r.Group(func(session chi.Router) {
		session.Use(httpmiddleware.RequireUser(cfg.AuthService))
		session.Post("/api/v2/auth/logout", cfg.AuthHandler.Logout)
		session.Get("/api/v2/auth/profile", cfg.AuthHandler.Profile)
	})

	// Super-admin clinic registry
	r.Route("/api/v2/admin/clinics", func(admin chi.Router) {
		admin.Use(httpmiddleware.RequireAdmin(cfg.AuthService))
		admin.Get("/", cfg.ClinicsHandler.List)
		admin.Post("/", cfg.ClinicsHandler.Create)
		admin.Put("/{id}", cfg.ClinicsHandler.Update)
		admin.Delete("/{id}", cfg.ClinicsHandler.Delete)
	})

	// Clinic-scoped resources
	r.Route("/api/v2/{clinicSlug}", func(clinic chi.Router) {
		clinic.Use(httpmiddleware.RequireUser(cfg.AuthService))
		clinic.Use(ResolveClinic(cfg.ClinicsRepo, cfg.Logger))

		clinic.Mount("/appointments", cfg.AppointmentsHandler.Routes())
		clinic.Mount("/doctors", cfg.DoctorsHandler.Routes())
		clinic.Mount("/patients", cfg.PatientsHandler.Routes())
		clinic.Mount("/staff", cfg.StaffHandler.Routes())
		clinic.Mount("/services", cfg.CatalogHandler.Routes())
		clinic.Mount("/reminders", cfg.RemindersHandler.Routes())
		clinic.Mount("/payments", cfg.FinanceHandler.Routes())
		clinic.Get("/dashboard", cfg.DashboardHandler.Get)
	})

	return r
}
