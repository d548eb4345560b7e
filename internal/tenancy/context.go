package tenancy

import "context"

type ctxKey string

const clinicKey ctxKey = "clinic.tenant"

// Clinic identifies the tenant resolved from the URL slug.
type Clinic struct {
	ID   int64
	Slug string
	Name string
}

// WithClinic stores the resolved clinic in context.
func WithClinic(ctx context.Context, c Clinic) context.Context {
	return context.WithValue(ctx, clinicKey, c)
}

// ClinicFromContext extracts the clinic if present.
func ClinicFromContext(ctx context.Context) (Clinic, bool) {
	c, ok := ctx.Value(clinicKey).(Clinic)
	return c, ok && c.ID != 0
}
