package tenancy

import (
	"context"
	"testing"
)

func TestClinicRoundTrip(t *testing.T) {
	ctx := WithClinic(context.Background(), Clinic{ID: 7, Slug: "vida-plena", Name: "Clínica Vida Plena"})
	c, ok := ClinicFromContext(ctx)
	if !ok {
		t.Fatal("expected clinic in context")
	}
	if c.ID != 7 || c.Slug != "vida-plena" {
		t.Errorf("unexpected clinic: %+v", c)
	}
}

func TestClinicMissing(t *testing.T) {
	if _, ok := ClinicFromContext(context.Background()); ok {
		t.Fatal("expected no clinic in empty context")
	}
}

func TestClinicZeroIDTreatedAsMissing(t *testing.T) {
	ctx := WithClinic(context.Background(), Clinic{Slug: "sem-id"})
	if _, ok := ClinicFromContext(ctx); ok {
		t.Fatal("clinic without id should not resolve")
	}
}
