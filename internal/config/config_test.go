package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL = %s, want 12h", cfg.TokenTTL)
	}
	if cfg.LoginRateLimit != 10 {
		t.Errorf("LoginRateLimit = %d, want 10", cfg.LoginRateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "45m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.TokenTTL != 45*time.Minute {
		t.Errorf("TokenTTL = %s, want 45m", cfg.TokenTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "whenever")
	cfg := Load()
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL = %s, want default 12h", cfg.TokenTTL)
	}
}
