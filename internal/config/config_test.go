package config

import (
	"os"
	"strings"
	"testing"
)

func setEnv(t *testing.T, key, val string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, val)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/vetcare_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.RequestTimeout != 30 {
		t.Errorf("expected default timeout 30, got %d", cfg.RequestTimeout)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("expected DATABASE_URL in error, got %v", err)
	}
}

func TestValidate_ProductionRequiresJWTSecret(t *testing.T) {
	cfg := &Config{Env: "production", RequestTimeout: 30}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}
}

func TestValidate_ShortJWTSecretRejected(t *testing.T) {
	cfg := &Config{Env: "production", JWTSecret: "tooshort", RequestTimeout: 30}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short JWT_SECRET")
	}
}

func TestValidate_DevWithoutSecretOK(t *testing.T) {
	cfg := &Config{Env: "development", RequestTimeout: 30}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_RequestTimeoutPositive(t *testing.T) {
	cfg := &Config{Env: "development", RequestTimeout: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive request timeout")
	}
}

func TestIsProduction(t *testing.T) {
	if (&Config{Env: "production"}).IsProduction() != true {
		t.Error("expected production")
	}
	if (&Config{Env: "development"}).IsProduction() {
		t.Error("did not expect production")
	}
}
