package config

import (
	"strings"
	"testing"
)

// setBaseEnv gives a test a minimal valid environment.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MAPBOX_TOKEN", "pk.test-token-abc123")
	t.Setenv("WRITE_MODE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GITHUB_CLIENT_ID", "")
	t.Setenv("GITHUB_CLIENT_SECRET", "")
	t.Setenv("PORT", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.WriteMode != WriteModePublic {
		t.Errorf("WriteMode = %q, want public", cfg.WriteMode)
	}
	if cfg.DBPath == "" || cfg.MediaDir == "" {
		t.Error("DBPath and MediaDir must have defaults")
	}
}

func TestLoad_MissingMapboxTokenFailsFast(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAPBOX_TOKEN", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() must refuse to start without MAPBOX_TOKEN")
	}
	if !strings.Contains(err.Error(), "MAPBOX_TOKEN") {
		t.Errorf("error should name the missing variable, got: %v", err)
	}
}

func TestLoad_MalformedMapboxTokenRejected(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAPBOX_TOKEN", "sk.secret-token-should-never-ship")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() must reject a non-public token")
	}
}

func TestLoad_InvalidWriteMode(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WRITE_MODE", "everyone")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() must reject an unknown WRITE_MODE")
	}
}

func TestLoad_AuthenticatedModeNeedsCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WRITE_MODE", "authenticated")

	if _, err := Load(); err == nil {
		t.Fatal("authenticated mode without JWT_SECRET must fail")
	}

	t.Setenv("JWT_SECRET", "a-long-enough-test-secret")
	if _, err := Load(); err == nil {
		t.Fatal("authenticated mode without GitHub credentials must fail")
	}

	t.Setenv("GITHUB_CLIENT_ID", "client-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "client-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WriteMode != WriteModeAuthenticated {
		t.Errorf("WriteMode = %q, want authenticated", cfg.WriteMode)
	}
	if !cfg.AuthConfigured() {
		t.Error("AuthConfigured() should be true with full credentials")
	}
}

func TestLoad_PortOutOfRange(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("Load() must reject an out-of-range port")
	}
}
