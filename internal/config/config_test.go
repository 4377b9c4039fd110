package config

import (
	"errors"
	"testing"
)

func setCredentials(t *testing.T, prefix string) {
	t.Helper()
	t.Setenv(prefix+"ADMIN_EMAIL", "admin@example.com")
	t.Setenv(prefix+"ADMIN_PASSWORD", "secret")
}

func TestResolveDerivesEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		base   string
	}{
		{name: "local", prefix: "INVITES_LOCAL_", base: "http://127.0.0.1:8090"},
		{name: "deployed", prefix: "INVITES_DEPLOYED_", base: "https://api.reservation.nichemagazine.me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCredentials(t, tt.prefix)

			cfg, err := Resolve(tt.name)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if cfg.BaseURL != tt.base {
				t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, tt.base)
			}
			want := Endpoints{
				Auth:                tt.base + "/api/admins/auth-with-password",
				Guest:               tt.base + "/api/collections/guest/records",
				PrimaryInvitation:   tt.base + "/api/collections/primary_invitation/records",
				SecondaryInvitation: tt.base + "/api/collections/secondary_invitation/records",
			}
			if cfg.Endpoints != want {
				t.Fatalf("Endpoints = %+v, want %+v", cfg.Endpoints, want)
			}
			if cfg.AdminEmail != "admin@example.com" || cfg.AdminPassword != "secret" {
				t.Fatalf("credentials not loaded: %+v", cfg)
			}
		})
	}
}

func TestResolveBaseURLOverride(t *testing.T) {
	setCredentials(t, "INVITES_LOCAL_")
	t.Setenv("INVITES_LOCAL_BASE_URL", "http://backend.test:9000/")

	cfg, err := Resolve("local")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Endpoints.Guest != "http://backend.test:9000/api/collections/guest/records" {
		t.Fatalf("Guest = %q", cfg.Endpoints.Guest)
	}
}

func TestResolveUnknownEnvironment(t *testing.T) {
	cfg, err := Resolve("staging")
	if !errors.Is(err, ErrUnknownEnvironment) {
		t.Fatalf("expected ErrUnknownEnvironment, got %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestResolveMissingCredentials(t *testing.T) {
	t.Setenv("INVITES_DEPLOYED_ADMIN_EMAIL", "")
	t.Setenv("INVITES_DEPLOYED_ADMIN_PASSWORD", "")

	if _, err := Resolve("deployed"); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestEraseOrder(t *testing.T) {
	e := DeriveEndpoints("http://x")
	got := e.EraseOrder()
	want := []string{e.PrimaryInvitation, e.SecondaryInvitation, e.Guest}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("EraseOrder[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.DataDir != "data" {
		t.Fatalf("DataDir = %q, want data", s.DataDir)
	}
	if s.OutputPath != "output_invitations.csv" {
		t.Fatalf("OutputPath = %q", s.OutputPath)
	}
}
