package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.Auth.RememberTokenTTL != 720*time.Hour {
		t.Fatalf("unexpected token ttl defaults: %+v", cfg.Auth)
	}
	if cfg.Auth.LoginThrottleMax != 10 || cfg.Auth.LoginThrottleWindow != 2*time.Minute {
		t.Fatalf("unexpected throttle defaults: %+v", cfg.Auth)
	}
	if cfg.Auth.EnforcePermissions {
		t.Fatalf("permissions must not be enforced by default")
	}
	if cfg.Mongo.Database != "user_admin" || cfg.Audit.Workers != 4 {
		t.Fatalf("unexpected mongo/audit defaults: %+v %+v", cfg.Mongo, cfg.Audit)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("default env should be development")
	}
	if nets, err := cfg.TrustedProxyNets(); err != nil || len(nets) != 0 {
		t.Fatalf("no proxy should be trusted by default, got %v %v", nets, err)
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":                "9000",
		"ENV":                 "production",
		"TOKEN_TTL":           "0s",
		"ENFORCE_PERMISSIONS": "true",
		"DATABASE_URL":        "postgres://u:p@db:5432/x",
		"REDIS_DB":            "3",
	}))
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}

	if cfg.Port != "9000" || cfg.IsDevelopment() {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 0 || !cfg.Auth.EnforcePermissions {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.Postgres.URL != "postgres://u:p@db:5432/x" || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected store config: %+v %+v", cfg.Postgres, cfg.Redis)
	}
}

func TestLoadFrom_InvalidDuration(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"TOKEN_TTL": "forever",
	}))
	if err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestTrustedProxyNets(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"TRUSTED_PROXIES": "10.0.0.0/8,203.0.113.7,::1",
	}))
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}

	nets, err := cfg.TrustedProxyNets()
	if err != nil {
		t.Fatalf("TrustedProxyNets returned error: %v", err)
	}
	want := []string{"10.0.0.0/8", "203.0.113.7/32", "::1/128"}
	if len(nets) != len(want) {
		t.Fatalf("expected %d networks, got %v", len(want), nets)
	}
	for i, n := range nets {
		if n.String() != want[i] {
			t.Fatalf("network %d: expected %s, got %s", i, want[i], n)
		}
	}

	cfg.TrustedProxies = []string{"not-an-ip"}
	if _, err := cfg.TrustedProxyNets(); err == nil {
		t.Fatalf("expected error for an invalid proxy address")
	}
}
