package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("expected default read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Environment != "test" {
		t.Fatalf("expected test environment by default, got %s", cfg.Environment)
	}
	if cfg.Live() {
		t.Fatalf("default environment must not be live")
	}
	if cfg.Mollie.RedirectURL != "https://boxplanet.shop/checkout/success" {
		t.Fatalf("unexpected redirect url %s", cfg.Mollie.RedirectURL)
	}
	if cfg.Mollie.WebhookURL != "https://boxplanet.vercel.app/api/mollie-webhook" {
		t.Fatalf("unexpected webhook url %s", cfg.Mollie.WebhookURL)
	}
	if len(cfg.CORS.AllowedOrigins) != 3 {
		t.Fatalf("expected default origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Dedup.Collection != "seenTransactions" {
		t.Fatalf("unexpected dedup collection %s", cfg.Dedup.Collection)
	}
}

func TestLoadSelectsKeyByEnvironment(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{
		"BOXPLANET_ENV":   "live",
		"MOLLIE_LIVE_KEY": "live_abc",
		"MOLLIE_TEST_KEY": "test_abc",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Live() {
		t.Fatalf("expected live mode")
	}
	if cfg.APIKey() != "live_abc" {
		t.Fatalf("expected live key, got %s", cfg.APIKey())
	}

	cfg, err = Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{
		"BOXPLANET_ENV":   "test",
		"MOLLIE_LIVE_KEY": "live_abc",
		"MOLLIE_TEST_KEY": "test_abc",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey() != "test_abc" {
		t.Fatalf("expected test key, got %s", cfg.APIKey())
	}
}

func TestLoadRejectsUnknownEnvironment(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{
		"BOXPLANET_ENV": "staging",
	}))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !strings.Contains(err.Error(), "Environment") {
		t.Fatalf("expected Environment in error, got %v", err)
	}
}

func TestLoadParsesOriginsCSV(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins not trimmed: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadAllowsMissingCredentials(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("missing credentials must not fail load: %v", err)
	}
	if cfg.APIKey() != "" || cfg.Resend.APIKey != "" {
		t.Fatalf("expected empty credentials")
	}
}
