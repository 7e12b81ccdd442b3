package config

import (
	"strings"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("expected DATABASE_URL error, got: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pediacare")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
	if cfg.AccessTokenTTL != 60 {
		t.Errorf("expected default access token TTL 60, got %d", cfg.AccessTokenTTL)
	}
	if cfg.Currency != "XAF" {
		t.Errorf("expected default currency XAF, got %s", cfg.Currency)
	}
	if cfg.BlobBackend != "memory" {
		t.Errorf("expected default blob backend memory, got %s", cfg.BlobBackend)
	}
	if cfg.PaystackBaseURL != "https://api.paystack.co" {
		t.Errorf("expected default paystack base URL, got %s", cfg.PaystackBaseURL)
	}
	// Must include the /v1 path segment the Giphy client appends routes to.
	if cfg.GiphyBaseURL != "https://api.giphy.com/v1" {
		t.Errorf("expected default giphy base URL with /v1, got %s", cfg.GiphyBaseURL)
	}
}

func TestLoad_DevFallbackJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pediacare")
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected a development fallback JWT secret")
	}
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	cfg := &Config{
		Env:             "production",
		DatabaseURL:     "postgres://localhost/pediacare",
		BlobBackend:     "memory",
		AccessTokenTTL:  60,
		ConsultationFee: 5000,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error without JWT_SECRET in production")
	}

	cfg.JWTSecret = "a-real-secret"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error without PAYSTACK_SECRET_KEY in production")
	}

	cfg.PaystackSecret = "sk_live_x"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_S3BackendRequiresBucket(t *testing.T) {
	cfg := &Config{
		Env:             "development",
		JWTSecret:       "dev",
		BlobBackend:     "s3",
		AccessTokenTTL:  60,
		ConsultationFee: 5000,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when BLOB_S3_BUCKET is missing")
	}
	cfg.BlobS3Bucket = "pediacare-uploads"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_RejectsUnknownBlobBackend(t *testing.T) {
	cfg := &Config{
		Env:             "development",
		JWTSecret:       "dev",
		BlobBackend:     "gcs",
		AccessTokenTTL:  60,
		ConsultationFee: 5000,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown blob backend")
	}
}
