package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_GST_PERCENT", "")
	t.Setenv("LOYALTY_THRESHOLD", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DefaultGSTPercent != "18" {
		t.Fatalf("expected default GST 18, got %q", cfg.DefaultGSTPercent)
	}
	if cfg.LoyaltyThreshold != 100 {
		t.Fatalf("expected loyalty threshold 100, got %d", cfg.LoyaltyThreshold)
	}
}

func TestLoadRejectsBogusNumericOverrides(t *testing.T) {
	t.Setenv("REPORT_TTL_SECONDS", "not-a-number")
	t.Setenv("LOYALTY_THRESHOLD", "-5")

	cfg := Load()
	if cfg.ReportTTLSeconds != 300 {
		t.Fatalf("expected fallback report TTL 300, got %d", cfg.ReportTTLSeconds)
	}
	if cfg.LoyaltyThreshold != 100 {
		t.Fatalf("expected fallback loyalty threshold 100, got %d", cfg.LoyaltyThreshold)
	}
}
