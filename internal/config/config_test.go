package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresWebhookSecret(t *testing.T) {
	t.Setenv("CHAPA_WEBHOOK_SECRET", "")
	t.Setenv("STORE_BACKEND", "memory")

	if _, err := load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without CHAPA_WEBHOOK_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAPA_WEBHOOK_SECRET", "whsec")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != "8080" || cfg.Chapa.SignatureHeader != "x-chapa-signature" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Chapa.MaxBodyBytes != 1<<20 || cfg.Processor.MaxCASAttempts != 5 {
		t.Fatalf("unexpected limits %+v", cfg)
	}
	if cfg.ReconcileEnabled() {
		t.Fatal("reconcile must be off without a secret key and interval")
	}
}

func TestLoadDotenvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "CHAPA_WEBHOOK_SECRET=from-file\nSTORE_BACKEND=redis\nREDIS_ADDR=cache:6379\nRECONCILE_INTERVAL=30s\nCHAPA_SECRET_KEY=CHASECK_TEST\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	for _, k := range []string{"CHAPA_WEBHOOK_SECRET", "STORE_BACKEND", "REDIS_ADDR", "RECONCILE_INTERVAL", "CHAPA_SECRET_KEY"} {
		unsetEnv(t, k)
	}
	t.Setenv("APP_PORT", "9090")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chapa.WebhookSecret != "from-file" || cfg.Store.Backend != "redis" || cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("dotenv values not applied: %+v", cfg)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("environment must be read, got port %s", cfg.App.Port)
	}
	if !cfg.ReconcileEnabled() || cfg.Reconcile.Interval != 30*time.Second {
		t.Fatalf("reconcile settings not applied: %+v", cfg.Reconcile)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CHAPA_WEBHOOK_SECRET", "whsec")
	t.Setenv("STORE_BACKEND", "sqlite")

	if _, err := load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadPostgresNeedsDSN(t *testing.T) {
	t.Setenv("CHAPA_WEBHOOK_SECRET", "whsec")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_DSN", "")

	if _, err := load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without DB_DSN")
	}
}

// unsetEnv clears key for the test and restores it afterwards, so godotenv
// can populate it.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
	t.Cleanup(func() { os.Unsetenv(key) })
}

func TestLoadSigningIgnoresStorageSettings(t *testing.T) {
	t.Setenv("CHAPA_WEBHOOK_SECRET", "whsec")
	t.Setenv("CHAPA_SIGNATURE_ALGORITHM", "HMAC-SHA512")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_DSN", "")

	cfg, err := loadSigning(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("signing config must not need a database: %v", err)
	}
	if cfg.WebhookSecret != "whsec" || cfg.SignatureAlgorithm != "hmac-sha512" {
		t.Fatalf("unexpected signing config %+v", cfg)
	}

	t.Setenv("CHAPA_WEBHOOK_SECRET", "")
	if _, err := loadSigning(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without CHAPA_WEBHOOK_SECRET")
	}
}
