package config

import (
	"testing"
	"time"

	"rentflow/services/logger"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_TIMEZONE", "RESERVATION_STORE", "RESERVATION_CACHE_TTL", "REMINDER_CRON", "REMINDER_LEAD", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8083" {
		t.Fatalf("port = %s", cfg.Port)
	}
	if cfg.Location.String() != "Asia/Ho_Chi_Minh" && cfg.Location != time.UTC {
		t.Fatalf("location = %s", cfg.Location)
	}
	if cfg.ReservationStore != "postgres" || cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
	if cfg.ReminderCron != "0 * * * *" || cfg.ReminderLead != 6*time.Hour {
		t.Fatalf("unexpected reminder config: %+v", cfg)
	}
	if cfg.LogLevel != logger.InfoLevel {
		t.Fatalf("log level = %v", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RESERVATION_STORE", "Memory")
	t.Setenv("RESERVATION_CACHE_TTL", "30s")
	t.Setenv("REMINDER_LEAD", "garbage")
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg := Load()
	if cfg.Port != "9000" || cfg.ReservationStore != "memory" || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ReminderLead != 6*time.Hour {
		t.Fatalf("invalid duration should fall back, got %v", cfg.ReminderLead)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("location = %s", cfg.Location)
	}
}

func TestGetDBConfigByEnv(t *testing.T) {
	t.Setenv("QC_DB_HOST", "db.local")
	t.Setenv("QC_DB_NAME", "rentflow")
	dsn, err := getDBConfigByEnv("qc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "host=db.local"; len(dsn) < len(want) || dsn[:len(want)] != want {
		t.Fatalf("dsn = %s", dsn)
	}
	if _, err := getDBConfigByEnv("staging"); err == nil {
		t.Fatalf("expected error for unknown env")
	}
}
