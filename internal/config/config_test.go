package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.StoreDriver != DriverFile || cfg.StoreFile != "appointments.txt" || cfg.SQLitePath != "appointments.db" {
		t.Fatalf("store config = %+v", cfg)
	}
	if cfg.OpenTime != "10am" || cfg.CloseTime != "6pm" || cfg.OverrideCloseTime != "10pm" || cfg.SlotStep != 15 {
		t.Fatalf("business hours = %+v", cfg)
	}
	if cfg.LogLevel != "warn" || cfg.LogFile != "" {
		t.Fatalf("log config = %+v", cfg)
	}
	if cfg.DBMaxOpenConns != 4 || cfg.DBMaxIdleConns != 2 || cfg.DBConnMaxLifetime != 30*time.Minute || cfg.DBConnMaxIdleTime != 5*time.Minute {
		t.Fatalf("pool config = %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MIRRORBOOKING_STORE_DRIVER", "SQLite")
	t.Setenv("MIRRORBOOKING_SQLITE_PATH", "/tmp/book.db")
	t.Setenv("MIRRORBOOKING_BUSINESS_CLOSE", "7pm")
	t.Setenv("MIRRORBOOKING_DATABASE_CONN_MAX_LIFETIME", "1h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.StoreDriver != DriverSQLite || cfg.SQLitePath != "/tmp/book.db" {
		t.Fatalf("store config = %+v", cfg)
	}
	if cfg.CloseTime != "7pm" {
		t.Fatalf("close = %q, want 7pm", cfg.CloseTime)
	}
	if cfg.DBConnMaxLifetime != time.Hour {
		t.Fatalf("conn max lifetime = %v, want 1h", cfg.DBConnMaxLifetime)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("MIRRORBOOKING_STORE_FILE", "env.txt")
	t.Setenv("MIRRORBOOKING_LOG_LEVEL", "error")

	cfg, err := Load([]string{"--data-file", "flag.txt", "--log-level", "info"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.StoreFile != "flag.txt" {
		t.Fatalf("store file = %q, want flag.txt", cfg.StoreFile)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_UnsetFlagKeepsEnv(t *testing.T) {
	t.Setenv("MIRRORBOOKING_DATA_FILE", "env.txt")

	cfg, err := Load([]string{"--log-level", "info"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.StoreFile != "env.txt" {
		t.Fatalf("store file = %q, want env.txt", cfg.StoreFile)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirrorbooking.yaml")
	content := "store:\n  driver: postgres\ndatabase:\n  url: postgres://u:p@db:5432/shop\nbusiness:\n  open: 9am\n  slot_step: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	cfg, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres || cfg.DatabaseURL != "postgres://u:p@db:5432/shop" {
		t.Fatalf("store config = %+v", cfg)
	}
	if cfg.OpenTime != "9am" || cfg.SlotStep != 30 || cfg.CloseTime != "6pm" {
		t.Fatalf("business hours = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "unknown driver", env: map[string]string{"MIRRORBOOKING_STORE_DRIVER": "redis"}},
		{name: "bad duration", env: map[string]string{"MIRRORBOOKING_DATABASE_CONN_MAX_IDLE_TIME": "soon"}},
		{name: "zero step", env: map[string]string{"MIRRORBOOKING_BUSINESS_SLOT_STEP": "0"}},
		{name: "missing config file", args: []string{"--config", filepath.Join(os.TempDir(), "mirrorbooking-missing.yaml")}},
		{name: "unknown flag", args: []string{"--port", "80"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(tt.args); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
