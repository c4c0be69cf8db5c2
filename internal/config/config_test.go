package config

import (
	"strconv"
	"strings"
	"testing"

	"github.com/tessera-live/tessera/internal/domain"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LEDGER_OWNER", "owner")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Port != "8080" {
			t.Fatalf("expected default port, got %s", cfg.Port)
		}
		if cfg.StorageDriver != "memory" {
			t.Fatalf("expected memory driver, got %s", cfg.StorageDriver)
		}
		if cfg.Owner != "owner" {
			t.Fatalf("expected owner, got %s", cfg.Owner)
		}
		if cfg.InitialSupply != 0 || cfg.UnitPrice != 0 {
			t.Fatalf("expected zero amounts, got supply=%d price=%d", cfg.InitialSupply, cfg.UnitPrice)
		}
		if len(cfg.Seats) != 0 {
			t.Fatalf("expected empty catalog, got %v", cfg.Seats)
		}
		if len(cfg.CORSOrigins) == 0 {
			t.Fatalf("expected default CORS origins")
		}
	})

	t.Run("missing JWT secret fails", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("LEDGER_OWNER", "owner")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
			t.Fatalf("expected JWT_SECRET error, got %v", err)
		}
	})

	t.Run("missing owner fails", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("LEDGER_OWNER", "")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "LEDGER_OWNER") {
			t.Fatalf("expected LEDGER_OWNER error, got %v", err)
		}
	})

	t.Run("parses amounts and the catalog", func(t *testing.T) {
		setRequired(t)
		t.Setenv("INITIAL_SUPPLY", "1000")
		t.Setenv("UNIT_PRICE", "10")
		t.Setenv("SEAT_CATALOG", "A1, A2, ,B1")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.InitialSupply != 1000 || cfg.UnitPrice != 10 {
			t.Fatalf("unexpected amounts supply=%d price=%d", cfg.InitialSupply, cfg.UnitPrice)
		}
		want := []string{"A1", "A2", "B1"}
		if len(cfg.Seats) != len(want) {
			t.Fatalf("expected %v, got %v", want, cfg.Seats)
		}
		for i := range want {
			if cfg.Seats[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, cfg.Seats)
			}
		}
	})

	t.Run("rejects a non-numeric supply", func(t *testing.T) {
		setRequired(t)
		t.Setenv("INITIAL_SUPPLY", "lots")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "INITIAL_SUPPLY") {
			t.Fatalf("expected INITIAL_SUPPLY error, got %v", err)
		}
	})

	t.Run("rejects a supply above the amount ceiling", func(t *testing.T) {
		setRequired(t)
		t.Setenv("INITIAL_SUPPLY", strconv.FormatUint(domain.MaxAmount+1, 10))

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "INITIAL_SUPPLY") {
			t.Fatalf("expected INITIAL_SUPPLY error, got %v", err)
		}
	})

	t.Run("rejects an unknown storage driver", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORAGE_DRIVER", "sqlite")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "STORAGE_DRIVER") {
			t.Fatalf("expected STORAGE_DRIVER error, got %v", err)
		}
	})

	t.Run("accepts the postgres driver", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORAGE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://example/db")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.StorageDriver != "postgres" || cfg.DatabaseURL != "postgres://example/db" {
			t.Fatalf("unexpected config %+v", cfg)
		}
	})
}
