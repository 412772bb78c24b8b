package storage

import (
	"path/filepath"
	"testing"

	"escrow_go/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	return s
}

func TestInsertAndGetOrder(t *testing.T) {
	s := setupTestStore(t)

	order := &domain.Order{
		ID:            "a1b2c3",
		Seller:        "0xseller",
		Token:         "0xtoken",
		Amount:        1_000_000,
		Rate:          decimal.NewFromInt(1520),
		RefundAddress: "0xrefund",
		CurrentBPS:    domain.MaxBPS,
		Status:        domain.StatusCreated,
	}

	err := s.Transaction(func(tx *gorm.DB) error {
		return s.InsertOrder(tx, order)
	})
	if err != nil {
		t.Fatalf("InsertOrder failed: %v", err)
	}

	fetched, err := s.GetOrder("a1b2c3")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("order not found after insert")
	}
	if fetched.Amount != 1_000_000 || fetched.CurrentBPS != domain.MaxBPS {
		t.Errorf("unexpected order: %+v", fetched)
	}
	if !fetched.Rate.Equal(decimal.NewFromInt(1520)) {
		t.Errorf("rate round-trip mismatch: %s", fetched.Rate)
	}
}

func TestGetOrderMissing(t *testing.T) {
	s := setupTestStore(t)

	fetched, err := s.GetOrder("missing")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if fetched != nil {
		t.Errorf("expected nil for missing order, got %+v", fetched)
	}
}

func TestNextNonce(t *testing.T) {
	s := setupTestStore(t)

	for want := uint64(1); want <= 3; want++ {
		got, err := s.NextNonce("0xseller")
		if err != nil {
			t.Fatalf("NextNonce failed: %v", err)
		}
		if got != want {
			t.Errorf("NextNonce = %d, want %d", got, want)
		}
	}

	// Independent counter per depositor.
	got, err := s.NextNonce("0xother")
	if err != nil {
		t.Fatalf("NextNonce failed: %v", err)
	}
	if got != 1 {
		t.Errorf("NextNonce for fresh depositor = %d, want 1", got)
	}
}

func TestInstitutionsRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	err := s.SaveInstitutions([]domain.Institution{
		{Code: "ABNGNGLA", Name: "Access Bank", Currency: "NGN"},
		{Code: "GTBINGLA", Name: "GTBank", Currency: "NGN"},
		{Code: "CHASUS33", Name: "JPMorgan Chase", Currency: "USD"},
	})
	if err != nil {
		t.Fatalf("SaveInstitutions failed: %v", err)
	}

	all, err := s.LoadInstitutions()
	if err != nil {
		t.Fatalf("LoadInstitutions failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 institutions, got %d", len(all))
	}
}

func TestTokensAndSettings(t *testing.T) {
	s := setupTestStore(t)

	if err := s.SaveToken("0xusdt", true); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := s.SaveToken("0xusdt", false); err != nil {
		t.Fatalf("SaveToken update failed: %v", err)
	}

	tokens, err := s.LoadTokens()
	if err != nil {
		t.Fatalf("LoadTokens failed: %v", err)
	}
	if enabled, ok := tokens["0xusdt"]; !ok || enabled {
		t.Errorf("expected 0xusdt disabled, got %v (present=%v)", enabled, ok)
	}

	if err := s.SaveSetting("fee_rate_bps", "5000"); err != nil {
		t.Fatalf("SaveSetting failed: %v", err)
	}
	settings, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if settings["fee_rate_bps"] != "5000" {
		t.Errorf("settings round-trip mismatch: %v", settings)
	}
}

func TestSchemaVersionGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	// Pretend a newer release wrote this database.
	if err := s.db.Model(&schemaMeta{}).Where("1 = 1").Update("version", schemaVersion+1).Error; err != nil {
		t.Fatalf("failed to bump schema version: %v", err)
	}

	if _, err := NewStore(path); err == nil {
		t.Fatal("expected reopen of newer-schema database to fail")
	}
}
