package engine

import (
	"path/filepath"
	"testing"

	"escrow_go/internal/domain"
	"escrow_go/internal/infra/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, path string) (*ConfigRegistry, *Governor, *recorder) {
	t.Helper()
	store, err := storage.NewStore(path)
	require.NoError(t, err)

	rec := &recorder{}
	gov := NewGovernor("0xadmin", "0xagg", rec)
	cfg := NewConfigRegistry(gov, store, rec)
	require.NoError(t, cfg.Load(1_000, "0xtreasury", nil, nil))
	return cfg, gov, rec
}

func TestConfigTokenSupport(t *testing.T) {
	cfg, _, rec := newTestConfig(t, filepath.Join(t.TempDir(), "test.db"))

	assert.False(t, cfg.IsTokenSupported("0xusdt"))
	assert.ErrorIs(t, cfg.SetTokenSupport("0xagg", "0xusdt", true), domain.ErrUnauthorized)
	assert.ErrorIs(t, cfg.SetTokenSupport("0xadmin", "", true), domain.ErrInvalidInput)

	require.NoError(t, cfg.SetTokenSupport("0xadmin", "0xusdt", true))
	assert.True(t, cfg.IsTokenSupported("0xusdt"))

	require.NoError(t, cfg.SetTokenSupport("0xadmin", "0xusdt", false))
	assert.False(t, cfg.IsTokenSupported("0xusdt"))

	assert.Len(t, rec.byName("TokenSupportChanged"), 2)
}

func TestConfigInstitutions(t *testing.T) {
	cfg, _, rec := newTestConfig(t, filepath.Join(t.TempDir(), "test.db"))

	err := cfg.RegisterInstitutions("0xadmin", "NGN", []domain.Institution{
		{Code: "GTBINGLA", Name: "GTBank"},
		{Code: "ABNGNGLA", Name: "Access Bank"},
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsInstitutionSupported("GTBINGLA"))
	inst, ok := cfg.InstitutionInfo("ABNGNGLA")
	require.True(t, ok)
	assert.Equal(t, "NGN", inst.Currency, "currency is stamped onto each entry")

	ngn := cfg.InstitutionsForCurrency("NGN")
	require.Len(t, ngn, 2)
	assert.Equal(t, []string{"ABNGNGLA", "GTBINGLA"}, []string{ngn[0].Code, ngn[1].Code})
	assert.Empty(t, cfg.InstitutionsForCurrency("USD"))

	assert.ErrorIs(t, cfg.RegisterInstitutions("0xadmin", "", nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, cfg.RegisterInstitutions("0xadmin", "NGN", []domain.Institution{{Code: ""}}), domain.ErrInvalidInput)

	assert.Len(t, rec.byName("InstitutionsRegistered"), 1)
}

func TestConfigFeeRateAndTreasury(t *testing.T) {
	cfg, _, _ := newTestConfig(t, filepath.Join(t.TempDir(), "test.db"))

	assert.ErrorIs(t, cfg.SetFeeRate("0xadmin", domain.MaxBPS+1), domain.ErrInvalidInput)
	require.NoError(t, cfg.SetFeeRate("0xadmin", 2_500))
	assert.Equal(t, uint64(2_500), cfg.FeeRate())

	assert.ErrorIs(t, cfg.SetTreasury("0xadmin", ""), domain.ErrInvalidInput)
	require.NoError(t, cfg.SetTreasury("0xadmin", "0xvault"))
	assert.Equal(t, "0xvault", cfg.Treasury())
}

func TestConfigMutatorsLeaveNoStateOnPersistFailure(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	rec := &recorder{}
	gov := NewGovernor("0xadmin", "0xagg", rec)
	cfg := NewConfigRegistry(gov, store, rec)
	require.NoError(t, cfg.Load(1_000, "0xtreasury", []string{"0xusdt"}, nil))

	// Every write now fails at the storage layer.
	require.NoError(t, store.Close())

	assert.Error(t, cfg.SetFeeRate("0xadmin", 2_500))
	assert.Equal(t, uint64(1_000), cfg.FeeRate(), "live rate keeps the old value")

	assert.Error(t, cfg.SetTreasury("0xadmin", "0xvault"))
	assert.Equal(t, "0xtreasury", cfg.Treasury())

	assert.Error(t, cfg.SetTokenSupport("0xadmin", "0xdai", true))
	assert.False(t, cfg.IsTokenSupported("0xdai"))
	assert.True(t, cfg.IsTokenSupported("0xusdt"))

	assert.Error(t, cfg.RegisterInstitutions("0xadmin", "NGN", []domain.Institution{
		{Code: "GTBINGLA", Name: "GTBank"},
	}))
	assert.False(t, cfg.IsInstitutionSupported("GTBINGLA"))

	assert.Empty(t, rec.byName("ProtocolFeeUpdated"))
	assert.Empty(t, rec.byName("TreasuryUpdated"))
	assert.Empty(t, rec.byName("TokenSupportChanged"))
	assert.Empty(t, rec.byName("InstitutionsRegistered"))
}

func TestConfigPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	cfg, _, _ := newTestConfig(t, path)

	require.NoError(t, cfg.SetFeeRate("0xadmin", 2_500))
	require.NoError(t, cfg.SetTokenSupport("0xadmin", "0xusdt", true))
	require.NoError(t, cfg.RegisterInstitutions("0xadmin", "NGN", []domain.Institution{
		{Code: "ABNGNGLA", Name: "Access Bank"},
	}))

	// A fresh registry over the same database sees admin changes win over
	// the file seed.
	cfg2, _, _ := newTestConfig(t, path)
	assert.Equal(t, uint64(2_500), cfg2.FeeRate())
	assert.True(t, cfg2.IsTokenSupported("0xusdt"))
	assert.True(t, cfg2.IsInstitutionSupported("ABNGNGLA"))
}
