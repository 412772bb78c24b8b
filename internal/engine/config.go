package engine

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"escrow_go/internal/domain"
	"escrow_go/internal/infra/storage"
)

// Settings keys persisted through the storage layer.
const (
	settingFeeRate  = "fee_rate_bps"
	settingTreasury = "treasury_address"
)

// ConfigRegistry holds governance state: the supported token set, off-ramp
// institutions indexed by code and grouped by currency, the protocol fee
// rate and the treasury address. Pure state plus validation; order lifecycle
// logic lives in the Registry.
//
// Mutators are admin-gated and persist before touching the live state, so a
// storage failure leaves the served values unchanged. Each successful
// mutation emits a change notification.
type ConfigRegistry struct {
	mu           sync.RWMutex
	feeRateBPS   uint64
	treasury     string
	tokens       map[string]bool
	institutions map[string]domain.Institution

	gov      *Governor
	store    *storage.Store
	notifier domain.Notifier
}

// NewConfigRegistry creates an empty registry. store may be nil, in which
// case governance state lives only in memory.
func NewConfigRegistry(gov *Governor, store *storage.Store, notifier domain.Notifier) *ConfigRegistry {
	return &ConfigRegistry{
		tokens:       make(map[string]bool),
		institutions: make(map[string]domain.Institution),
		gov:          gov,
		store:        store,
		notifier:     notifier,
	}
}

// Load restores persisted governance state from the store, then applies the
// given seed values for anything still unset. Seeds come from the file
// config at bootstrap; persisted state wins so restarts keep admin changes.
func (c *ConfigRegistry) Load(seedFeeRate uint64, seedTreasury string, seedTokens []string, seedInstitutions []domain.Institution) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.feeRateBPS = seedFeeRate
	c.treasury = seedTreasury
	for _, token := range seedTokens {
		c.tokens[token] = true
	}
	for _, inst := range seedInstitutions {
		c.institutions[inst.Code] = inst
	}

	if c.store == nil {
		return nil
	}

	settings, err := c.store.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if v, ok := settings[settingFeeRate]; ok {
		rate, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt persisted fee rate %q: %w", v, err)
		}
		c.feeRateBPS = rate
	}
	if v, ok := settings[settingTreasury]; ok {
		c.treasury = v
	}

	tokens, err := c.store.LoadTokens()
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	for token, enabled := range tokens {
		c.tokens[token] = enabled
	}

	institutions, err := c.store.LoadInstitutions()
	if err != nil {
		return fmt.Errorf("failed to load institutions: %w", err)
	}
	for _, inst := range institutions {
		c.institutions[inst.Code] = inst
	}
	return nil
}

// IsTokenSupported reports whether new orders may lock value in token.
func (c *ConfigRegistry) IsTokenSupported(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens[token]
}

// IsInstitutionSupported reports whether code resolves to a known
// institution.
func (c *ConfigRegistry) IsInstitutionSupported(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.institutions[code]
	return ok
}

// InstitutionInfo returns the institution registered under code.
func (c *ConfigRegistry) InstitutionInfo(code string) (domain.Institution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, ok := c.institutions[code]
	return inst, ok
}

// InstitutionsForCurrency returns all institutions settling in currency,
// ordered by code.
func (c *ConfigRegistry) InstitutionsForCurrency(currency string) []domain.Institution {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Institution
	for _, inst := range c.institutions {
		if inst.Currency == currency {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// FeeRate returns the protocol fee rate in basis points of domain.MaxBPS.
func (c *ConfigRegistry) FeeRate() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeRateBPS
}

// Treasury returns the protocol fee destination.
func (c *ConfigRegistry) Treasury() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treasury
}

// SetTokenSupport enables or disables a token for new orders. Admin only.
func (c *ConfigRegistry) SetTokenSupport(caller, token string, supported bool) error {
	if err := c.gov.RequireAdmin(caller); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("token is empty: %w", domain.ErrInvalidInput)
	}

	if c.store != nil {
		if err := c.store.SaveToken(token, supported); err != nil {
			return fmt.Errorf("failed to persist token support: %w", err)
		}
	}

	c.mu.Lock()
	c.tokens[token] = supported
	c.mu.Unlock()

	notify(c.notifier, domain.TokenSupportChanged{Token: token, Supported: supported})
	return nil
}

// RegisterInstitutions adds or updates institutions for one currency.
// Admin only.
func (c *ConfigRegistry) RegisterInstitutions(caller, currency string, institutions []domain.Institution) error {
	if err := c.gov.RequireAdmin(caller); err != nil {
		return err
	}
	if currency == "" || len(institutions) == 0 {
		return fmt.Errorf("currency or institution list is empty: %w", domain.ErrInvalidInput)
	}
	for _, inst := range institutions {
		if inst.Code == "" || inst.Name == "" {
			return fmt.Errorf("institution %+v is missing code or name: %w", inst, domain.ErrInvalidInput)
		}
	}

	stamped := make([]domain.Institution, 0, len(institutions))
	codes := make([]string, 0, len(institutions))
	for _, inst := range institutions {
		inst.Currency = currency
		stamped = append(stamped, inst)
		codes = append(codes, inst.Code)
	}

	if c.store != nil {
		if err := c.store.SaveInstitutions(stamped); err != nil {
			return fmt.Errorf("failed to persist institutions: %w", err)
		}
	}

	c.mu.Lock()
	for _, inst := range stamped {
		c.institutions[inst.Code] = inst
	}
	c.mu.Unlock()

	notify(c.notifier, domain.InstitutionsRegistered{Currency: currency, Codes: codes})
	return nil
}

// SetFeeRate updates the protocol fee rate. Admin only; rate is bounded by
// domain.MaxBPS.
func (c *ConfigRegistry) SetFeeRate(caller string, rateBPS uint64) error {
	if err := c.gov.RequireAdmin(caller); err != nil {
		return err
	}
	if rateBPS > domain.MaxBPS {
		return fmt.Errorf("fee rate %d exceeds %d: %w", rateBPS, domain.MaxBPS, domain.ErrInvalidInput)
	}

	if c.store != nil {
		if err := c.store.SaveSetting(settingFeeRate, strconv.FormatUint(rateBPS, 10)); err != nil {
			return fmt.Errorf("failed to persist fee rate: %w", err)
		}
	}

	c.mu.Lock()
	c.feeRateBPS = rateBPS
	c.mu.Unlock()

	notify(c.notifier, domain.ProtocolFeeUpdated{FeeRateBPS: rateBPS})
	return nil
}

// SetTreasury updates the protocol fee destination. Admin only.
func (c *ConfigRegistry) SetTreasury(caller, address string) error {
	if err := c.gov.RequireAdmin(caller); err != nil {
		return err
	}
	if address == "" {
		return fmt.Errorf("treasury address is empty: %w", domain.ErrInvalidInput)
	}

	if c.store != nil {
		if err := c.store.SaveSetting(settingTreasury, address); err != nil {
			return fmt.Errorf("failed to persist treasury: %w", err)
		}
	}

	c.mu.Lock()
	c.treasury = address
	c.mu.Unlock()

	notify(c.notifier, domain.TreasuryUpdated{Address: address})
	return nil
}
