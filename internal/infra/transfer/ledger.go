// Package transfer provides an in-memory token ledger implementing the
// engine's value-transfer collaborator. It backs tests and local runs; a
// production deployment swaps in a real token integration behind the same
// interface.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"escrow_go/internal/domain"
	"escrow_go/pkg/safe"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientCustody = errors.New("insufficient custody balance")
)

// Ledger is a mutex-guarded map of token balances plus a custody pot per
// token. Payout batches apply all-or-nothing.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]map[string]uint64 // token -> account -> balance
	custody  map[string]uint64            // token -> custodial balance

	// pullErr/payoutErr, when set, make the corresponding call fail.
	// Used to exercise rollback paths.
	pullErr   error
	payoutErr error
}

var _ domain.Transferor = (*Ledger)(nil)

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]map[string]uint64),
		custody:  make(map[string]uint64),
	}
}

// Mint credits an account out of thin air. Test/bootstrap helper.
func (l *Ledger) Mint(token, account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts(token)[account] += amount
}

// BalanceOf returns an account's balance for token.
func (l *Ledger) BalanceOf(token, account string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts(token)[account]
}

// CustodyOf returns the custodial balance for token.
func (l *Ledger) CustodyOf(token string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.custody[token]
}

// FailPulls makes subsequent Pull calls return err (nil restores normal
// behavior).
func (l *Ledger) FailPulls(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pullErr = err
}

// FailPayouts makes subsequent PayoutBatch calls return err (nil restores
// normal behavior).
func (l *Ledger) FailPayouts(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payoutErr = err
}

// Pull implements domain.Transferor.
func (l *Ledger) Pull(_ context.Context, token, from string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pullErr != nil {
		return l.pullErr
	}

	accounts := l.accounts(token)
	if accounts[from] < amount {
		return fmt.Errorf("%w: %s has %d of %s, need %d", ErrInsufficientBalance, from, accounts[from], token, amount)
	}
	accounts[from] -= amount
	l.custody[token] += amount
	return nil
}

// PayoutBatch implements domain.Transferor. Every leg is validated against
// custody before any leg is applied.
func (l *Ledger) PayoutBatch(_ context.Context, payouts []domain.Payout) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.payoutErr != nil {
		return l.payoutErr
	}

	need := make(map[string]uint64)
	for _, p := range payouts {
		total, err := safe.Add(need[p.Token], p.Amount)
		if err != nil {
			return fmt.Errorf("payout batch overflows for %s: %w", p.Token, err)
		}
		need[p.Token] = total
	}
	for token, total := range need {
		if l.custody[token] < total {
			return fmt.Errorf("%w: %s custody %d, need %d", ErrInsufficientCustody, token, l.custody[token], total)
		}
	}

	for _, p := range payouts {
		l.custody[p.Token] -= p.Amount
		l.accounts(p.Token)[p.To] += p.Amount
	}
	return nil
}

func (l *Ledger) accounts(token string) map[string]uint64 {
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[string]uint64)
		l.balances[token] = accounts
	}
	return accounts
}
