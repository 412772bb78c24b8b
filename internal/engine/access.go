package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"escrow_go/internal/domain"
)

// Governor gates every privileged call. Exactly two principals exist: the
// administrator (governance changes, pause switch, never financial flows)
// and the aggregator (the sole caller of settle/refund).
//
// The pause switch gates order creation only; settling and refunding
// existing orders stay available while paused so in-flight obligations can
// still resolve.
type Governor struct {
	mu         sync.RWMutex
	admin      string
	aggregator string
	paused     atomic.Bool
	notifier   domain.Notifier
}

// NewGovernor creates a Governor with the two privileged principals.
func NewGovernor(admin, aggregator string, notifier domain.Notifier) *Governor {
	return &Governor{admin: admin, aggregator: aggregator, notifier: notifier}
}

// RequireAdmin fails unless caller is the administrator.
func (g *Governor) RequireAdmin(caller string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if caller == "" || caller != g.admin {
		return fmt.Errorf("caller %q is not the administrator: %w", caller, domain.ErrUnauthorized)
	}
	return nil
}

// RequireAggregator fails unless caller is the aggregator.
func (g *Governor) RequireAggregator(caller string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if caller == "" || caller != g.aggregator {
		return fmt.Errorf("caller %q is not the aggregator: %w", caller, domain.ErrUnauthorized)
	}
	return nil
}

// RequireActive fails while intake is paused.
func (g *Governor) RequireActive() error {
	if g.paused.Load() {
		return domain.ErrPaused
	}
	return nil
}

// Paused reports the intake switch state.
func (g *Governor) Paused() bool {
	return g.paused.Load()
}

// Pause halts new order intake. Admin only.
func (g *Governor) Pause(caller string) error {
	return g.setPaused(caller, true)
}

// Unpause resumes new order intake. Admin only.
func (g *Governor) Unpause(caller string) error {
	return g.setPaused(caller, false)
}

func (g *Governor) setPaused(caller string, paused bool) error {
	if err := g.RequireAdmin(caller); err != nil {
		return err
	}
	if g.paused.Swap(paused) != paused {
		notify(g.notifier, domain.PauseStateChanged{Paused: paused})
	}
	return nil
}

// Aggregator returns the current aggregator principal.
func (g *Governor) Aggregator() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.aggregator
}

// SetAggregator replaces the aggregator principal. Admin only.
func (g *Governor) SetAggregator(caller, address string) error {
	if err := g.RequireAdmin(caller); err != nil {
		return err
	}
	if address == "" {
		return fmt.Errorf("aggregator address is empty: %w", domain.ErrInvalidInput)
	}
	g.mu.Lock()
	g.aggregator = address
	g.mu.Unlock()
	notify(g.notifier, domain.AggregatorUpdated{Address: address})
	return nil
}

func notify(n domain.Notifier, ev domain.Event) {
	if n != nil {
		n.Notify(ev)
	}
}
