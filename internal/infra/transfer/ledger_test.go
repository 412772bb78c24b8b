package transfer

import (
	"context"
	"errors"
	"testing"

	"escrow_go/internal/domain"
)

func TestPullMovesFundsIntoCustody(t *testing.T) {
	l := NewLedger()
	l.Mint("tok", "alice", 1000)

	if err := l.Pull(context.Background(), "tok", "alice", 400); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if got := l.BalanceOf("tok", "alice"); got != 600 {
		t.Errorf("alice balance = %d, want 600", got)
	}
	if got := l.CustodyOf("tok"); got != 400 {
		t.Errorf("custody = %d, want 400", got)
	}

	err := l.Pull(context.Background(), "tok", "alice", 601)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected insufficient balance, got %v", err)
	}
}

func TestPayoutBatchAllOrNothing(t *testing.T) {
	l := NewLedger()
	l.Mint("tok", "alice", 1000)
	if err := l.Pull(context.Background(), "tok", "alice", 1000); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	// Second leg overdraws custody; the first leg must not apply either.
	err := l.PayoutBatch(context.Background(), []domain.Payout{
		{Token: "tok", To: "bob", Amount: 600},
		{Token: "tok", To: "carol", Amount: 500},
	})
	if !errors.Is(err, ErrInsufficientCustody) {
		t.Fatalf("expected insufficient custody, got %v", err)
	}
	if got := l.BalanceOf("tok", "bob"); got != 0 {
		t.Errorf("bob balance = %d, want 0 after aborted batch", got)
	}
	if got := l.CustodyOf("tok"); got != 1000 {
		t.Errorf("custody = %d, want 1000 after aborted batch", got)
	}

	err = l.PayoutBatch(context.Background(), []domain.Payout{
		{Token: "tok", To: "bob", Amount: 600},
		{Token: "tok", To: "carol", Amount: 400},
	})
	if err != nil {
		t.Fatalf("PayoutBatch failed: %v", err)
	}
	if l.BalanceOf("tok", "bob") != 600 || l.BalanceOf("tok", "carol") != 400 {
		t.Errorf("unexpected balances bob=%d carol=%d", l.BalanceOf("tok", "bob"), l.BalanceOf("tok", "carol"))
	}
	if got := l.CustodyOf("tok"); got != 0 {
		t.Errorf("custody = %d, want 0", got)
	}
}

func TestInjectedFailures(t *testing.T) {
	l := NewLedger()
	l.Mint("tok", "alice", 100)

	boom := errors.New("boom")
	l.FailPulls(boom)
	if err := l.Pull(context.Background(), "tok", "alice", 10); !errors.Is(err, boom) {
		t.Errorf("expected injected pull error, got %v", err)
	}
	l.FailPulls(nil)
	if err := l.Pull(context.Background(), "tok", "alice", 10); err != nil {
		t.Errorf("Pull after reset failed: %v", err)
	}

	l.FailPayouts(boom)
	err := l.PayoutBatch(context.Background(), []domain.Payout{{Token: "tok", To: "bob", Amount: 1}})
	if !errors.Is(err, boom) {
		t.Errorf("expected injected payout error, got %v", err)
	}
}
