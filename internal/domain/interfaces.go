package domain

import "context"

// Notifier receives events after each committed state transition.
// Implementations must not block the caller; a slow or failing subscriber
// never affects the engine.
type Notifier interface {
	Notify(ev Event)
}

// Payout is one value-transfer leg out of custody.
type Payout struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Transferor is the external value-transfer collaborator. The engine treats
// both calls as blocking and fatal on failure: any error aborts the enclosing
// operation and rolls back its state. PayoutBatch must apply all legs or none.
type Transferor interface {
	// Pull moves amount of token from the depositor into engine custody.
	Pull(ctx context.Context, token, from string, amount uint64) error

	// PayoutBatch releases custody funds to the given destinations,
	// all-or-nothing.
	PayoutBatch(ctx context.Context, payouts []Payout) error
}
