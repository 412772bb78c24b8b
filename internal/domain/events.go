package domain

import "github.com/shopspring/decimal"

// Event is a notification emitted after a committed state transition.
// Emission is observe-only: the engine never depends on a subscriber's
// success, and no event implies any pending state.
type Event interface {
	EventName() string
}

// OrderCreated is emitted after a new order is inserted and funded.
type OrderCreated struct {
	Token            string          `json:"token"`
	Amount           uint64          `json:"amount"`
	OrderID          string          `json:"order_id"`
	Rate             decimal.Decimal `json:"rate"`
	InstitutionCode  string          `json:"institution_code"`
	Label            string          `json:"label"`
	MessageReference string          `json:"message_reference"`
}

func (OrderCreated) EventName() string { return "OrderCreated" }

// OrderSettled is emitted after each committed settlement leg.
type OrderSettled struct {
	SplitOrderID      string `json:"split_order_id"`
	OrderID           string `json:"order_id"`
	Label             string `json:"label"`
	LiquidityProvider string `json:"liquidity_provider"`
	SettlePercent     uint64 `json:"settle_percent"`
}

func (OrderSettled) EventName() string { return "OrderSettled" }

// OrderRefunded is emitted after a committed refund.
type OrderRefunded struct {
	Fee     uint64 `json:"fee"`
	OrderID string `json:"order_id"`
	Label   string `json:"label"`
}

func (OrderRefunded) EventName() string { return "OrderRefunded" }

// SenderFeeTransferred is emitted once per order, when full fulfillment
// releases the sender fee.
type SenderFeeTransferred struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

func (SenderFeeTransferred) EventName() string { return "SenderFeeTransferred" }

// ProtocolFeeUpdated is emitted when the administrator changes the fee rate.
type ProtocolFeeUpdated struct {
	FeeRateBPS uint64 `json:"fee_rate_bps"`
}

func (ProtocolFeeUpdated) EventName() string { return "ProtocolFeeUpdated" }

// TreasuryUpdated is emitted when the treasury address changes.
type TreasuryUpdated struct {
	Address string `json:"address"`
}

func (TreasuryUpdated) EventName() string { return "TreasuryUpdated" }

// AggregatorUpdated is emitted when the aggregator principal changes.
type AggregatorUpdated struct {
	Address string `json:"address"`
}

func (AggregatorUpdated) EventName() string { return "AggregatorUpdated" }

// TokenSupportChanged is emitted when a token is enabled or disabled.
type TokenSupportChanged struct {
	Token     string `json:"token"`
	Supported bool   `json:"supported"`
}

func (TokenSupportChanged) EventName() string { return "TokenSupportChanged" }

// InstitutionsRegistered is emitted after a batch of institutions is added.
type InstitutionsRegistered struct {
	Currency string   `json:"currency"`
	Codes    []string `json:"codes"`
}

func (InstitutionsRegistered) EventName() string { return "InstitutionsRegistered" }

// PauseStateChanged is emitted when the intake switch flips.
type PauseStateChanged struct {
	Paused bool `json:"paused"`
}

func (PauseStateChanged) EventName() string { return "PauseStateChanged" }
