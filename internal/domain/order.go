package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxBPS is the basis-point scale: 100_000 represents 100%.
	MaxBPS uint64 = 100_000

	// SenderFeeCapBPS caps the sender fee at 5% of the order amount.
	SenderFeeCapBPS uint64 = 500
)

// OrderStatus tracks where an order sits in its lifecycle.
type OrderStatus string

const (
	StatusCreated          OrderStatus = "created"
	StatusPartiallySettled OrderStatus = "partially_settled"
	StatusFulfilled        OrderStatus = "fulfilled"
	StatusRefunded         OrderStatus = "refunded"
)

// Order is a single escrowed deposit awaiting settlement or refund.
// Identity fields (ID, Seller, Token, Amount, SenderFee, SenderFeeRecipient,
// RefundAddress, Rate) are written once at creation and never reassigned.
// CurrentBPS starts at MaxBPS and only decreases; IsFulfilled is set exactly
// once, and once it is set no field changes again.
type Order struct {
	ID                 string          `gorm:"primaryKey;size:64" json:"id"`
	Seller             string          `gorm:"index" json:"seller"`
	Token              string          `gorm:"index" json:"token"`
	Amount             uint64          `json:"amount"`
	SenderFeeRecipient string          `json:"sender_fee_recipient"`
	SenderFee          uint64          `json:"sender_fee"`
	Rate               decimal.Decimal `gorm:"type:text" json:"rate"`
	InstitutionCode    string          `json:"institution_code"`
	Label              string          `json:"label"`
	MessageReference   string          `json:"message_reference"`
	RefundAddress      string          `json:"refund_address"`
	CurrentBPS         uint64          `json:"current_bps"`
	IsFulfilled        bool            `json:"is_fulfilled"`
	Status             OrderStatus     `gorm:"index" json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Terminal reports whether the order has left the settlable states.
func (o *Order) Terminal() bool {
	return o.IsFulfilled
}

// NonceState is the per-depositor counter backing order id derivation.
// Strictly increasing for a given depositor; it imposes no ordering across
// depositors.
type NonceState struct {
	Depositor string `gorm:"primaryKey" json:"depositor"`
	Nonce     uint64 `json:"nonce"`
}
