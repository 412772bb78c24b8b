package engine

import (
	"fmt"

	"escrow_go/internal/domain"
	"escrow_go/pkg/safe"
)

// Split is the result of dividing one settlement leg between the liquidity
// provider and the treasury.
type Split struct {
	LiquidityProvider uint64
	ProtocolFee       uint64
}

// ComputeSplit divides one settlement leg of an order. settlePercent is the
// fraction of the order being settled this call, in basis points of MaxBPS.
//
// The sender fee is excluded up front (it is paid separately at full
// fulfillment), the provider share is the settled fraction of the remainder,
// and the protocol fee is carved out of the provider share. Partner
// settlements waive the protocol fee entirely in favor of the provider.
//
// Every division truncates toward zero. Across multiple partial settlements
// the truncation residue is bounded by the number of legs; it is accepted,
// not an error.
func ComputeSplit(amount, senderFee, feeRateBPS, settlePercent uint64, isPartner bool) (Split, error) {
	net, err := safe.Sub(amount, senderFee)
	if err != nil {
		return Split{}, fmt.Errorf("sender fee exceeds amount: %w", domain.ErrInvalidInput)
	}

	provider, err := safe.MulDiv(net, settlePercent, domain.MaxBPS)
	if err != nil {
		return Split{}, fmt.Errorf("provider amount: %w", domain.ErrInvalidInput)
	}

	protocolFee, err := safe.MulDiv(provider, feeRateBPS, domain.MaxBPS)
	if err != nil {
		return Split{}, fmt.Errorf("protocol fee: %w", domain.ErrInvalidInput)
	}
	provider -= protocolFee

	if isPartner {
		provider += protocolFee
		protocolFee = 0
	}

	return Split{LiquidityProvider: provider, ProtocolFee: protocolFee}, nil
}
