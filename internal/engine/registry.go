package engine

import (
	"context"
	"fmt"
	"sync"

	"escrow_go/internal/domain"
	"escrow_go/internal/infra"
	"escrow_go/internal/infra/storage"
	"escrow_go/pkg/safe"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Registry owns the order records and is the only component that mutates
// them. A single mutex serializes every mutating call, so no two
// settle/refund calls are ever evaluated against the same CurrentBPS
// snapshot; reads are served from committed storage state.
//
// Each mutation runs inside one storage transaction: rows are written first,
// value transfers are issued inside the same transaction, and any transfer
// failure rolls the entire operation back. Notifications go out only after
// the transaction commits and the registry lock is released, so a slow
// subscriber can never extend the exclusive section.
type Registry struct {
	mu       sync.Mutex
	store    *storage.Store
	cfg      *ConfigRegistry
	gov      *Governor
	ids      *Allocator
	transfer domain.Transferor
	notifier domain.Notifier
}

// NewRegistry wires the order registry to its collaborators.
func NewRegistry(store *storage.Store, cfg *ConfigRegistry, gov *Governor, ids *Allocator, transfer domain.Transferor, notifier domain.Notifier) *Registry {
	return &Registry{
		store:    store,
		cfg:      cfg,
		gov:      gov,
		ids:      ids,
		transfer: transfer,
		notifier: notifier,
	}
}

// CreateOrderParams carries everything a depositor supplies when locking
// value against an off-ramp order.
type CreateOrderParams struct {
	Seller             string
	Token              string
	Amount             uint64
	InstitutionCode    string
	Label              string
	Rate               decimal.Decimal
	SenderFeeRecipient string
	SenderFee          uint64
	RefundAddress      string
	MessageReference   string
}

func (r *Registry) validateCreate(p CreateOrderParams) error {
	if err := r.gov.RequireActive(); err != nil {
		return err
	}
	if p.Seller == "" {
		return fmt.Errorf("seller is empty: %w", domain.ErrInvalidInput)
	}
	if !r.cfg.IsTokenSupported(p.Token) {
		return fmt.Errorf("token %q is not supported: %w", p.Token, domain.ErrInvalidInput)
	}
	if p.Amount == 0 {
		return fmt.Errorf("amount is zero: %w", domain.ErrInvalidInput)
	}
	if p.RefundAddress == "" {
		return fmt.Errorf("refund address is empty: %w", domain.ErrInvalidInput)
	}
	if !r.cfg.IsInstitutionSupported(p.InstitutionCode) {
		return fmt.Errorf("institution %q is not supported: %w", p.InstitutionCode, domain.ErrInvalidInput)
	}
	if p.SenderFee > 0 && p.SenderFeeRecipient == "" {
		return fmt.Errorf("sender fee without recipient: %w", domain.ErrInvalidInput)
	}
	maxFee, err := ComputeSenderFeeCap(p.Amount)
	if err != nil {
		return err
	}
	if p.SenderFee > maxFee {
		return fmt.Errorf("sender fee %d exceeds cap %d: %w", p.SenderFee, maxFee, domain.ErrInvalidInput)
	}
	if p.MessageReference == "" {
		return fmt.Errorf("message reference is empty: %w", domain.ErrInvalidInput)
	}
	return nil
}

// CreateOrder locks the depositor's value in custody and inserts a fresh
// order record. Creation is gated by the pause switch, evaluated under the
// registry lock together with the insert; all preconditions are checked
// before any state is touched.
func (r *Registry) CreateOrder(ctx context.Context, p CreateOrderParams) (string, error) {
	r.mu.Lock()
	orderID, err := r.createOrderLocked(ctx, p)
	r.mu.Unlock()
	if err != nil {
		return "", err
	}

	infra.GlobalMetrics.RecordOrderCreated(p.Amount)
	notify(r.notifier, domain.OrderCreated{
		Token:            p.Token,
		Amount:           p.Amount,
		OrderID:          orderID,
		Rate:             p.Rate,
		InstitutionCode:  p.InstitutionCode,
		Label:            p.Label,
		MessageReference: p.MessageReference,
	})
	return orderID, nil
}

func (r *Registry) createOrderLocked(ctx context.Context, p CreateOrderParams) (string, error) {
	if err := r.validateCreate(p); err != nil {
		return "", err
	}

	orderID, _, err := r.ids.NextID(p.Seller)
	if err != nil {
		return "", err
	}

	order := &domain.Order{
		ID:                 orderID,
		Seller:             p.Seller,
		Token:              p.Token,
		Amount:             p.Amount,
		SenderFeeRecipient: p.SenderFeeRecipient,
		SenderFee:          p.SenderFee,
		Rate:               p.Rate,
		InstitutionCode:    p.InstitutionCode,
		Label:              p.Label,
		MessageReference:   p.MessageReference,
		RefundAddress:      p.RefundAddress,
		CurrentBPS:         domain.MaxBPS,
		IsFulfilled:        false,
		Status:             domain.StatusCreated,
	}

	err = r.store.Transaction(func(tx *gorm.DB) error {
		if err := r.store.InsertOrder(tx, order); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		if err := r.transfer.Pull(ctx, p.Token, p.Seller, p.Amount); err != nil {
			infra.GlobalMetrics.RecordTransferFailure()
			return fmt.Errorf("failed to pull deposit: %w: %w", domain.ErrTransferFailure, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return orderID, nil
}

// Settle releases settlePercent basis points of an order to a liquidity
// provider, net of fees. Aggregator only. At the leg that drives CurrentBPS
// to zero the order becomes fulfilled and the sender fee, if any, is paid
// exactly once. State mutation and all payouts commit atomically.
func (r *Registry) Settle(ctx context.Context, caller, splitOrderID, orderID, label, liquidityProvider string, settlePercent uint64, isPartner bool) (string, string, error) {
	if err := r.gov.RequireAggregator(caller); err != nil {
		return "", "", err
	}
	if liquidityProvider == "" {
		return "", "", fmt.Errorf("liquidity provider is empty: %w", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	token, split, events, err := r.settleLocked(ctx, orderID, liquidityProvider, settlePercent, isPartner)
	r.mu.Unlock()
	if err != nil {
		return "", "", err
	}

	infra.GlobalMetrics.RecordSettlement(split.LiquidityProvider + split.ProtocolFee)
	events = append(events, domain.OrderSettled{
		SplitOrderID:      splitOrderID,
		OrderID:           orderID,
		Label:             label,
		LiquidityProvider: liquidityProvider,
		SettlePercent:     settlePercent,
	})
	for _, ev := range events {
		notify(r.notifier, ev)
	}
	return orderID, token, nil
}

func (r *Registry) settleLocked(ctx context.Context, orderID, liquidityProvider string, settlePercent uint64, isPartner bool) (string, Split, []domain.Event, error) {
	var (
		token  string
		events []domain.Event
		split  Split
	)
	err := r.store.Transaction(func(tx *gorm.DB) error {
		order, err := r.store.GetOrderTx(tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
		}
		if order.IsFulfilled {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrAlreadyFulfilled)
		}
		if settlePercent > order.CurrentBPS {
			return fmt.Errorf("settle %d bps with %d remaining: %w", settlePercent, order.CurrentBPS, domain.ErrUnderflow)
		}

		split, err = ComputeSplit(order.Amount, order.SenderFee, r.cfg.FeeRate(), settlePercent, isPartner)
		if err != nil {
			return err
		}

		token = order.Token
		order.CurrentBPS -= settlePercent

		var payouts []domain.Payout
		if order.CurrentBPS == 0 {
			order.IsFulfilled = true
			order.Status = domain.StatusFulfilled
			if order.SenderFee > 0 {
				payouts = append(payouts, domain.Payout{Token: token, To: order.SenderFeeRecipient, Amount: order.SenderFee})
				events = append(events, domain.SenderFeeTransferred{Recipient: order.SenderFeeRecipient, Amount: order.SenderFee})
			}
		} else {
			order.Status = domain.StatusPartiallySettled
		}
		if split.ProtocolFee > 0 {
			payouts = append(payouts, domain.Payout{Token: token, To: r.cfg.Treasury(), Amount: split.ProtocolFee})
		}
		payouts = append(payouts, domain.Payout{Token: token, To: liquidityProvider, Amount: split.LiquidityProvider})

		if err := r.store.SaveOrder(tx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		if err := r.transfer.PayoutBatch(ctx, payouts); err != nil {
			infra.GlobalMetrics.RecordTransferFailure()
			return fmt.Errorf("failed to pay out settlement: %w: %w", domain.ErrTransferFailure, err)
		}
		return nil
	})
	if err != nil {
		return "", Split{}, nil, err
	}
	return token, split, events, nil
}

// Refund terminates an order, paying fee to the treasury and the rest of
// the original amount back to the refund address. Aggregator only.
//
// The refund pays Amount−fee regardless of value already released by prior
// partial settlements; prior disbursements are not netted out. Refunding a
// partially settled order therefore draws on pooled custody beyond what the
// order still holds.
func (r *Registry) Refund(ctx context.Context, caller string, fee uint64, orderID, label string) error {
	if err := r.gov.RequireAggregator(caller); err != nil {
		return err
	}

	r.mu.Lock()
	err := r.refundLocked(ctx, fee, orderID)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	infra.GlobalMetrics.RecordRefund(fee)
	notify(r.notifier, domain.OrderRefunded{Fee: fee, OrderID: orderID, Label: label})
	return nil
}

func (r *Registry) refundLocked(ctx context.Context, fee uint64, orderID string) error {
	return r.store.Transaction(func(tx *gorm.DB) error {
		order, err := r.store.GetOrderTx(tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
		}
		if order.IsFulfilled {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrAlreadyFulfilled)
		}
		if fee > order.Amount {
			return fmt.Errorf("refund fee %d exceeds amount %d: %w", fee, order.Amount, domain.ErrInvalidInput)
		}

		order.IsFulfilled = true
		order.CurrentBPS = 0
		order.Status = domain.StatusRefunded

		var payouts []domain.Payout
		if fee > 0 {
			payouts = append(payouts, domain.Payout{Token: order.Token, To: r.cfg.Treasury(), Amount: fee})
		}
		payouts = append(payouts, domain.Payout{Token: order.Token, To: order.RefundAddress, Amount: order.Amount - fee})

		if err := r.store.SaveOrder(tx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		if err := r.transfer.PayoutBatch(ctx, payouts); err != nil {
			infra.GlobalMetrics.RecordTransferFailure()
			return fmt.Errorf("failed to pay out refund: %w: %w", domain.ErrTransferFailure, err)
		}
		return nil
	})
}

// ComputeSenderFeeCap returns the maximum sender fee for an amount (5%).
func ComputeSenderFeeCap(amount uint64) (uint64, error) {
	maxFee, err := safe.MulDiv(amount, domain.SenderFeeCapBPS, domain.MaxBPS)
	if err != nil {
		return 0, fmt.Errorf("sender fee cap: %w", domain.ErrInvalidInput)
	}
	return maxFee, nil
}

// ======================================================================================
// Views
// ======================================================================================

// GetOrderInfo returns a committed copy of the order.
func (r *Registry) GetOrderInfo(orderID string) (domain.Order, error) {
	order, err := r.store.GetOrder(orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}
	return *order, nil
}

// IsTokenSupported reports whether token is accepted for new orders.
func (r *Registry) IsTokenSupported(token string) bool {
	return r.cfg.IsTokenSupported(token)
}

// GetSupportedInstitutionByCode resolves an institution code.
func (r *Registry) GetSupportedInstitutionByCode(code string) (domain.Institution, error) {
	inst, ok := r.cfg.InstitutionInfo(code)
	if !ok {
		return domain.Institution{}, fmt.Errorf("institution %q: %w", code, domain.ErrInvalidInput)
	}
	return inst, nil
}

// GetSupportedInstitutions lists institutions settling in currency.
func (r *Registry) GetSupportedInstitutions(currency string) []domain.Institution {
	return r.cfg.InstitutionsForCurrency(currency)
}

// GetFeeDetails returns the protocol fee rate and the basis-point scale.
func (r *Registry) GetFeeDetails() (feeRateBPS, maxBPS uint64) {
	return r.cfg.FeeRate(), domain.MaxBPS
}

// GetAggregator returns the aggregator principal.
func (r *Registry) GetAggregator() string {
	return r.gov.Aggregator()
}
