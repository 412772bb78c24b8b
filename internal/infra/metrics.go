package infra

import "sync/atomic"

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ordersCreated    atomic.Uint64
	settlements      atomic.Uint64
	refunds          atomic.Uint64
	transferFailures atomic.Uint64

	// Value moved, in token base units
	valueLocked   atomic.Uint64
	valueSettled  atomic.Uint64
	valueRefunded atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordOrderCreated records a new escrow deposit.
func (m *Metrics) RecordOrderCreated(amount uint64) {
	m.ordersCreated.Add(1)
	m.valueLocked.Add(amount)
}

// RecordSettlement records one committed settlement leg.
func (m *Metrics) RecordSettlement(amount uint64) {
	m.settlements.Add(1)
	m.valueSettled.Add(amount)
}

// RecordRefund records a committed refund (fee portion only; the remainder
// goes back to the depositor).
func (m *Metrics) RecordRefund(fee uint64) {
	m.refunds.Add(1)
	m.valueRefunded.Add(fee)
}

// RecordTransferFailure records a rejected value transfer.
func (m *Metrics) RecordTransferFailure() {
	m.transferFailures.Add(1)
}

// Snapshot holds a point-in-time copy of all counters.
type Snapshot struct {
	OrdersCreated    uint64 `json:"orders_created"`
	Settlements      uint64 `json:"settlements"`
	Refunds          uint64 `json:"refunds"`
	TransferFailures uint64 `json:"transfer_failures"`
	ValueLocked      uint64 `json:"value_locked"`
	ValueSettled     uint64 `json:"value_settled"`
	ValueRefunded    uint64 `json:"value_refunded"`
}

// Stats returns a consistent-enough snapshot for logging and health output.
func (m *Metrics) Stats() Snapshot {
	return Snapshot{
		OrdersCreated:    m.ordersCreated.Load(),
		Settlements:      m.settlements.Load(),
		Refunds:          m.refunds.Load(),
		TransferFailures: m.transferFailures.Load(),
		ValueLocked:      m.valueLocked.Load(),
		ValueSettled:     m.valueSettled.Load(),
		ValueRefunded:    m.valueRefunded.Load(),
	}
}
