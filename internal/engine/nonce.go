package engine

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/crypto/sha3"
)

// orderIDDomain separates order id hashing from any other Keccak use of the
// same inputs.
const orderIDDomain = "escrow/order/v1"

// NonceSource hands out strictly-increasing counters per depositor.
type NonceSource interface {
	NextNonce(depositor string) (uint64, error)
}

// Allocator derives collision-resistant order ids from (depositor, nonce).
//
// For a single depositor two calls can never return the same id: the counter
// strictly increases. Across depositors uniqueness is only as strong as
// Keccak-256 collision resistance over the (identity, counter) domain — a
// probabilistic guarantee, not an absolute one.
type Allocator struct {
	mu     sync.Mutex
	nonces NonceSource
}

// NewAllocator creates an Allocator backed by the given counter source.
func NewAllocator(nonces NonceSource) *Allocator {
	return &Allocator{nonces: nonces}
}

// NextID returns a fresh order id for the depositor along with the counter
// value that produced it.
func (a *Allocator) NextID(depositor string) (string, uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	nonce, err := a.nonces.NextNonce(depositor)
	if err != nil {
		return "", 0, fmt.Errorf("failed to advance nonce: %w", err)
	}
	return deriveOrderID(depositor, nonce), nonce, nil
}

func deriveOrderID(depositor string, nonce uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(orderIDDomain))
	h.Write([]byte(depositor))
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}
