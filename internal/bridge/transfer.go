// Package bridge implements the Inter-Ledger Bridge state machine (spec
// §4.10): lock-and-mint from Bond to Aevum and burn-and-unlock from Aevum
// to Bond, with reorg-aware rollback and timeout-driven refund. Grounded
// on the teacher's internal/subchain registry/manager pattern (a
// persisted, mutex-guarded in-memory index keyed by ID, rebuildable from
// the backing store) generalized from one-way anchor tracking into the
// bidirectional transfer lifecycle this spec requires.
package bridge

import (
	"time"

	"github.com/bond-aevum/core/pkg/types"
	"github.com/google/uuid"
)

// Direction identifies which ledger a transfer originates from.
type Direction uint8

const (
	// BondToAevum is the lock-and-mint direction.
	BondToAevum Direction = iota
	// AevumToBond is the burn-and-unlock direction.
	AevumToBond
)

func (d Direction) String() string {
	if d == AevumToBond {
		return "AevumToBond"
	}
	return "BondToAevum"
}

// Opposite returns the direction a compensating transfer runs in.
func (d Direction) Opposite() Direction {
	if d == BondToAevum {
		return AevumToBond
	}
	return BondToAevum
}

// Status is a BridgeTransfer's state in the lifecycle spec §4.10 draws
// (PendingSourceConfirmation -> SourceConfirmed -> DestinationIssued ->
// Completed), with Reorganized/TimedOut/Refunded as the off-ramps.
type Status uint8

const (
	PendingSourceConfirmation Status = iota
	SourceConfirmed
	DestinationIssued
	Completed
	Reorganized
	TimedOut
	Refunded
)

func (s Status) String() string {
	switch s {
	case PendingSourceConfirmation:
		return "PendingSourceConfirmation"
	case SourceConfirmed:
		return "SourceConfirmed"
	case DestinationIssued:
		return "DestinationIssued"
	case Completed:
		return "Completed"
	case Reorganized:
		return "Reorganized"
	case TimedOut:
		return "TimedOut"
	case Refunded:
		return "Refunded"
	default:
		return "Unknown"
	}
}

// terminal reports whether no further transition is possible.
func (s Status) terminal() bool {
	return s == Completed || s == Reorganized || s == Refunded
}

// maxCompensationDepth bounds the recursive compensating-transfer chain
// a deep reorg can trigger (spec §4.10: "depth bounded by finality
// rules") — a chain this long would already exceed any plausible
// confirmation depth, so hitting it signals a bug rather than a real
// reorg and the driver refuses to compensate further.
const maxCompensationDepth = 8

// Transfer is one cross-chain operation tracked end to end (spec §3
// "BridgeTransfer").
type Transfer struct {
	ID        uuid.UUID `json:"id"`
	Direction Direction `json:"direction"`
	Status    Status    `json:"status"`

	SourceTxHash       types.Hash    `json:"source_tx_hash"`
	Amount             uint64        `json:"amount"`
	SourceAddress      types.Address `json:"source_address"`
	DestinationAddress types.Address `json:"destination_address"`

	CreatedAtHeight                  uint64 `json:"created_at_height"` // source-chain height at submission
	SourceConfirmationHeightRequired uint64 `json:"source_confirmation_height_required"`
	TimeoutAtHeight                  uint64 `json:"timeout_at_height"` // source-chain height after which TimedOut fires

	DestinationTxHash types.Hash `json:"destination_tx_hash"`
	DestinationHeight uint64     `json:"destination_height"` // destination-chain height the mint/unlock landed at

	// CompensatesFor is the transfer ID this transfer compensates for a
	// reorg on, zero for an original (non-compensating) transfer.
	CompensatesFor    uuid.UUID `json:"compensates_for"`
	CompensationDepth int       `json:"compensation_depth"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Unresolved reports whether this transfer is still mid-flight — the
// double-spend defense (spec §4.10) only needs to reject a new transfer
// whose source tx collides with one of these.
func (t *Transfer) Unresolved() bool {
	return !t.Status.terminal()
}
