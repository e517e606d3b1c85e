package bridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/types"
	"github.com/google/uuid"
)

// State-machine errors.
var (
	ErrUnknownTransfer           = errors.New("unknown transfer id")
	ErrInvalidTransition         = errors.New("invalid transfer state transition")
	ErrDoubleSpend               = errors.New("source transaction already has an unresolved bridge transfer")
	ErrCompensationDepthExceeded = errors.New("compensation chain depth exceeded")
)

// Driver is the single serial state-machine owner for the transfer
// table (spec §4.10 "two independent observer tasks ... feed a single
// serial state-machine driver that owns the transfer table"). Each
// method call is one atomic transition; callers serialize calls for a
// given transfer ID themselves (e.g. one goroutine per observer,
// dispatching by ID) since different transfers progress independently
// but a single transfer's history must not interleave.
type Driver struct {
	store  *Store
	params config.BridgeParams
}

// NewDriver creates a state-machine driver over store using params for
// confirmation depths and timeout windows.
func NewDriver(store *Store, params config.BridgeParams) *Driver {
	return &Driver{store: store, params: params}
}

// confirmationsRequired returns the number of source-chain confirmations
// this direction's lock/burn needs before SourceConfirmed.
func (d *Driver) confirmationsRequired(dir Direction) uint64 {
	if dir == AevumToBond {
		return d.params.AevumConfirmations
	}
	return d.params.BondConfirmations
}

// destinationConfirmationsRequired returns the confirmations the
// destination-chain mint/unlock needs before Completed.
func (d *Driver) destinationConfirmationsRequired(dir Direction) uint64 {
	if dir == AevumToBond {
		return d.params.BondConfirmations
	}
	return d.params.AevumConfirmations
}

// Submit registers a new transfer observed on the source chain,
// entering PendingSourceConfirmation. Rejects a source tx that already
// has an unresolved transfer (spec §4.10 double-spend defense).
func (d *Driver) Submit(dir Direction, sourceTxHash types.Hash, amount uint64, sourceAddr, destAddr types.Address, sourceHeight uint64) (*Transfer, error) {
	if existing := d.store.UnresolvedBySourceTx(sourceTxHash); len(existing) > 0 {
		return nil, fmt.Errorf("%w: source tx %s", ErrDoubleSpend, sourceTxHash)
	}

	now := time.Now().UTC()
	t := &Transfer{
		ID:                               uuid.New(),
		Direction:                        dir,
		Status:                           PendingSourceConfirmation,
		SourceTxHash:                     sourceTxHash,
		Amount:                           amount,
		SourceAddress:                    sourceAddr,
		DestinationAddress:               destAddr,
		CreatedAtHeight:                  sourceHeight,
		SourceConfirmationHeightRequired: sourceHeight + d.confirmationsRequired(dir),
		TimeoutAtHeight:                  sourceHeight + d.params.PendingTimeoutBlocks,
		CreatedAt:                        now,
		UpdatedAt:                        now,
	}
	if err := d.store.Put(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ObserveSourceConfirmation transitions PendingSourceConfirmation ->
// SourceConfirmed once currentSourceHeight reaches the required depth.
func (d *Driver) ObserveSourceConfirmation(id uuid.UUID, currentSourceHeight uint64) (*Transfer, error) {
	t, ok := d.store.Get(id)
	if !ok {
		return nil, ErrUnknownTransfer
	}
	if t.Status != PendingSourceConfirmation {
		return t, nil // idempotent no-op once past this stage
	}
	if currentSourceHeight < t.SourceConfirmationHeightRequired {
		return t, nil
	}
	t.Status = SourceConfirmed
	t.UpdatedAt = time.Now().UTC()
	return t, d.store.Put(t)
}

// IssueDestination records that a bridge-signed mint/unlock transaction
// was included on the destination chain, transitioning SourceConfirmed
// -> DestinationIssued. Once issued, a refund is never offered (spec
// §4.10 "A Refund MUST be exclusive with the mint path").
func (d *Driver) IssueDestination(id uuid.UUID, destTxHash types.Hash, destHeight uint64) (*Transfer, error) {
	t, ok := d.store.Get(id)
	if !ok {
		return nil, ErrUnknownTransfer
	}
	if t.Status != SourceConfirmed {
		return nil, fmt.Errorf("%w: transfer %s is %s, want SourceConfirmed", ErrInvalidTransition, id, t.Status)
	}
	t.Status = DestinationIssued
	t.DestinationTxHash = destTxHash
	t.DestinationHeight = destHeight
	t.UpdatedAt = time.Now().UTC()
	return t, d.store.Put(t)
}

// ObserveDestinationConfirmation transitions DestinationIssued ->
// Completed once the destination chain has buried the mint/unlock
// transaction deep enough.
func (d *Driver) ObserveDestinationConfirmation(id uuid.UUID, currentDestinationHeight uint64) (*Transfer, error) {
	t, ok := d.store.Get(id)
	if !ok {
		return nil, ErrUnknownTransfer
	}
	if t.Status != DestinationIssued {
		return t, nil
	}
	required := t.DestinationHeight + d.destinationConfirmationsRequired(t.Direction)
	if currentDestinationHeight < required {
		return t, nil
	}
	t.Status = Completed
	t.UpdatedAt = time.Now().UTC()
	return t, d.store.Put(t)
}

// CheckTimeout transitions PendingSourceConfirmation -> TimedOut once
// currentSourceHeight passes the transfer's timeout height without
// reaching SourceConfirmed.
func (d *Driver) CheckTimeout(id uuid.UUID, currentSourceHeight uint64) (*Transfer, error) {
	t, ok := d.store.Get(id)
	if !ok {
		return nil, ErrUnknownTransfer
	}
	if t.Status != PendingSourceConfirmation {
		return t, nil
	}
	if currentSourceHeight < t.TimeoutAtHeight {
		return t, nil
	}
	t.Status = TimedOut
	t.UpdatedAt = time.Now().UTC()
	return t, d.store.Put(t)
}

// MarkRefunded transitions TimedOut -> Refunded once the user's refund
// transaction lands on the source chain. Only reachable from TimedOut,
// enforcing the mint/refund exclusivity rule: a transfer that reached
// DestinationIssued can never be refunded.
func (d *Driver) MarkRefunded(id uuid.UUID) (*Transfer, error) {
	t, ok := d.store.Get(id)
	if !ok {
		return nil, ErrUnknownTransfer
	}
	if t.Status != TimedOut {
		return nil, fmt.Errorf("%w: transfer %s is %s, want TimedOut", ErrInvalidTransition, id, t.Status)
	}
	t.Status = Refunded
	t.UpdatedAt = time.Now().UTC()
	return t, d.store.Put(t)
}

// HandleReorg processes the source transaction having been removed from
// its chain (spec §4.10 "Reorganization handling"). A transfer that
// never reached DestinationIssued simply moves to Reorganized — nothing
// was ever minted, so nothing needs compensating. One that already had
// its destination-side transaction issued requires a compensating
// transfer running the opposite direction, itself tracked through this
// same driver and recursively bounded by maxCompensationDepth.
func (d *Driver) HandleReorg(id uuid.UUID, sourceHeight uint64) (*Transfer, *Transfer, error) {
	t, ok := d.store.Get(id)
	if !ok {
		return nil, nil, ErrUnknownTransfer
	}
	if t.Status.terminal() {
		return t, nil, nil // already resolved, nothing to roll back
	}

	mintAlreadyIssued := t.Status == DestinationIssued
	t.Status = Reorganized
	t.UpdatedAt = time.Now().UTC()
	if err := d.store.Put(t); err != nil {
		return nil, nil, err
	}
	if !mintAlreadyIssued {
		return t, nil, nil
	}

	if t.CompensationDepth+1 > maxCompensationDepth {
		return t, nil, fmt.Errorf("%w: transfer %s at depth %d", ErrCompensationDepthExceeded, id, t.CompensationDepth)
	}

	now := time.Now().UTC()
	comp := &Transfer{
		ID:                               uuid.New(),
		Direction:                        t.Direction.Opposite(),
		Status:                           PendingSourceConfirmation,
		SourceTxHash:                     t.DestinationTxHash, // the prior mint/unlock becomes this transfer's source tx
		Amount:                           t.Amount,
		SourceAddress:                    t.DestinationAddress,
		DestinationAddress:               t.SourceAddress,
		CreatedAtHeight:                  sourceHeight,
		SourceConfirmationHeightRequired: sourceHeight + d.confirmationsRequired(t.Direction.Opposite()),
		TimeoutAtHeight:                  sourceHeight + d.params.PendingTimeoutBlocks,
		CompensatesFor:                   t.ID,
		CompensationDepth:                t.CompensationDepth + 1,
		CreatedAt:                        now,
		UpdatedAt:                        now,
	}
	if err := d.store.Put(comp); err != nil {
		return t, nil, err
	}
	return t, comp, nil
}
