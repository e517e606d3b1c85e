package policy

import (
	"fmt"

	"github.com/bond-aevum/core/pkg/types"
)

// RecoveryStore tracks pending guardian recovery initiations, keyed by
// the outpoint of the pUTXO under recovery. The only recorder is
// internal/bond/mempool: when it rejects a spend of a guardian-policy
// pUTXO because no initiation is on record, it records one at the pool's
// current chain height, and the confirmation delay is measured from
// that height. No transaction or witness form marks an initiation, and
// block processing records none.
type RecoveryStore interface {
	RecordInitiation(outpoint types.Outpoint, height uint64)
	InitiationHeight(outpoint types.Outpoint) (height uint64, found bool)
}

// MemRecoveryStore is an in-memory RecoveryStore, suitable for the
// reference node and for tests. Its entries are not rolled back on
// reorg; Forget is the only way to remove one.
type MemRecoveryStore struct {
	initiated map[types.Outpoint]uint64
}

// NewMemRecoveryStore returns an empty MemRecoveryStore.
func NewMemRecoveryStore() *MemRecoveryStore {
	return &MemRecoveryStore{initiated: make(map[types.Outpoint]uint64)}
}

func (s *MemRecoveryStore) RecordInitiation(outpoint types.Outpoint, height uint64) {
	s.initiated[outpoint] = height
}

func (s *MemRecoveryStore) InitiationHeight(outpoint types.Outpoint) (uint64, bool) {
	h, ok := s.initiated[outpoint]
	return h, ok
}

// Forget removes a recorded initiation. Nothing in this module calls it.
func (s *MemRecoveryStore) Forget(outpoint types.Outpoint) {
	delete(s.initiated, outpoint)
}

// CheckGuardianRecovery enforces the waiting period between a recovery's
// on-chain initiation and its execution. The k-of-n guardian signature
// count itself is enforced by the script VM's CHECKMULTISIG against the
// guardian pubkeys baked into script_pubkey; this check only covers the
// part the script cannot express: confirmation_delay_blocks must have
// elapsed since initiation.
func CheckGuardianRecovery(store RecoveryStore, outpoint types.Outpoint, g *types.GuardianPolicy, height uint64) error {
	initHeight, found := store.InitiationHeight(outpoint)
	if !found {
		return ErrRecoveryNotInitiated
	}
	matureAt := initHeight + g.ConfirmationDelayBlocks
	if height < matureAt {
		return fmt.Errorf("%w: matures at height %d, spend at %d", ErrRecoveryNotMatured, matureAt, height)
	}
	return nil
}
