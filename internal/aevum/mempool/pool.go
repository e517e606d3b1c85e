// Package mempool holds unconfirmed Aevum account transactions awaiting
// block inclusion: admission validation, nonce-indexed replace-by-fee,
// and fee-rate-ordered selection for block proposal — the account-model
// analogue of internal/bond/mempool's UTXO-conflict pool (spec §4.9
// applied to Aevum, SPEC_FULL.md §3's "Aevum smart-account nonce queue").
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bond-aevum/core/internal/aevum/account"
	"github.com/bond-aevum/core/internal/aevum/state"
	"github.com/bond-aevum/core/pkg/types"
)

// Mempool errors.
var (
	ErrAlreadyExists = errors.New("transaction already in mempool")
	ErrNonceTooLow   = errors.New("nonce already confirmed on-chain")
	ErrReplaced      = errors.New("a pending transaction with this nonce already exists at an equal or higher fee rate")
	ErrPoolFull      = errors.New("mempool is full")
	ErrValidation    = errors.New("transaction failed validation")
	ErrFeeTooLow     = errors.New("transaction fee below minimum")
)

// entry wraps a pending transaction with its fee rate.
type entry struct {
	tx      *account.Transaction
	txHash  types.Hash
	feeRate float64
}

// nonceKey identifies one account's pending-nonce slot.
type nonceKey struct {
	addr  types.Address
	nonce uint64
}

// Pool holds unconfirmed Aevum transactions, keyed by hash with a
// secondary (address, nonce) index so a later, higher-fee transaction
// spending the same nonce can replace an earlier one — the account-model
// equivalent of RBF on a shared UTXO input.
type Pool struct {
	mu      sync.RWMutex
	txs     map[types.Hash]*entry
	byNonce map[nonceKey]types.Hash

	maxSize    int
	minFeeRate float64

	store *state.Store
}

// New creates a mempool that validates admissions against the given
// account state store.
func New(store *state.Store, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &Pool{
		txs:     make(map[types.Hash]*entry),
		byNonce: make(map[nonceKey]types.Hash),
		maxSize: maxSize,
		store:   store,
	}
}

// SetMinFeeRate sets the minimum fee (per signing byte) required for
// admission.
func (p *Pool) SetMinFeeRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minFeeRate = rate
}

// Add validates and admits a transaction, replacing any pending
// transaction from the same account with the same nonce if it strictly
// outbids that transaction's fee rate.
func (p *Pool) Add(tx *account.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txHash := tx.Hash()
	if _, exists := p.txs[txHash]; exists {
		return ErrAlreadyExists
	}

	if err := tx.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	from, err := p.store.Get(tx.From)
	if err != nil {
		return fmt.Errorf("%w: load sender: %v", ErrValidation, err)
	}
	if from.IsZero() {
		return fmt.Errorf("%w: unknown sender account", ErrValidation)
	}
	if tx.Nonce < from.Nonce {
		return ErrNonceTooLow
	}
	if from.PubKey != nil && string(from.PubKey) != string(tx.SenderPubKey) {
		return fmt.Errorf("%w: sender public key does not match bound account key", ErrValidation)
	}
	if !tx.VerifySignature() {
		return fmt.Errorf("%w: signature does not verify", ErrValidation)
	}
	if total := tx.Value + tx.Fee; from.Balance < total {
		return fmt.Errorf("%w: balance %d below value+fee %d", ErrValidation, from.Balance, total)
	}

	feeRate := tx.FeeRate()
	if p.minFeeRate > 0 && feeRate < p.minFeeRate {
		return fmt.Errorf("%w: got %.4f, need %.4f", ErrFeeTooLow, feeRate, p.minFeeRate)
	}

	key := nonceKey{addr: tx.From, nonce: tx.Nonce}
	if existingHash, conflict := p.byNonce[key]; conflict {
		existing := p.txs[existingHash]
		if existing != nil && feeRate <= existing.feeRate {
			return fmt.Errorf("%w: new fee rate %.4f does not exceed existing rate %.4f",
				ErrReplaced, feeRate, existing.feeRate)
		}
		p.removeLocked(existingHash)
	}

	if len(p.txs) >= p.maxSize {
		lowestHash, lowestRate := p.findLowestFeeRateLocked()
		if feeRate <= lowestRate {
			return ErrPoolFull
		}
		p.removeLocked(lowestHash)
	}

	p.txs[txHash] = &entry{tx: tx, txHash: txHash, feeRate: feeRate}
	p.byNonce[key] = txHash
	return nil
}

// Remove removes a transaction from the mempool by hash.
func (p *Pool) Remove(txHash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txHash)
}

func (p *Pool) removeLocked(txHash types.Hash) {
	e, exists := p.txs[txHash]
	if !exists {
		return
	}
	delete(p.byNonce, nonceKey{addr: e.tx.From, nonce: e.tx.Nonce})
	delete(p.txs, txHash)
}

// RemoveConfirmed drops every transaction just included in an accepted
// block, plus any now-stale pending transaction whose nonce the
// confirmed transaction has superseded (the account-model analogue of
// dropping conflicting spends after a UTXO is consumed).
func (p *Pool) RemoveConfirmed(txs []*account.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range txs {
		p.removeLocked(t.Hash())
		for key, hash := range p.byNonce {
			if key.addr == t.From && key.nonce <= t.Nonce {
				p.removeLocked(hash)
			}
		}
	}
}

// Has checks if a transaction exists in the mempool.
func (p *Pool) Has(txHash types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.txs[txHash]
	return exists
}

// Get retrieves a transaction from the mempool.
func (p *Pool) Get(txHash types.Hash) *account.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return nil
	}
	return e.tx
}

// Count returns the number of transactions in the mempool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// findLowestFeeRateLocked returns the hash and fee rate of the cheapest
// pending entry. Must be called with p.mu held.
func (p *Pool) findLowestFeeRateLocked() (types.Hash, float64) {
	var lowestHash types.Hash
	lowestRate := -1.0
	for h, e := range p.txs {
		if lowestRate < 0 || e.feeRate < lowestRate {
			lowestRate = e.feeRate
			lowestHash = h
		}
	}
	return lowestHash, lowestRate
}

// SelectForBlock returns up to limit pending transactions ordered by fee
// rate, highest first, for a block proposer to fill a candidate block
// with. Within one account, lower nonces are still ordered ahead of
// higher ones when fee rates tie, since a block can never apply a later
// nonce before the one preceding it.
func (p *Pool) SelectForBlock(limit int) []*account.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*entry, 0, len(p.txs))
	for _, e := range p.txs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].feeRate != entries[j].feeRate {
			return entries[i].feeRate > entries[j].feeRate
		}
		if entries[i].tx.From != entries[j].tx.From {
			return entries[i].tx.From.String() < entries[j].tx.From.String()
		}
		return entries[i].tx.Nonce < entries[j].tx.Nonce
	})

	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	result := make([]*account.Transaction, limit)
	for i := 0; i < limit; i++ {
		result[i] = entries[i].tx
	}
	return result
}
