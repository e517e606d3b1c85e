// Package mempool holds unconfirmed Bond transactions awaiting block
// inclusion: admission validation, conflict/replace-by-fee handling, and
// fee-ordered selection for mining.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bond-aevum/core/internal/bond/policy"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// selectionCacheSize bounds the fee-rate index cache: mining and RPC
// callers only ever ask for a handful of distinct limits (block capacity,
// mempool_getContent page sizes), so a small cache captures the working
// set without unbounded growth.
const selectionCacheSize = 16

// selection is a cached, fee-rate-sorted SelectForBlock result, tagged
// with the pool version it was computed against so a mutation between
// calls invalidates it without needing to purge the cache eagerly.
type selection struct {
	version uint64
	txs     []*tx.Transaction
}

// Mempool errors.
var (
	ErrAlreadyExists           = errors.New("transaction already in mempool")
	ErrConflict                = errors.New("transaction conflicts with an existing mempool entry")
	ErrPoolFull                = errors.New("mempool is full")
	ErrValidation              = errors.New("transaction failed validation")
	ErrFeeTooLow               = errors.New("transaction fee below minimum")
	ErrRecoveryInitiationFiled = errors.New("guardian recovery initiation recorded; resubmit after the confirmation delay")
)

// entry wraps a transaction with its fee and fee rate.
type entry struct {
	tx      *tx.Transaction
	txHash  types.Hash
	fee     uint64
	feeRate uint64 // Base units per byte of SigningBytes.
}

// Pool holds unconfirmed Bond transactions.
type Pool struct {
	mu         sync.RWMutex
	txs        map[types.Hash]*entry
	spends     map[types.Outpoint]types.Hash // outpoint -> spending txHash, for conflict/RBF detection
	maxSize    int
	minFeeRate uint64

	utxos    tx.UTXOProvider
	policy   *policy.Engine
	txPolicy *Policy
	heightFn func() uint64
	timeFn   func() uint64

	version  uint64 // bumped on every admission/removal, invalidates selCache
	selCache *lru.Cache[int, selection]
}

// New creates a mempool backed by the given live UTXO view and pUTXO
// policy engine. heightFn and timeFn supply the chain height and
// current wall-clock time ValidateWithUTXOs needs to check time locks,
// coinbase maturity, and guardian recovery maturity.
func New(utxos tx.UTXOProvider, policyEngine *policy.Engine, heightFn func() uint64, timeFn func() uint64, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	selCache, _ := lru.New[int, selection](selectionCacheSize)
	return &Pool{
		txs:      make(map[types.Hash]*entry),
		spends:   make(map[types.Outpoint]types.Hash),
		maxSize:  maxSize,
		utxos:    utxos,
		policy:   policyEngine,
		txPolicy: DefaultPolicy(),
		heightFn: heightFn,
		timeFn:   timeFn,
		selCache: selCache,
	}
}

// SetMinFeeRate sets the minimum fee rate (base units per byte) required
// for admission.
func (p *Pool) SetMinFeeRate(rate uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minFeeRate = rate
}

// MinFeeRate returns the current minimum fee rate.
func (p *Pool) MinFeeRate() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.minFeeRate
}

// SetTxPolicy overrides the node-local acceptance policy.
func (p *Pool) SetTxPolicy(pol *Policy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pol != nil {
		p.txPolicy = pol
	}
}

// Add validates and admits a transaction, replacing any conflicting
// mempool entries it strictly outbids on fee rate (replace-by-fee).
// Returns the computed fee.
func (p *Pool) Add(transaction *tx.Transaction) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	txHash := transaction.Hash()
	if _, exists := p.txs[txHash]; exists {
		return 0, ErrAlreadyExists
	}

	if err := p.txPolicy.Check(transaction); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	conflicts := p.findConflicts(transaction, txHash)

	height := p.heightFn()
	unixTime := p.timeFn()

	checker := &recoveryRecordingChecker{inner: p.policy, height: height}
	fee, err := transaction.ValidateWithUTXOs(p.utxos, checker, height, unixTime)
	if err != nil {
		if errors.Is(err, policy.ErrRecoveryNotInitiated) {
			return 0, fmt.Errorf("%w: %v", ErrRecoveryInitiationFiled, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	sigBytes := len(transaction.SigningBytes())
	var feeRate uint64
	if sigBytes > 0 {
		feeRate = fee / uint64(sigBytes)
	}

	if p.minFeeRate > 0 {
		requiredFee := p.minFeeRate * uint64(sigBytes)
		if fee < requiredFee {
			return 0, fmt.Errorf("%w: got %d, need %d (%d bytes x %d rate)", ErrFeeTooLow, fee, requiredFee, sigBytes, p.minFeeRate)
		}
	}

	// Replace-by-fee: the incoming transaction must strictly outbid the
	// fee rate of every entry it conflicts with, or it is rejected
	// rather than silently dropped alongside them (spec §4.4
	// "Replace-by-fee").
	for _, c := range conflicts {
		if existing := p.txs[c]; existing != nil && feeRate <= existing.feeRate {
			return 0, fmt.Errorf("%w: new fee rate %d does not exceed conflicting tx %s's rate %d",
				ErrConflict, feeRate, c, existing.feeRate)
		}
	}
	for _, c := range conflicts {
		p.removeLocked(c)
	}

	if len(p.txs) >= p.maxSize {
		lowestHash, lowestRate := p.findLowestFeeRate()
		if feeRate <= lowestRate {
			return 0, ErrPoolFull
		}
		p.removeLocked(lowestHash)
	}

	p.txs[txHash] = &entry{tx: transaction, txHash: txHash, fee: fee, feeRate: feeRate}
	for _, in := range transaction.Inputs {
		if !in.PrevOut.IsZero() {
			p.spends[in.PrevOut] = txHash
		}
	}
	p.version++

	return fee, nil
}

// findConflicts returns the distinct hashes of mempool entries that
// spend an outpoint the given transaction also spends.
func (p *Pool) findConflicts(transaction *tx.Transaction, txHash types.Hash) []types.Hash {
	seen := make(map[types.Hash]bool)
	var conflicts []types.Hash
	for _, in := range transaction.Inputs {
		if in.PrevOut.IsZero() {
			continue
		}
		conflictHash, exists := p.spends[in.PrevOut]
		if !exists || conflictHash == txHash || seen[conflictHash] {
			continue
		}
		seen[conflictHash] = true
		conflicts = append(conflicts, conflictHash)
	}
	return conflicts
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
	for _, in := range e.tx.Inputs {
		if !in.PrevOut.IsZero() {
			delete(p.spends, in.PrevOut)
		}
	}
	delete(p.txs, txHash)
	p.version++
}

// RemoveConfirmed drops every transaction that was just included in a
// mined or accepted block.
func (p *Pool) RemoveConfirmed(transactions []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range transactions {
		p.removeLocked(t.Hash())
	}
}

// Reinsert re-admits transactions returned by a reorg, best-effort:
// a transaction that no longer validates (e.g. one of its inputs was
// spent by the new branch) is silently dropped.
func (p *Pool) Reinsert(transactions []*tx.Transaction) {
	for _, t := range transactions {
		p.Add(t)
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
func (p *Pool) Get(txHash types.Hash) *tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return nil
	}
	return e.tx
}

// GetFee returns the fee for a transaction in the mempool (0 if absent).
func (p *Pool) GetFee(txHash types.Hash) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return 0
	}
	return e.fee
}

// Count returns the number of transactions in the mempool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// Hashes returns the hashes of every transaction in the mempool.
func (p *Pool) Hashes() []types.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hashes := make([]types.Hash, 0, len(p.txs))
	for h := range p.txs {
		hashes = append(hashes, h)
	}
	return hashes
}

// findLowestFeeRate returns the hash and fee rate of the cheapest entry.
// Must be called with p.mu held.
func (p *Pool) findLowestFeeRate() (types.Hash, uint64) {
	var lowestHash types.Hash
	var lowestRate uint64 = ^uint64(0)
	for h, e := range p.txs {
		if e.feeRate < lowestRate {
			lowestRate = e.feeRate
			lowestHash = h
		}
	}
	return lowestHash, lowestRate
}

// SelectForBlock returns up to limit transactions ordered by fee rate,
// highest first, for a miner to fill a candidate block with. The
// fee-rate sort is cached per distinct limit and invalidated by pool
// version, since a miner's ProduceBlock/ProduceBlockCtx loop and RPC
// mempool introspection often call this repeatedly between mutations.
func (p *Pool) SelectForBlock(limit int) []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if cached, ok := p.selCache.Get(limit); ok && cached.version == p.version {
		return cached.txs
	}

	entries := make([]*entry, 0, len(p.txs))
	for _, e := range p.txs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].feeRate > entries[j].feeRate
	})

	effLimit := limit
	if effLimit > len(entries) || effLimit <= 0 {
		effLimit = len(entries)
	}
	result := make([]*tx.Transaction, effLimit)
	for i := 0; i < effLimit; i++ {
		result[i] = entries[i].tx
	}

	p.selCache.Add(limit, selection{version: p.version, txs: result})
	return result
}

// recoveryRecordingChecker wraps a policy.Engine so that a spend attempt
// rejected only because its guardian recovery has not yet been
// initiated on-chain still has a side effect: the mempool is the only
// place a premature initiation attempt can be observed (a confirmed
// block never contains a transaction that failed policy checks), so
// admission is where spec §4.3's initiation step must be recorded.
type recoveryRecordingChecker struct {
	inner  *policy.Engine
	height uint64
}

func (c *recoveryRecordingChecker) CheckPolicy(
	outpoint types.Outpoint,
	pol *types.PUtxoPolicy,
	spendValue, height, unixTime uint64,
	policyWitness []byte,
	msgHash types.Hash,
) error {
	err := c.inner.CheckPolicy(outpoint, pol, spendValue, height, unixTime, policyWitness, msgHash)
	if errors.Is(err, policy.ErrRecoveryNotInitiated) {
		c.inner.RecordRecoveryInitiation(outpoint, c.height)
	}
	return err
}
