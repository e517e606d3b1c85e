package consensus

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sort"
	"sync"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/types"
)

var (
	// ErrNoValidators mirrors the teacher's PoA sentinel: a validator set
	// needs at least one member with positive score to ever select a leader.
	ErrNoValidators = errors.New("no validators with positive dedication score")
)

// ValidatorRecord is one validator's full on-chain record: identity,
// stake, and the liveness/engagement inputs DedicationScore consumes.
type ValidatorRecord struct {
	Address types.Address
	PubKey  []byte // ML-DSA Level2 public key
	ValidatorInput
}

// ValidatorSet tracks every registered validator and their current
// dedication scores, recomputed whenever stake or liveness changes.
// Selection is VRF-weighted (spec §4.8): every validator with positive
// score has positive probability, proportional to score — no
// deterministic round-robin cutoff, unlike the teacher's PoA turn order.
type ValidatorSet struct {
	mu      sync.RWMutex
	params  config.AevumPoDParams
	records map[types.Address]*ValidatorRecord
}

// NewValidatorSet creates an empty validator set under the given PoD params.
func NewValidatorSet(params config.AevumPoDParams) *ValidatorSet {
	return &ValidatorSet{
		params:  params,
		records: make(map[types.Address]*ValidatorRecord),
	}
}

// Upsert adds or replaces a validator's record.
func (vs *ValidatorSet) Upsert(r *ValidatorRecord) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.records[r.Address] = r
}

// Remove deletes a validator from the set entirely (used after a slash
// reduces stake to zero).
func (vs *ValidatorSet) Remove(addr types.Address) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	delete(vs.records, addr)
}

// Get returns a copy of a validator's record, or nil if unknown.
func (vs *ValidatorSet) Get(addr types.Address) *ValidatorRecord {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	r, ok := vs.records[addr]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// scored pairs a validator address with its current dedication score,
// sorted canonically so every node builds the same cumulative
// distribution regardless of map iteration order.
type scored struct {
	addr  types.Address
	score float64
}

// sortedScores returns every validator with positive score, canonically
// ordered by address (mirrors the teacher's sortValidators canonical
// ordering requirement).
func (vs *ValidatorSet) sortedScores() []scored {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	out := make([]scored, 0, len(vs.records))
	for addr, r := range vs.records {
		s := DedicationScore(vs.params, r.ValidatorInput)
		if s > 0 {
			out = append(out, scored{addr: addr, score: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].addr.String() < out[j].addr.String()
	})
	return out
}

// TotalScore returns the sum of every positive-scoring validator's
// dedication score.
func (vs *ValidatorSet) TotalScore() float64 {
	var total float64
	for _, s := range vs.sortedScores() {
		total += s.score
	}
	return total
}

// SelectLeader chooses the slot leader by weighted sampling proportional
// to dedication score (spec §4.8). seed is the slot's VRF/randomness
// input — in this reference implementation, blake3(prevBlockHash ||
// slot), following the same deterministic-per-slot-input shape the
// teacher's selectValidatorFromSet uses for its simpler round-robin
// pick, generalized here to weighted sampling via a cumulative
// distribution walk instead of a single modulo index.
func (vs *ValidatorSet) SelectLeader(prevHash types.Hash, slot uint64) (types.Address, error) {
	entries := vs.sortedScores()
	if len(entries) == 0 {
		return types.Address{}, ErrNoValidators
	}

	var total float64
	for _, e := range entries {
		total += e.score
	}

	var buf [types.HashSize + 8]byte
	copy(buf[:types.HashSize], prevHash[:])
	binary.LittleEndian.PutUint64(buf[types.HashSize:], slot)
	seedHash := crypto.Hash(buf[:])

	// Map the 256-bit seed onto [0, total): reduce it modulo 2^53 (the
	// float64 mantissa width) and scale that fraction by the total score.
	const precision = 1 << 53
	seedInt := new(big.Int).SetBytes(seedHash[:])
	mod := new(big.Int).SetInt64(precision)
	seedInt.Mod(seedInt, mod)
	r := float64(seedInt.Int64()) / float64(precision) * total

	var cumulative float64
	for _, e := range entries {
		cumulative += e.score
		if r < cumulative {
			return e.addr, nil
		}
	}
	// Floating-point rounding can leave r fractionally past the last
	// boundary; fall back to the last entry rather than erroring.
	return entries[len(entries)-1].addr, nil
}

// SelectionProbability returns a validator's probability of being chosen
// in any given slot: its score divided by the set's total score. Used by
// tests to verify every positive-score validator has positive probability.
func (vs *ValidatorSet) SelectionProbability(addr types.Address) float64 {
	entries := vs.sortedScores()
	var total, mine float64
	for _, e := range entries {
		total += e.score
		if e.addr == addr {
			mine = e.score
		}
	}
	if total == 0 {
		return 0
	}
	return mine / total
}
