package bridge

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bond-aevum/core/internal/ports"
	"github.com/bond-aevum/core/pkg/types"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DB key prefixes: one for the transfer table, one for the
// source-tx-hash -> transfer-id secondary index the double-spend
// defense needs.
var (
	prefixTransfer  = []byte("t/")
	prefixBySrcHash = []byte("s/")
)

// recentSrcHashCacheSize bounds the double-spend fast-path cache: it
// only needs to cover the source hashes a burst of concurrent mint
// requests is likely to re-check, not the full unresolved-transfer
// history, which bySrcHash remains the authority for.
const recentSrcHashCacheSize = 4096

// Store is the bridge transfer table: a mutex-guarded in-memory index
// backed by a ports.DB, mirroring the teacher's Registry — rebuildable
// entirely from the backing store on restart (spec §4.10 "Recovery...
// no in-memory state may be load-bearing").
type Store struct {
	mu        sync.RWMutex
	transfers map[uuid.UUID]*Transfer
	bySrcHash map[types.Hash][]uuid.UUID
	db        ports.DB

	// recentSrcHashes is an LRU set of recently indexed source-tx hashes
	// (spec §2.1's "bridge double-spend index"). UnresolvedBySourceTx
	// consults it first, but a miss still falls through to the bySrcHash
	// lookup, so the cache never changes a result: bySrcHash is unbounded
	// and stays authoritative over the full unresolved-transfer set
	// regardless of how long a transfer stays unresolved.
	recentSrcHashes *lru.Cache[types.Hash, struct{}]
}

// NewStore creates an empty transfer store backed by db. Call Load to
// populate it from previously persisted state.
func NewStore(db ports.DB) *Store {
	cache, _ := lru.New[types.Hash, struct{}](recentSrcHashCacheSize)
	return &Store{
		transfers:       make(map[uuid.UUID]*Transfer),
		bySrcHash:       make(map[types.Hash][]uuid.UUID),
		db:              db,
		recentSrcHashes: cache,
	}
}

func transferKey(id uuid.UUID) []byte {
	key := make([]byte, len(prefixTransfer)+16)
	copy(key, prefixTransfer)
	copy(key[len(prefixTransfer):], id[:])
	return key
}

// Load reconstructs the in-memory index by scanning every persisted
// transfer, the only state a restarted bridge node may trust (spec
// §4.10 "Recovery").
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ForEach(prefixTransfer, func(_, value []byte) error {
		var t Transfer
		if err := json.Unmarshal(value, &t); err != nil {
			return fmt.Errorf("unmarshal transfer: %w", err)
		}
		s.transfers[t.ID] = &t
		s.indexBySrcHashLocked(&t)
		return nil
	})
}

func (s *Store) indexBySrcHashLocked(t *Transfer) {
	s.recentSrcHashes.Add(t.SourceTxHash, struct{}{})
	for _, id := range s.bySrcHash[t.SourceTxHash] {
		if id == t.ID {
			return
		}
	}
	s.bySrcHash[t.SourceTxHash] = append(s.bySrcHash[t.SourceTxHash], t.ID)
}

// Put persists a transfer and updates the in-memory index.
func (s *Store) Put(t *Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(t)
}

func (s *Store) putLocked(t *Transfer) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transfer: %w", err)
	}
	if err := s.db.Put(transferKey(t.ID), data); err != nil {
		return fmt.Errorf("persist transfer: %w", err)
	}
	s.transfers[t.ID] = t
	s.indexBySrcHashLocked(t)
	return nil
}

// Get returns a transfer by ID.
func (s *Store) Get(id uuid.UUID) (*Transfer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[id]
	return t, ok
}

// UnresolvedBySourceTx returns every still-in-flight transfer whose
// source transaction is sourceTxHash — the double-spend defense check
// (spec §4.10: refuse a mint whose source tx collides with a prior
// unresolved transfer).
func (s *Store) UnresolvedBySourceTx(sourceTxHash types.Hash) []*Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, recent := s.recentSrcHashes.Get(sourceTxHash); !recent {
		if _, indexed := s.bySrcHash[sourceTxHash]; !indexed {
			return nil
		}
	}
	var out []*Transfer
	for _, id := range s.bySrcHash[sourceTxHash] {
		if t := s.transfers[id]; t != nil && t.Unresolved() {
			out = append(out, t)
		}
	}
	return out
}

// List returns every tracked transfer.
func (s *Store) List() []*Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Transfer, 0, len(s.transfers))
	for _, t := range s.transfers {
		out = append(out, t)
	}
	return out
}

// Count returns the number of tracked transfers.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transfers)
}
