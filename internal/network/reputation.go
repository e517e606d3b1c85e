// Package network provides the reference implementation of
// internal/ports.Network (spec §6 "Network port"): peer reputation
// scoring and an in-process peer registry, grounded on the teacher's
// internal/p2p BanManager/BanStore — without the libp2p host/pubsub
// transport those depend on, since running P2P transport is out of
// scope (the spec's explicit non-goal).
package network

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/bond-aevum/core/internal/ports"
	"github.com/libp2p/go-libp2p/core/peer"
)

// Ban thresholds and durations, matching the teacher's banmanager.go.
const (
	BanThreshold = 100
	BanDuration  = 24 * time.Hour
)

// Penalty values for common offense kinds.
const (
	PenaltyInvalidBlock  = 50
	PenaltyInvalidTx     = 20
	PenaltyHandshakeFail = 100
)

var banKeyPrefix = []byte("net/ban/")

// BanRecord is a persisted ban entry.
type BanRecord struct {
	ID        string `json:"id"` // peer.ID.String()
	Reason    string `json:"reason"`
	Score     int    `json:"score"`
	BannedAt  int64  `json:"banned_at"`
	ExpiresAt int64  `json:"expires_at"` // 0 = permanent
}

// IsExpired reports whether a non-permanent ban's expiry has passed.
func (r *BanRecord) IsExpired() bool {
	return r.ExpiresAt > 0 && time.Now().Unix() >= r.ExpiresAt
}

func banKey(id peer.ID) []byte {
	return append(append([]byte{}, banKeyPrefix...), []byte(id.String())...)
}

// ReputationManager tracks peer offense scores and manages bans, backed
// by a ports.DB so bans survive a restart the way the teacher's
// BanStore persists them.
type ReputationManager struct {
	mu     sync.RWMutex
	scores map[peer.ID]int
	bans   map[peer.ID]*BanRecord
	db     ports.DB // nil disables persistence (tests, ephemeral nodes)
}

// NewReputationManager creates a ReputationManager. db may be nil.
func NewReputationManager(db ports.DB) *ReputationManager {
	return &ReputationManager{
		scores: make(map[peer.ID]int),
		bans:   make(map[peer.ID]*BanRecord),
		db:     db,
	}
}

// LoadBans restores persisted, still-active bans into memory.
func (rm *ReputationManager) LoadBans() error {
	if rm.db == nil {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.db.ForEach(banKeyPrefix, func(_, value []byte) error {
		var rec BanRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil // skip corrupt records
		}
		if !rec.IsExpired() {
			id, err := peer.Decode(rec.ID)
			if err != nil {
				return nil
			}
			rm.bans[id] = &rec
		}
		return nil
	})
}

// RecordOffense adds a penalty score to a peer. If the cumulative score
// reaches BanThreshold, the peer is banned.
func (rm *ReputationManager) RecordOffense(id peer.ID, penalty int, reason string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rec, ok := rm.bans[id]; ok && !rec.IsExpired() {
		return
	}

	rm.scores[id] += penalty
	if rm.scores[id] < BanThreshold {
		return
	}

	now := time.Now()
	rec := &BanRecord{
		ID:        id.String(),
		Reason:    reason,
		Score:     rm.scores[id],
		BannedAt:  now.Unix(),
		ExpiresAt: now.Add(BanDuration).Unix(),
	}
	rm.bans[id] = rec
	delete(rm.scores, id)

	if rm.db != nil {
		data, err := json.Marshal(rec)
		if err == nil {
			rm.db.Put(banKey(id), data)
		}
	}
}

// IsBanned reports whether a peer is currently banned, clearing the ban
// lazily once it has expired.
func (rm *ReputationManager) IsBanned(id peer.ID) bool {
	rm.mu.RLock()
	rec, ok := rm.bans[id]
	rm.mu.RUnlock()
	if !ok {
		return false
	}
	if rec.IsExpired() {
		rm.mu.Lock()
		delete(rm.bans, id)
		rm.mu.Unlock()
		if rm.db != nil {
			rm.db.Delete(banKey(id))
		}
		return false
	}
	return true
}

// Unban manually clears a peer's ban and accumulated score.
func (rm *ReputationManager) Unban(id peer.ID) {
	rm.mu.Lock()
	delete(rm.bans, id)
	delete(rm.scores, id)
	rm.mu.Unlock()
	if rm.db != nil {
		rm.db.Delete(banKey(id))
	}
}

// BanList returns a snapshot of all active bans.
func (rm *ReputationManager) BanList() []BanRecord {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	list := make([]BanRecord, 0, len(rm.bans))
	for _, rec := range rm.bans {
		if !rec.IsExpired() {
			list = append(list, *rec)
		}
	}
	return list
}

// PruneExpired removes every expired ban from memory and storage.
func (rm *ReputationManager) PruneExpired() {
	rm.mu.Lock()
	var expired []peer.ID
	for id, rec := range rm.bans {
		if rec.IsExpired() {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(rm.bans, id)
	}
	rm.mu.Unlock()

	if rm.db == nil {
		return
	}
	for _, id := range expired {
		rm.db.Delete(banKey(id))
	}
}
