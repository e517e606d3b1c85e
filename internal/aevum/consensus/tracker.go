package consensus

import (
	"sync"
	"time"

	"github.com/bond-aevum/core/pkg/types"
)

// LivenessStats holds in-memory engagement and uptime statistics for one
// validator, feeding ValidatorInput.VotesCast/VotesAvailable and
// UptimeRatio. All data is in-memory only and resets on restart — the
// same non-consensus-impacting liveness bookkeeping the teacher's
// ValidatorTracker keeps for its PoA engine, here repurposed to compute
// dedication-score inputs instead of backup-delay ordering.
type LivenessStats struct {
	Address        types.Address
	LastHeartbeat  time.Time
	VotesCast      uint64
	VotesAvailable uint64
	onlineSamples  uint64
	totalSamples   uint64
}

// UptimeRatio returns the fraction of sampled heartbeat windows this
// validator was observed online, used directly as ValidatorInput.UptimeRatio.
func (s *LivenessStats) UptimeRatio() float64 {
	if s.totalSamples == 0 {
		return 1 // Unsampled validators default to perfect uptime (innocent until observed otherwise).
	}
	return float64(s.onlineSamples) / float64(s.totalSamples)
}

// LivenessTracker tracks every validator's heartbeats and finality-vote
// participation, the raw inputs DedicationScore's reliability and
// engagement terms need.
type LivenessTracker struct {
	mu                sync.RWMutex
	stats             map[types.Address]*LivenessStats
	heartbeatInterval time.Duration
}

// NewLivenessTracker creates a tracker with the expected heartbeat interval.
func NewLivenessTracker(heartbeatInterval time.Duration) *LivenessTracker {
	return &LivenessTracker{
		stats:             make(map[types.Address]*LivenessStats),
		heartbeatInterval: heartbeatInterval,
	}
}

func (t *LivenessTracker) getOrCreate(addr types.Address) *LivenessStats {
	s, ok := t.stats[addr]
	if !ok {
		s = &LivenessStats{Address: addr}
		t.stats[addr] = s
	}
	return s
}

// RecordHeartbeat records a heartbeat from the given validator at now.
func (t *LivenessTracker) RecordHeartbeat(addr types.Address, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.getOrCreate(addr)
	s.LastHeartbeat = now
}

// SampleUptime records one liveness sample: online reflects whether the
// validator's last heartbeat fell within the expected interval at the
// time of sampling. Call this once per heartbeat interval tick so
// UptimeRatio reflects a rolling history rather than only the most
// recent beat.
func (t *LivenessTracker) SampleUptime(addr types.Address, online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.getOrCreate(addr)
	s.totalSamples++
	if online {
		s.onlineSamples++
	}
}

// RecordVoteOpportunity records that a finality vote window opened in
// which addr was eligible to vote, and whether it did.
func (t *LivenessTracker) RecordVoteOpportunity(addr types.Address, voted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.getOrCreate(addr)
	s.VotesAvailable++
	if voted {
		s.VotesCast++
	}
}

// Snapshot returns a copy of addr's current liveness stats, or a fresh
// zero-value record if it has never been observed.
func (t *LivenessTracker) Snapshot(addr types.Address) LivenessStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.stats[addr]
	if !ok {
		return LivenessStats{Address: addr}
	}
	return *s
}

// IsOnline reports whether addr's last heartbeat is within 2x the
// expected interval of now (teacher's ValidatorTracker.IsOnline rule).
func (t *LivenessTracker) IsOnline(addr types.Address, now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.stats[addr]
	if !ok || s.LastHeartbeat.IsZero() {
		return false
	}
	return now.Sub(s.LastHeartbeat) <= 2*t.heartbeatInterval
}
