package consensus

import (
	"testing"
	"time"
)

func TestLivenessTracker_UptimeRatio(t *testing.T) {
	tr := NewLivenessTracker(10 * time.Second)
	addr := addrFromByte(1)

	tr.SampleUptime(addr, true)
	tr.SampleUptime(addr, true)
	tr.SampleUptime(addr, false)
	tr.SampleUptime(addr, true)

	snap := tr.Snapshot(addr)
	if got := snap.UptimeRatio(); got != 0.75 {
		t.Errorf("UptimeRatio = %v, want 0.75", got)
	}
}

func TestLivenessTracker_UnsampledDefaultsToFullUptime(t *testing.T) {
	tr := NewLivenessTracker(10 * time.Second)
	snap := tr.Snapshot(addrFromByte(2))
	if snap.UptimeRatio() != 1 {
		t.Error("an unsampled validator should default to uptime 1 (innocent until observed otherwise)")
	}
}

func TestLivenessTracker_VoteEngagement(t *testing.T) {
	tr := NewLivenessTracker(10 * time.Second)
	addr := addrFromByte(3)

	tr.RecordVoteOpportunity(addr, true)
	tr.RecordVoteOpportunity(addr, true)
	tr.RecordVoteOpportunity(addr, false)

	snap := tr.Snapshot(addr)
	if snap.VotesCast != 2 || snap.VotesAvailable != 3 {
		t.Errorf("got cast=%d available=%d, want 2/3", snap.VotesCast, snap.VotesAvailable)
	}
}

func TestLivenessTracker_IsOnline(t *testing.T) {
	tr := NewLivenessTracker(10 * time.Second)
	addr := addrFromByte(4)
	now := time.Unix(1_700_000_000, 0)

	if tr.IsOnline(addr, now) {
		t.Error("never-heartbeat validator should not be online")
	}

	tr.RecordHeartbeat(addr, now)
	if !tr.IsOnline(addr, now.Add(5*time.Second)) {
		t.Error("validator within 2x interval should be online")
	}
	if tr.IsOnline(addr, now.Add(25*time.Second)) {
		t.Error("validator beyond 2x interval should not be online")
	}
}
