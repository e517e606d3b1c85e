package consensus

import (
	"testing"
	"time"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/types"
)

func TestFinalityTracker_CrossesThreshold(t *testing.T) {
	p := config.DefaultAevumPoDParams()
	ft := NewFinalityTracker(p, 10*time.Second)
	blockHash := types.Hash{0x01}
	now := time.Unix(1_700_000_000, 0)

	finalized, err := ft.RecordVote(blockHash, addrFromByte(1), 40, 100, now)
	if err != nil || finalized {
		t.Fatalf("40/100 should not finalize yet: finalized=%v err=%v", finalized, err)
	}

	finalized, err = ft.RecordVote(blockHash, addrFromByte(2), 30, 100, now)
	if err != nil || !finalized {
		t.Fatalf("70/100 (>2/3) should finalize: finalized=%v err=%v", finalized, err)
	}
	if !ft.IsFinalized(blockHash) {
		t.Error("IsFinalized should report true after threshold crossed")
	}
}

func TestFinalityTracker_ExactlyTwoThirdsDoesNotFinalize(t *testing.T) {
	p := config.DefaultAevumPoDParams()
	ft := NewFinalityTracker(p, 10*time.Second)
	blockHash := types.Hash{0x02}
	now := time.Unix(1_700_000_000, 0)

	// 2/3 exactly: the spec requires STRICTLY greater than 2/3.
	finalized, _ := ft.RecordVote(blockHash, addrFromByte(1), 200, 300, now)
	if finalized {
		t.Error("exactly 2/3 voting power should not cross the strict supermajority threshold")
	}
}

func TestFinalityTracker_DuplicateVoteRejected(t *testing.T) {
	p := config.DefaultAevumPoDParams()
	ft := NewFinalityTracker(p, 10*time.Second)
	blockHash := types.Hash{0x03}
	now := time.Unix(1_700_000_000, 0)

	ft.RecordVote(blockHash, addrFromByte(1), 10, 100, now)
	if _, err := ft.RecordVote(blockHash, addrFromByte(1), 10, 100, now); err != ErrDuplicateVote {
		t.Errorf("got %v, want ErrDuplicateVote", err)
	}
}

func TestFinalityTracker_WindowExpires(t *testing.T) {
	p := config.DefaultAevumPoDParams()
	ft := NewFinalityTracker(p, 5*time.Second)
	blockHash := types.Hash{0x04}
	now := time.Unix(1_700_000_000, 0)

	ft.RecordVote(blockHash, addrFromByte(1), 10, 100, now)
	late := now.Add(6 * time.Second)
	if _, err := ft.RecordVote(blockHash, addrFromByte(2), 80, 100, late); err != ErrVoteWindowClosed {
		t.Errorf("got %v, want ErrVoteWindowClosed", err)
	}
}

func TestFinalityTracker_VoteAfterFinalizedIsIdempotentError(t *testing.T) {
	p := config.DefaultAevumPoDParams()
	ft := NewFinalityTracker(p, 10*time.Second)
	blockHash := types.Hash{0x05}
	now := time.Unix(1_700_000_000, 0)

	ft.RecordVote(blockHash, addrFromByte(1), 80, 100, now)
	finalized, err := ft.RecordVote(blockHash, addrFromByte(2), 5, 100, now)
	if err != ErrAlreadyFinalized || !finalized {
		t.Errorf("vote after finalization should report ErrAlreadyFinalized and finalized=true, got finalized=%v err=%v", finalized, err)
	}
}

func TestFinalityTracker_Abandon(t *testing.T) {
	p := config.DefaultAevumPoDParams()
	ft := NewFinalityTracker(p, 5*time.Second)
	blockHash := types.Hash{0x06}
	now := time.Unix(1_700_000_000, 0)

	ft.RecordVote(blockHash, addrFromByte(1), 10, 100, now)
	ft.Abandon(blockHash)
	if ft.IsFinalized(blockHash) {
		t.Error("abandoned round should not be finalized")
	}
	// Re-proposing the same hash opens a fresh round.
	finalized, err := ft.RecordVote(blockHash, addrFromByte(1), 80, 100, now)
	if err != nil || !finalized {
		t.Errorf("fresh round after abandon should accept votes again: finalized=%v err=%v", finalized, err)
	}
}
