package policy

import (
	"errors"
	"testing"

	"github.com/bond-aevum/core/pkg/types"
)

// TestCheckAndRollRateLimit_BoundaryVector reproduces the spec §8 boundary
// scenario exactly: max=1,000,000 over a 86400s window. Spending 999,999
// leaves headroom of only 1; a follow-up spend of 2 within the same
// window must fail, but the same spend succeeds once the window has
// rolled over.
func TestCheckAndRollRateLimit_BoundaryVector(t *testing.T) {
	rl := &types.RateLimitPolicy{
		WindowSeconds:     86400,
		MaxValuePerWindow: 1_000_000,
		WindowStart:       1000,
	}

	if err := CheckAndRollRateLimit(rl, 999_999, 1000); err != nil {
		t.Fatalf("initial spend should succeed: %v", err)
	}
	if rl.SpentInWindow != 999_999 {
		t.Fatalf("spent_in_window = %d, want 999999", rl.SpentInWindow)
	}

	if err := CheckAndRollRateLimit(rl, 2, 1000+3600); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded within the same window, got %v", err)
	}

	if err := CheckAndRollRateLimit(rl, 2, 1000+86400+1); err != nil {
		t.Fatalf("spend after window rollover should succeed: %v", err)
	}
	if rl.SpentInWindow != 2 {
		t.Fatalf("spent_in_window after rollover = %d, want 2", rl.SpentInWindow)
	}
}

func TestCheckAndRollRateLimit_RollsExactlyOnBoundary(t *testing.T) {
	rl := &types.RateLimitPolicy{WindowSeconds: 100, MaxValuePerWindow: 10, WindowStart: 0, SpentInWindow: 10}

	// T == window_start + window_seconds rolls the window per spec §4.3's
	// pinned reference behavior, so a spend landing exactly on the
	// boundary sees a fresh window rather than the exhausted old one.
	if err := CheckAndRollRateLimit(rl, 10, 100); err != nil {
		t.Fatalf("spend exactly on the boundary should see a fresh window: %v", err)
	}
}

func TestCheckAndRollRateLimit_ExceedsFreshWindow(t *testing.T) {
	rl := &types.RateLimitPolicy{WindowSeconds: 100, MaxValuePerWindow: 10, WindowStart: 0}
	if err := CheckAndRollRateLimit(rl, 11, 0); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
	if rl.SpentInWindow != 0 {
		t.Fatalf("a rejected spend must not update spent_in_window, got %d", rl.SpentInWindow)
	}
}
