package policy

import (
	"fmt"

	"github.com/bond-aevum/core/pkg/types"
)

// CheckAndRollRateLimit applies spec §4.3's pinned window-roll-before-check
// semantics: if the window has elapsed (T >= window_start + window_seconds)
// it rolls first — window_start := T, spent_in_window := 0 — so a spend
// landing exactly on the boundary sees a fresh window. It then checks
// spent_in_window + value <= max_value_per_window and, on success, updates
// spent_in_window in place. Rate-limit state is consensus state: every
// node recomputes it identically by replaying history through this
// function, so the mutation of rl is the authoritative update.
func CheckAndRollRateLimit(rl *types.RateLimitPolicy, spendValue, unixTime uint64) error {
	if unixTime >= rl.WindowStart+rl.WindowSeconds {
		rl.WindowStart = unixTime
		rl.SpentInWindow = 0
	}
	if rl.SpentInWindow+spendValue > rl.MaxValuePerWindow {
		return fmt.Errorf("%w: window has %d/%d, spend of %d would exceed it",
			ErrRateLimitExceeded, rl.SpentInWindow, rl.MaxValuePerWindow, spendValue)
	}
	rl.SpentInWindow += spendValue
	return nil
}
