package policy

import (
	"fmt"

	"github.com/bond-aevum/core/pkg/types"
)

// CheckTimeLocks requires every configured lock to have expired: a
// BlockHeight lock needs height >= value, a UnixTime lock needs
// unixTime >= value (spec §4.3).
func CheckTimeLocks(locks []types.TimeLock, height, unixTime uint64) error {
	for i, lock := range locks {
		switch lock.Kind {
		case types.LockBlockHeight:
			if height < lock.Value {
				return fmt.Errorf("lock %d: %w: height %d, required %d", i, ErrTimeLockNotExpired, height, lock.Value)
			}
		case types.LockUnixTime:
			if unixTime < lock.Value {
				return fmt.Errorf("lock %d: %w: time %d, required %d", i, ErrTimeLockNotExpired, unixTime, lock.Value)
			}
		default:
			return fmt.Errorf("lock %d: unknown lock kind %d", i, lock.Kind)
		}
	}
	return nil
}
