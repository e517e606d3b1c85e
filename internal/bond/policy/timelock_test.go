package policy

import (
	"errors"
	"testing"

	"github.com/bond-aevum/core/pkg/types"
)

func TestCheckTimeLocks_HeightBoundary(t *testing.T) {
	locks := []types.TimeLock{{Kind: types.LockBlockHeight, Value: 100}}

	if err := CheckTimeLocks(locks, 99, 0); !errors.Is(err, ErrTimeLockNotExpired) {
		t.Errorf("spend at H-1 should fail TimeLockNotExpired, got %v", err)
	}
	if err := CheckTimeLocks(locks, 100, 0); err != nil {
		t.Errorf("spend at H should succeed, got %v", err)
	}
}

func TestCheckTimeLocks_UnixTime(t *testing.T) {
	locks := []types.TimeLock{{Kind: types.LockUnixTime, Value: 1700000000}}
	if err := CheckTimeLocks(locks, 0, 1699999999); !errors.Is(err, ErrTimeLockNotExpired) {
		t.Errorf("expected ErrTimeLockNotExpired, got %v", err)
	}
	if err := CheckTimeLocks(locks, 0, 1700000000); err != nil {
		t.Errorf("expected success, got %v", err)
	}
}

func TestCheckTimeLocks_MultipleLocksAllMustPass(t *testing.T) {
	locks := []types.TimeLock{
		{Kind: types.LockBlockHeight, Value: 100},
		{Kind: types.LockUnixTime, Value: 1700000000},
	}
	if err := CheckTimeLocks(locks, 100, 1699999999); !errors.Is(err, ErrTimeLockNotExpired) {
		t.Errorf("one unexpired lock should fail the whole set, got %v", err)
	}
	if err := CheckTimeLocks(locks, 100, 1700000000); err != nil {
		t.Errorf("expected success once every lock expired, got %v", err)
	}
}
