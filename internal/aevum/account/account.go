// Package account defines Aevum's account model (spec §4.7): the
// address-keyed balance/nonce record and the transaction type that moves
// value between accounts.
package account

import (
	"github.com/bond-aevum/core/pkg/types"
)

// Account is the state every Aevum address carries: balance, the next
// expected nonce, the ML-DSA public key the address was first seen
// signing with, and an optional smart-account spend policy (spec §4.7
// "smart-account policies (if any) satisfied"). Reusing types.PUtxoPolicy
// here treats an Aevum account's policy exactly like a Bond pUTXO's —
// guardian recovery, MFA, time locks, and rate limiting are ledger-
// agnostic constraints on who may authorize a spend.
type Account struct {
	Address types.Address
	Balance uint64
	Nonce   uint64

	// PubKey is the Level2 ML-DSA public key bound to this address on
	// first use. Nil until the account's first transaction is applied,
	// at which point it is pinned — an address cannot rebind to a
	// different key without going through a smart-account recovery flow.
	PubKey []byte

	Policy *types.PUtxoPolicy
}

// IsZero reports whether this is an empty, never-seen account.
func (a *Account) IsZero() bool {
	return a == nil || (a.Balance == 0 && a.Nonce == 0 && a.PubKey == nil)
}

// Clone returns a deep copy, so callers can mutate state without aliasing
// the store's record.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.PubKey != nil {
		cp.PubKey = append([]byte(nil), a.PubKey...)
	}
	if a.Policy != nil {
		policy := *a.Policy
		cp.Policy = &policy
	}
	return &cp
}
