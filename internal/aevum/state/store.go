// Package state is the authoritative record of every Aevum account
// (spec §4.7): balances, nonces, and the lazily-accruing validator/
// delegator reward ledger spec §4.8 describes.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/bond-aevum/core/internal/aevum/account"
	"github.com/bond-aevum/core/internal/ports"
	"github.com/bond-aevum/core/pkg/types"
)

var prefixAccount = []byte("a/") // a/<address20> -> Account JSON

// Store is the account state store backed by a ports.DB, mirroring
// internal/bond/utxo.Store's one-prefix-per-concern layout.
type Store struct {
	db ports.DB
}

// NewStore creates an account store backed by the given database.
func NewStore(db ports.DB) *Store {
	return &Store{db: db}
}

func accountKey(addr types.Address) []byte {
	key := make([]byte, len(prefixAccount)+types.AddressSize)
	copy(key, prefixAccount)
	copy(key[len(prefixAccount):], addr[:])
	return key
}

// Get returns the account at addr, or a fresh zero-value account (not yet
// persisted) if none exists — spec §4.7 treats an unseen address as
// having balance 0 and nonce 0, not an error.
func (s *Store) Get(addr types.Address) (*account.Account, error) {
	data, err := s.db.Get(accountKey(addr))
	if err != nil {
		return &account.Account{Address: addr}, nil
	}
	var a account.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("account unmarshal: %w", err)
	}
	return &a, nil
}

// Put persists an account record.
func (s *Store) Put(a *account.Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("account marshal: %w", err)
	}
	if err := s.db.Put(accountKey(a.Address), data); err != nil {
		return fmt.Errorf("account put: %w", err)
	}
	return nil
}

// Has reports whether addr has ever been persisted.
func (s *Store) Has(addr types.Address) bool {
	ok, err := s.db.Has(accountKey(addr))
	return err == nil && ok
}

// ForEach iterates over every persisted account.
func (s *Store) ForEach(fn func(*account.Account) error) error {
	return s.db.ForEach(prefixAccount, func(_, value []byte) error {
		var a account.Account
		if err := json.Unmarshal(value, &a); err != nil {
			return fmt.Errorf("account unmarshal: %w", err)
		}
		return fn(&a)
	})
}
