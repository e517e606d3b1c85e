package utxo

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/bond-aevum/core/internal/ports"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

// Key prefixes for the UTXO store, each an independently-scannable region
// of the same underlying ports.DB.
var (
	prefixUTXO  = []byte("u/") // u/<txid><index> -> Entry JSON
	prefixOwner = []byte("o/") // o/<ownerHash32><txid><index> -> empty (index)
)

// Store implements Set backed by a ports.DB.
type Store struct {
	db ports.DB
}

// NewStore creates a new UTXO store backed by the given database.
func NewStore(db ports.DB) *Store {
	return &Store{db: db}
}

// utxoKey builds a storage key for an outpoint: "u/" + txid(32) + index(4).
func utxoKey(op types.Outpoint) []byte {
	key := make([]byte, len(prefixUTXO)+types.HashSize+4)
	copy(key, prefixUTXO)
	copy(key[len(prefixUTXO):], op.TxID[:])
	binary.BigEndian.PutUint32(key[len(prefixUTXO)+types.HashSize:], op.Index)
	return key
}

// ownerKey builds an owner-hash index key: "o/" + ownerHash(32) + txid(32) + index(4).
func ownerKey(owner []byte, op types.Outpoint) []byte {
	key := make([]byte, len(prefixOwner)+len(owner)+types.HashSize+4)
	copy(key, prefixOwner)
	n := copy(key[len(prefixOwner):], owner)
	off := len(prefixOwner) + n
	copy(key[off:], op.TxID[:])
	binary.BigEndian.PutUint32(key[off+types.HashSize:], op.Index)
	return key
}

// Get retrieves a UTXO entry by its outpoint.
func (s *Store) Get(outpoint types.Outpoint) (*Entry, error) {
	data, err := s.db.Get(utxoKey(outpoint))
	if err != nil {
		return nil, fmt.Errorf("utxo get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("utxo unmarshal: %w", err)
	}
	return &e, nil
}

// Put stores a UTXO entry and, for P2PKH-predicate outputs, indexes it by
// the pubkey-hash the script embeds so wallets can enumerate their own
// outputs without a full scan.
func (s *Store) Put(e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("utxo marshal: %w", err)
	}
	if err := s.db.Put(utxoKey(e.Outpoint), data); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}

	if owner, ok := script.ParseP2PKHHash(e.ScriptPubKey); ok {
		if err := s.db.Put(ownerKey(owner, e.Outpoint), []byte{}); err != nil {
			return fmt.Errorf("utxo owner index put: %w", err)
		}
	}

	return nil
}

// Delete removes a UTXO and its owner index entry, if any.
func (s *Store) Delete(outpoint types.Outpoint) error {
	e, err := s.Get(outpoint)
	if err == nil {
		if owner, ok := script.ParseP2PKHHash(e.ScriptPubKey); ok {
			s.db.Delete(ownerKey(owner, outpoint))
		}
	}

	if err := s.db.Delete(utxoKey(outpoint)); err != nil {
		return fmt.Errorf("utxo delete: %w", err)
	}
	return nil
}

// Has checks if a UTXO exists for the given outpoint.
func (s *Store) Has(outpoint types.Outpoint) (bool, error) {
	return s.db.Has(utxoKey(outpoint))
}

// GetUTXO implements tx.UTXOProvider.
func (s *Store) GetUTXO(outpoint types.Outpoint) (tx.UTXOEntry, error) {
	e, err := s.Get(outpoint)
	if err != nil {
		return tx.UTXOEntry{}, tx.ErrUtxoNotFound
	}
	return e.UTXOEntry, nil
}

// HasUTXO implements tx.UTXOProvider.
func (s *Store) HasUTXO(outpoint types.Outpoint) bool {
	ok, err := s.Has(outpoint)
	return err == nil && ok
}

// ForEach iterates over every UTXO in the store.
func (s *Store) ForEach(fn func(*Entry) error) error {
	return s.db.ForEach(prefixUTXO, func(key, value []byte) error {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("utxo unmarshal: %w", err)
		}
		return fn(&e)
	})
}

// GetByOwnerHash returns every unspent output whose P2PKH predicate
// embeds the given pubkey hash, by scanning the owner index.
func (s *Store) GetByOwnerHash(owner []byte) ([]*Entry, error) {
	prefix := make([]byte, len(prefixOwner)+len(owner))
	copy(prefix, prefixOwner)
	copy(prefix[len(prefixOwner):], owner)

	var entries []*Entry
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		off := len(prefixOwner) + len(owner)
		if len(key) < off+types.HashSize+4 {
			return nil // Malformed key, skip.
		}
		var op types.Outpoint
		copy(op.TxID[:], key[off:off+types.HashSize])
		op.Index = binary.BigEndian.Uint32(key[off+types.HashSize:])

		e, err := s.Get(op)
		if err != nil {
			return nil // Spent since the index entry was written, skip.
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan owner index: %w", err)
	}
	return entries, nil
}

// ClearAll removes every UTXO and index entry. Used to rebuild the set
// from scratch after a crash mid-reorg.
func (s *Store) ClearAll() error {
	var keys [][]byte
	for _, prefix := range [][]byte{prefixUTXO, prefixOwner} {
		if err := s.db.ForEach(prefix, func(key, _ []byte) error {
			k := make([]byte, len(key))
			copy(k, key)
			keys = append(keys, k)
			return nil
		}); err != nil {
			return fmt.Errorf("scan prefix %s: %w", prefix, err)
		}
	}
	for _, key := range keys {
		if err := s.db.Delete(key); err != nil {
			return fmt.Errorf("delete utxo key: %w", err)
		}
	}
	return nil
}
