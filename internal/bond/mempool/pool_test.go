package mempool

import (
	"errors"
	"strings"
	"testing"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

// mockUTXOs is a simple in-memory UTXOProvider for tests.
type mockUTXOs struct {
	entries map[types.Outpoint]tx.UTXOEntry
}

func newMockUTXOs() *mockUTXOs {
	return &mockUTXOs{entries: make(map[types.Outpoint]tx.UTXOEntry)}
}

func (m *mockUTXOs) add(op types.Outpoint, value uint64, scriptPubKey types.Script) {
	m.entries[op] = tx.UTXOEntry{Value: value, ScriptPubKey: scriptPubKey}
}

func (m *mockUTXOs) GetUTXO(op types.Outpoint) (tx.UTXOEntry, error) {
	e, ok := m.entries[op]
	if !ok {
		return tx.UTXOEntry{}, tx.ErrUtxoNotFound
	}
	return e, nil
}

func (m *mockUTXOs) HasUTXO(op types.Outpoint) bool {
	_, ok := m.entries[op]
	return ok
}

func fixedHeightTime(height, unixTime uint64) (func() uint64, func() uint64) {
	return func() uint64 { return height }, func() uint64 { return unixTime }
}

// buildTx creates a P2PKH-signed transaction spending prevOut, with the
// given output value paid to an arbitrary destination.
func buildTx(t *testing.T, key *crypto.PrivateKey, prevOut types.Outpoint, prevScriptPubKey types.Script, outputValue uint64) *tx.Transaction {
	t.Helper()
	b := tx.NewBuilder().
		AddInput(prevOut).
		AddOutput(outputValue, script.P2PKHScript(make([]byte, types.HashSize)))
	if err := b.SignP2PKH(0, prevScriptPubKey, key); err != nil {
		t.Fatalf("SignP2PKH: %v", err)
	}
	return b.Build()
}

func newTestPool(utxos *mockUTXOs, maxSize int) *Pool {
	heightFn, timeFn := fixedHeightTime(100, 1_700_000_000)
	return New(utxos, nil, heightFn, timeFn, maxSize)
}

func newKeyedOutpoint(b byte) (types.Outpoint, *crypto.PrivateKey, types.Script) {
	key, _ := crypto.GenerateKey()
	pubKeyHash := crypto.DoubleHash(key.PublicKey())
	prevScript := script.P2PKHScript(pubKeyHash[:])
	return types.Outpoint{TxID: types.Hash{b}, Index: 0}, key, prevScript
}

func TestPool_Add(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	transaction := buildTx(t, key, prevOut, prevScript, 4000)

	fee, err := pool.Add(transaction)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fee != 1000 {
		t.Errorf("fee = %d, want 1000", fee)
	}
	if pool.Count() != 1 {
		t.Errorf("count = %d, want 1", pool.Count())
	}
}

func TestPool_Add_Duplicate(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	transaction := buildTx(t, key, prevOut, prevScript, 4000)

	pool.Add(transaction)
	_, err := pool.Add(transaction)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got: %v", err)
	}
}

func TestPool_Add_DoubleSpend_LowerFeeRejected(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)

	tx1 := buildTx(t, key, prevOut, prevScript, 3000) // fee 2000
	tx2 := buildTx(t, key, prevOut, prevScript, 4000) // fee 1000, same size, lower rate

	if _, err := pool.Add(tx1); err != nil {
		t.Fatalf("Add tx1: %v", err)
	}
	_, err := pool.Add(tx2)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}
	if !pool.Has(tx1.Hash()) {
		t.Error("tx1 should still be in the pool, it was not outbid")
	}
}

func TestPool_Add_DoubleSpend_HigherFeeReplaces(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)

	tx1 := buildTx(t, key, prevOut, prevScript, 4000) // fee 1000
	tx2 := buildTx(t, key, prevOut, prevScript, 3000) // fee 2000, same size, higher rate

	if _, err := pool.Add(tx1); err != nil {
		t.Fatalf("Add tx1: %v", err)
	}
	if _, err := pool.Add(tx2); err != nil {
		t.Fatalf("Add tx2 should outbid and replace tx1: %v", err)
	}
	if pool.Has(tx1.Hash()) {
		t.Error("tx1 should have been evicted by the higher fee-rate replacement")
	}
	if !pool.Has(tx2.Hash()) {
		t.Error("tx2 should be in the pool")
	}
	if pool.Count() != 1 {
		t.Errorf("count = %d, want 1", pool.Count())
	}
}

func TestPool_Add_PoolFull(t *testing.T) {
	utxos := newMockUTXOs()
	pool := newTestPool(utxos, 2)

	var keys []*crypto.PrivateKey
	var outs []types.Outpoint
	var scripts []types.Script
	for i := 0; i < 3; i++ {
		op, key, s := newKeyedOutpoint(byte(i + 1))
		utxos.add(op, 5000, s)
		keys = append(keys, key)
		outs = append(outs, op)
		scripts = append(scripts, s)
	}

	pool.Add(buildTx(t, keys[0], outs[0], scripts[0], 4000))
	pool.Add(buildTx(t, keys[1], outs[1], scripts[1], 4000))

	_, err := pool.Add(buildTx(t, keys[2], outs[2], scripts[2], 4000))
	if !errors.Is(err, ErrPoolFull) {
		t.Errorf("expected ErrPoolFull, got: %v", err)
	}
}

func TestPool_Add_ValidationFailure(t *testing.T) {
	utxos := newMockUTXOs() // Empty — no UTXOs.
	pool := newTestPool(utxos, 100)

	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	transaction := buildTx(t, key, prevOut, prevScript, 1000)

	_, err := pool.Add(transaction)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got: %v", err)
	}
}

func TestPool_Remove(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	transaction := buildTx(t, key, prevOut, prevScript, 4000)
	pool.Add(transaction)

	pool.Remove(transaction.Hash())
	if pool.Count() != 0 {
		t.Errorf("count = %d, want 0", pool.Count())
	}
	if pool.Has(transaction.Hash()) {
		t.Error("Has should return false after Remove")
	}
}

func TestPool_Remove_ClearsConflictIndex(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)

	tx1 := buildTx(t, key, prevOut, prevScript, 4000)
	pool.Add(tx1)
	pool.Remove(tx1.Hash())

	tx2 := buildTx(t, key, prevOut, prevScript, 3000)
	_, err := pool.Add(tx2)
	if err != nil {
		t.Fatalf("Add after Remove should succeed: %v", err)
	}
}

func TestPool_RemoveConfirmed(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut1, key1, prevScript1 := newKeyedOutpoint(0x01)
	prevOut2, key2, prevScript2 := newKeyedOutpoint(0x02)
	utxos.add(prevOut1, 5000, prevScript1)
	utxos.add(prevOut2, 3000, prevScript2)

	pool := newTestPool(utxos, 100)

	tx1 := buildTx(t, key1, prevOut1, prevScript1, 4000)
	tx2 := buildTx(t, key2, prevOut2, prevScript2, 2000)
	pool.Add(tx1)
	pool.Add(tx2)

	pool.RemoveConfirmed([]*tx.Transaction{tx1})
	if pool.Count() != 1 {
		t.Errorf("count = %d, want 1", pool.Count())
	}
	if pool.Has(tx1.Hash()) {
		t.Error("tx1 should be removed")
	}
	if !pool.Has(tx2.Hash()) {
		t.Error("tx2 should still be in pool")
	}
}

func TestPool_Has(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	transaction := buildTx(t, key, prevOut, prevScript, 4000)

	if pool.Has(transaction.Hash()) {
		t.Error("Has should return false before Add")
	}
	pool.Add(transaction)
	if !pool.Has(transaction.Hash()) {
		t.Error("Has should return true after Add")
	}
}

func TestPool_Get(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	transaction := buildTx(t, key, prevOut, prevScript, 4000)
	pool.Add(transaction)

	got := pool.Get(transaction.Hash())
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Hash() != transaction.Hash() {
		t.Error("Get returned wrong transaction")
	}

	missing := pool.Get(types.Hash{0xff})
	if missing != nil {
		t.Error("Get should return nil for unknown hash")
	}
}

func TestPool_SelectForBlock(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut1, key1, prevScript1 := newKeyedOutpoint(0x01)
	prevOut2, key2, prevScript2 := newKeyedOutpoint(0x02)
	prevOut3, key3, prevScript3 := newKeyedOutpoint(0x03)
	utxos.add(prevOut1, 5000, prevScript1)
	utxos.add(prevOut2, 3000, prevScript2)
	utxos.add(prevOut3, 8000, prevScript3)

	pool := newTestPool(utxos, 100)

	tx1 := buildTx(t, key1, prevOut1, prevScript1, 4000) // fee 1000
	tx2 := buildTx(t, key2, prevOut2, prevScript2, 2500) // fee 500
	tx3 := buildTx(t, key3, prevOut3, prevScript3, 5000) // fee 3000

	pool.Add(tx1)
	pool.Add(tx2)
	pool.Add(tx3)

	selected := pool.SelectForBlock(2)
	if len(selected) != 2 {
		t.Fatalf("selected %d, want 2", len(selected))
	}
	if selected[0].Hash() != tx3.Hash() {
		t.Error("highest fee-rate tx should be first")
	}
	if selected[1].Hash() != tx1.Hash() {
		t.Error("second highest fee-rate tx should be second")
	}
}

func TestPool_SelectForBlock_LimitExceedsPool(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	pool.Add(buildTx(t, key, prevOut, prevScript, 4000))

	selected := pool.SelectForBlock(100)
	if len(selected) != 1 {
		t.Errorf("selected %d, want 1", len(selected))
	}
}

func TestPool_Evict(t *testing.T) {
	utxos := newMockUTXOs()
	var keys []*crypto.PrivateKey
	var outs []types.Outpoint
	var scripts []types.Script
	for i := 0; i < 5; i++ {
		op, key, s := newKeyedOutpoint(byte(i + 1))
		utxos.add(op, uint64(5000+i*1000), s)
		keys = append(keys, key)
		outs = append(outs, op)
		scripts = append(scripts, s)
	}

	pool := newTestPool(utxos, 5)
	for i := 0; i < 5; i++ {
		pool.Add(buildTx(t, keys[i], outs[i], scripts[i], 4000))
	}
	if pool.Count() != 5 {
		t.Fatalf("count = %d, want 5", pool.Count())
	}

	pool.maxSize = 3
	evicted := pool.Evict()
	if evicted != 2 {
		t.Errorf("evicted = %d, want 2", evicted)
	}
	if pool.Count() != 3 {
		t.Errorf("count after evict = %d, want 3", pool.Count())
	}
}

func TestPool_Evict_NotNeeded(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	pool.Add(buildTx(t, key, prevOut, prevScript, 4000))

	evicted := pool.Evict()
	if evicted != 0 {
		t.Errorf("evicted = %d, want 0", evicted)
	}
}

func TestPolicy_Check(t *testing.T) {
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	b := tx.NewBuilder().
		AddInput(prevOut).
		AddOutput(1000, script.P2PKHScript(make([]byte, types.HashSize)))
	if err := b.SignP2PKH(0, prevScript, key); err != nil {
		t.Fatalf("SignP2PKH: %v", err)
	}
	transaction := b.Build()

	pol := DefaultPolicy()
	if err := pol.Check(transaction); err != nil {
		t.Errorf("valid tx should pass policy: %v", err)
	}

	pol.MaxTxSize = 1
	if err := pol.Check(transaction); err == nil {
		t.Error("oversized tx should fail policy")
	}
}

func TestNew_DefaultMaxSize(t *testing.T) {
	utxos := newMockUTXOs()
	heightFn, timeFn := fixedHeightTime(0, 0)
	pool := New(utxos, nil, heightFn, timeFn, 0)
	if pool.maxSize != 5000 {
		t.Errorf("maxSize = %d, want 5000", pool.maxSize)
	}
}

func TestPool_MinFeeRate_Reject(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	pool.SetMinFeeRate(1000) // deliberately steep, to force rejection regardless of exact tx size

	transaction := buildTx(t, key, prevOut, prevScript, 4999) // fee 1
	_, err := pool.Add(transaction)
	if !errors.Is(err, ErrFeeTooLow) {
		t.Errorf("expected ErrFeeTooLow, got: %v", err)
	}
}

func TestPool_MinFeeRate_Accept(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	pool.SetMinFeeRate(1)

	transaction := buildTx(t, key, prevOut, prevScript, 4000) // fee 1000
	fee, err := pool.Add(transaction)
	if err != nil {
		t.Fatalf("Add should pass: %v", err)
	}
	if fee != 1000 {
		t.Errorf("fee = %d, want 1000", fee)
	}
}

func TestPool_GetFee(t *testing.T) {
	utxos := newMockUTXOs()
	prevOut, key, prevScript := newKeyedOutpoint(0x01)
	utxos.add(prevOut, 5000, prevScript)

	pool := newTestPool(utxos, 100)
	transaction := buildTx(t, key, prevOut, prevScript, 4000)
	pool.Add(transaction)

	txHash := transaction.Hash()
	if got := pool.GetFee(txHash); got != 1000 {
		t.Errorf("GetFee = %d, want 1000", got)
	}
	if got := pool.GetFee(types.Hash{0xff}); got != 0 {
		t.Errorf("GetFee for unknown = %d, want 0", got)
	}
}

func TestPolicy_Check_TooManyInputs(t *testing.T) {
	inputs := make([]tx.Input, config.BondMaxTxInputs+1)
	for i := range inputs {
		inputs[i] = tx.Input{
			PrevOut: types.Outpoint{TxID: types.Hash{byte(i >> 8), byte(i)}, Index: uint32(i)},
			Witness: []byte("w"),
		}
	}
	transaction := &tx.Transaction{
		Version: 1,
		Inputs:  inputs,
		Outputs: []tx.Output{{Value: 1000, ScriptPubKey: script.P2PKHScript(make([]byte, types.HashSize))}},
	}
	pol := DefaultPolicy()
	err := pol.Check(transaction)
	if err == nil || !strings.Contains(err.Error(), "too many inputs") {
		t.Errorf("expected too many inputs error, got: %v", err)
	}
}

func TestPolicy_Check_TooManyOutputs(t *testing.T) {
	outputs := make([]tx.Output, config.BondMaxTxOutputs+1)
	for i := range outputs {
		outputs[i] = tx.Output{Value: 1, ScriptPubKey: script.P2PKHScript(make([]byte, types.HashSize))}
	}
	transaction := &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}}, Witness: []byte("w")}},
		Outputs: outputs,
	}
	pol := DefaultPolicy()
	err := pol.Check(transaction)
	if err == nil || !strings.Contains(err.Error(), "too many outputs") {
		t.Errorf("expected too many outputs error, got: %v", err)
	}
}

func TestPolicy_Check_ScriptDataTooLarge(t *testing.T) {
	transaction := &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}}, Witness: []byte("w")}},
		Outputs: []tx.Output{{
			Value:        1000,
			ScriptPubKey: make([]byte, config.BondMaxScriptData+1),
		}},
	}
	pol := DefaultPolicy()
	err := pol.Check(transaction)
	if err == nil || !strings.Contains(err.Error(), "script too large") {
		t.Errorf("expected script too large error, got: %v", err)
	}
}
