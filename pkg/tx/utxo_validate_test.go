package tx

import (
	"errors"
	"testing"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/types"
)

// memProvider is a trivial in-memory UTXOProvider for tests.
type memProvider struct {
	entries map[types.Outpoint]UTXOEntry
}

func newMemProvider() *memProvider {
	return &memProvider{entries: make(map[types.Outpoint]UTXOEntry)}
}

func (m *memProvider) GetUTXO(outpoint types.Outpoint) (UTXOEntry, error) {
	e, ok := m.entries[outpoint]
	if !ok {
		return UTXOEntry{}, ErrUtxoNotFound
	}
	return e, nil
}

func (m *memProvider) HasUTXO(outpoint types.Outpoint) bool {
	_, ok := m.entries[outpoint]
	return ok
}

func TestValidateWithUTXOs_SimplePayment(t *testing.T) {
	key, _ := crypto.GenerateKey()
	pubKeyHash := crypto.DoubleHash(key.PublicKey())
	prevScript := script.P2PKHScript(pubKeyHash[:])

	prevOut := types.Outpoint{TxID: types.Hash{0xAA}, Index: 0}
	provider := newMemProvider()
	provider.entries[prevOut] = UTXOEntry{Value: 10_000_000, ScriptPubKey: prevScript}

	b := NewBuilder().
		AddInput(prevOut).
		AddOutput(3_000_000, types.Script{0x01}). // to Bob
		AddOutput(6_999_000, types.Script{0x02})  // change to Alice

	if err := b.SignP2PKH(0, prevScript, key); err != nil {
		t.Fatalf("SignP2PKH() error: %v", err)
	}

	transaction := b.Build()
	fee, err := transaction.ValidateWithUTXOs(provider, nil, 100, 1_700_000_000)
	if err != nil {
		t.Fatalf("ValidateWithUTXOs() error: %v", err)
	}
	if fee != 1_000 {
		t.Errorf("fee = %d, want 1000", fee)
	}
}

func TestValidateWithUTXOs_UtxoNotFound(t *testing.T) {
	tr := &Transaction{
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}}, Witness: types.Script{0x01}}},
		Outputs: []Output{{Value: 1, ScriptPubKey: types.Script{0x01}}},
	}
	_, err := tr.ValidateWithUTXOs(newMemProvider(), nil, 0, 0)
	if !errors.Is(err, ErrUtxoNotFound) {
		t.Errorf("expected ErrUtxoNotFound, got %v", err)
	}
}

func TestValidateWithUTXOs_CoinbaseImmature(t *testing.T) {
	key, _ := crypto.GenerateKey()
	pubKeyHash := crypto.DoubleHash(key.PublicKey())
	prevScript := script.P2PKHScript(pubKeyHash[:])
	prevOut := types.Outpoint{TxID: types.Hash{0xBB}, Index: 0}

	provider := newMemProvider()
	provider.entries[prevOut] = UTXOEntry{
		Value:          5000,
		ScriptPubKey:   prevScript,
		IsCoinbase:     true,
		CoinbaseHeight: 10,
	}

	b := NewBuilder().AddInput(prevOut).AddOutput(4000, types.Script{0x01})
	b.SignP2PKH(0, prevScript, key)
	transaction := b.Build()

	// Spend attempted one block before the 100-block maturity window closes.
	if _, err := transaction.ValidateWithUTXOs(provider, nil, 109, 0); !errors.Is(err, ErrCoinbaseImmature) {
		t.Errorf("expected ErrCoinbaseImmature at height 109, got %v", err)
	}
	if _, err := transaction.ValidateWithUTXOs(provider, nil, 110, 0); err != nil {
		t.Errorf("expected success at maturity height 110, got %v", err)
	}
}

func TestValidateWithUTXOs_InsufficientValue(t *testing.T) {
	key, _ := crypto.GenerateKey()
	pubKeyHash := crypto.DoubleHash(key.PublicKey())
	prevScript := script.P2PKHScript(pubKeyHash[:])
	prevOut := types.Outpoint{TxID: types.Hash{0xCC}, Index: 0}

	provider := newMemProvider()
	provider.entries[prevOut] = UTXOEntry{Value: 100, ScriptPubKey: prevScript}

	b := NewBuilder().AddInput(prevOut).AddOutput(200, types.Script{0x01})
	b.SignP2PKH(0, prevScript, key)
	transaction := b.Build()

	if _, err := transaction.ValidateWithUTXOs(provider, nil, 0, 0); !errors.Is(err, ErrInsufficientValue) {
		t.Errorf("expected ErrInsufficientValue, got %v", err)
	}
}

// TestValidateWithUTXOs_Multisig2of3 exercises spec §8 scenario 4: a pUTXO
// with a 2-of-3 multisig script_pubkey for (A,B,C). Spending with sigs of
// A and C succeeds; spending with only A's signature fails.
func TestValidateWithUTXOs_Multisig2of3(t *testing.T) {
	keyA, _ := crypto.GenerateKey()
	keyB, _ := crypto.GenerateKey()
	keyC, _ := crypto.GenerateKey()

	pubKeys := [][]byte{keyA.PublicKey(), keyB.PublicKey(), keyC.PublicKey()}
	prevScript := script.MultisigScript(2, pubKeys)
	prevOut := types.Outpoint{TxID: types.Hash{0xDD}, Index: 0}

	provider := newMemProvider()
	provider.entries[prevOut] = UTXOEntry{Value: 1000, ScriptPubKey: prevScript}

	buildTx := func() *Transaction {
		return NewBuilder().AddInput(prevOut).AddOutput(900, types.Script{0x01}).Build()
	}

	// Success: sigs of A and C.
	trAC := buildTx()
	hash := trAC.SighashForInput(0, prevScript)
	sigA, _ := keyA.Sign(hash[:])
	sigC, _ := keyC.Sign(hash[:])
	trAC.Inputs[0].Witness = script.MultisigWitness([][]byte{sigA, sigC})

	if _, err := trAC.ValidateWithUTXOs(provider, nil, 0, 0); err != nil {
		t.Errorf("expected 2-of-3 multisig (A,C) to succeed, got %v", err)
	}

	// Failure: only A's signature.
	trA := buildTx()
	hashA := trA.SighashForInput(0, prevScript)
	sigAOnly, _ := keyA.Sign(hashA[:])
	trA.Inputs[0].Witness = script.MultisigWitness([][]byte{sigAOnly})

	if _, err := trA.ValidateWithUTXOs(provider, nil, 0, 0); err == nil {
		t.Error("expected failure when only one of two required signatures is present")
	}
}

func TestValidateWithUTXOs_PolicyWithoutCheckerRejected(t *testing.T) {
	key, _ := crypto.GenerateKey()
	pubKeyHash := crypto.DoubleHash(key.PublicKey())
	prevScript := script.P2PKHScript(pubKeyHash[:])
	prevOut := types.Outpoint{TxID: types.Hash{0xEE}, Index: 0}

	provider := newMemProvider()
	provider.entries[prevOut] = UTXOEntry{
		Value:        1000,
		ScriptPubKey: prevScript,
		Policy: &types.PUtxoPolicy{
			TimeLocks: []types.TimeLock{{Kind: types.LockBlockHeight, Value: 100}},
		},
	}

	b := NewBuilder().AddInput(prevOut).AddOutput(900, types.Script{0x01})
	b.SignP2PKH(0, prevScript, key)
	transaction := b.Build()

	// No policy checker supplied: a policy-bearing pUTXO must be rejected
	// rather than silently accepted.
	if _, err := transaction.ValidateWithUTXOs(provider, nil, 100, 0); err == nil {
		t.Error("expected an error when a policy is present but no checker is supplied")
	}
}
