package tx

import (
	"math"
	"testing"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/types"
)

func TestTransaction_Hash_Deterministic(t *testing.T) {
	tr := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 1000, ScriptPubKey: types.Script{0x01}}},
	}
	h1 := tr.Hash()
	h2 := tr.Hash()
	if h1 != h2 {
		t.Error("Hash() should be deterministic")
	}
	if h1.IsZero() {
		t.Error("Hash() should not be zero")
	}
}

func TestTransaction_Hash_ChangesWithContent(t *testing.T) {
	tr1 := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 1000, ScriptPubKey: types.Script{0x01}}},
	}
	tr2 := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 2000, ScriptPubKey: types.Script{0x01}}},
	}
	if tr1.Hash() == tr2.Hash() {
		t.Error("different transactions should have different hashes")
	}
}

func TestTransaction_Hash_IgnoresWitness(t *testing.T) {
	tr := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 1000, ScriptPubKey: types.Script{0x01}}},
	}
	h1 := tr.Hash()
	tr.Inputs[0].Witness = types.Script("some witness")
	h2 := tr.Hash()
	if h1 != h2 {
		t.Error("Hash() should not change when a witness is attached")
	}
}

func TestTransaction_TotalOutputValue(t *testing.T) {
	tr := &Transaction{Outputs: []Output{{Value: 1000}, {Value: 2000}, {Value: 3000}}}
	got, err := tr.TotalOutputValue()
	if err != nil {
		t.Fatalf("TotalOutputValue() error: %v", err)
	}
	if got != 6000 {
		t.Errorf("TotalOutputValue() = %d, want 6000", got)
	}
}

func TestTransaction_TotalOutputValue_Overflow(t *testing.T) {
	tr := &Transaction{Outputs: []Output{{Value: math.MaxUint64}, {Value: 1}}}
	if _, err := tr.TotalOutputValue(); err == nil {
		t.Error("TotalOutputValue() should return error on overflow")
	}
}

func TestBuilder_BuildAndSignP2PKH(t *testing.T) {
	key, _ := crypto.GenerateKey()
	addr := crypto.AddressFromPubKey(key.PublicKey())
	prevScript := script.P2PKHScript(func() []byte { h := crypto.DoubleHash(key.PublicKey()); return h[:] }())

	prevOut := types.Outpoint{TxID: crypto.Hash([]byte("prev tx")), Index: 0}

	b := NewBuilder().
		AddInput(prevOut).
		AddOutput(5000, script.P2PKHScript(addr[:]))

	if err := b.SignP2PKH(0, prevScript, key); err != nil {
		t.Fatalf("SignP2PKH() error: %v", err)
	}

	transaction := b.Build()
	if len(transaction.Inputs) != 1 {
		t.Fatalf("expected 1 input, got %d", len(transaction.Inputs))
	}
	if err := transaction.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestBuilder_MultipleInputsOutputs(t *testing.T) {
	key, _ := crypto.GenerateKey()
	prevScript := script.P2PKHScript(make([]byte, 32))

	b := NewBuilder().
		AddInput(types.Outpoint{TxID: types.Hash{0x01}, Index: 0}).
		AddInput(types.Outpoint{TxID: types.Hash{0x02}, Index: 1}).
		AddOutput(3000, types.Script{0x01}).
		AddOutput(2000, types.Script{0x01}).
		SetLockTime(100)

	b.SignP2PKH(0, prevScript, key)
	b.SignP2PKH(1, prevScript, key)

	transaction := b.Build()
	if len(transaction.Inputs) != 2 {
		t.Errorf("input count = %d, want 2", len(transaction.Inputs))
	}
	if transaction.LockTime != 100 {
		t.Errorf("locktime = %d, want 100", transaction.LockTime)
	}
	if err := transaction.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestBuilder_PolicyOutput(t *testing.T) {
	key, _ := crypto.GenerateKey()
	policy := &types.PUtxoPolicy{
		TimeLocks: []types.TimeLock{{Kind: types.LockBlockHeight, Value: 500}},
	}

	b := NewBuilder().
		AddInput(types.Outpoint{TxID: types.Hash{0x01}, Index: 0}).
		AddPolicyOutput(1000, types.Script{0x01}, policy)
	b.SignP2PKH(0, script.P2PKHScript(make([]byte, 32)), key)

	transaction := b.Build()
	if transaction.Outputs[0].Policy == nil {
		t.Fatal("policy output should carry its policy")
	}
	if len(transaction.Outputs[0].Policy.TimeLocks) != 1 {
		t.Errorf("expected one time lock, got %d", len(transaction.Outputs[0].Policy.TimeLocks))
	}
}
