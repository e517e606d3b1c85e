// Package tx defines the Bond transaction model: pUTXO-referencing inputs,
// script-gated outputs, canonical serialization, and the signature hash
// used to authorize a spend.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/types"
)

// Transaction moves value between pUTXOs on Bond.
type Transaction struct {
	Version  uint32   `json:"version"`
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	LockTime uint64   `json:"locktime"`
}

// Input references a pUTXO being spent. Witness is the script_sig half of
// the predicate evaluated against the referenced output's script_pubkey
// (pkg/script); PolicyWitness carries the extra proof material pUTXO
// policies need (guardian recovery signatures, MFA factors) that the
// script itself never inspects (spec §4.3: policies are orthogonal to
// the script VM). Both are excluded from the signing hash so they can be
// filled in after the hash is computed.
type Input struct {
	PrevOut       types.Outpoint `json:"prevout"`
	Witness       types.Script   `json:"witness"`
	PolicyWitness types.Script   `json:"policy_witness,omitempty"`
}

type inputJSON struct {
	PrevOut       types.Outpoint `json:"prevout"`
	Witness       *string        `json:"witness"`
	PolicyWitness *string        `json:"policy_witness,omitempty"`
}

// MarshalJSON encodes the input with hex-encoded witness fields.
func (in Input) MarshalJSON() ([]byte, error) {
	j := inputJSON{PrevOut: in.PrevOut}
	if in.Witness != nil {
		s := hex.EncodeToString(in.Witness)
		j.Witness = &s
	}
	if in.PolicyWitness != nil {
		s := hex.EncodeToString(in.PolicyWitness)
		j.PolicyWitness = &s
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes an input with hex-encoded witness fields.
func (in *Input) UnmarshalJSON(data []byte) error {
	var j inputJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	in.PrevOut = j.PrevOut
	if j.Witness != nil {
		b, err := hex.DecodeString(*j.Witness)
		if err != nil {
			return err
		}
		in.Witness = b
	}
	if j.PolicyWitness != nil {
		b, err := hex.DecodeString(*j.PolicyWitness)
		if err != nil {
			return err
		}
		in.PolicyWitness = b
	}
	return nil
}

// Output creates a new pUTXO. ScriptPubKey is the spend predicate
// (pkg/script); Policy, when non-nil, layers additional orthogonal
// pUTXO constraints on top of the script (spec §4.3).
type Output struct {
	Value        uint64             `json:"value"`
	ScriptPubKey types.Script       `json:"script_pubkey"`
	Policy       *types.PUtxoPolicy `json:"policy,omitempty"`
}

// Hash computes the transaction ID: blake3(SigningBytes()). Witnesses are
// excluded so the ID (and the signature hash derived from it) does not
// depend on data the witness itself authorizes.
func (t *Transaction) Hash() types.Hash {
	return crypto.Hash(t.SigningBytes())
}

// SigningBytes is the canonical, deterministic, little-endian encoding
// used both as the transaction ID preimage and as the message a spend's
// signature (or ML-DSA signature) is computed over. It omits script_sig /
// witness data (spec §4.1, §4.4) so signing does not create a circular
// dependency on its own output.
//
// Layout: version(4) | input_count(4) | [prevout(36)]... |
// output_count(4) | [value(8) + script_len(4) + script + policy_flag(1) +
// (policy_len(4) + policy_json, when the flag is 1)]... | locktime(8)
func (t *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, t.Version)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf = append(buf, in.PrevOut.TxID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, in.PrevOut.Index)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		buf = binary.LittleEndian.AppendUint64(buf, out.Value)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.ScriptPubKey)))
		buf = append(buf, out.ScriptPubKey...)
		if out.Policy != nil && !out.Policy.IsEmpty() {
			buf = append(buf, 0x01)
			pb, _ := json.Marshal(out.Policy)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pb)))
			buf = append(buf, pb...)
		} else {
			buf = append(buf, 0x00)
		}
	}

	buf = binary.LittleEndian.AppendUint64(buf, t.LockTime)

	return buf
}

// IsCoinbase reports whether this is the single synthetic-input
// coin-issuance transaction of a block (spec §4.4 item 4).
func (t *Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 1 && t.Inputs[0].PrevOut.IsZero()
}

// TotalOutputValue sums every output's value, erroring on uint64 overflow.
func (t *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range t.Outputs {
		if total > math.MaxUint64-out.Value {
			return 0, fmt.Errorf("tx: output value overflow")
		}
		total += out.Value
	}
	return total, nil
}
