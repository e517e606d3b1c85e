package tx

import (
	"encoding/binary"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/types"
)

// SighashForInput computes the classic sighash for inputIndex: every
// input's witness is cleared, and the input being signed has the
// referenced output's script_pubkey substituted in its place (spec §4.1).
// This binds a signature to one specific input/output pairing without a
// circular dependency on the signature itself.
func (t *Transaction) SighashForInput(inputIndex int, prevScriptPubKey types.Script) types.Hash {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, t.Version)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Inputs)))
	for i, in := range t.Inputs {
		buf = append(buf, in.PrevOut.TxID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, in.PrevOut.Index)
		if i == inputIndex {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(prevScriptPubKey)))
			buf = append(buf, prevScriptPubKey...)
		} else {
			buf = binary.LittleEndian.AppendUint32(buf, 0)
		}
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		buf = binary.LittleEndian.AppendUint64(buf, out.Value)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.ScriptPubKey)))
		buf = append(buf, out.ScriptPubKey...)
	}

	buf = binary.LittleEndian.AppendUint64(buf, t.LockTime)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(inputIndex))

	return crypto.Hash(buf)
}
