package types

import "fmt"

// Outpoint (UtxoId in spec terms) references a specific output of a
// transaction: (transaction_hash, output_index). Globally unique across
// the Bond ledger.
type Outpoint struct {
	TxID  Hash   `json:"txid"`
	Index uint32 `json:"index"`
}

// IsZero returns true if the outpoint has a zero TxID and zero index —
// the synthetic input of a coinbase transaction.
func (o Outpoint) IsZero() bool {
	return o.TxID.IsZero() && o.Index == 0
}

// String returns "txid:index" in hex.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}
