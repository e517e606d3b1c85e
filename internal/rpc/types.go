package rpc

import (
	"github.com/bond-aevum/core/internal/aevum/account"
	"github.com/bond-aevum/core/internal/bridge"
	"github.com/bond-aevum/core/pkg/block"
	"github.com/bond-aevum/core/pkg/tx"
)

// JSON-RPC 2.0 error codes, grounded on the teacher's rpc/types.go.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// HashParam is used by endpoints that take a single hash.
type HashParam struct {
	Hash string `json:"hash"`
}

// HeightParam is used by endpoints that take a block/account height.
type HeightParam struct {
	Height uint64 `json:"height"`
}

// AddressParam is used by endpoints keyed on a single 20-byte Aevum
// account address (crypto.AddressFromPubKey).
type AddressParam struct {
	Address string `json:"address"`
}

// OwnerHashParam is used by Bond endpoints keyed on the 32-byte pubkey
// hash a P2PKH output's predicate embeds (pkg/script.P2PKHScript) —
// distinct from AddressParam's 20-byte Aevum address, since Bond's
// locking script checks the full hash rather than its truncated form.
type OwnerHashParam struct {
	OwnerHash string `json:"owner_hash"`
}

// OutpointParam is used by bond_getUTXO.
type OutpointParam struct {
	TxID  string `json:"tx_id"`
	Index uint32 `json:"index"`
}

// BondTxSubmitParam is used by bond_submitTx and bond_validateTx.
type BondTxSubmitParam struct {
	Transaction *tx.Transaction `json:"transaction"`
}

// AevumTxSubmitParam is used by aevum_submitTx and aevum_validateTx.
type AevumTxSubmitParam struct {
	Transaction *account.Transaction `json:"transaction"`
}

// BridgeTransferParam is used by bridge_getTransfer.
type BridgeTransferParam struct {
	ID string `json:"id"`
}

// BridgeSubmitParam is used by bridge_submitTransfer.
type BridgeSubmitParam struct {
	Direction    string `json:"direction"` // "bond_to_aevum" | "aevum_to_bond"
	SourceTxHash string `json:"source_tx_hash"`
	Amount       uint64 `json:"amount"`
	SourceAddr   string `json:"source_address"`
	DestAddr     string `json:"destination_address"`
	SourceHeight uint64 `json:"source_height"`
}

// ── Result types ────────────────────────────────────────────────────────

// BondBlockResult wraps a Bond block with its precomputed hash.
type BondBlockResult struct {
	Hash         string          `json:"hash"`
	Header       *block.Header   `json:"header"`
	Transactions []*BondTxResult `json:"transactions"`
}

// NewBondBlockResult creates a BondBlockResult, precomputing all hashes.
func NewBondBlockResult(b *block.Block) *BondBlockResult {
	results := make([]*BondTxResult, len(b.Transactions))
	for i, t := range b.Transactions {
		results[i] = NewBondTxResult(t)
	}
	return &BondBlockResult{Hash: b.Hash().String(), Header: b.Header, Transactions: results}
}

// BondTxResult wraps a Bond transaction with its precomputed hash.
type BondTxResult struct {
	Hash     string      `json:"hash"`
	Version  uint32      `json:"version"`
	Inputs   []tx.Input  `json:"inputs"`
	Outputs  []tx.Output `json:"outputs"`
	LockTime uint64      `json:"locktime"`
}

// NewBondTxResult creates a BondTxResult, precomputing its hash.
func NewBondTxResult(t *tx.Transaction) *BondTxResult {
	return &BondTxResult{
		Hash:     t.Hash().String(),
		Version:  t.Version,
		Inputs:   t.Inputs,
		Outputs:  t.Outputs,
		LockTime: t.LockTime,
	}
}

// BondChainInfoResult is returned by bond_getInfo.
type BondChainInfoResult struct {
	Height     uint64 `json:"height"`
	TipHash    string `json:"tip_hash"`
	TotalWork  string `json:"total_work"`
	MempoolLen int    `json:"mempool_len"`
}

// AevumAccountResult wraps an Aevum account for RPC responses.
type AevumAccountResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
	PubKey  string `json:"pub_key,omitempty"`
}

// NewAevumAccountResult converts an account.Account to its RPC result form.
func NewAevumAccountResult(a *account.Account) *AevumAccountResult {
	r := &AevumAccountResult{
		Address: a.Address.String(),
		Balance: a.Balance,
		Nonce:   a.Nonce,
	}
	if a.PubKey != nil {
		r.PubKey = hexEncode(a.PubKey)
	}
	return r
}

// AevumTxResult wraps an Aevum transaction with its precomputed hash.
type AevumTxResult struct {
	Hash  string               `json:"hash"`
	Inner *account.Transaction `json:"transaction"`
}

// NewAevumTxResult creates an AevumTxResult, precomputing its hash.
func NewAevumTxResult(t *account.Transaction) *AevumTxResult {
	return &AevumTxResult{Hash: t.Hash().String(), Inner: t}
}

// BridgeTransferResult wraps a bridge.Transfer for RPC responses.
type BridgeTransferResult struct {
	ID                 string `json:"id"`
	Direction          string `json:"direction"`
	Status             string `json:"status"`
	SourceTxHash       string `json:"source_tx_hash"`
	Amount             uint64 `json:"amount"`
	SourceAddress      string `json:"source_address"`
	DestinationAddress string `json:"destination_address"`
	DestinationTxHash  string `json:"destination_tx_hash,omitempty"`
}

// NewBridgeTransferResult converts a bridge.Transfer to its RPC result form.
func NewBridgeTransferResult(t *bridge.Transfer) *BridgeTransferResult {
	r := &BridgeTransferResult{
		ID:                 t.ID.String(),
		Direction:          t.Direction.String(),
		Status:             t.Status.String(),
		SourceTxHash:       t.SourceTxHash.String(),
		Amount:             t.Amount,
		SourceAddress:      t.SourceAddress.String(),
		DestinationAddress: t.DestinationAddress.String(),
	}
	var zero [32]byte
	if [32]byte(t.DestinationTxHash) != zero {
		r.DestinationTxHash = t.DestinationTxHash.String()
	}
	return r
}

// PeerInfoResult is returned by net_getPeerInfo.
type PeerInfoResult struct {
	PeerCount int        `json:"peer_count"`
	Peers     []PeerInfo `json:"peers"`
}

// PeerInfo describes one connected peer for RPC responses.
type PeerInfo struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// BanListResult is returned by net_getBanList.
type BanListResult struct {
	Bans []BanEntry `json:"bans"`
}

// BanEntry describes one active peer ban for RPC responses.
type BanEntry struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	Score     int    `json:"score"`
	BannedAt  int64  `json:"banned_at"`
	ExpiresAt int64  `json:"expires_at"`
}
