package rpc

import (
	"math/big"

	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

func (s *Server) requireBond() *Error {
	if s.bondChain == nil {
		return &Error{Code: CodeNotFound, Message: "bond chain not enabled on this node"}
	}
	return nil
}

func (s *Server) handleBondGetInfo(req *Request) (interface{}, *Error) {
	if err := s.requireBond(); err != nil {
		return nil, err
	}
	st := s.bondChain.State()
	mempoolLen := 0
	if s.bondPool != nil {
		mempoolLen = s.bondPool.Count()
	}
	work := st.CumulativeWork
	if work == nil {
		work = big.NewInt(0)
	}
	return &BondChainInfoResult{
		Height:     st.Height,
		TipHash:    st.TipHash.String(),
		TotalWork:  work.String(),
		MempoolLen: mempoolLen,
	}, nil
}

func (s *Server) handleBondGetBlockByHash(req *Request) (interface{}, *Error) {
	if err := s.requireBond(); err != nil {
		return nil, err
	}
	var p HashParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	h, decErr := hexDecode(p.Hash)
	if decErr != nil || len(h) != types.HashSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid hash: must be 32-byte hex"}
	}
	var hash types.Hash
	copy(hash[:], h)
	blk, err := s.bondChain.GetBlock(hash)
	if err != nil {
		return nil, &Error{Code: CodeNotFound, Message: err.Error()}
	}
	return NewBondBlockResult(blk), nil
}

func (s *Server) handleBondGetBlockByHeight(req *Request) (interface{}, *Error) {
	if err := s.requireBond(); err != nil {
		return nil, err
	}
	var p HeightParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	blk, err := s.bondChain.GetBlockByHeight(p.Height)
	if err != nil {
		return nil, &Error{Code: CodeNotFound, Message: err.Error()}
	}
	return NewBondBlockResult(blk), nil
}

func (s *Server) handleBondGetTransaction(req *Request) (interface{}, *Error) {
	if err := s.requireBond(); err != nil {
		return nil, err
	}
	var p HashParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	h, decErr := hexDecode(p.Hash)
	if decErr != nil || len(h) != types.HashSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid hash: must be 32-byte hex"}
	}
	var hash types.Hash
	copy(hash[:], h)
	t, err := s.bondChain.GetTransaction(hash)
	if err != nil {
		return nil, &Error{Code: CodeNotFound, Message: err.Error()}
	}
	return NewBondTxResult(t), nil
}

func (s *Server) handleBondGetUTXO(req *Request) (interface{}, *Error) {
	if err := s.requireBond(); err != nil {
		return nil, err
	}
	var p OutpointParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	h, decErr := hexDecode(p.TxID)
	if decErr != nil || len(h) != types.HashSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid tx_id: must be 32-byte hex"}
	}
	var txid types.Hash
	copy(txid[:], h)
	entry, err := s.bondUTXOs.Get(types.Outpoint{TxID: txid, Index: p.Index})
	if err != nil {
		return nil, &Error{Code: CodeNotFound, Message: err.Error()}
	}
	return entry, nil
}

func (s *Server) handleBondGetBalance(req *Request) (interface{}, *Error) {
	if err := s.requireBond(); err != nil {
		return nil, err
	}
	var p OwnerHashParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	ownerBytes, decErr := hexDecode(p.OwnerHash)
	if decErr != nil || len(ownerBytes) != types.HashSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid owner_hash: must be 32-byte hex"}
	}
	entries, err := s.bondUTXOs.GetByOwnerHash(ownerBytes)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	var total uint64
	for _, e := range entries {
		total += e.Value
	}
	return map[string]uint64{"balance": total}, nil
}

func (s *Server) handleBondSubmitTx(req *Request) (interface{}, *Error) {
	if err := s.requireBond(); err != nil {
		return nil, err
	}
	if s.bondPool == nil {
		return nil, &Error{Code: CodeNotFound, Message: "bond mempool not enabled on this node"}
	}
	var p BondTxSubmitParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction is required"}
	}
	fee, err := s.bondPool.Add(p.Transaction)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return map[string]interface{}{
		"hash": p.Transaction.Hash().String(),
		"fee":  fee,
	}, nil
}

func (s *Server) handleBondValidateTx(req *Request) (interface{}, *Error) {
	var p BondTxSubmitParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction is required"}
	}
	if err := validateBondTxStructure(p.Transaction); err != nil {
		return map[string]interface{}{"valid": false, "error": err.Error()}, nil
	}
	return map[string]interface{}{"valid": true}, nil
}

// validateBondTxStructure performs the structural checks pkg/tx exposes
// without requiring chain/UTXO context, mirroring tx_validate's
// stateless-only scope on the teacher's server.
func validateBondTxStructure(t *tx.Transaction) error {
	return t.Validate()
}

var errEmptyOutputs = &txStructError{"transaction has no outputs"}

type txStructError struct{ msg string }

func (e *txStructError) Error() string { return e.msg }

func (s *Server) handleBondMempoolInfo(req *Request) (interface{}, *Error) {
	if s.bondPool == nil {
		return nil, &Error{Code: CodeNotFound, Message: "bond mempool not enabled on this node"}
	}
	return map[string]interface{}{
		"count":      s.bondPool.Count(),
		"min_fee_rate": s.bondPool.MinFeeRate(),
	}, nil
}
