package rpc

import (
	"github.com/bond-aevum/core/pkg/types"
)

func (s *Server) requireAevum() *Error {
	if s.aevumState == nil {
		return &Error{Code: CodeNotFound, Message: "aevum ledger not enabled on this node"}
	}
	return nil
}

func (s *Server) handleAevumGetAccount(req *Request) (interface{}, *Error) {
	if err := s.requireAevum(); err != nil {
		return nil, err
	}
	var p AddressParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	addrBytes, decErr := hexDecode(p.Address)
	if decErr != nil || len(addrBytes) != types.AddressSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid address: must be 20-byte hex"}
	}
	var addr types.Address
	copy(addr[:], addrBytes)

	acct, err := s.aevumState.Get(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return NewAevumAccountResult(acct), nil
}

func (s *Server) handleAevumSubmitTx(req *Request) (interface{}, *Error) {
	if err := s.requireAevum(); err != nil {
		return nil, err
	}
	if s.aevumPool == nil {
		return nil, &Error{Code: CodeNotFound, Message: "aevum mempool not enabled on this node"}
	}
	var p AevumTxSubmitParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction is required"}
	}
	if err := s.aevumPool.Add(p.Transaction); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return NewAevumTxResult(p.Transaction), nil
}

func (s *Server) handleAevumValidateTx(req *Request) (interface{}, *Error) {
	var p AevumTxSubmitParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction is required"}
	}
	if err := p.Transaction.Validate(); err != nil {
		return map[string]interface{}{"valid": false, "error": err.Error()}, nil
	}
	return map[string]interface{}{"valid": true}, nil
}

func (s *Server) handleAevumMempoolInfo(req *Request) (interface{}, *Error) {
	if s.aevumPool == nil {
		return nil, &Error{Code: CodeNotFound, Message: "aevum mempool not enabled on this node"}
	}
	return map[string]interface{}{"count": s.aevumPool.Count()}, nil
}
