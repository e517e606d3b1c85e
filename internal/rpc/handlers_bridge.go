package rpc

import (
	"fmt"

	"github.com/bond-aevum/core/internal/bridge"
	"github.com/bond-aevum/core/pkg/types"
	"github.com/google/uuid"
)

func (s *Server) requireBridge() *Error {
	if s.bridgeDriver == nil || s.bridgeStore == nil {
		return &Error{Code: CodeNotFound, Message: "bridge not enabled on this node"}
	}
	return nil
}

func (s *Server) handleBridgeGetTransfer(req *Request) (interface{}, *Error) {
	if err := s.requireBridge(); err != nil {
		return nil, err
	}
	var p BridgeTransferParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	id, parseErr := uuid.Parse(p.ID)
	if parseErr != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid transfer id"}
	}
	t, ok := s.bridgeStore.Get(id)
	if !ok {
		return nil, &Error{Code: CodeNotFound, Message: "transfer not found"}
	}
	return NewBridgeTransferResult(t), nil
}

func (s *Server) handleBridgeListTransfers(req *Request) (interface{}, *Error) {
	if err := s.requireBridge(); err != nil {
		return nil, err
	}
	transfers := s.bridgeStore.List()
	results := make([]*BridgeTransferResult, len(transfers))
	for i, t := range transfers {
		results[i] = NewBridgeTransferResult(t)
	}
	return results, nil
}

func (s *Server) handleBridgeSubmitTransfer(req *Request) (interface{}, *Error) {
	if err := s.requireBridge(); err != nil {
		return nil, err
	}
	var p BridgeSubmitParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}

	var dir bridge.Direction
	switch p.Direction {
	case "bond_to_aevum":
		dir = bridge.BondToAevum
	case "aevum_to_bond":
		dir = bridge.AevumToBond
	default:
		return nil, &Error{Code: CodeInvalidParams, Message: `direction must be "bond_to_aevum" or "aevum_to_bond"`}
	}

	srcHashBytes, err := hexDecode(p.SourceTxHash)
	if err != nil || len(srcHashBytes) != types.HashSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid source_tx_hash: must be 32-byte hex"}
	}
	var srcHash types.Hash
	copy(srcHash[:], srcHashBytes)

	srcAddrBytes, err := hexDecode(p.SourceAddr)
	if err != nil || len(srcAddrBytes) != types.AddressSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid source_address: must be 20-byte hex"}
	}
	var srcAddr types.Address
	copy(srcAddr[:], srcAddrBytes)

	destAddrBytes, err := hexDecode(p.DestAddr)
	if err != nil || len(destAddrBytes) != types.AddressSize {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid destination_address: must be 20-byte hex"}
	}
	var destAddr types.Address
	copy(destAddr[:], destAddrBytes)

	t, submitErr := s.bridgeDriver.Submit(dir, srcHash, p.Amount, srcAddr, destAddr, p.SourceHeight)
	if submitErr != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("submit transfer: %v", submitErr)}
	}
	return NewBridgeTransferResult(t), nil
}
