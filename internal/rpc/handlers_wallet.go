package rpc

import (
	"github.com/bond-aevum/core/internal/wallet"
	"github.com/bond-aevum/core/pkg/crypto"
)

// WalletCreateParam is used by wallet_create.
type WalletCreateParam struct {
	Name       string `json:"name"`
	Mnemonic   string `json:"mnemonic"`
	Passphrase string `json:"passphrase"`
	Password   string `json:"password"`
}

// WalletNewAddressParam is used by wallet_newAddress.
type WalletNewAddressParam struct {
	WalletName  string `json:"wallet_name"`
	AddressName string `json:"address_name"`
	Ledger      string `json:"ledger"` // "bond" (Level3) or "aevum" (Level2)
	Password    string `json:"password"`
}

// WalletListAddressesParam is used by wallet_listAddresses.
type WalletListAddressesParam struct {
	WalletName string `json:"wallet_name"`
}

func (s *Server) requireKeystore() *Error {
	if s.keystore == nil {
		return &Error{Code: CodeNotFound, Message: "wallet not enabled on this node"}
	}
	return nil
}

func (s *Server) handleWalletCreate(req *Request) (interface{}, *Error) {
	if err := s.requireKeystore(); err != nil {
		return nil, err
	}
	var p WalletCreateParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Mnemonic == "" || !wallet.ValidateMnemonic(p.Mnemonic) {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid mnemonic"}
	}
	seed, seedErr := wallet.SeedFromMnemonic(p.Mnemonic, p.Passphrase)
	if seedErr != nil {
		return nil, &Error{Code: CodeInternalError, Message: seedErr.Error()}
	}
	if err := s.keystore.Create(p.Name, seed, []byte(p.Password), wallet.DefaultParams()); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return map[string]string{"name": p.Name}, nil
}

func (s *Server) handleWalletNewAddress(req *Request) (interface{}, *Error) {
	if err := s.requireKeystore(); err != nil {
		return nil, err
	}
	var p WalletNewAddressParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}

	var level crypto.Level
	switch p.Ledger {
	case "bond":
		level = crypto.Level3
	case "aevum":
		level = crypto.Level2
	default:
		return nil, &Error{Code: CodeInvalidParams, Message: `ledger must be "bond" or "aevum"`}
	}

	entry, newErr := s.keystore.NewAddress(p.WalletName, p.AddressName, level, []byte(p.Password), wallet.DefaultParams())
	if newErr != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: newErr.Error()}
	}
	return entry, nil
}

func (s *Server) handleWalletListAddresses(req *Request) (interface{}, *Error) {
	if err := s.requireKeystore(); err != nil {
		return nil, err
	}
	var p WalletListAddressesParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	addrs, listErr := s.keystore.ListAddresses(p.WalletName)
	if listErr != nil {
		return nil, &Error{Code: CodeInternalError, Message: listErr.Error()}
	}
	return addrs, nil
}
