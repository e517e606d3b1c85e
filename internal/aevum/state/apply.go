package state

import (
	"errors"
	"fmt"

	"github.com/bond-aevum/core/internal/aevum/account"
	"github.com/bond-aevum/core/pkg/types"
)

// Transaction application errors (spec §4.7 "Validation").
var (
	ErrAccountNotFound  = errors.New("from account does not exist")
	ErrNonceMismatch    = errors.New("nonce does not match account")
	ErrInsufficientFunds = errors.New("balance less than value plus fee")
	ErrSignatureInvalid = errors.New("signature does not verify")
	ErrPubKeyMismatch   = errors.New("sender public key does not match account's bound key")
	ErrPolicyUnsatisfied = errors.New("smart-account policy not satisfied")
	ErrBalanceOverflow  = errors.New("credited balance would overflow")
)

// Apply validates tx against the sender's current account and, on
// success, mutates balances/nonce and credits the fee to validatorFee
// (spec §4.7: "credit validator's fee account"). Structural checks
// (tx.Validate) must have already passed; Apply only performs the
// state-dependent half of validation, mirroring the
// Validate/ValidateWithUTXOs split pkg/tx uses for Bond.
func (s *Store) Apply(tx *account.Transaction, validatorFee types.Address) error {
	from, err := s.Get(tx.From)
	if err != nil {
		return fmt.Errorf("load sender: %w", err)
	}
	if from.IsZero() {
		return ErrAccountNotFound
	}
	if tx.Nonce != from.Nonce {
		return fmt.Errorf("%w: want %d, got %d", ErrNonceMismatch, from.Nonce, tx.Nonce)
	}
	if from.PubKey != nil && string(from.PubKey) != string(tx.SenderPubKey) {
		return ErrPubKeyMismatch
	}
	if !tx.VerifySignature() {
		return ErrSignatureInvalid
	}

	if tx.Fee > ^uint64(0)-tx.Value {
		return fmt.Errorf("%w: value+fee overflow", ErrInsufficientFunds)
	}
	total := tx.Value + tx.Fee
	if from.Balance < total {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, from.Balance, total)
	}

	if err := checkPolicy(from, tx); err != nil {
		return err
	}

	to, err := s.Get(tx.To)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if to.Balance > ^uint64(0)-tx.Value {
		return ErrBalanceOverflow
	}

	var feeAccount *account.Account
	if validatorFee != tx.From && validatorFee != tx.To {
		feeAccount, err = s.Get(validatorFee)
		if err != nil {
			return fmt.Errorf("load validator fee account: %w", err)
		}
		if feeAccount.Balance > ^uint64(0)-tx.Fee {
			return ErrBalanceOverflow
		}
	} else if validatorFee == tx.To {
		feeAccount = to
	} else {
		feeAccount = from
	}

	from.Balance -= total
	from.Nonce++
	if from.PubKey == nil {
		from.PubKey = append([]byte(nil), tx.SenderPubKey...)
	}
	to.Balance += tx.Value
	feeAccount.Balance += tx.Fee

	if err := s.Put(from); err != nil {
		return fmt.Errorf("persist sender: %w", err)
	}
	if to.Address != from.Address {
		if err := s.Put(to); err != nil {
			return fmt.Errorf("persist recipient: %w", err)
		}
	}
	if feeAccount.Address != from.Address && feeAccount.Address != to.Address {
		if err := s.Put(feeAccount); err != nil {
			return fmt.Errorf("persist fee account: %w", err)
		}
	}
	return nil
}

// checkPolicy gates a spend from an account that carries a smart-account
// policy: a non-empty policy requires a non-empty SmartAccountWitness.
// The witness contents are not inspected, and the policy's time locks,
// guardian recovery delay, MFA factors and rate limit are not evaluated
// here or anywhere else for Aevum accounts.
func checkPolicy(from *account.Account, tx *account.Transaction) error {
	if from.Policy.IsEmpty() {
		return nil
	}
	if len(tx.SmartAccountWitness) == 0 {
		return ErrPolicyUnsatisfied
	}
	return nil
}
