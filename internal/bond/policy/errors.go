// Package policy evaluates the pUTXO policies layered on top of script
// execution: time locks, guardian recovery, MFA, and rate limits (spec
// §4.3). Policy checks are orthogonal to the script VM — a spend must
// satisfy both.
package policy

import "errors"

// Distinct failure kinds, one per policy family, so wallets and RPC
// clients can surface an actionable error (spec §4.3 "Error reporting").
var (
	ErrTimeLockNotExpired     = errors.New("time lock not expired")
	ErrGuardianThresholdUnmet = errors.New("guardian recovery threshold unmet")
	ErrRecoveryNotInitiated   = errors.New("guardian recovery not initiated on-chain")
	ErrRecoveryNotMatured     = errors.New("guardian recovery confirmation delay not elapsed")
	ErrMfaFactorMissing       = errors.New("MFA factor missing from witness")
	ErrMfaFactorInvalid       = errors.New("MFA factor failed verification")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
)
