package tx

// EstimateTxFee returns the minimum fee for a transaction with the given
// number of inputs and outputs at the given fee rate (base units per
// byte), based on the SigningBytes layout. Pass extraScriptBytes to
// account for non-minimal script_pubkey sizes (multisig, policy-bearing
// outputs).
func EstimateTxFee(numInputs, numOutputs int, feeRate uint64, extraScriptBytes ...int) uint64 {
	const overhead = 4 + 4 + 4 + 8  // version + inputCount + outputCount + locktime
	const perInput = 32 + 4         // txID + index
	const perOutput = 8 + 4 + 37 + 1 // value + scriptLen + minimal P2PKH script + policyFlag

	extra := 0
	if len(extraScriptBytes) > 0 {
		extra = extraScriptBytes[0]
	}

	size := overhead + perInput*numInputs + (perOutput+extra)*numOutputs
	return uint64(size) * feeRate
}

// RequiredFee returns the exact minimum fee for a fully built transaction
// at the given fee rate (base units per byte of SigningBytes).
func RequiredFee(t *Transaction, feeRate uint64) uint64 {
	return uint64(len(t.SigningBytes())) * feeRate
}

// FeeRate returns the fee-per-byte a transaction pays given its actual
// fee (inputs minus outputs), used by the mempool for RBF comparisons
// (spec §4.4 "Replace-by-fee").
func FeeRate(t *Transaction, fee uint64) uint64 {
	size := len(t.SigningBytes())
	if size == 0 {
		return 0
	}
	return fee / uint64(size)
}
