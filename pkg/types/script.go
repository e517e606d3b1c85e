package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// MaxScriptSize is the consensus-enforced upper bound on a script's byte
// length (spec §4.2).
const MaxScriptSize = 10_000

// Script is a raw byte-stream of opcodes interpreted by the script VM
// (pkg/script). Both an output's script_pubkey and an input's script_sig
// are Scripts.
type Script []byte

// Validate checks the script's size bound. It does not execute the script.
func (s Script) Validate() error {
	if len(s) > MaxScriptSize {
		return fmt.Errorf("script: size %d exceeds maximum %d", len(s), MaxScriptSize)
	}
	return nil
}

// MarshalJSON encodes the script as a hex string.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s))
}

// UnmarshalJSON decodes a hex string into a script.
func (s *Script) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*s = nil
		return nil
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	*s = b
	return nil
}
