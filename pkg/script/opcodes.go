// Package script implements the pUTXO predicate script virtual machine:
// a bounded stack machine executed over script_sig || script_pubkey at
// spend time (spec §4.2).
package script

// Opcode is a single script instruction.
type Opcode byte

// Opcode numbering. Spec §4.2 leaves CHECKBLOCKHEIGHT/CHECKLOCKTIME
// unassigned ("implementer chooses values in the reserved range and
// documents them"); this is that pinned assignment (SPEC_FULL §4.2).
const (
	OP_FALSE Opcode = 0x00 // push empty byte string

	// 0x01..0x4B: OP_PUSHDATA(n) — push the next n bytes (n = opcode value).
	OP_PUSHDATA1 Opcode = 0x4C // next byte is length, then that many data bytes

	// 0x51..0x60: OP_1..OP_16 — push small integer 1..16.
	OP_1  Opcode = 0x51
	OP_16 Opcode = 0x60

	OP_VERIFY Opcode = 0x69

	OP_1ADD Opcode = 0x8B
	OP_1SUB Opcode = 0x8C

	OP_DUP  Opcode = 0x76
	OP_DROP Opcode = 0x75
	OP_SWAP Opcode = 0x7C
	OP_PICK Opcode = 0x79
	OP_ROLL Opcode = 0x7A

	OP_EQUAL       Opcode = 0x87
	OP_EQUALVERIFY Opcode = 0x88

	OP_ADD Opcode = 0x93
	OP_SUB Opcode = 0x94

	OP_BOOLAND Opcode = 0x9A
	OP_BOOLOR  Opcode = 0x9B
	OP_NOT     Opcode = 0x91

	OP_HASH256       Opcode = 0xAA
	OP_CHECKSIG      Opcode = 0xAC
	OP_CHECKMULTISIG Opcode = 0xAE

	// Contextual opcodes — reserved range pinned by this spec (spec §9).
	OP_CHECKBLOCKHEIGHT Opcode = 0xB1
	OP_CHECKLOCKTIME    Opcode = 0xB2
)

// isPushOpcode reports whether op pushes data and therefore does not
// count against the non-push operation-count limit (spec §4.2).
func isPushOpcode(op Opcode) bool {
	return op == OP_FALSE || (op >= 0x01 && op <= 0x4B) || op == OP_PUSHDATA1 || (op >= OP_1 && op <= OP_16)
}
