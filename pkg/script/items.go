package script

import "fmt"

// ParsePushItems decodes a witness built entirely of data pushes (as
// AddData produces) back into its individual items, in order. Scripts
// that contain non-push opcodes (OP_1..OP_16, CHECKMULTISIG, etc.) are
// not representable this way and return an error; policy witnesses that
// carry extra proof material beyond what the script itself consumes use
// this to recover those items.
func ParsePushItems(data []byte) ([][]byte, error) {
	var items [][]byte
	pc := 0
	for pc < len(data) {
		op := Opcode(data[pc])
		pc++
		switch {
		case op == OP_FALSE:
			items = append(items, nil)
		case op >= 0x01 && op <= 0x4B:
			n := int(op)
			if pc+n > len(data) {
				return nil, fmt.Errorf("push item truncated at offset %d", pc)
			}
			items = append(items, data[pc:pc+n])
			pc += n
		case op == OP_PUSHDATA1:
			if pc >= len(data) {
				return nil, fmt.Errorf("missing PUSHDATA1 length at offset %d", pc)
			}
			n := int(data[pc])
			pc++
			if pc+n > len(data) {
				return nil, fmt.Errorf("PUSHDATA1 item truncated at offset %d", pc)
			}
			items = append(items, data[pc:pc+n])
			pc += n
		default:
			return nil, fmt.Errorf("non-push opcode 0x%02x at offset %d", byte(op), pc-1)
		}
	}
	return items, nil
}

// BuildPushItems assembles a witness out of plain data pushes, the
// counterpart to ParsePushItems.
func BuildPushItems(items [][]byte) []byte {
	b := NewBuilder()
	for _, item := range items {
		b.AddData(item)
	}
	return b.Bytes()
}
