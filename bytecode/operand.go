package bytecode

import (
	"encoding/binary"
	"errors"
)

// Control byte bit layout for a non-jump operand.
const (
	// RegPtr (bit 7) marks the decoded value as a memory index rather
	// than a literal: the effective value is io[index].
	RegPtr byte = 0x80
	// ShortVal (bit 6) means the operand value is the low 6 bits of the
	// control byte itself; no value bytes follow.
	ShortVal byte = 0x40
	// ValMask isolates the short value, or the little-endian byte count
	// when ShortVal is clear.
	ValMask byte = 0x3F
	// MaxShortVal is the largest value representable in short form.
	MaxShortVal = 0x3F
)

// ErrTruncated is returned when an operand's control byte or value bytes
// run past the end of the code buffer.
var ErrTruncated = errors.New("bytecode: truncated operand")

// ReadOperand decodes one operand starting at *pc within code, advancing
// *pc past it. jump selects the jump-operand exception: a bare 2-byte
// little-endian value with no control byte and no indirection, used for
// JMP/JT/JF/CALL addresses.
//
// The returned ptr flag reports whether the control byte had REG_PTR set;
// callers that care about indirection (the VM) resolve it themselves,
// since this package has no notion of a memory image.
func ReadOperand(code []byte, pc *uint64, jump bool) (value uint64, ptr bool, err error) {
	if jump {
		if *pc+2 > uint64(len(code)) {
			return 0, false, ErrTruncated
		}
		value = uint64(binary.LittleEndian.Uint16(code[*pc:]))
		*pc += 2
		return value, false, nil
	}

	if *pc+1 > uint64(len(code)) {
		return 0, false, ErrTruncated
	}
	ctrl := code[*pc]
	*pc++
	ptr = ctrl&RegPtr != 0

	if ctrl&ShortVal != 0 {
		return uint64(ctrl & ValMask), ptr, nil
	}

	n := uint64(ctrl & ValMask)
	if *pc+n > uint64(len(code)) {
		return 0, false, ErrTruncated
	}
	var buf [8]byte
	copy(buf[:], code[*pc:*pc+n])
	*pc += n
	return binary.LittleEndian.Uint64(buf[:]), ptr, nil
}

// Builder appends encoded instructions to a growing code buffer. It is used
// by tests: there is no production text-to-bytecode assembler in this repo,
// only this append-only writer and the disassembler that inverts it.
type Builder struct {
	code []byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Bytes returns the accumulated code buffer.
func (b *Builder) Bytes() []byte {
	return b.code
}

// Len returns the current length of the code buffer, i.e. the byte offset
// the next emitted instruction will start at.
func (b *Builder) Len() uint16 {
	return uint16(len(b.code))
}

// Op appends a bare opcode byte with no operands (NOP, TERM, HOST).
func (b *Builder) Op(op Op, stack bool) {
	b.code = append(b.code, Encode(op, stack))
}

// Value appends a literal or register-pointer operand, choosing the
// smallest encoding: short form for values in [0, 63], otherwise the
// minimum number of little-endian bytes needed to hold the value.
func (b *Builder) Value(v uint64, ptr bool) {
	ctrl := byte(0)
	if ptr {
		ctrl |= RegPtr
	}
	if v <= MaxShortVal {
		b.code = append(b.code, ctrl|ShortVal|byte(v))
		return
	}
	n := byteWidth(v)
	b.code = append(b.code, ctrl|byte(n))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	b.code = append(b.code, buf[:n]...)
}

// Jump appends a raw 2-byte little-endian address operand with no control
// byte, per the jump-operand exception.
func (b *Builder) Jump(addr uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], addr)
	b.code = append(b.code, buf[:]...)
}

// PatchJump overwrites a 2-byte jump operand previously emitted at offset
// (typically the result of Len() captured before the placeholder Jump
// call), used for forward references whose target is known only later.
func (b *Builder) PatchJump(offset uint16, addr uint16) {
	binary.LittleEndian.PutUint16(b.code[offset:offset+2], addr)
}

func byteWidth(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 8
	}
	if n == 0 {
		n = 1
	}
	return n
}
