// Package disasm recovers the textual assembly program from a bytecode
// buffer, using the same operand codec the VM executes against.
package disasm

import (
	"fmt"
	"strings"

	"github.com/chazu/gasm/bytecode"
)

// Disassemble scans code from offset 0 to its end, returning one line per
// instruction: "L<pc5>: MNEMONIC operand...". Unknown opcodes render as
// UNKNOWN_OPCODE_<n> and scanning resumes at the next byte.
func Disassemble(code []byte) string {
	var b strings.Builder
	var pc uint64
	for pc < uint64(len(code)) {
		start := pc
		line, _ := Instruction(code, &pc)
		if pc == start {
			// Instruction decode didn't consume even the opcode byte
			// (shouldn't happen, but guarantees forward progress).
			pc++
		}
		b.WriteString(fmt.Sprintf("L%05d: %s\n", start, line))
	}
	return b.String()
}

// Instruction decodes and renders exactly one instruction starting at *pc,
// advancing *pc past it. It is reused by the VM's optional execution
// tracer to render the instruction about to execute.
func Instruction(code []byte, pc *uint64) (string, error) {
	if *pc >= uint64(len(code)) {
		return "", fmt.Errorf("disasm: offset %d past end of code", *pc)
	}
	opByte := code[*pc]
	*pc++
	op, stack := bytecode.Decode(opByte)

	if !op.Valid() {
		return op.String(), nil
	}

	info := op.Info()
	n := info.InlineOperands(stack)
	// Stack form drops leading operands (JT/JF keep only the trailing jump
	// address), so inline operand i is register-form operand i+skip.
	skip := info.Operands - n

	operands := make([]string, 0, n)
	for i := 0; i < n; i++ {
		jump := info.IsJumpOperand(i + skip)
		value, ptr, err := bytecode.ReadOperand(code, pc, jump)
		if err != nil {
			return "", err
		}
		operands = append(operands, renderOperand(value, ptr, jump))
	}

	mnemonic := op.String()
	if len(operands) == 0 {
		return mnemonic, nil
	}
	return mnemonic + " " + strings.Join(operands, " "), nil
}

func renderOperand(value uint64, ptr, jump bool) string {
	switch {
	case jump:
		return fmt.Sprintf("L%05d", value)
	case ptr:
		return fmt.Sprintf("@%d", value)
	default:
		return fmt.Sprintf("%d", value)
	}
}
