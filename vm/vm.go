// Package vm implements the register-and-stack hybrid virtual machine: a
// dispatch loop over a shared 1024-word memory image, an operand stack, and
// a call stack of register snapshots.
package vm

import (
	"github.com/chazu/gasm/bytecode"
	"github.com/chazu/gasm/disasm"
)

// ImageSize is the fixed word count of the shared memory image.
const ImageSize = 1024

// RegSize is the number of register-file words at the front of the image.
const RegSize = 8

// Named registers within the first RegSize image words.
const (
	RegPC = 0 // program counter: byte offset into the code buffer
	RegR  = 1 // implicit result register for register-form arithmetic/logic
	RegS  = 2 // reserved for host/program use
)

// DefaultOpLimit bounds the instruction count of a single Run call when the
// caller does not specify one.
const DefaultOpLimit = 50_000

// halted is the PC sentinel written by TERM; it is always >= len(code), so
// the dispatch loop exits on the very next iteration with term == ErrOK.
const halted = ^uint64(0)

// HostFunc is invoked synchronously by the HOST opcode. It receives the VM
// so it may freely inspect or mutate the memory image before returning
// control to the dispatch loop.
type HostFunc func(v *VM)

// Tracer observes one instruction per call, after it has executed. See
// step for the exact fields supplied.
type Tracer interface {
	Trace(pc uint64, text string, term Term, r uint64)
}

// VM executes bytecode against a caller-owned memory image. The VM does
// not own Image or Code: both are shared by reference, matching the
// host/VM hand-off model described by the toolchain's concurrency design.
type VM struct {
	Image []uint64 // len ImageSize, shared with the host
	Code  []byte
	Host  HostFunc
	Trace Tracer

	stack []uint64    // operand stack
	calls [][RegSize]uint64

	Term  Term
	Count uint64
}

// New constructs a VM over image and code. image must have length
// ImageSize; callers typically zero-initialize it before passing it in,
// per the machine's lifecycle contract.
func New(image []uint64, code []byte, host HostFunc) *VM {
	return &VM{Image: image, Code: code, Host: host}
}

// NewImage returns a fresh, zeroed memory image of the correct size.
func NewImage() []uint64 {
	return make([]uint64, ImageSize)
}

func (v *VM) PC() uint64     { return v.Image[RegPC] }
func (v *VM) SetPC(p uint64) { v.Image[RegPC] = p }
func (v *VM) R() uint64      { return v.Image[RegR] }
func (v *VM) SetR(r uint64)  { v.Image[RegR] = r }
func (v *VM) S() uint64      { return v.Image[RegS] }
func (v *VM) SetS(s uint64)  { v.Image[RegS] = s }

// Run executes with the default instruction budget.
func (v *VM) Run() Term {
	return v.RunLimit(DefaultOpLimit)
}

// RunLimit executes until termination, fault, or limit instructions have
// been dispatched, and returns the resulting Term.
func (v *VM) RunLimit(limit uint64) Term {
	v.Term = ErrOK
	v.Count = 0
	for v.Term == ErrOK && v.PC() < uint64(len(v.Code)) {
		v.Count++
		if v.Count > limit {
			v.Term = ErrOpLimit
			break
		}
		v.step()
	}
	return v.Term
}

// step fetches, decodes and executes exactly one instruction.
func (v *VM) step() {
	startPC := v.PC()

	opByte := v.Code[v.PC()]
	v.SetPC(v.PC() + 1)
	op, stack := bytecode.Decode(opByte)

	v.dispatch(op, stack)

	if v.Trace != nil {
		textPC := startPC
		text, err := disasm.Instruction(v.Code, &textPC)
		if err != nil {
			text = op.String()
		}
		v.Trace.Trace(startPC, text, v.Term, v.R())
	}
}

// memGet reads image[idx], faulting with ErrSegfault on an out-of-range
// index. The boolean result is false exactly when a fault was set.
func (v *VM) memGet(idx uint64) (uint64, bool) {
	if idx >= ImageSize {
		v.Term = ErrSegfault
		return 0, false
	}
	return v.Image[idx], true
}

// memSet writes image[idx], faulting with ErrSegfault on an out-of-range
// index.
func (v *VM) memSet(idx uint64, val uint64) bool {
	if idx >= ImageSize {
		v.Term = ErrSegfault
		return false
	}
	v.Image[idx] = val
	return true
}

// readOperand decodes one operand at the current PC and fully resolves it:
// if its control byte had REG_PTR set, the decoded index is replaced by
// image[index]. This mirrors the reference VM's single read() helper,
// used uniformly whether the resolved value ends up as a computed operand
// (ADD, EQ, ...) or as a memory index in its own right (SET, INC, POP,
// VPUSH, ...) — the opcode, not the operand fetch, decides which.
func (v *VM) readOperand(jump bool) (uint64, bool) {
	pc := v.PC()
	raw, ptr, err := bytecode.ReadOperand(v.Code, &pc, jump)
	v.SetPC(pc)
	if err != nil {
		v.Term = ErrCodeSize
		return 0, false
	}
	if ptr {
		return v.memGet(raw)
	}
	return raw, true
}

func (v *VM) push(val uint64) {
	v.stack = append(v.stack, val)
}

func (v *VM) pop() (uint64, bool) {
	if len(v.stack) == 0 {
		v.Term = ErrUnderflow
		return 0, false
	}
	n := len(v.stack) - 1
	val := v.stack[n]
	v.stack = v.stack[:n]
	return val, true
}

// operands fetches the two operands for a binary opcode, either inline
// (register form) or from the operand stack (stack form, b popped before
// a: the top of the stack is the right-hand operand).
func (v *VM) operands(stack bool) (a, b uint64, ok bool) {
	if stack {
		if b, ok = v.pop(); !ok {
			return 0, 0, false
		}
		if a, ok = v.pop(); !ok {
			return 0, 0, false
		}
		return a, b, true
	}
	if a, ok = v.readOperand(false); !ok {
		return 0, 0, false
	}
	if b, ok = v.readOperand(false); !ok {
		return 0, 0, false
	}
	return a, b, true
}

func (v *VM) result(stack bool, val uint64) {
	if stack {
		v.push(val)
		return
	}
	v.SetR(val)
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// dispatch executes a single decoded instruction.
func (v *VM) dispatch(op bytecode.Op, stack bool) {
	switch op {
	case bytecode.NOP:

	case bytecode.TERM:
		v.SetPC(halted)

	case bytecode.SET:
		dst, ok := v.readOperand(false)
		if !ok {
			return
		}
		src, ok := v.readOperand(false)
		if !ok {
			return
		}
		v.memSet(dst, src)

	case bytecode.JMP:
		addr, ok := v.readOperand(true)
		if !ok {
			return
		}
		v.SetPC(addr)

	case bytecode.ADD:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, a+b)

	case bytecode.SUB:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		r := a - b
		v.result(stack, r)
		if a < b {
			v.Term = ErrNegNum
		}

	case bytecode.MUL:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, a*b)

	case bytecode.DIV:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		if b == 0 {
			v.Term = ErrDivZero
			return
		}
		v.result(stack, a/b)

	case bytecode.MOD:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		if b == 0 {
			v.Term = ErrDivZero
			return
		}
		v.result(stack, a%b)

	case bytecode.OR:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, a|b)

	case bytecode.ANDL:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a != 0 && b != 0))

	case bytecode.XOR:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, a^b)

	case bytecode.NOT:
		a, ok := v.unary(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a == 0))

	case bytecode.SHL:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, a<<b)

	case bytecode.SHR:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, a>>b)

	case bytecode.INC:
		idx, ok := v.readOperand(false)
		if !ok {
			return
		}
		cur, ok := v.memGet(idx)
		if !ok {
			return
		}
		v.memSet(idx, cur+1)

	case bytecode.DEC:
		idx, ok := v.readOperand(false)
		if !ok {
			return
		}
		cur, ok := v.memGet(idx)
		if !ok {
			return
		}
		v.memSet(idx, cur-1)

	case bytecode.PUSH:
		val, ok := v.readOperand(false)
		if !ok {
			return
		}
		v.push(val)

	case bytecode.POP:
		idx, ok := v.readOperand(false)
		if !ok {
			return
		}
		val, ok := v.pop()
		if !ok {
			return
		}
		v.memSet(idx, val)

	case bytecode.AND:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, a&b)

	case bytecode.HOST:
		if v.Host != nil {
			v.Host(v)
		}

	case bytecode.VPUSH:
		ptrIdx, ok := v.readOperand(false)
		if !ok {
			return
		}
		val, ok := v.readOperand(false)
		if !ok {
			return
		}
		p, ok := v.memGet(ptrIdx)
		if !ok {
			return
		}
		newP := p + 1
		if !v.memSet(ptrIdx, newP) {
			return
		}
		v.memSet(newP, val)

	case bytecode.VPOP:
		ptrIdx, ok := v.readOperand(false)
		if !ok {
			return
		}
		dstIdx, ok := v.readOperand(false)
		if !ok {
			return
		}
		p, ok := v.memGet(ptrIdx)
		if !ok {
			return
		}
		val, ok := v.memGet(p)
		if !ok {
			return
		}
		if !v.memSet(dstIdx, val) {
			return
		}
		v.memSet(ptrIdx, p-1)

	case bytecode.CALL:
		addr, ok := v.readOperand(true)
		if !ok {
			return
		}
		var snap [RegSize]uint64
		copy(snap[:], v.Image[:RegSize])
		v.calls = append(v.calls, snap)
		v.SetPC(addr)

	case bytecode.RET:
		val, ok := v.readOperand(false)
		if !ok {
			return
		}
		if len(v.calls) == 0 {
			v.Term = ErrRet
			return
		}
		n := len(v.calls) - 1
		snap := v.calls[n]
		v.calls = v.calls[:n]
		copy(v.Image[:RegSize], snap[:])
		v.SetR(val)

	case bytecode.JF:
		cond, ok := v.jumpCond(stack)
		if !ok {
			return
		}
		addr, ok := v.readOperand(true)
		if !ok {
			return
		}
		if cond == 0 {
			v.SetPC(addr)
		}

	case bytecode.JT:
		cond, ok := v.jumpCond(stack)
		if !ok {
			return
		}
		addr, ok := v.readOperand(true)
		if !ok {
			return
		}
		if cond != 0 {
			v.SetPC(addr)
		}

	case bytecode.EQ:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a == b))

	case bytecode.NE:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a != b))

	case bytecode.GT:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a > b))

	case bytecode.LT:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a < b))

	case bytecode.GE:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a >= b))

	case bytecode.LE:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a <= b))

	case bytecode.NEG:
		a, ok := v.unary(stack)
		if !ok {
			return
		}
		v.result(stack, ^a)

	case bytecode.ORL:
		a, b, ok := v.operands(stack)
		if !ok {
			return
		}
		v.result(stack, boolWord(a != 0 || b != 0))

	default:
		v.Term = ErrOpcode
	}
}

// unary fetches the single operand for NOT/NEG, inline or from the stack.
func (v *VM) unary(stack bool) (uint64, bool) {
	if stack {
		return v.pop()
	}
	return v.readOperand(false)
}

// jumpCond fetches JT/JF's condition operand. Register form reads it
// inline; stack form pops it, leaving only the jump address inline.
func (v *VM) jumpCond(stack bool) (uint64, bool) {
	if stack {
		return v.pop()
	}
	return v.readOperand(false)
}
