package vm_test

import (
	"strings"
	"testing"

	"github.com/chazu/gasm/bytecode"
	"github.com/chazu/gasm/disasm"
	"github.com/chazu/gasm/vm"
)

// TestDisassembleThenRunAgree builds a small program with the Builder,
// checks that its disassembly round-trips through the same operand codec
// the VM executes against, then runs it and checks the VM's register
// result against the disassembled instruction stream.
func TestDisassembleThenRunAgree(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Op(bytecode.PUSH, false)
	b.Value(7, false)
	b.Op(bytecode.PUSH, false)
	b.Value(35, false)
	b.Op(bytecode.ADD, true) // stack-form: pops both, pushes sum
	b.Op(bytecode.POP, false)
	b.Value(3, false) // io[3] = 42
	b.Op(bytecode.TERM, false)

	code := b.Bytes()

	text := disasm.Disassemble(code)
	for _, want := range []string{"PUSH 7", "PUSH 35", "ADD", "POP 3", "TERM"} {
		if !strings.Contains(text, want) {
			t.Errorf("disassembly missing %q:\n%s", want, text)
		}
	}

	machine := vm.New(vm.NewImage(), code, nil)
	term := machine.Run()
	if term != vm.ErrOK {
		t.Fatalf("Run() term = %s, want ErrOK", term)
	}
	if got := machine.Image[3]; got != 42 {
		t.Errorf("io[3] = %d, want 42", got)
	}
}

// TestSnapshotRestoreContinuesExecution captures mid-run state via
// Snapshot/Restore, round-trips it through CBOR, and confirms the
// restored VM finishes the program identically to an uninterrupted run.
func TestSnapshotRestoreContinuesExecution(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Op(bytecode.PUSH, false)
	b.Value(10, false)
	b.Op(bytecode.POP, false)
	b.Value(4, false)
	b.Op(bytecode.INC, false)
	b.Value(4, false)
	b.Op(bytecode.INC, false)
	b.Value(4, false)
	b.Op(bytecode.TERM, false)
	code := b.Bytes()

	reference := vm.New(vm.NewImage(), code, nil)
	if term := reference.Run(); term != vm.ErrOK {
		t.Fatalf("reference run: term = %s", term)
	}

	// Run the first two instructions only, snapshot, then resume from
	// the serialized snapshot and confirm the final state matches.
	partial := vm.New(vm.NewImage(), code, nil)
	if term := partial.RunLimit(2); term != vm.ErrOpLimit {
		t.Fatalf("partial run: term = %s, want ErrOpLimit", term)
	}

	snap := partial.Snapshot()
	data, err := vm.MarshalSnapshot(snap)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	restoredSnap, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}

	resumed := vm.Restore(restoredSnap, code, nil)
	if term := resumed.Run(); term != vm.ErrOK {
		t.Fatalf("resumed run: term = %s", term)
	}

	if resumed.Image[4] != reference.Image[4] {
		t.Errorf("resumed io[4] = %d, want %d", resumed.Image[4], reference.Image[4])
	}
}
