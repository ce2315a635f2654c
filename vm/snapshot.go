package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode encodes in canonical form so two snapshots of identical
// state always produce byte-identical output.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR encode mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is a serializable capture of a VM's full state: its memory
// image, operand stack, call stack, and exit status. It lets a host save a
// paused or faulted VM and later resume it with Restore, something
// termination alone (which only freezes the image in memory) doesn't
// survive past process exit.
type Snapshot struct {
	Image [ImageSize]uint64 `cbor:"image"`
	Stack []uint64          `cbor:"stack"`
	Calls [][RegSize]uint64 `cbor:"calls"`
	Term  Term              `cbor:"term"`
	Count uint64            `cbor:"count"`
}

// Snapshot captures v's current state. It does not include the code
// buffer: Restore takes that separately, since the same snapshot could
// meaningfully be replayed against a recompiled but equivalent program.
func (v *VM) Snapshot() Snapshot {
	s := Snapshot{
		Stack: append([]uint64(nil), v.stack...),
		Calls: append([][RegSize]uint64(nil), v.calls...),
		Term:  v.Term,
		Count: v.Count,
	}
	copy(s.Image[:], v.Image)
	return s
}

// Restore builds a VM from a previously captured Snapshot and a code
// buffer, ready to continue execution via Run/RunLimit.
func Restore(s Snapshot, code []byte, host HostFunc) *VM {
	v := &VM{
		Image: append([]uint64(nil), s.Image[:]...),
		Code:  code,
		Host:  host,
		stack: append([]uint64(nil), s.Stack...),
		calls: append([][RegSize]uint64(nil), s.Calls...),
		Term:  s.Term,
		Count: s.Count,
	}
	return v
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	return s, nil
}
