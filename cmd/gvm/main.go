// Command gvm loads a GASM bytecode file, runs it against a zeroed (or
// restored) memory image, and dumps the resulting non-zero memory cells
// and all register cells.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/gasm/config"
	"github.com/chazu/gasm/vm"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("gvm", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "trace every executed instruction via the ambient logger")
	snapshotOut := fs.String("snapshot", "", "write a CBOR snapshot of the final VM state to this path")
	restoreIn := fs.String("restore", "", "resume execution from a previously saved CBOR snapshot")
	limit := fs.Uint64("limit", 0, "instruction budget for this run (0: use config/default)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <file> [--debug] [--snapshot path] [--restore path]\n", fs.Name())
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	filename := fs.Arg(0)

	cfg, err := config.FindAndLoad(".")
	if err != nil {
		cfg = config.Defaults()
	}

	code, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %s\n", filename)
		return 1
	}

	var machine *vm.VM
	if *restoreIn != "" {
		data, err := os.ReadFile(*restoreIn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading snapshot: %s\n", *restoreIn)
			return 1
		}
		snap, err := vm.UnmarshalSnapshot(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding snapshot: %v\n", err)
			return 1
		}
		machine = vm.Restore(snap, code, exampleHost)
	} else {
		machine = vm.New(vm.NewImage(), code, exampleHost)
	}

	traceEnabled := *debug || cfg.VM.Trace
	if traceEnabled {
		logger := vm.NewLogTracer("gvm")
		machine.Trace = logger
		commonlog.GetLogger("gvm").Infof("tracing enabled for %s", filename)
	}

	runLimit := *limit
	if runLimit == 0 {
		runLimit = cfg.VM.Limit
	}
	if runLimit == 0 {
		runLimit = vm.DefaultOpLimit
	}

	term := machine.RunLimit(runLimit)
	fmt.Printf("vm.run() ended, term = %s\n", term)

	dumpImage(machine.Image)

	if *snapshotOut != "" {
		snap := machine.Snapshot()
		data, err := vm.MarshalSnapshot(snap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding snapshot: %v\n", err)
			return 1
		}
		if err := os.WriteFile(*snapshotOut, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %s\n", *snapshotOut)
			return 1
		}
	}

	if term == vm.ErrOK {
		return 0
	}
	return 1
}

// dumpImage prints every register cell and every non-zero memory cell,
// collapsing runs of skipped zero cells into a single "...".
func dumpImage(image []uint64) {
	skipped := false
	for i, v := range image {
		if v > 0 || i < vm.RegSize {
			if skipped {
				skipped = false
				fmt.Println("...")
			}
			prefix := ""
			if i < vm.RegSize {
				prefix = "*"
			}
			if v == ^uint64(0) {
				fmt.Printf("%sio[%d] = (UINT64_MAX)\n", prefix, i)
			} else {
				fmt.Printf("%sio[%d] = %d\n", prefix, i, v)
			}
		} else {
			skipped = true
		}
	}
}

// exampleHost is the demonstration host callback wired into every run,
// mirroring the reference host's single diagnostic print.
func exampleHost(v *vm.VM) {
	fmt.Printf("example_host_function() called by the bytecode, pc = %d\n", v.PC())
}
