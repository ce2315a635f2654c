// Command gdis disassembles a GASM bytecode file, writing the recovered
// assembly program to standard output.
package main

import (
	"fmt"
	"os"

	"github.com/chazu/gasm/disasm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: gdis <filename>\n")
		return 1
	}

	filename := args[0]
	code, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %s\n", filename)
		return 1
	}

	fmt.Print(disasm.Disassemble(code))
	return 0
}
