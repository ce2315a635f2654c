// Command expr compiles a GASM infix expression into assembly text via
// the shunting-yard compiler.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/gasm/compiler"
	"github.com/chazu/gasm/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("expr", flag.ContinueOnError)
	newline := fs.Bool("newline", false, "separate emitted instructions with newlines instead of spaces")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [GASM expression]\n", fs.Name())
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.FindAndLoad(".")
	if err != nil {
		cfg = config.Defaults()
	}

	fmt.Println("GASM expression parser")
	fmt.Println()
	fmt.Println("Based on Shunting Yard implementation by Takayuki Matsuoka et al.:")
	fmt.Println("  https://gist.github.com/t-mat/b9f681b7591cdae712f6")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  expr [GASM expression]")
	fmt.Println()

	expr := strings.Join(fs.Args(), " ")
	if expr == "" {
		expr = cfg.Compiler.DefaultExpr
	}

	fmt.Println("Input (expression):")
	fmt.Printf("  %s\n\n", expr)

	opts := compiler.Options{Newline: *newline || cfg.Compiler.NewlineSeparated}
	prog, err := compiler.Compile(expr, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		return 1
	}

	fmt.Println("Output (GASM program):")
	fmt.Println()
	fmt.Print(prog)
	return 0
}
