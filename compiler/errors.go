package compiler

import "fmt"

// Error is a compile-time failure: a lexical error (a misplaced unary/
// binary-only operator) or a shunting-yard parse error (mismatched
// parentheses). The compiler fails fast with the first error encountered,
// unlike a multi-error-accumulating parser.
type Error struct {
	Pos     int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("at %d: %s", e.Pos, e.Message)
}
