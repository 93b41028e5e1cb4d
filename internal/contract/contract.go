// Package contract implements the precondition checks used on the real-time
// processing path.
//
// Setup code reports problems as errors. Processing code cannot: it must not
// allocate or return errors, so a violated precondition is a programming error
// that panics in default builds. Building with the upols_release tag turns the
// checks into no-ops.
package contract

import "fmt"

// Violation is the panic value raised by a failed check.
type Violation struct {
	Msg string
}

func (v Violation) Error() string { return v.Msg }

// Require panics with msg if cond is false and checks are enabled.
func Require(cond bool, msg string) {
	if Enabled && !cond {
		panic(Violation{Msg: msg})
	}
}

// RequireLen panics if got != want and checks are enabled.
// what names the buffer in the panic message.
func RequireLen(got, want int, what string) {
	if Enabled && got != want {
		panic(Violation{Msg: fmt.Sprintf("%s: length %d, want %d", what, got, want)})
	}
}
