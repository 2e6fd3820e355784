// Package d holds the invariant-checking helpers used throughout the tree
// engine. Chk and Exp both panic on failure; Exp's panics carry a value that
// Try recovers, for call sites that want to turn an internal invariant
// violation into a recoverable condition instead of crashing the process.
package d

import (
	"fmt"

	"github.com/stretchr/testify/assert"
)

var (
	Chk = assert.New(&panicker{})
	// Exp provides the same API as Chk, but the resulting panics can be caught by Try.
	Exp = assert.New(&recoverablePanicker{})
)

type checkError struct {
	msg string
}

func (e checkError) Error() string { return e.msg }

type panicker struct{}

func (s panicker) Errorf(format string, args ...interface{}) {
	panic(checkError{fmt.Sprintf(format, args...)})
}

type recoverablePanicker struct{}

func (s recoverablePanicker) Errorf(format string, args ...interface{}) {
	panic(checkError{fmt.Sprintf(format, args...)})
}

// Try runs f, recovering any panic raised through Exp and returning it as an error.
// Panics raised through Chk, or any other non-d panic, propagate unchanged.
func Try(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(checkError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()
	f()
	return nil
}
