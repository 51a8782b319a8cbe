package occ

import (
	"errors"
	"fmt"
)

// ErrTxnConflict means validation found a committed write, inside the
// validating transaction's window, to a key it read. Recoverable by retry.
var ErrTxnConflict = errors.New("occ: transaction conflict")

// ErrClosed is returned by Retry on an already-closed DB.
var ErrClosed = errors.New("occ: db is closed")

func panicf(format string, args ...any) {
	panic(&programmingError{fmt.Sprintf(format, args...)})
}

type programmingError struct{ msg string }

func (e *programmingError) Error() string { return e.msg }
