// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a nil dependency or an invalid Option value.
	ErrInvalidArgument = errors.New("pipe: invalid argument")

	// ErrReadWithoutAdvance reports that ReadAsync was called while a previous
	// read is still unacknowledged.
	ErrReadWithoutAdvance = errors.New("pipe: cannot Read until the previous read has been acknowledged by calling Advance")

	// ErrInvalidAdvance reports that Advance/AdvanceTo was called with cursors
	// that are out of order, past the current write end, or before the
	// channel's origin.
	ErrInvalidAdvance = errors.New("pipe: invalid advance")

	// ErrUseAfterRelease reports a data access on a view into a Borrowed
	// segment after producer release, on a PreservedBuffer after its release,
	// or on any segment lying before the consumed cursor.
	ErrUseAfterRelease = errors.New("pipe: use after release")

	// ErrClosed reports a Write attempted after CompleteWriter, or a Flush
	// attempted after CompleteWriter was called with a non-nil error.
	// CompleteReader does not make later calls fail with it.
	ErrClosed = errors.New("pipe: channel closed")
)

// producerFaultError wraps the error a producer passed to CompleteWriter.
// It is surfaced by ReadAsync once all already-buffered bytes have been
// drained, and the channel is one-shot with respect to it: further ReadAsync
// calls see the same wrapped cause. Advance never returns it.
type producerFaultError struct {
	cause error
}

func (e *producerFaultError) Error() string {
	return fmt.Sprintf("pipe: producer fault: %v", e.cause)
}

func (e *producerFaultError) Unwrap() error { return e.cause }

// IsProducerFault reports whether err was raised because the producer called
// CompleteWriter with a non-nil error.
func IsProducerFault(err error) bool {
	var pf *producerFaultError
	return errors.As(err, &pf)
}
