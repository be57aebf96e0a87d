// File: reactor/retry.go
// Author: momentics <momentics@gmail.com>
//
// Readiness-driven retry: the discipline behind every suspending socket
// operation. Attempt logic and readiness waiting are kept separate so
// the same loop serves both directions.

package reactor

import "context"

// ioResult classifies one attempt on a non-blocking socket. Would-block
// is an explicit branch here, never error control flow.
type ioResult int

const (
	// ioReady: the attempt completed and the operation is resolved.
	ioReady ioResult = iota
	// ioWouldBlock: the kernel cannot complete the operation yet; wait
	// for a readiness notification and re-attempt.
	ioWouldBlock
	// ioInterrupted: the attempt was interrupted by a signal;
	// re-attempt immediately without waiting.
	ioInterrupted
)

// attemptFunc performs one non-blocking attempt. A non-nil error is
// fatal for the pending operation.
type attemptFunc func() (ioResult, error)

// retryUntilReady drives attempt to completion: try immediately and, on
// would-block, suspend until a readiness token arrives before trying
// again. The operation resolves exactly once, on the first transition
// into a terminal state (completion, fatal error, or cancellation).
func retryUntilReady(ctx context.Context, ready <-chan struct{}, attempt attemptFunc) error {
	for {
		res, err := attempt()
		if err != nil {
			return err
		}
		switch res {
		case ioReady:
			return nil
		case ioInterrupted:
			continue
		}
		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
