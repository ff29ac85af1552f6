// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is the error of a task that was cancelled. Cancellation
	// is not a failure: no failure handler sees it.
	ErrCancelled = errors.New("coro: task cancelled")

	// ErrDisposed is returned by Tick on a disposed executor and is the
	// error of tasks started after disposal.
	ErrDisposed = errors.New("coro: executor disposed")

	// ErrReentrantTick is returned by Tick when called from inside a tick
	// of the same executor.
	ErrReentrantTick = errors.New("coro: re-entrant tick")

	// ErrDetached is returned by Binding.Frame after Detach.
	ErrDetached = errors.New("coro: binding detached")

	// ErrSettled is returned when a promise is settled a second time.
	ErrSettled = errors.New("coro: promise already settled")

	// ErrUnhandledEffect fails a task whose body performed an effect the
	// executor cannot dispatch.
	ErrUnhandledEffect = errors.New("coro: unhandled effect")

	// ErrResultType is returned by ResultOf when the completed value has a
	// different type than the one asked for.
	ErrResultType = errors.New("coro: result type mismatch")

	// ErrNilFailure replaces a nil error raised with Fail.
	ErrNilFailure = errors.New("coro: failed with nil error")
)

// FailureError is what the diagnostic sink receives for a task that failed
// without a bound failure handler.
type FailureError struct {
	ID  ID
	Key string
	Err error
}

func (e *FailureError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("coro: task %d (%s) failed: %v", e.ID, e.Key, e.Err)
	}
	return fmt.Sprintf("coro: task %d failed: %v", e.ID, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// PanicError carries a panic recovered at a task or handler boundary.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("coro: panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
