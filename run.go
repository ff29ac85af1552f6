// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"fmt"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Run drives a Cont-world body to completion on the calling goroutine and
// returns its result, or the error it failed with. The body runs on a
// private binding that is framed back to back, backing off adaptively
// (iox.Backoff) while no task makes progress, e.g. while a promise is
// pending. Does not spawn goroutines.
func Run[R any](body kont.Eff[R]) (R, error) {
	b := Attach(Options{Reporter: NopReporter{}})
	defer b.Detach()
	// The error is returned to the caller, not reported.
	t := Start(b.Executor(), body, func(error) {})
	return drive[R](b.Executor(), b.Frame, t)
}

// RunExpr is Run for an Expr-world body.
func RunExpr[R any](body kont.Expr[R]) (R, error) {
	b := Attach(Options{Reporter: NopReporter{}})
	defer b.Detach()
	t := StartExpr(b.Executor(), body, func(error) {})
	return drive[R](b.Executor(), b.Frame, t)
}

// Exec drives an already started task on ex until it is terminal and
// returns its result. Every other task on ex is ticked along with it.
func Exec[R any](ex *Executor, t *Task) (R, error) {
	return drive[R](ex, ex.Tick, t)
}

func drive[R any](ex *Executor, tick func() error, t *Task) (R, error) {
	var bo iox.Backoff
	for !t.State().Terminal() {
		before := ex.resumed
		if err := tick(); err != nil {
			var zero R
			return zero, err
		}
		if ex.resumed == before {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	return ResultOf[R](t)
}

// ResultOf returns the outcome of t: its value once completed, its error
// once failed or cancelled, iox.ErrWouldBlock while still active, and
// ErrResultType when the completed value is not an R.
func ResultOf[R any](t *Task) (R, error) {
	var zero R
	switch t.State() {
	case Completed:
		raw := t.Value()
		if raw == nil {
			return zero, nil
		}
		v, ok := raw.(R)
		if !ok {
			return zero, fmt.Errorf("%w: task %d holds %T, not %T", ErrResultType, t.ID(), raw, zero)
		}
		return v, nil
	case Failed, Cancelled:
		return zero, t.Err()
	}
	return zero, iox.ErrWouldBlock
}
