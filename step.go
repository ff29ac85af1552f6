// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"fmt"
	"runtime/debug"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// progress is the outcome of stepping a body once.
type progress uint8

const (
	// parked: the body stopped at a tick operation.
	parked progress = iota
	// blocked: the parked operation could not make progress this tick.
	blocked
	// finished: the body returned or failed.
	finished
)

// stepper is the type-erased view of a running body held by a Task.
type stepper interface {
	begin() (progress, error)
	advance() (progress, error)
	pending() kont.Operation
	value() any
	discard()
}

// body steps an Expr-world computation one tick operation at a time.
// The computation is wrapped so that its result is Either[error, R]:
// Right on return, Left when an error effect is thrown.
type body[R any] struct {
	expr   func() kont.Expr[R]
	susp   *kont.Suspension[kont.Either[error, R]]
	result R
}

// newBody defers building the computation to begin, so that a panic while
// reifying a Cont-world body is caught at the task boundary like any other.
func newBody[R any](expr func() kont.Expr[R]) *body[R] {
	return &body[R]{expr: expr}
}

// begin evaluates the body until its first tick operation or completion.
func (b *body[R]) begin() (progress, error) {
	expr := b.expr()
	b.expr = nil
	wrapped := kont.ExprMap(expr, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	result, susp := kont.StepExpr(wrapped)
	return b.settle(result, susp)
}

// advance dispatches the parked operation. On iox.ErrWouldBlock the
// suspension stays unconsumed and the body is blocked for this tick.
// Any other dispatch error discards the suspension and fails the body.
func (b *body[R]) advance() (progress, error) {
	sop := b.susp.Op().(tickDispatcher)
	v, err := sop.DispatchTick()
	if err != nil {
		if iox.IsWouldBlock(err) {
			return blocked, nil
		}
		b.discard()
		return finished, err
	}
	susp := b.susp
	b.susp = nil
	result, next := susp.Resume(v)
	return b.settle(result, next)
}

// settle runs error operations eagerly and parks on the first tick
// operation. Throw discards the suspension and finishes with its error.
func (b *body[R]) settle(result kont.Either[error, R], susp *kont.Suspension[kont.Either[error, R]]) (progress, error) {
	for susp != nil {
		switch op := susp.Op().(type) {
		case tickDispatcher:
			b.susp = susp
			return parked, nil
		case errorDispatcher:
			var ctx kont.ErrorContext[error]
			v, _ := op.DispatchError(&ctx)
			if ctx.HasErr {
				susp.Discard()
				if ctx.Err == nil {
					return finished, ErrNilFailure
				}
				return finished, ctx.Err
			}
			result, susp = susp.Resume(v)
		default:
			susp.Discard()
			return finished, fmt.Errorf("%w: %T", ErrUnhandledEffect, op)
		}
	}
	if err, ok := result.GetLeft(); ok {
		if err == nil {
			return finished, ErrNilFailure
		}
		return finished, err
	}
	b.result, _ = result.GetRight()
	return finished, nil
}

func (b *body[R]) pending() kont.Operation {
	if b.susp == nil {
		return nil
	}
	return b.susp.Op()
}

func (b *body[R]) value() any {
	return b.result
}

func (b *body[R]) discard() {
	if b.susp != nil {
		b.susp.Discard()
		b.susp = nil
	}
}

// guarded runs fn and converts a panic into a *PanicError.
func guarded(fn func() (progress, error)) (p progress, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = finished, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
