// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"code.hybscloud.com/kont"
	"github.com/rs/zerolog"
)

// Yield is the effect operation for waiting one tick.
// Perform(Yield{}) parks the task until the next Executor.Tick.
type Yield struct {
	kont.Phantom[struct{}]
}

// DispatchTick handles Yield on the executor. Never blocks: the tick that
// dispatches it is already the next tick.
func (Yield) DispatchTick() (kont.Resumed, error) {
	return struct{}{}, nil
}

// Await is the effect operation for waiting on an external event.
// Perform(Await[T]{Event: e}) parks the task until e delivers, then
// resumes it with the delivered value.
type Await[T any] struct {
	kont.Phantom[T]
	Event Event[T]
}

// DispatchTick polls the awaited event.
// Non-blocking: returns iox.ErrWouldBlock while the event is pending.
// Any other error is the event's failure and fails the awaiting task.
func (a Await[T]) DispatchTick() (kont.Resumed, error) {
	v, err := a.Event.Poll()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// event reports the handle this operation is parked on.
func (a Await[T]) event() any {
	return a.Event
}

// abandon tells the awaited event that nobody will consume its delivery.
func (a Await[T]) abandon(log zerolog.Logger) {
	if d, ok := a.Event.(abandoner); ok {
		d.abandon(log)
	}
}

// tickDispatcher is the structural interface for executor operations.
// DispatchTick is non-blocking: it returns iox.ErrWouldBlock when the
// operation cannot make progress on this tick.
type tickDispatcher interface {
	DispatchTick() (kont.Resumed, error)
}

// awaiter is implemented by operations parked on an event handle.
type awaiter interface {
	event() any
	abandon(log zerolog.Logger)
}

// abandoner is implemented by event handles that want to know their
// awaiting task was cancelled before delivery.
type abandoner interface {
	abandon(log zerolog.Logger)
}

// errorDispatcher is the structural interface of kont error operations
// (Throw, Catch) specialised to Go errors.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}
