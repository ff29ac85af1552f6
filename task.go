// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// ID is a monotonically increasing task identifier.
// Each start assigns the next value; IDs are never reused.
type ID = uint32

// taskIDs is the process-wide source of task IDs.
var taskIDs atomix.Uint32

// State is the lifecycle state of a task.
type State uint8

const (
	// Running: parked until the next tick, or currently executing.
	Running State = iota
	// Suspended: parked on an event that has not delivered yet.
	Suspended
	// Completed: the body returned.
	Completed
	// Failed: the body raised an error, awaited a failed event or panicked.
	Failed
	// Cancelled: the task was cancelled before it finished.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether s is Completed, Failed or Cancelled.
func (s State) Terminal() bool {
	return s >= Completed
}

// Task is the executor's record of one started operation: its suspended
// continuation, its state and the failure handler bound at start.
//
// A Task is owned by the executor that started it and must only be used
// from that executor's goroutine.
type Task struct {
	id        ID
	key       string
	ex        *Executor
	run       stepper
	state     State
	err       error
	val       any
	onFailure func(error)
	stepping  bool
}

func newTask(ex *Executor, key string, run stepper, onFailure func(error)) *Task {
	return &Task{
		id:        taskIDs.Add(1),
		key:       key,
		ex:        ex,
		run:       run,
		onFailure: onFailure,
	}
}

// ID returns the task's unique identity.
func (t *Task) ID() ID { return t.id }

// Key returns the key the task was started under, or "".
func (t *Task) Key() string { return t.key }

// State returns the current state.
func (t *Task) State() State { return t.state }

// Err returns the failure of a Failed task, ErrCancelled (or ErrDisposed)
// for a Cancelled task, and nil otherwise.
func (t *Task) Err() error { return t.err }

// Value returns the body's result once the task has Completed.
func (t *Task) Value() any { return t.val }

// Poll implements Event so that one task can await another (see Join).
func (t *Task) Poll() (*Task, error) {
	switch t.state {
	case Completed:
		return t, nil
	case Failed, Cancelled:
		return nil, t.err
	}
	return nil, iox.ErrWouldBlock
}

// Cancel stops the task. The held continuation is dropped without running
// any further step and no failure handler is invoked. Cancel reports
// whether the task was still active. It may be called from any body on the
// same executor, including the task's own.
func (t *Task) Cancel() bool {
	return t.cancel(ErrCancelled)
}

func (t *Task) cancel(reason error) bool {
	if t.state.Terminal() {
		return false
	}
	t.state = Cancelled
	t.err = reason
	ev := t.ex.log.Debug().Uint32("task", t.id).Str("key", t.key)
	if t.run != nil {
		if aw, ok := t.run.pending().(awaiter); ok {
			ev = ev.Str("awaiting", fmt.Sprintf("%T", aw.event()))
			aw.abandon(t.ex.log)
		}
		if !t.stepping {
			t.run.discard()
			t.run = nil
		}
	}
	t.ex.release(t)
	ev.Msg("task cancelled")
	return true
}

// step runs the body once: its first stretch when first is set, otherwise
// one dispatch of its parked operation.
func (t *Task) step(first bool) {
	t.stepping = true
	var (
		p   progress
		err error
	)
	if first {
		p, err = guarded(t.run.begin)
	} else {
		p, err = guarded(t.run.advance)
	}
	t.stepping = false

	if t.state == Cancelled {
		// Cancelled from inside its own step.
		if aw, ok := t.run.pending().(awaiter); ok {
			aw.abandon(t.ex.log)
		}
		t.run.discard()
		t.run = nil
		return
	}
	if err != nil {
		t.fail(err)
		return
	}
	switch p {
	case finished:
		t.complete()
	case parked:
		if _, ok := t.run.pending().(awaiter); ok {
			t.state = Suspended
		} else {
			t.state = Running
		}
	case blocked:
	}
	if p != blocked {
		t.ex.resumed++
	}
}

func (t *Task) complete() {
	t.state = Completed
	t.val = t.run.value()
	t.run = nil
	t.ex.release(t)
	t.ex.log.Debug().Uint32("task", t.id).Str("key", t.key).Msg("task completed")
}

// fail routes err to the bound handler, or to the diagnostic sink when no
// handler was bound. Neither path lets a panic escape.
func (t *Task) fail(err error) {
	t.state = Failed
	t.err = err
	if t.run != nil {
		t.run.discard()
		t.run = nil
	}
	t.ex.release(t)
	t.ex.log.Debug().Uint32("task", t.id).Str("key", t.key).Err(err).Msg("task failed")

	if t.onFailure == nil {
		t.ex.report(&FailureError{ID: t.id, Key: t.key, Err: err})
		return
	}
	handler := t.onFailure
	t.onFailure = nil
	if herr := callHandler(handler, err); herr != nil {
		t.ex.report(&FailureError{ID: t.id, Key: t.key, Err: herr})
	}
}

func callHandler(handler func(error), err error) (perr error) {
	defer func() {
		if r := recover(); r != nil {
			perr = &PanicError{Value: r}
		}
	}()
	handler(err)
	return nil
}
