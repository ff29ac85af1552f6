// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"fmt"
	"strings"

	"code.hybscloud.com/kont"
	"github.com/rs/zerolog"
)

// Policy decides what StartKeyed does when a live task already runs under
// the same key.
type Policy uint8

const (
	// PolicyIndependent starts a new task on every call. Keys are only
	// labels for logs and reports.
	PolicyIndependent Policy = iota
	// PolicyJoin returns the live task and does not start the new body.
	PolicyJoin
	// PolicyReplace cancels the live task and starts the new body.
	PolicyReplace
)

func (p Policy) String() string {
	switch p {
	case PolicyIndependent:
		return "independent"
	case PolicyJoin:
		return "join"
	case PolicyReplace:
		return "replace"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// ParsePolicy parses "independent", "join" or "replace".
// The empty string is PolicyIndependent.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "independent":
		return PolicyIndependent, nil
	case "join":
		return PolicyJoin, nil
	case "replace":
		return PolicyReplace, nil
	}
	return 0, fmt.Errorf("coro: unknown policy %q", s)
}

// Options configures an Executor. The zero value is ready to use.
type Options struct {
	// Name labels the executor in logs.
	Name string
	// Policy applies to StartKeyed.
	Policy Policy
	// Logger receives debug-level lifecycle logs. Nil disables them.
	Logger *zerolog.Logger
	// Reporter receives failures of tasks started without a failure
	// handler. Nil uses DefaultReporter.
	Reporter Reporter
}

// Executor drives tasks forward once per Tick.
//
// An Executor is single-threaded: Start, Tick, CancelAll and Dispose must
// all be called from the goroutine that runs the frame loop. Ticks are
// strictly serialized; a Tick issued from inside a Tick is rejected.
type Executor struct {
	name     string
	policy   Policy
	log      zerolog.Logger
	reporter Reporter

	slots    []*Task
	incoming []*Task
	index    map[ID]*Task
	keyed    map[string]*Task

	ticking  bool
	disposed bool
	ticks    uint64
	resumed  uint64
}

// New creates an executor.
func New(opts Options) *Executor {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.Name != "" {
		log = log.With().Str("executor", opts.Name).Logger()
	}
	r := opts.Reporter
	if r == nil {
		r = DefaultReporter()
	}
	return &Executor{
		name:     opts.Name,
		policy:   opts.Policy,
		log:      log,
		reporter: r,
		index:    make(map[ID]*Task),
		keyed:    make(map[string]*Task),
	}
}

// Start starts body on ex with an optional failure handler.
//
// The body runs synchronously up to its first suspension: a body that never
// suspends is terminal when Start returns and is never registered. Every
// call starts an independent task.
func Start[R any](ex *Executor, body kont.Eff[R], onFailure func(error)) *Task {
	return ex.start("", newBody(reified(body)), onFailure)
}

// StartExpr is Start for an Expr-world body.
func StartExpr[R any](ex *Executor, body kont.Expr[R], onFailure func(error)) *Task {
	return ex.start("", newBody(constant(body)), onFailure)
}

// StartKeyed starts body under key according to the executor's Policy.
// Under PolicyJoin and PolicyReplace at most one live task exists per key.
func StartKeyed[R any](ex *Executor, key string, body kont.Eff[R], onFailure func(error)) *Task {
	return ex.startKeyed(key, func() stepper { return newBody(reified(body)) }, onFailure)
}

// StartKeyedExpr is StartKeyed for an Expr-world body.
func StartKeyedExpr[R any](ex *Executor, key string, body kont.Expr[R], onFailure func(error)) *Task {
	return ex.startKeyed(key, func() stepper { return newBody(constant(body)) }, onFailure)
}

func reified[R any](body kont.Eff[R]) func() kont.Expr[R] {
	return func() kont.Expr[R] { return kont.Reify(body) }
}

func constant[R any](body kont.Expr[R]) func() kont.Expr[R] {
	return func() kont.Expr[R] { return body }
}

func (e *Executor) startKeyed(key string, mk func() stepper, onFailure func(error)) *Task {
	if live, ok := e.keyed[key]; ok && !e.disposed {
		switch e.policy {
		case PolicyJoin:
			e.log.Debug().Str("key", key).Uint32("task", live.id).Msg("joined live task")
			return live
		case PolicyReplace:
			e.log.Debug().Str("key", key).Uint32("task", live.id).Msg("replacing live task")
			live.Cancel()
		}
	}
	return e.start(key, mk(), onFailure)
}

func (e *Executor) start(key string, run stepper, onFailure func(error)) *Task {
	t := newTask(e, key, run, onFailure)
	if e.disposed {
		e.log.Warn().Uint32("task", t.id).Str("key", key).Msg("start on disposed executor")
		t.run = nil
		t.state = Cancelled
		t.err = ErrDisposed
		return t
	}
	e.log.Debug().Uint32("task", t.id).Str("key", key).Msg("task started")
	t.step(true)
	if t.state.Terminal() {
		return t
	}
	e.index[t.id] = t
	if key != "" && e.policy != PolicyIndependent {
		e.keyed[key] = t
	}
	if e.ticking {
		e.incoming = append(e.incoming, t)
	} else {
		e.slots = append(e.slots, t)
	}
	return t
}

// Tick advances every registered task exactly once, in registration order,
// then removes tasks that became terminal. Tasks started during the tick
// are first advanced by the next Tick. Failures never propagate out of
// Tick; the only errors are ErrReentrantTick and ErrDisposed.
func (e *Executor) Tick() error {
	if e.disposed {
		return ErrDisposed
	}
	if e.ticking {
		return ErrReentrantTick
	}
	e.ticking = true
	defer func() { e.ticking = false }()

	e.ticks++
	for _, t := range e.slots {
		if !t.state.Terminal() {
			t.step(false)
		}
	}
	e.sweep()
	return nil
}

// sweep drops terminal tasks and admits tasks started during the tick.
func (e *Executor) sweep() {
	if e.disposed {
		return
	}
	n := 0
	for _, t := range e.slots {
		if t.state.Terminal() {
			delete(e.index, t.id)
			continue
		}
		e.slots[n] = t
		n++
	}
	clear(e.slots[n:])
	e.slots = e.slots[:n]
	for _, t := range e.incoming {
		if t.state.Terminal() {
			delete(e.index, t.id)
			continue
		}
		e.slots = append(e.slots, t)
	}
	clear(e.incoming)
	e.incoming = e.incoming[:0]
}

// release forgets t's key once t is terminal.
func (e *Executor) release(t *Task) {
	if t.key == "" {
		return
	}
	if cur, ok := e.keyed[t.key]; ok && cur == t {
		delete(e.keyed, t.key)
	}
}

// CancelAll cancels every active task without invoking failure handlers
// and returns how many were cancelled.
func (e *Executor) CancelAll() int {
	n := 0
	for _, list := range [][]*Task{e.slots, e.incoming} {
		for _, t := range list {
			if t.Cancel() {
				n++
			}
		}
	}
	return n
}

// Dispose cancels every active task and releases the executor's storage.
// Idempotent. After Dispose, Tick returns ErrDisposed and Start returns
// tasks that are already cancelled.
func (e *Executor) Dispose() {
	if e.disposed {
		return
	}
	e.CancelAll()
	e.disposed = true
	e.slots = nil
	e.incoming = nil
	e.index = nil
	e.keyed = nil
	e.log.Debug().Uint64("ticks", e.ticks).Msg("executor disposed")
}

// Lookup returns the registered task with the given ID. Terminal tasks
// stay visible until the next housekeeping pass.
func (e *Executor) Lookup(id ID) (*Task, bool) {
	t, ok := e.index[id]
	return t, ok
}

// Active returns the number of registered tasks, including terminal tasks
// that have not been swept yet.
func (e *Executor) Active() int {
	return len(e.slots) + len(e.incoming)
}

// Ticks returns the number of completed Tick calls.
func (e *Executor) Ticks() uint64 { return e.ticks }

// Disposed reports whether Dispose has been called.
func (e *Executor) Disposed() bool { return e.disposed }

// Name returns the executor's name.
func (e *Executor) Name() string { return e.name }

// report hands err to the diagnostic sink. A panicking sink is contained.
func (e *Executor) report(err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("reporter panicked")
		}
	}()
	e.reporter.Report(err)
}
