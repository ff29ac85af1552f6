// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"slices"

	"code.hybscloud.com/kont"
)

// Binding ties an executor to the attached lifetime of an owner.
//
// The owner calls Frame from its per-frame callback and Detach when it is
// torn down. The executor is borrowed by everything else for the duration
// of the attachment; only Detach disposes it.
type Binding struct {
	ex       *Executor
	host     *Host
	cleanups []func()
	detached bool
}

// Attach creates an executor for an owner. The binding is not registered
// with any host; the owner drives it with Frame.
func Attach(opts Options) *Binding {
	return &Binding{ex: New(opts)}
}

// Executor returns the bound executor.
func (b *Binding) Executor() *Executor { return b.ex }

// Detached reports whether Detach has been called.
func (b *Binding) Detached() bool { return b.detached }

// Frame ticks the executor once. Returns ErrDetached after Detach.
func (b *Binding) Frame() error {
	if b.detached {
		return ErrDetached
	}
	return b.ex.Tick()
}

// Detach unsubscribes every notification source, cancels all tasks,
// disposes the executor and leaves the host. Idempotent. Late deliveries
// to events the cancelled tasks were awaiting are discarded.
func (b *Binding) Detach() {
	if b.detached {
		return
	}
	b.detached = true
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		b.cleanups[i]()
	}
	b.cleanups = nil
	b.ex.CancelAll()
	b.ex.Dispose()
	if b.host != nil {
		b.host.remove(b)
		b.host = nil
	}
}

// Scope attaches a binding, runs fn with it and detaches on every exit
// path. A panic in fn propagates after the binding is torn down.
func Scope(opts Options, fn func(b *Binding) error) error {
	b := Attach(opts)
	defer b.Detach()
	return fn(b)
}

// Source is an injected notification source, such as scene-loaded
// notifications. Subscribe registers fn and returns a function that
// removes it.
type Source[T any] interface {
	Subscribe(fn func(T)) (unsubscribe func())
}

// Subscribe starts one task per notification from src on b's executor,
// built by start and bound to onFailure. The subscription ends on Detach.
func Subscribe[T, R any](b *Binding, src Source[T], start func(T) kont.Eff[R], onFailure func(error)) {
	if b.detached {
		return
	}
	unsubscribe := src.Subscribe(func(v T) {
		if b.detached {
			return
		}
		Start(b.ex, start(v), onFailure)
	})
	b.cleanups = append(b.cleanups, unsubscribe)
}

// Signal is a Source that delivers Emit calls to its subscribers in
// subscription order. It is not safe for concurrent use.
type Signal[T any] struct {
	subs []*signalSub[T]
}

type signalSub[T any] struct {
	fn func(T)
}

// Subscribe implements Source.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	sub := &signalSub[T]{fn: fn}
	s.subs = append(s.subs, sub)
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(x *signalSub[T]) bool { return x == sub })
	}
}

// Emit notifies every current subscriber.
func (s *Signal[T]) Emit(v T) {
	for _, sub := range slices.Clone(s.subs) {
		sub.fn(v)
	}
}

// Len returns the number of subscribers.
func (s *Signal[T]) Len() int { return len(s.subs) }

// Host is the host runtime's single per-frame callback fanned out to
// every attached binding, in attach order.
type Host struct {
	bindings []*Binding
}

// NewHost creates a host with no bindings.
func NewHost() *Host { return &Host{} }

// Attach creates a binding driven by the host's Frame.
func (h *Host) Attach(opts Options) *Binding {
	b := Attach(opts)
	b.host = h
	h.bindings = append(h.bindings, b)
	return b
}

// Frame ticks every attached binding once. Bindings attached during the
// frame are ticked from the next frame; bindings detached during the frame
// are skipped.
func (h *Host) Frame() {
	for _, b := range slices.Clone(h.bindings) {
		if !b.detached {
			_ = b.Frame()
		}
	}
}

// Len returns the number of attached bindings.
func (h *Host) Len() int { return len(h.bindings) }

// Close detaches every binding.
func (h *Host) Close() {
	for _, b := range slices.Clone(h.bindings) {
		b.Detach()
	}
	h.bindings = nil
}

func (h *Host) remove(b *Binding) {
	h.bindings = slices.DeleteFunc(h.bindings, func(x *Binding) bool { return x == b })
}
