// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"github.com/rs/zerolog"
)

// Event is a pending result produced by an external collaborator, such as
// a network response or a scene-load notification.
//
// Poll returns iox.ErrWouldBlock while the result is pending. Once the
// event has delivered, Poll returns the value, or the event's failure as
// a non-nil error. An event delivers at most once and may be awaited by
// at most one task.
type Event[T any] interface {
	Poll() (T, error)
}

// deliveryCapacity is the bounded capacity of a promise's delivery queue.
// A promise settles at most once, so one slot would do; 2 keeps the ring
// a power of two.
const deliveryCapacity = 2

// outcome is the settled state carried through the delivery queue.
type outcome[T any] struct {
	value T
	err   error
}

// Promise is an Event settled by a producer, typically a network callback
// running on another goroutine.
//
// Delivery uses a bounded lock-free SPSC queue from lfq: the settling
// goroutine is the single producer and the executor's tick is the single
// consumer. Resolve and Reject may be called from any goroutine; Poll must
// only be called from the executor's goroutine.
//
// A delivery that races with the cancellation of its awaiting task is
// dropped and logged exactly once: by the executor when cancellation comes
// second, or on the producer's logger when the delivery comes second.
type Promise[T any] struct {
	q         lfq.SPSC[outcome[T]]
	settled   atomix.Uint32
	flags     atomix.Uint32
	slot      outcome[T]
	got       outcome[T]
	delivered bool
	log       zerolog.Logger
}

// Handshake bits between the producer and the executor.
const (
	flagSent      uint32 = 1 << iota // an outcome was enqueued
	flagAbandoned                    // the awaiting task was cancelled
)

// NewPromise creates a pending promise whose producer side does not log.
func NewPromise[T any]() *Promise[T] {
	return NewLoggedPromise[T](zerolog.Nop())
}

// NewLoggedPromise creates a pending promise. log is used by Resolve and
// Reject to record a delivery nobody awaits any more; it is fixed here so
// the producer goroutine never reads state written by the executor.
func NewLoggedPromise[T any](log zerolog.Logger) *Promise[T] {
	p := &Promise[T]{log: log}
	p.q.Init(deliveryCapacity)
	return p
}

// Resolved returns a promise already settled with v.
func Resolved[T any](v T) *Promise[T] {
	p := NewPromise[T]()
	_ = p.Resolve(v)
	return p
}

// Rejected returns a promise already settled with err.
func Rejected[T any](err error) *Promise[T] {
	p := NewPromise[T]()
	_ = p.Reject(err)
	return p
}

// Resolve delivers v. Returns ErrSettled if the promise was already settled.
func (p *Promise[T]) Resolve(v T) error {
	return p.settle(outcome[T]{value: v})
}

// Reject delivers err as the promise's failure. A nil err is replaced by
// ErrNilFailure. Returns ErrSettled if the promise was already settled.
func (p *Promise[T]) Reject(err error) error {
	if err == nil {
		err = ErrNilFailure
	}
	return p.settle(outcome[T]{err: err})
}

func (p *Promise[T]) settle(o outcome[T]) error {
	if !p.settled.CompareAndSwap(0, 1) {
		return ErrSettled
	}
	p.slot = o
	if err := p.q.Enqueue(&p.slot); err != nil {
		return err
	}
	if p.flags.OrAcqRel(flagSent)&flagAbandoned != 0 {
		p.log.Debug().Msg("coro: dangling event delivery discarded")
	}
	return nil
}

// Poll implements Event. Idempotent once the promise has delivered.
func (p *Promise[T]) Poll() (T, error) {
	if !p.delivered {
		o, err := p.q.Dequeue()
		if err != nil {
			var zero T
			return zero, iox.ErrWouldBlock
		}
		p.got = o
		p.delivered = true
	}
	return p.got.value, p.got.err
}

// Settled reports whether Resolve or Reject has been called.
func (p *Promise[T]) Settled() bool {
	return p.settled.Load() != 0
}

// abandon marks the promise as no longer awaited. An outcome already sent
// is dropped here and logged on log; a later one is logged by settle.
func (p *Promise[T]) abandon(log zerolog.Logger) {
	prev := p.flags.OrAcqRel(flagAbandoned)
	if prev&flagAbandoned == 0 && prev&flagSent != 0 {
		log.Debug().Msg("coro: dangling event delivery discarded")
	}
}
