// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro_test

import (
	"testing"

	"code.hybscloud.com/coro"
	"code.hybscloud.com/iox"
)

// recorder is a Reporter that keeps every report.
type recorder struct {
	errs []error
}

func (r *recorder) Report(err error) { r.errs = append(r.errs, err) }

// newExecutor returns an executor whose unhandled failures land in rec.
func newExecutor() (*coro.Executor, *recorder) {
	rec := &recorder{}
	return coro.New(coro.Options{Reporter: rec}), rec
}

// failures counts failure handler calls.
type failures struct {
	errs []error
}

func (f *failures) handle(err error) { f.errs = append(f.errs, err) }

// gate is a single-goroutine Event: pending until open is called.
type gate[T any] struct {
	open  bool
	value T
	err   error
	polls int
}

func (g *gate[T]) Poll() (T, error) {
	g.polls++
	if !g.open {
		var zero T
		return zero, iox.ErrWouldBlock
	}
	return g.value, g.err
}

func (g *gate[T]) deliver(v T) {
	g.value = v
	g.open = true
}

func (g *gate[T]) fail(err error) {
	g.err = err
	g.open = true
}

// tickN ticks ex n times and fails the test on a tick error.
func tickN(t *testing.T, ex *coro.Executor, n int) {
	t.Helper()
	for range n {
		if err := ex.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
}
