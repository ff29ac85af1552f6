// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro_test

import (
	"errors"
	"slices"
	"testing"

	"code.hybscloud.com/coro"
	"code.hybscloud.com/kont"
)

func TestBindingFrameAndDetach(t *testing.T) {
	rec := &recorder{}
	b := coro.Attach(coro.Options{Reporter: rec})
	var f failures

	p1 := coro.NewPromise[int]()
	p2 := coro.NewPromise[string]()
	t1 := coro.Start(b.Executor(), coro.AwaitThen[int](p1, kont.Pure(struct{}{})), f.handle)
	t2 := coro.Start(b.Executor(), coro.AwaitThen[string](p2, kont.Pure(struct{}{})), f.handle)

	for range 3 {
		if err := b.Frame(); err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}
	b.Detach()

	if t1.State() != coro.Cancelled || t2.State() != coro.Cancelled {
		t.Fatalf("states got %v %v, want cancelled", t1.State(), t2.State())
	}
	if err := p1.Resolve(1); err != nil {
		t.Fatalf("late Resolve: %v", err)
	}
	if err := p2.Reject(errBoom); err != nil {
		t.Fatalf("late Reject: %v", err)
	}
	if err := b.Frame(); !errors.Is(err, coro.ErrDetached) {
		t.Fatalf("Frame after detach got %v, want ErrDetached", err)
	}
	if len(f.errs) != 0 || len(rec.errs) != 0 {
		t.Fatalf("teardown produced notifications: %v %v", f.errs, rec.errs)
	}
	if !b.Detached() || !b.Executor().Disposed() {
		t.Fatal("detach must dispose the executor")
	}
	b.Detach()
}

func TestScopeDetachesOnReturn(t *testing.T) {
	var task *coro.Task
	err := coro.Scope(coro.Options{Reporter: coro.NopReporter{}}, func(b *coro.Binding) error {
		task = coro.Start(b.Executor(), coro.Sleep(10), nil)
		return b.Frame()
	})
	if err != nil {
		t.Fatalf("Scope: %v", err)
	}
	if task.State() != coro.Cancelled {
		t.Fatalf("state got %v, want cancelled", task.State())
	}
}

func TestScopeDetachesOnError(t *testing.T) {
	var task *coro.Task
	err := coro.Scope(coro.Options{Reporter: coro.NopReporter{}}, func(b *coro.Binding) error {
		task = coro.Start(b.Executor(), coro.Sleep(10), nil)
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Scope got %v", err)
	}
	if task.State() != coro.Cancelled {
		t.Fatalf("state got %v, want cancelled", task.State())
	}
}

func TestScopeDetachesOnPanic(t *testing.T) {
	var b *coro.Binding
	var task *coro.Task
	func() {
		defer func() {
			if r := recover(); r != "abnormal" {
				t.Fatalf("recovered %v, want abnormal", r)
			}
		}()
		_ = coro.Scope(coro.Options{Reporter: coro.NopReporter{}}, func(sb *coro.Binding) error {
			b = sb
			task = coro.Start(sb.Executor(), coro.Sleep(10), nil)
			panic("abnormal")
		})
	}()
	if !b.Detached() || task.State() != coro.Cancelled {
		t.Fatal("panic exit path must detach")
	}
}

func TestHostFramesBindingsInOrder(t *testing.T) {
	h := coro.NewHost()
	var log []string
	b1 := h.Attach(coro.Options{Name: "scene", Reporter: coro.NopReporter{}})
	b2 := h.Attach(coro.Options{Name: "ui", Reporter: coro.NopReporter{}})
	coro.Start(b1.Executor(), stepLog(&log, "scene", 2), nil)
	coro.Start(b2.Executor(), stepLog(&log, "ui", 2), nil)

	h.Frame()
	if want := []string{"scene", "ui"}; !slices.Equal(log, want) {
		t.Fatalf("frame 1 got %v, want %v", log, want)
	}
	if h.Len() != 2 {
		t.Fatalf("bindings got %d", h.Len())
	}

	b1.Detach()
	if h.Len() != 1 {
		t.Fatalf("detach must leave the host: %d", h.Len())
	}
	h.Frame()
	if want := []string{"scene", "ui", "ui"}; !slices.Equal(log, want) {
		t.Fatalf("frame 2 got %v, want %v", log, want)
	}

	h.Close()
	if h.Len() != 0 || !b2.Detached() {
		t.Fatal("Close must detach every binding")
	}
}

func TestHostDetachDuringFrame(t *testing.T) {
	h := coro.NewHost()
	var log []string
	b1 := h.Attach(coro.Options{Reporter: coro.NopReporter{}})
	b2 := h.Attach(coro.Options{Reporter: coro.NopReporter{}})
	coro.Start(b1.Executor(), coro.YieldThen(kont.Bind(kont.Pure(struct{}{}), func(struct{}) kont.Eff[struct{}] {
		b2.Detach()
		return kont.Pure(struct{}{})
	})), nil)
	coro.Start(b2.Executor(), stepLog(&log, "b2", 1), nil)

	h.Frame()
	if len(log) != 0 {
		t.Fatalf("detached binding was ticked: %v", log)
	}
	if h.Len() != 1 {
		t.Fatalf("bindings got %d, want 1", h.Len())
	}
}

func TestSubscribeStartsTaskPerNotification(t *testing.T) {
	var scenes coro.Signal[string]
	b := coro.Attach(coro.Options{Reporter: coro.NopReporter{}})
	var entered []string
	var f failures

	coro.Subscribe(b, &scenes, func(scene string) kont.Eff[struct{}] {
		return coro.YieldThen(kont.Bind(kont.Pure(struct{}{}), func(struct{}) kont.Eff[struct{}] {
			if scene == "broken" {
				return coro.Fail[struct{}](errBoom)
			}
			entered = append(entered, scene)
			return kont.Pure(struct{}{})
		}))
	}, f.handle)

	scenes.Emit("lobby")
	scenes.Emit("broken")
	if b.Executor().Active() != 2 {
		t.Fatalf("active got %d, want 2", b.Executor().Active())
	}
	if err := b.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if !slices.Equal(entered, []string{"lobby"}) || len(f.errs) != 1 {
		t.Fatalf("entered %v failures %v", entered, f.errs)
	}

	b.Detach()
	if scenes.Len() != 0 {
		t.Fatal("detach must unsubscribe")
	}
	scenes.Emit("town")
	if len(entered) != 1 {
		t.Fatal("notification after detach must not start work")
	}
	coro.Subscribe(b, &scenes, func(string) kont.Eff[struct{}] { return kont.Pure(struct{}{}) }, nil)
	if scenes.Len() != 0 {
		t.Fatal("subscribe after detach must be ignored")
	}
}

func TestSignalUnsubscribe(t *testing.T) {
	var s coro.Signal[int]
	var got []int
	off1 := s.Subscribe(func(v int) { got = append(got, v) })
	off2 := s.Subscribe(func(v int) { got = append(got, v*10) })
	s.Emit(1)
	off1()
	s.Emit(2)
	off2()
	s.Emit(3)
	if want := []int{1, 10, 20}; !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
