// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/coro"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

func TestRunPure(t *testing.T) {
	v, err := coro.Run(kont.Pure("now"))
	if err != nil || v != "now" {
		t.Fatalf("got %q %v", v, err)
	}
}

func TestRunSleep(t *testing.T) {
	v, err := coro.Run(coro.YieldThen(coro.YieldThen(kont.Pure(3))))
	if err != nil || v != 3 {
		t.Fatalf("got %d %v", v, err)
	}
}

func TestRunFailure(t *testing.T) {
	_, err := coro.Run(coro.YieldThen(coro.Fail[int](errBoom)))
	if !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want %v", err, errBoom)
	}
}

func TestRunExpr(t *testing.T) {
	v, err := coro.RunExpr(coro.ExprYieldThen(kont.ExprReturn(9)))
	if err != nil || v != 9 {
		t.Fatalf("got %d %v", v, err)
	}
}

func TestRunAwaitsPromiseFromGoroutine(t *testing.T) {
	skipRace(t)
	p := coro.NewPromise[string]()
	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = p.Resolve("response")
	}()
	v, err := coro.Run(coro.AwaitBind[string](p, func(s string) kont.Eff[string] {
		return kont.Pure(s + " handled")
	}))
	if err != nil || v != "response handled" {
		t.Fatalf("got %q %v", v, err)
	}
}

func TestExecDrivesStartedTask(t *testing.T) {
	ex, _ := newExecutor()
	var log []string
	other := coro.Start(ex, stepLog(&log, "other", 5), nil)
	task := coro.Start(ex, coro.Sleep(2), nil)
	if _, err := coro.Exec[struct{}](ex, task); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(log) != 2 || other.State().Terminal() {
		t.Fatalf("other task must be ticked alongside: %v", log)
	}
}

func TestExecDisposed(t *testing.T) {
	ex, _ := newExecutor()
	task := coro.Start(ex, coro.Sleep(2), nil)
	coro.Start(ex, coro.YieldThen(kont.Bind(kont.Pure(struct{}{}), func(struct{}) kont.Eff[struct{}] {
		ex.Dispose()
		return kont.Pure(struct{}{})
	})), nil)
	_, err := coro.Exec[struct{}](ex, task)
	if !errors.Is(err, coro.ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}

func TestResultOf(t *testing.T) {
	ex, _ := newExecutor()
	task := coro.Start(ex, coro.YieldThen(kont.Pure(4)), nil)
	if _, err := coro.ResultOf[int](task); !iox.IsWouldBlock(err) {
		t.Fatalf("pending got %v, want ErrWouldBlock", err)
	}
	tickN(t, ex, 1)
	v, err := coro.ResultOf[int](task)
	if err != nil || v != 4 {
		t.Fatalf("got %d %v", v, err)
	}
	cancelled := coro.Start(ex, coro.Sleep(1), nil)
	cancelled.Cancel()
	if _, err := coro.ResultOf[struct{}](cancelled); !errors.Is(err, coro.ErrCancelled) {
		t.Fatalf("cancelled got %v", err)
	}
}

func TestResultOfTypeMismatch(t *testing.T) {
	ex, _ := newExecutor()
	task := coro.Start(ex, kont.Pure("text"), nil)
	if _, err := coro.ResultOf[int](task); !errors.Is(err, coro.ErrResultType) {
		t.Fatalf("got %v, want ErrResultType", err)
	}
	if _, err := coro.Exec[int](ex, task); !errors.Is(err, coro.ErrResultType) {
		t.Fatalf("Exec got %v, want ErrResultType", err)
	}
	var nothing error
	empty := coro.Start(ex, kont.Pure(nothing), nil)
	if v, err := coro.ResultOf[error](empty); err != nil || v != nil {
		t.Fatalf("nil interface result got %v %v", v, err)
	}
}
