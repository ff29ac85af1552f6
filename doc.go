// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package coro provides a frame-driven cooperative task scheduler built on
// the stepping boundary of [code.hybscloud.com/kont].
//
// A host runtime calls one callback per rendering frame. Operations such as
// connection handshakes, scene-load waits and request/response flows are
// written as continuation bodies that suspend at effect operations and are
// driven one step per frame by an [Executor].
//
// # Architecture
//
//   - Suspension: [Yield] resumes on the next tick, [Await] resumes when an [Event] delivers.
//   - Slots: every start creates a [Task] that owns its suspended continuation exclusively.
//   - Executor: [Executor.Tick] advances each registered task once, in registration order.
//   - Lifecycle: [Binding] ties an executor to an owner; [Binding.Detach] cancels and disposes it.
//   - Failures: thrown errors, rejected events and panics stop at the task boundary and are
//     routed to the failure handler bound at start, or to the executor's [Reporter].
//
// # API Topologies
//
//   - Operations: [Yield], [Await]. Errors are raised with [Fail].
//   - Cont-world: [YieldThen], [AwaitBind], [AwaitThen], [Sleep], [Join], [Loop].
//   - Expr-world: [ExprYieldThen], [ExprAwaitBind], [ExprAwaitThen], [ExprFail], [ExprLoop].
//   - Starting: [Start], [StartExpr], [StartKeyed], [StartKeyedExpr]. Keyed starts follow [Policy].
//   - Events: [Promise] is settled from any goroutine through a lock-free SPSC queue.
//
// # Integration
//
//   - Frame loop: call [Binding.Frame] (or [Host.Frame]) from the per-frame callback.
//   - Blocking: [Run] and [RunExpr] drive a body to completion on the calling goroutine
//     with adaptive backoff, for tools and tests without a frame loop.
//   - Configuration: [ParseConfig] and [LoadConfig] read YAML into [Options].
//
// # Example
//
//	b := coro.Attach(coro.Options{})
//	defer b.Detach()
//
//	resp := coro.NewPromise[string]()
//	coro.Start(b.Executor(), coro.AwaitBind[string](resp, func(s string) kont.Eff[struct{}] {
//		fmt.Println("got", s)
//		return kont.Pure(struct{}{})
//	}), func(err error) {
//		fmt.Println("operation failed:", err)
//	})
//
//	go func() { _ = resp.Resolve("hello") }()
//	for b.Executor().Active() > 0 {
//		_ = b.Frame()
//	}
package coro
