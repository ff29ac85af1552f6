// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"code.hybscloud.com/kont"
)

// YieldThen waits one tick and then continues with next.
// Fuses Perform(Yield{}) + Then.
func YieldThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Yield{}), next)
}

// AwaitBind waits for e to deliver and passes the value to f.
// Fuses Perform(Await[T]{Event: e}) + Bind.
func AwaitBind[T, B any](e Event[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Await[T]{Event: e}), f)
}

// AwaitThen waits for e to deliver, discards the value and continues with next.
// A failed delivery still fails the task.
func AwaitThen[T, B any](e Event[T], next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Await[T]{Event: e}), next)
}

// Fail raises err at the current position of the body.
// Every enclosing Bind is skipped and the task fails with err.
func Fail[R any](err error) kont.Eff[R] {
	return kont.ThrowError[error, R](err)
}

// Sleep waits n ticks. Non-positive n completes without suspending.
func Sleep(n int) kont.Eff[struct{}] {
	return Loop(n, func(left int) kont.Eff[kont.Either[int, struct{}]] {
		if left <= 0 {
			return kont.Pure(kont.Right[int](struct{}{}))
		}
		return YieldThen(kont.Pure(kont.Left[int, struct{}](left - 1)))
	})
}

// Join waits for t to complete and resumes with t itself, whose Value is
// then available. If t failed, the joining task fails with the same error;
// if t was cancelled, it fails with ErrCancelled.
func Join(t *Task) kont.Eff[*Task] {
	return kont.Perform(Await[*Task]{Event: t})
}
