// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"code.hybscloud.com/kont"
)

// Deadline starts a watchdog on ex that cancels t if it is still active
// after the given number of ticks. The watchdog finishes early once t is
// terminal. Parking on an event has no timeout of its own; this is the
// layer that adds one.
func Deadline(ex *Executor, t *Task, ticks int) *Task {
	watch := Loop(ticks, func(left int) kont.Eff[kont.Either[int, bool]] {
		if t.State().Terminal() {
			return kont.Pure(kont.Right[int](false))
		}
		if left <= 0 {
			return kont.Pure(kont.Right[int](t.Cancel()))
		}
		return YieldThen(kont.Pure(kont.Left[int, bool](left - 1)))
	})
	return Start(ex, watch, nil)
}
