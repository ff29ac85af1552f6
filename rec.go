// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"code.hybscloud.com/kont"
)

// Loop runs a multi-step body (Cont-world), such as a retrying handshake
// or a per-tick polling wait.
// step returns Left(nextState) to continue or Right(result) to finish.
// Each iteration that suspends costs at least one tick; iterations that
// do not suspend run back to back within the same step.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if next, ok := e.GetLeft(); ok {
			return Loop(next, step)
		}
		done, _ := e.GetRight()
		return kont.Pure(done)
	})
}

// ExprLoop runs a multi-step body (Expr-world).
// step returns Left(nextState) to continue or Right(result) to finish.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	return kont.Reify(Loop(initial, func(s S) kont.Eff[kont.Either[S, A]] {
		return kont.Reflect(step(s))
	}))
}
