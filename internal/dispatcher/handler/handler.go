// Package handler defines widget functions and their results.
package handler

import "github.com/dshills/keyline/internal/dispatcher/execctx"

// Func is a native or completion widget function.
type Func func(ctx *execctx.Context) Result

// Chain runs fns in order and returns the first failing result, or the
// last result.
func Chain(fns ...Func) Func {
	return func(ctx *execctx.Context) Result {
		r := NoOp()
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if r = fn(ctx); r.Failed() {
				return r
			}
		}
		return r
	}
}
