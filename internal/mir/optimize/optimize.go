// Package optimize runs the fixed-point sequence of MIR-to-MIR passes
// described by spec §4.5: conditional constant propagation, inlining,
// unused-name elimination, loop induction variable elimination, and
// constant-parameter elimination. Each pass is a pure function of its
// input Sources; the sequence repeats until no pass reports a change.
package optimize

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// pass is one optimization pass over a Sources value, returning the
// rewritten Sources plus whether anything changed, so the driver can detect
// the fixed point (spec §4.5, "repeats until no pass reports change").
type pass func(h *heap.Heap, src *mir.Sources) (*mir.Sources, bool)

// maxRounds bounds the fixed-point loop so a pathological input cannot spin
// forever; well-formed programs converge in a handful of rounds.
const maxRounds = 100

// Run applies the full pass sequence to src repeatedly until a round leaves
// every pass reporting no change.
func Run(h *heap.Heap, src *mir.Sources) *mir.Sources {
	passes := []pass{
		runCCP,
		runInline,
		runUnusedElimination,
		runLoopInduction,
		runConstantParam,
	}
	cur := src
	for round := 0; round < maxRounds; round++ {
		changedAny := false
		for _, p := range passes {
			next, changed := p(h, cur)
			cur = next
			changedAny = changedAny || changed
		}
		if !changedAny {
			break
		}
	}
	return cur
}

func withFunctions(src *mir.Sources, fns []*mir.Function) *mir.Sources {
	next := *src
	next.Functions = fns
	return &next
}
