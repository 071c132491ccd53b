// Package dataflow implements the monotone framework: abstract stores per
// block, per-instruction transfer functions, and a FIFO worklist iterated to
// fixpoint. The constant, interval and reaching-definitions analyses are
// clients of the same driver.
package dataflow

import (
	"golang.org/x/exp/slices"

	"github.com/lirtools/analysis/internal/worklist"
	"github.com/lirtools/analysis/lattice"
	"github.com/lirtools/analysis/lir"
)

// Delta is a store to join into a successor's entry store. Transfer
// functions return deltas in terminal order so iteration stays
// deterministic.
type Delta[V lattice.Value[V]] struct {
	Label string
	Store lattice.Store[V]
}

// Analysis binds a value domain to the worklist driver.
type Analysis[V lattice.Value[V]] interface {
	// EntryStore is the initial abstract store of the entry block.
	EntryStore(fn *lir.Function) lattice.Store[V]
	// Transfer computes a block's exit store and its successor deltas from
	// its entry store. The entry store is not mutated.
	Transfer(fn *lir.Function, bb *lir.BasicBlock, entry lattice.Store[V]) (lattice.Store[V], []Delta[V], error)
	// WidenAt reports whether joins into the labeled block are widened.
	WidenAt(label string) bool
}

// Result carries the fixpoint: the entry store of every block, and the
// labels of all blocks that were ever enqueued, ascending.
type Result[V lattice.Value[V]] struct {
	Entry  map[string]lattice.Store[V]
	Labels []string
}

// Run iterates a.Transfer over fn's blocks until no entry store changes.
// Termination follows from monotone transfer functions and either finite
// lattice height or widening at loop headers.
func Run[V lattice.Value[V]](fn *lir.Function, a Analysis[V]) (*Result[V], error) {
	entry := make(map[string]lattice.Store[V], len(fn.Body))
	for label := range fn.Body {
		entry[label] = lattice.Store[V]{}
	}
	entry[lir.Entry] = a.EntryStore(fn)

	var wl worklist.Worklist[string]
	wl.Push(lir.Entry)
	enqueued := map[string]bool{lir.Entry: true}

	for !wl.Empty() {
		label := wl.Pop()

		_, deltas, err := a.Transfer(fn, fn.Body[label], entry[label])
		if err != nil {
			return nil, err
		}

		for _, d := range deltas {
			old := entry[d.Label]
			next, changed := old.Join(d.Store)
			if a.WidenAt(d.Label) {
				next = old.Widen(next)
				changed = !next.Equal(old)
			}
			if changed {
				entry[d.Label] = next
				wl.Push(d.Label)
				enqueued[d.Label] = true
			}
		}
	}

	labels := make([]string, 0, len(enqueued))
	for label := range enqueued {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	return &Result[V]{Entry: entry, Labels: labels}, nil
}

// Exits executes the transfer function once more on every ever-enqueued
// block, yielding the exit stores used for reporting.
func Exits[V lattice.Value[V]](fn *lir.Function, a Analysis[V], res *Result[V]) (map[string]lattice.Store[V], error) {
	exit := make(map[string]lattice.Store[V], len(res.Labels))
	for _, label := range res.Labels {
		out, _, err := a.Transfer(fn, fn.Body[label], res.Entry[label])
		if err != nil {
			return nil, err
		}
		exit[label] = out
	}
	return exit, nil
}

// LoopHeaders finds the blocks to widen at: a depth-first traversal from
// entry with an explicit stack; a block reached again after being visited is
// a header. The explicit visited set also terminates on irreducible graphs.
func LoopHeaders(fn *lir.Function) map[string]bool {
	visited := make(map[string]bool)
	headers := make(map[string]bool)
	stack := []string{lir.Entry}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[cur] {
			headers[cur] = true
			continue
		}
		visited[cur] = true
		stack = append(stack, fn.Body[cur].Term.Successors()...)
	}
	return headers
}
