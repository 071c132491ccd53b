package dataflow

import (
	"fmt"
	"strings"

	"github.com/lirtools/analysis/lattice"
	"github.com/lirtools/analysis/lir"
)

// intDomain abstracts over the two integer value domains so the constant and
// interval analyses share one transfer function.
type intDomain[V lattice.Value[V]] interface {
	FromConst(n int64) V
	Top() V
	Arith(op string, a, b V) V
	Cmp(op string, a, b V) V
	// Refine narrows st under the assumption that branch's condition held
	// (taken) or did not; cmp is the comparison defining the condition, if
	// any. Domains without refinement leave st untouched.
	Refine(st lattice.Store[V], branch *lir.Branch, cmp *lir.Cmp, taken bool)
}

// intAnalysis is the shared intraprocedural integer analysis. It tracks only
// int-typed variables; pointer-typed definitions clear their target, and
// stores through pointers weakly update the address-taken int set.
type intAnalysis[V lattice.Value[V]] struct {
	prog       *lir.Program
	dom        intDomain[V]
	addrofInts map[string]bool
	headers    map[string]bool
}

func (a *intAnalysis[V]) EntryStore(fn *lir.Function) lattice.Store[V] {
	st := lattice.Store[V]{}
	for _, prm := range fn.Params {
		if prm.Typ.IsInt() {
			st.Set(prm.Name, a.dom.Top())
		}
	}
	return st
}

func (a *intAnalysis[V]) WidenAt(label string) bool { return a.headers[label] }

func (a *intAnalysis[V]) eval(st lattice.Store[V], op lir.Operand) V {
	if op.IsConst() {
		return a.dom.FromConst(op.Const)
	}
	return st.Get(op.Var.Name)
}

func (a *intAnalysis[V]) Transfer(fn *lir.Function, bb *lir.BasicBlock, entry lattice.Store[V]) (lattice.Store[V], []Delta[V], error) {
	st := entry.Clone()

	for _, inst := range bb.Insts {
		if err := a.step(st, inst); err != nil {
			return nil, nil, err
		}
	}

	switch t := bb.Term.(type) {
	case *lir.Jump:
		return st, []Delta[V]{{t.Label, st}}, nil

	case *lir.Branch:
		cmp := definingCmp(bb, t.Cond)
		tt, ff := st.Clone(), st.Clone()
		a.dom.Refine(tt, t, cmp, true)
		a.dom.Refine(ff, t, cmp, false)
		return st, []Delta[V]{{t.TT, tt}, {t.FF, ff}}, nil

	case *lir.Ret:
		return st, nil, nil

	case *lir.CallDir:
		a.havoc(st, t.Lhs)
		return st, []Delta[V]{{t.NextBB, st}}, nil

	case *lir.CallIdr:
		a.havoc(st, t.Lhs)
		return st, []Delta[V]{{t.NextBB, st}}, nil

	case *lir.CallExt:
		a.havoc(st, t.Lhs)
		return st, []Delta[V]{{t.NextBB, st}}, nil

	default:
		return nil, nil, fmt.Errorf("unhandled terminal %v", bb.Term)
	}
}

// definingCmp finds the last comparison in bb that defines the branch
// condition; refinement only applies when the condition is a fresh
// comparison result.
func definingCmp(bb *lir.BasicBlock, cond lir.Operand) *lir.Cmp {
	if cond.IsConst() {
		return nil
	}
	var found *lir.Cmp
	for _, inst := range bb.Insts {
		switch t := inst.(type) {
		case *lir.Cmp:
			if t.Lhs.Name == cond.Var.Name {
				found = t
			}
		case *lir.Copy:
			if t.Lhs.Name == cond.Var.Name {
				found = nil
			}
		case *lir.Arith:
			if t.Lhs.Name == cond.Var.Name {
				found = nil
			}
		case *lir.Load:
			if t.Lhs.Name == cond.Var.Name {
				found = nil
			}
		}
	}
	return found
}

func (a *intAnalysis[V]) step(st lattice.Store[V], inst lir.Instruction) error {
	var bot V
	switch t := inst.(type) {
	case *lir.Copy:
		if t.Lhs.Typ.IsInt() {
			st.Set(t.Lhs.Name, a.eval(st, t.Op))
		}

	case *lir.Arith:
		st.Set(t.Lhs.Name, a.dom.Arith(t.Aop, a.eval(st, t.Op1), a.eval(st, t.Op2)))

	case *lir.Cmp:
		st.Set(t.Lhs.Name, a.dom.Cmp(t.Rop, a.eval(st, t.Op1), a.eval(st, t.Op2)))

	case *lir.Alloc:
		st.Set(t.Lhs.Name, bot)

	case *lir.Addrof:
		st.Set(t.Lhs.Name, bot)

	case *lir.Gep:
		st.Set(t.Lhs.Name, bot)

	case *lir.Gfp:
		st.Set(t.Lhs.Name, bot)

	case *lir.Load:
		if t.Lhs.Typ.IsInt() {
			// The loaded cell may be any address-taken int.
			st.Set(t.Lhs.Name, a.dom.Top())
		} else {
			st.Set(t.Lhs.Name, bot)
		}

	case *lir.Store:
		// Weak update: the store may hit any address-taken int.
		v := a.eval(st, t.Op)
		for name := range a.addrofInts {
			st.Set(name, st.Get(name).Join(v))
		}

	default:
		return fmt.Errorf("unhandled instruction %v", inst)
	}
	return nil
}

// havoc applies the post-call state: any address-taken int and the int-typed
// return target may have been rewritten by the callee.
func (a *intAnalysis[V]) havoc(st lattice.Store[V], lhs *lir.Variable) {
	for name := range a.addrofInts {
		st.Set(name, a.dom.Top())
	}
	if lhs != nil && lhs.Typ.IsInt() {
		st.Set(lhs.Name, a.dom.Top())
	}
}

// FormatStores renders the per-block printout: each ever-enqueued block in
// ascending label order, its store one indented "var -> val" line per
// variable, blocks separated by a blank line.
func FormatStores[V lattice.Value[V]](labels []string, exits map[string]lattice.Store[V]) string {
	var b strings.Builder
	for _, label := range labels {
		b.WriteString(label)
		b.WriteString(":\n")
		st := exits[label]
		for _, name := range st.Names() {
			fmt.Fprintf(&b, "  %s -> %s\n", name, st.Get(name))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
