package dataflow

import (
	analysis "github.com/lirtools/analysis"
	"github.com/lirtools/analysis/lattice"
	"github.com/lirtools/analysis/lir"
)

type intervalDomain struct{}

func (intervalDomain) FromConst(n int64) lattice.Interval { return lattice.Singleton(n) }
func (intervalDomain) Top() lattice.Interval              { return lattice.IntervalTop }

func (intervalDomain) Arith(op string, a, b lattice.Interval) lattice.Interval {
	return a.Arith(op, b)
}

func (intervalDomain) Cmp(op string, a, b lattice.Interval) lattice.Interval {
	return a.Cmp(op, b)
}

// negate maps a comparison to its complement for the fall-through edge.
func negate(op string) string {
	switch op {
	case "eq":
		return "neq"
	case "neq":
		return "eq"
	case "lt":
		return "gte"
	case "lte":
		return "gt"
	case "gt":
		return "lte"
	case "gte":
		return "lt"
	}
	return op
}

// Refine narrows the store along a branch edge. The condition variable is
// constrained to zero / nonzero, and when the condition is the result of a
// comparison in the same block, both comparison operands are narrowed
// against each other's interval.
func (d intervalDomain) Refine(st lattice.Store[lattice.Interval], branch *lir.Branch, cmp *lir.Cmp, taken bool) {
	if !branch.Cond.IsConst() {
		name := branch.Cond.Var.Name
		cur := st.Get(name)
		if !cur.IsBot() {
			if taken {
				// cond ≠ 0 is expressible only when 0 is an endpoint.
				switch {
				case cur.Lo == lattice.Finite(0):
					st.Set(name, lattice.Range(lattice.Finite(1), cur.Hi))
				case cur.Hi == lattice.Finite(0):
					st.Set(name, lattice.Range(cur.Lo, lattice.Finite(-1)))
				}
			} else {
				st.Set(name, cur.Meet(lattice.Singleton(0)))
			}
		}
	}

	if cmp == nil {
		return
	}

	op := cmp.Rop
	if !taken {
		op = negate(op)
	}

	eval := func(o lir.Operand) lattice.Interval {
		if o.IsConst() {
			return lattice.Singleton(o.Const)
		}
		return st.Get(o.Var.Name)
	}

	a, b := eval(cmp.Op1), eval(cmp.Op2)
	if a.IsBot() || b.IsBot() {
		return
	}

	one := lattice.Finite(1)
	ra, rb := a, b
	switch op {
	case "eq":
		ra = a.Meet(b)
		rb = ra
	case "neq":
		ra = trimEndpoint(a, b)
		rb = trimEndpoint(b, a)
	case "lt":
		ra = a.Meet(lattice.Range(lattice.NegInf, b.Hi.Sub(one)))
		rb = b.Meet(lattice.Range(a.Lo.Add(one), lattice.PosInf))
	case "lte":
		ra = a.Meet(lattice.Range(lattice.NegInf, b.Hi))
		rb = b.Meet(lattice.Range(a.Lo, lattice.PosInf))
	case "gt":
		ra = a.Meet(lattice.Range(b.Lo.Add(one), lattice.PosInf))
		rb = b.Meet(lattice.Range(lattice.NegInf, a.Hi.Sub(one)))
	case "gte":
		ra = a.Meet(lattice.Range(b.Lo, lattice.PosInf))
		rb = b.Meet(lattice.Range(lattice.NegInf, a.Hi))
	}

	set := func(o lir.Operand, v lattice.Interval) {
		if !o.IsConst() && o.Var.Typ.IsInt() {
			st.Set(o.Var.Name, v)
		}
	}
	set(cmp.Op1, ra)
	set(cmp.Op2, rb)
}

// trimEndpoint shaves a ≠-excluded singleton off an interval endpoint.
func trimEndpoint(a, excluded lattice.Interval) lattice.Interval {
	if excluded.Lo != excluded.Hi {
		return a
	}
	one := lattice.Finite(1)
	switch {
	case a.Lo == excluded.Lo:
		return lattice.Range(a.Lo.Add(one), a.Hi)
	case a.Hi == excluded.Hi:
		return lattice.Range(a.Lo, a.Hi.Sub(one))
	default:
		return a
	}
}

// Intervals runs the interval analysis with loop-header widening on the
// named function and returns the formatted per-block exit stores.
func Intervals(p *lir.Program, funcName string, opts Options) (string, error) {
	fn, ok := p.Functions[funcName]
	if !ok {
		return "", analysis.Errorf(analysis.UnknownFunction, "%q", funcName)
	}

	a := &intAnalysis[lattice.Interval]{
		prog:       p,
		dom:        intervalDomain{},
		addrofInts: p.AddrTakenInts(fn, opts.AddrofGlobals),
		headers:    LoopHeaders(fn),
	}

	res, err := Run[lattice.Interval](fn, a)
	if err != nil {
		return "", err
	}
	exits, err := Exits[lattice.Interval](fn, a, res)
	if err != nil {
		return "", err
	}
	return FormatStores(res.Labels, exits), nil
}
