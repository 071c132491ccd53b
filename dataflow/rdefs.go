package dataflow

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"

	analysis "github.com/lirtools/analysis"
	"github.com/lirtools/analysis/lattice"
	"github.com/lirtools/analysis/lir"
)

// DefSet is the reaching-definitions value: the set of program points whose
// definition of a variable may still be observed. The nil map is BOT.
type DefSet map[string]bool

func DefsOf(pps ...string) DefSet {
	d := make(DefSet, len(pps))
	for _, pp := range pps {
		d[pp] = true
	}
	return d
}

func (d DefSet) IsBot() bool { return len(d) == 0 }

func (d DefSet) Join(o DefSet) DefSet {
	if len(o) == 0 {
		return d
	}
	if len(d) == 0 {
		return o
	}
	res := make(DefSet, len(d)+len(o))
	for pp := range d {
		res[pp] = true
	}
	for pp := range o {
		res[pp] = true
	}
	return res
}

// The powerset of program points is finite, so joining is already widening.
func (d DefSet) Widen(o DefSet) DefSet { return d.Join(o) }

func (d DefSet) Leq(o DefSet) bool {
	for pp := range d {
		if !o[pp] {
			return false
		}
	}
	return true
}

func (d DefSet) Equal(o DefSet) bool {
	return len(d) == len(o) && d.Leq(o)
}

func (d DefSet) String() string {
	pps := maps.Keys(d)
	sortPoints(pps)
	return "{" + strings.Join(pps, ", ") + "}"
}

// rdefAnalysis computes reaching definitions. Stores through pointers and
// calls use the points-to solution and per-function mod summaries for their
// kill/gen sets. During the recording pass the per-program-point solution is
// collected: the definitions reaching each value an instruction reads or
// overwrites.
type rdefAnalysis struct {
	prog     *lir.Program
	fn       *lir.Function
	pointsTo map[string][]string
	mods     map[string]map[string]bool

	record bool
	soln   map[string]DefSet
}

func (a *rdefAnalysis) EntryStore(*lir.Function) lattice.Store[DefSet] {
	return lattice.Store[DefSet]{}
}

func (a *rdefAnalysis) WidenAt(string) bool { return false }

// cells resolves the points-to set of a pointer variable to store keys:
// local cells of this function drop their qualifier, globals and heap cells
// keep their bare name.
func (a *rdefAnalysis) cells(v *lir.Variable) []string {
	key := v.Name
	if !a.prog.IsGlobal(a.fn, v.Name) {
		key = a.fn.Name + "." + v.Name
	}
	cells := a.pointsTo[key]
	res := make([]string, 0, len(cells))
	for _, c := range cells {
		res = append(res, strings.TrimPrefix(c, a.fn.Name+"."))
	}
	return res
}

func reads(inst lir.Instruction) []lir.Operand {
	switch t := inst.(type) {
	case *lir.Copy:
		return []lir.Operand{t.Op}
	case *lir.Arith:
		return []lir.Operand{t.Op1, t.Op2}
	case *lir.Cmp:
		return []lir.Operand{t.Op1, t.Op2}
	case *lir.Alloc:
		return []lir.Operand{t.Num}
	case *lir.Gep:
		return []lir.Operand{lir.VarOp(t.Src), t.Idx}
	case *lir.Gfp:
		return []lir.Operand{lir.VarOp(t.Src)}
	case *lir.Load:
		return []lir.Operand{lir.VarOp(t.Src)}
	case *lir.Store:
		return []lir.Operand{lir.VarOp(t.Dst), t.Op}
	case *lir.Branch:
		return []lir.Operand{t.Cond}
	case *lir.Ret:
		if t.Op != nil {
			return []lir.Operand{*t.Op}
		}
	case *lir.CallDir:
		return t.Args
	case *lir.CallExt:
		return t.Args
	case *lir.CallIdr:
		return append([]lir.Operand{lir.VarOp(t.Fp)}, t.Args...)
	}
	return nil
}

func (a *rdefAnalysis) Transfer(fn *lir.Function, bb *lir.BasicBlock, entry lattice.Store[DefSet]) (lattice.Store[DefSet], []Delta[DefSet], error) {
	st := entry.Clone()

	for i, inst := range bb.Insts {
		a.step(st, inst, lir.Point(bb.Label, i))
	}

	pp := lir.TermPoint(bb.Label)
	switch t := bb.Term.(type) {
	case *lir.Jump:
		a.recordPoint(st, t, pp)
		return st, []Delta[DefSet]{{t.Label, st}}, nil

	case *lir.Branch:
		a.recordPoint(st, t, pp)
		return st, []Delta[DefSet]{{t.TT, st}, {t.FF, st}}, nil

	case *lir.Ret:
		a.recordPoint(st, t, pp)
		return st, nil, nil

	case *lir.CallDir:
		a.call(st, t, t.Lhs, a.mods[t.Callee], pp)
		return st, []Delta[DefSet]{{t.NextBB, st}}, nil

	case *lir.CallIdr:
		mod := make(map[string]bool)
		for _, callee := range a.cells(t.Fp) {
			for v := range a.mods[callee] {
				mod[v] = true
			}
		}
		a.call(st, t, t.Lhs, mod, pp)
		return st, []Delta[DefSet]{{t.NextBB, st}}, nil

	case *lir.CallExt:
		a.call(st, t, t.Lhs, nil, pp)
		return st, []Delta[DefSet]{{t.NextBB, st}}, nil

	default:
		return nil, nil, analysis.Errorf(analysis.Parse, "unhandled terminal %v", bb.Term)
	}
}

// recordPoint collects the solution at pp: the union of the definitions
// reaching the values the instruction reads, plus those of any variable it
// overwrites.
func (a *rdefAnalysis) recordPoint(st lattice.Store[DefSet], inst lir.Instruction, pp string, defined ...string) {
	if !a.record {
		return
	}
	var acc DefSet
	for _, op := range reads(inst) {
		if !op.IsConst() {
			acc = acc.Join(st.Get(op.Var.Name))
		}
	}
	if load, ok := inst.(*lir.Load); ok {
		for _, cell := range a.cells(load.Src) {
			acc = acc.Join(st.Get(cell))
		}
	}
	for _, name := range defined {
		acc = acc.Join(st.Get(name))
	}
	if !acc.IsBot() {
		a.soln[pp] = acc
	}
}

func (a *rdefAnalysis) step(st lattice.Store[DefSet], inst lir.Instruction, pp string) {
	switch t := inst.(type) {
	case *lir.Copy:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Arith:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Cmp:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Alloc:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Addrof:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Gep:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Gfp:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Load:
		a.recordPoint(st, t, pp, t.Lhs.Name)
		st.Set(t.Lhs.Name, DefsOf(pp))

	case *lir.Store:
		cells := a.cells(t.Dst)
		a.recordPoint(st, t, pp, cells...)
		if len(cells) == 1 {
			// Single target: the store certainly overwrites it.
			st.Set(cells[0], DefsOf(pp))
		} else {
			for _, cell := range cells {
				st.Set(cell, st.Get(cell).Join(DefsOf(pp)))
			}
		}
	}
}

// call kills the return target and weakly updates everything the callee may
// modify.
func (a *rdefAnalysis) call(st lattice.Store[DefSet], inst lir.Instruction, lhs *lir.Variable, mod map[string]bool, pp string) {
	modified := maps.Keys(mod)
	for i, cell := range modified {
		modified[i] = strings.TrimPrefix(cell, a.fn.Name+".")
	}
	if a.record {
		a.recordPoint(st, inst, pp, append(modified, lhsName(lhs)...)...)
	}
	for _, name := range modified {
		st.Set(name, st.Get(name).Join(DefsOf(pp)))
	}
	if lhs != nil {
		st.Set(lhs.Name, DefsOf(pp))
	}
}

func lhsName(lhs *lir.Variable) []string {
	if lhs == nil {
		return nil
	}
	return []string{lhs.Name}
}

// sortPoints orders program points by block label, then instruction index
// numerically, with the terminal last within its block.
func sortPoints(pps []string) {
	sort.Slice(pps, func(i, j int) bool {
		bi, si := splitPoint(pps[i])
		bj, sj := splitPoint(pps[j])
		if bi != bj {
			return bi < bj
		}
		if si == "term" {
			return false
		}
		if sj == "term" {
			return true
		}
		ni, _ := strconv.Atoi(si)
		nj, _ := strconv.Atoi(sj)
		return ni < nj
	})
}

func splitPoint(pp string) (bb, idx string) {
	i := strings.LastIndex(pp, ".")
	return pp[:i], pp[i+1:]
}

// ReachingDefs runs the reaching-definitions analysis on the named function,
// using the points-to solution for store/load targets and the mod summaries
// for call effects, and returns the formatted per-program-point sets.
func ReachingDefs(p *lir.Program, funcName string, pointsTo map[string][]string, mods map[string]map[string]bool) (string, error) {
	fn, ok := p.Functions[funcName]
	if !ok {
		return "", analysis.Errorf(analysis.UnknownFunction, "%q", funcName)
	}

	a := &rdefAnalysis{
		prog:     p,
		fn:       fn,
		pointsTo: pointsTo,
		mods:     mods,
		soln:     make(map[string]DefSet),
	}

	res, err := Run[DefSet](fn, a)
	if err != nil {
		return "", err
	}

	// Recording pass: one more execution per ever-enqueued block collects
	// the per-program-point solution from the fixpoint entry stores.
	a.record = true
	for _, label := range res.Labels {
		if _, _, err := a.Transfer(fn, fn.Body[label], res.Entry[label]); err != nil {
			return "", err
		}
	}

	pps := maps.Keys(a.soln)
	sortPoints(pps)

	var b strings.Builder
	for _, pp := range pps {
		b.WriteString(pp)
		b.WriteString(" -> ")
		b.WriteString(a.soln[pp].String())
		b.WriteByte('\n')
	}
	return b.String(), nil
}
