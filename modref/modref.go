// Package modref builds the call graph (resolving indirect calls through
// the points-to solution), computes its transitive closure, and derives
// per-function mod/ref summaries of the globals and cells each function may
// write or read, directly or through its callees.
package modref

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/lirtools/analysis/internal/worklist"
	"github.com/lirtools/analysis/lir"
)

// Node is one function in the call graph. Succs and Preds are kept in sync;
// after Closure they hold the transitive relation.
type Node struct {
	Name  string
	Succs map[*Node]bool
	Preds map[*Node]bool

	// Initial (intraprocedural) summaries.
	mods map[string]bool
	refs map[string]bool
}

// Summary is a function's final mod/ref information.
type Summary struct {
	Mod []string
	Ref []string
}

// Graph is the call graph rooted at the configured entry function.
type Graph struct {
	prog     *lir.Program
	pointsTo map[string][]string
	nodes    map[string]*Node
}

func (g *Graph) node(name string) *Node {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := &Node{
		Name:  name,
		Succs: make(map[*Node]bool),
		Preds: make(map[*Node]bool),
		mods:  make(map[string]bool),
		refs:  make(map[string]bool),
	}
	g.nodes[name] = n
	return n
}

// Callees returns the direct callees of the named function, ascending.
func (g *Graph) Callees(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	res := make([]string, 0, len(n.Succs))
	for succ := range n.Succs {
		res = append(res, succ.Name)
	}
	slices.Sort(res)
	return res
}

func addEdge(from, to *Node) {
	from.Succs[to] = true
	to.Preds[from] = true
}

// ptsKey is the set-variable name of a pointer: function-qualified for
// locals, bare for globals.
func (g *Graph) ptsKey(fn *lir.Function, v *lir.Variable) string {
	if g.prog.IsGlobal(fn, v.Name) {
		return v.Name
	}
	return fn.Name + "." + v.Name
}

// indirectCallees resolves a function-pointer variable to the defined
// functions in its points-to set.
func (g *Graph) indirectCallees(fn *lir.Function, fp *lir.Variable) []string {
	var callees []string
	for _, cell := range g.pointsTo[g.ptsKey(fn, fp)] {
		if _, ok := g.prog.Functions[cell]; ok {
			callees = append(callees, cell)
		}
	}
	slices.Sort(callees)
	return callees
}

// BuildGraph walks the program from entry breadth-first, adding an edge for
// every direct call and for every points-to-resolved indirect call.
func BuildGraph(p *lir.Program, pointsTo map[string][]string, entry string) *Graph {
	g := &Graph{prog: p, pointsTo: pointsTo, nodes: make(map[string]*Node)}

	var wl worklist.Worklist[string]
	wl.Push(entry)
	visited := map[string]bool{entry: true}

	for !wl.Empty() {
		name := wl.Pop()
		fn, ok := p.Functions[name]
		if !ok {
			continue
		}
		n := g.node(name)

		for _, label := range fn.BlockLabels() {
			var callees []string
			switch t := fn.Body[label].Term.(type) {
			case *lir.CallDir:
				callees = []string{t.Callee}
			case *lir.CallIdr:
				callees = g.indirectCallees(fn, t.Fp)
			default:
				continue
			}
			for _, callee := range callees {
				addEdge(n, g.node(callee))
				if !visited[callee] {
					visited[callee] = true
					wl.Push(callee)
				}
			}
		}
	}
	return g
}

// Closure saturates the graph to its transitive closure: nodes keep
// inheriting their successors' successors until nothing grows.
func (g *Graph) Closure() {
	var wl worklist.Worklist[string]
	for name := range g.nodes {
		wl.Push(name)
	}

	for !wl.Empty() {
		n := g.nodes[wl.Pop()]
		for succ := range n.Succs {
			grew := false
			for next := range succ.Succs {
				if next != n && !n.Succs[next] {
					addEdge(n, next)
					grew = true
				}
			}
			if grew {
				// Predecessors may now also reach the new successors.
				for pred := range n.Preds {
					wl.Push(pred.Name)
				}
				wl.Push(n.Name)
			}
		}
	}
}

// initSummaries computes each function's own mod/ref sets: a global defined
// by an instruction is modded, a global read is reffed, and stores/loads
// through a pointer mod/ref every cell in its points-to set.
func (g *Graph) initSummaries() {
	for name := range g.nodes {
		fn, ok := g.prog.Functions[name]
		if !ok {
			continue
		}
		n := g.nodes[name]
		for _, bb := range fn.Body {
			for _, inst := range bb.Insts {
				g.summarize(n, fn, inst)
			}
			g.summarize(n, fn, bb.Term)
		}
	}
}

func (g *Graph) summarize(n *Node, fn *lir.Function, inst lir.Instruction) {
	modVar := func(v *lir.Variable) {
		if v != nil && g.prog.IsGlobal(fn, v.Name) {
			n.mods[v.Name] = true
		}
	}
	refVar := func(v *lir.Variable) {
		if v != nil && g.prog.IsGlobal(fn, v.Name) {
			n.refs[v.Name] = true
		}
	}
	refOp := func(op lir.Operand) {
		if !op.IsConst() {
			refVar(op.Var)
		}
	}

	switch t := inst.(type) {
	case *lir.Copy:
		modVar(t.Lhs)
		refOp(t.Op)
	case *lir.Arith:
		modVar(t.Lhs)
		refOp(t.Op1)
		refOp(t.Op2)
	case *lir.Cmp:
		modVar(t.Lhs)
		refOp(t.Op1)
		refOp(t.Op2)
	case *lir.Alloc:
		modVar(t.Lhs)
		refOp(t.Num)
	case *lir.Gep:
		modVar(t.Lhs)
		refVar(t.Src)
		refOp(t.Idx)
	case *lir.Gfp:
		modVar(t.Lhs)
		refVar(t.Src)
	case *lir.Addrof:
		modVar(t.Lhs)
		refVar(t.Rhs)
	case *lir.Load:
		modVar(t.Lhs)
		refVar(t.Src)
		for _, cell := range g.pointsTo[g.ptsKey(fn, t.Src)] {
			n.refs[cell] = true
		}
	case *lir.Store:
		refVar(t.Dst)
		refOp(t.Op)
		for _, cell := range g.pointsTo[g.ptsKey(fn, t.Dst)] {
			n.mods[cell] = true
		}
	case *lir.Ret:
		if t.Op != nil {
			refOp(*t.Op)
		}
	}
}

// Summaries computes the final mod/ref map: each function's own sets
// unioned with those of every callee in the transitive closure. The graph
// must already be closed.
func (g *Graph) Summaries() map[string]Summary {
	g.initSummaries()

	res := make(map[string]Summary, len(g.nodes))
	for name, n := range g.nodes {
		mod := maps.Clone(n.mods)
		ref := maps.Clone(n.refs)
		for succ := range n.Succs {
			for v := range succ.mods {
				mod[v] = true
			}
			for v := range succ.refs {
				ref[v] = true
			}
		}
		ms, rs := maps.Keys(mod), maps.Keys(ref)
		slices.Sort(ms)
		slices.Sort(rs)
		res[name] = Summary{Mod: ms, Ref: rs}
	}
	return res
}

// ModSets flattens summaries to the per-function mod sets the
// reaching-definitions analysis consumes at call sites.
func ModSets(summaries map[string]Summary) map[string]map[string]bool {
	res := make(map[string]map[string]bool, len(summaries))
	for name, s := range summaries {
		set := make(map[string]bool, len(s.Mod))
		for _, v := range s.Mod {
			set[v] = true
		}
		res[name] = set
	}
	return res
}
