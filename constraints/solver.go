package constraints

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/container/intsets"

	"github.com/lirtools/analysis/internal/worklist"
)

type nodeKind int8

const (
	nSetVar nodeKind = iota
	nCtor
	nProj
)

// node lives in the solver's arena; all edges are arena indices, so the
// cyclic graph (set-variables reference projections and vice versa) never
// escapes the arena's lifetime.
type node struct {
	kind nodeKind
	name string // set-variable name, constructor name, or projected ctor name

	// Constructor payload. ret holds the covariant set-variable: the
	// contents of a ref, or the return value of a lam_. -1 when absent.
	cell   string
	typ    string
	ret    int
	params []int

	// Projection payload.
	projIdx int
	projSv  int

	preds intsets.Sparse
	succs intsets.Sparse

	// For set-variables: the projection nodes ranging over this variable.
	projRefs []int
}

func (n *node) edgeCount() int { return n.preds.Len() + n.succs.Len() }

// Solver saturates the constraint graph HRU-style. All mutable state (the
// node arena, the set-variable index, the worklist) is owned by one Solver
// for one run.
type Solver struct {
	nodes   []*node
	setVars map[string]int
	work    worklist.Worklist[int]
}

func NewSolver() *Solver {
	return &Solver{setVars: make(map[string]int)}
}

func (s *Solver) newNode(n *node) int {
	n.ret = -1
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

func (s *Solver) setVar(name string) int {
	if id, ok := s.setVars[name]; ok {
		return id
	}
	id := s.newNode(&node{kind: nSetVar, name: name})
	s.setVars[name] = id
	return id
}

// intern lowers an expression into the arena.
func (s *Solver) intern(e Expr) int {
	switch e := e.(type) {
	case *SetVar:
		return s.setVar(e.Name)

	case *Ctor:
		id := s.newNode(&node{kind: nCtor, name: e.Name, cell: e.Cell, typ: e.Type})
		n := s.nodes[id]
		switch {
		case e.Contents != nil:
			n.ret = s.setVar(e.Contents.Name)
		case e.Ret != nil:
			n.ret = s.setVar(e.Ret.Name)
		}
		for _, p := range e.Params {
			n.params = append(n.params, s.setVar(p.Name))
		}
		return id

	case *Proj:
		sv := s.setVar(e.Sv.Name)
		id := s.newNode(&node{kind: nProj, name: e.Ctor, projIdx: e.Idx, projSv: sv})
		s.nodes[sv].projRefs = append(s.nodes[sv].projRefs, id)
		return id

	default:
		panic("unknown expression")
	}
}

// Add installs one constraint into the graph; Solve seeds the worklist
// afterwards. Only the inner edges of a decomposed constructor-to-constructor
// constraint enqueue their set-variables at this point.
func (s *Solver) Add(st *Stmt) {
	s.addEdge(s.intern(st.Lhs), s.intern(st.Rhs), true)
}

// addEdge dispatches on the shapes of both sides:
//
//  1. Two same-named constructors decompose: position 0 is nominal (a
//     concrete mismatch drops the edge), the ref contents / lam_ return is
//     covariant, lam_ parameters are contravariant.
//  2. An edge out of a constructor, or into a projection, is stored as a
//     predecessor of the right node.
//  3. Anything else is a successor of the left node.
//
// Set-variables whose edge sets grow are enqueued unless init is set.
func (s *Solver) addEdge(l, r int, init bool) {
	ln, rn := s.nodes[l], s.nodes[r]

	if ln.kind == nCtor && rn.kind == nCtor && ln.name == rn.name {
		if ln.cell != Wildcard && rn.cell != Wildcard && ln.cell != rn.cell {
			return
		}
		// Decomposed edges re-enter with init unset: an inner set-variable
		// that gains an edge must be reprocessed even when the outer edge
		// came from the initial constraint set.
		if ln.ret >= 0 && rn.ret >= 0 {
			s.addEdge(ln.ret, rn.ret, false)
		}
		n := len(ln.params)
		if len(rn.params) < n {
			n = len(rn.params)
		}
		for i := 0; i < n; i++ {
			s.addEdge(rn.params[i], ln.params[i], false)
		}
		return
	}

	if ln.kind == nCtor || rn.kind == nProj {
		if rn.preds.Insert(l) && rn.kind == nSetVar && !init {
			s.work.Push(r)
		}
		return
	}

	if ln.succs.Insert(r) && ln.kind == nSetVar && !init {
		s.work.Push(l)
	}
}

// Solve saturates the graph. Edges only accumulate and the arena is finite,
// so every enqueue witnesses a strictly grown edge set and the loop halts.
func (s *Solver) Solve() {
	for _, id := range s.sortedSetVars() {
		if !s.nodes[id].preds.IsEmpty() {
			s.work.Push(id)
		}
	}

	for !s.work.Empty() {
		x := s.work.Pop()
		xn := s.nodes[x]

		// Close preds × succs through this variable.
		for _, p := range xn.preds.AppendTo(nil) {
			for _, q := range xn.succs.AppendTo(nil) {
				s.addEdge(p, q, false)
			}
		}

		// Resolve projections ranging over this variable.
		for _, pid := range xn.projRefs {
			pn := s.nodes[pid]
			zn := s.nodes[pn.projSv]

			var ys []int
			for _, c := range zn.preds.AppendTo(nil) {
				cn := s.nodes[c]
				if cn.kind == nCtor && cn.name == pn.name && pn.projIdx == 1 && cn.ret >= 0 {
					ys = append(ys, cn.ret)
				}
			}

			for _, y := range ys {
				yBefore := s.nodes[y].edgeCount()

				for _, p := range pn.preds.AppendTo(nil) {
					before := s.nodes[p].edgeCount()
					s.addEdge(p, y, true)
					if s.nodes[p].kind == nSetVar && s.nodes[p].edgeCount() > before {
						s.work.Push(p)
					}
				}
				for _, q := range pn.succs.AppendTo(nil) {
					before := s.nodes[q].edgeCount()
					s.addEdge(y, q, true)
					if s.nodes[q].kind == nSetVar && s.nodes[q].edgeCount() > before {
						s.work.Push(q)
					}
				}
				if s.nodes[y].edgeCount() > yBefore {
					s.work.Push(y)
				}
			}
		}
	}
}

func (s *Solver) sortedSetVars() []int {
	names := maps.Keys(s.setVars)
	slices.Sort(names)
	ids := make([]int, len(names))
	for i, name := range names {
		ids[i] = s.setVars[name]
	}
	return ids
}

// Solution extracts the points-to map: for each set-variable the position-0
// cells of its constructor predecessors, sorted. Variables with no
// constructor predecessor are absent.
func (s *Solver) Solution() map[string][]string {
	sol := make(map[string][]string)
	for name, id := range s.setVars {
		var cells []string
		for _, c := range s.nodes[id].preds.AppendTo(nil) {
			cn := s.nodes[c]
			if cn.kind == nCtor && cn.cell != Wildcard {
				cells = append(cells, cn.cell)
			}
		}
		if len(cells) == 0 {
			continue
		}
		slices.Sort(cells)
		sol[name] = slices.Compact(cells)
	}
	return sol
}

// FormatSolution renders "setvar -> {c1, c2}" lines sorted by variable name.
func FormatSolution(sol map[string][]string) string {
	names := maps.Keys(sol)
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(" -> {")
		b.WriteString(strings.Join(sol[name], ", "))
		b.WriteString("}\n")
	}
	return b.String()
}

// Solve is the package-level convenience: install all statements, saturate,
// and extract the points-to solution.
func Solve(stmts []*Stmt) map[string][]string {
	s := NewSolver()
	for _, st := range stmts {
		s.Add(st)
	}
	s.Solve()
	return s.Solution()
}
