package constraints

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/lirtools/analysis/lir"
)

// Generator walks a program and emits set constraints for its pointer flow.
// Set-variable names are function-qualified for locals and parameters and
// bare for globals, heap cells and function values.
type Generator struct {
	prog *lir.Program
	sv   map[string]*SetVar

	stmts []*Stmt
}

func NewGenerator(p *lir.Program) *Generator {
	return &Generator{prog: p, sv: make(map[string]*SetVar)}
}

// SetVarOf interns set-variable nodes by name.
func (g *Generator) SetVarOf(name string) *SetVar {
	if v, ok := g.sv[name]; ok {
		return v
	}
	v := &SetVar{Name: name}
	g.sv[name] = v
	return v
}

func (g *Generator) varOf(fn *lir.Function, v *lir.Variable) *SetVar {
	if g.prog.IsGlobal(fn, v.Name) || isUnqualified(g.prog, v.Name) {
		return g.SetVarOf(v.Name)
	}
	return g.SetVarOf(fn.Name + "." + v.Name)
}

// Heap-cell identifiers and function names live in the global namespace.
func isUnqualified(p *lir.Program, name string) bool {
	if strings.HasPrefix(name, "$") {
		return true
	}
	_, isFunc := p.Functions[name]
	return isFunc
}

func (g *Generator) emit(lhs, rhs Expr) {
	g.stmts = append(g.stmts, &Stmt{Lhs: lhs, Rhs: rhs})
}

// Generate produces the constraint set for the whole program.
func (g *Generator) Generate() []*Stmt {
	for _, fn := range g.prog.Functions {
		g.lamOf(fn)
		for _, bb := range fn.Body {
			for _, inst := range bb.Insts {
				g.instruction(fn, inst)
			}
			g.terminal(fn, bb.Term)
		}
	}
	return g.stmts
}

// lamOf emits the function-value constraint binding fn's name to a lam_
// constructor over its return variable and parameters.
func (g *Generator) lamOf(fn *lir.Function) {
	paramTypes := make([]*lir.Type, len(fn.Params))
	params := make([]*SetVar, len(fn.Params))
	for i, prm := range fn.Params {
		paramTypes[i] = prm.Typ
		params[i] = g.varOf(fn, prm)
	}

	ctor := &Ctor{
		Name:   "lam_",
		Cell:   fn.Name,
		Type:   (&lir.FunctionType{Params: paramTypes, Ret: fn.RetTy}).String(),
		Params: params,
	}
	if fn.RetTy != nil {
		if rv := fn.RetVar(); rv != nil {
			ctor.Ret = g.varOf(fn, rv)
		} else {
			ctor.Ret = g.SetVarOf(fn.Name + ".$ret")
		}
	}
	g.emit(ctor, g.SetVarOf(fn.Name))
}

func (g *Generator) instruction(fn *lir.Function, inst lir.Instruction) {
	switch t := inst.(type) {
	case *lir.Copy:
		if t.Lhs.Typ.IsPointer() && !t.Op.IsConst() {
			g.emit(g.varOf(fn, t.Op.Var), g.varOf(fn, t.Lhs))
		}

	case *lir.Addrof:
		cell := t.Rhs.Name
		g.emit(&Ctor{Name: "ref", Cell: cell, Contents: g.varOf(fn, t.Rhs)}, g.varOf(fn, t.Lhs))

	case *lir.Alloc:
		id := g.SetVarOf(t.Id.Name)
		g.emit(&Ctor{Name: "ref", Cell: t.Id.Name, Contents: id}, g.varOf(fn, t.Lhs))

	case *lir.Gep:
		g.emit(g.varOf(fn, t.Src), g.varOf(fn, t.Lhs))

	case *lir.Gfp:
		g.emit(g.varOf(fn, t.Src), g.varOf(fn, t.Lhs))

	case *lir.Load:
		if t.Lhs.Typ.IsPointer() {
			g.emit(&Proj{Ctor: "ref", Idx: 1, Sv: g.varOf(fn, t.Src)}, g.varOf(fn, t.Lhs))
		}

	case *lir.Store:
		if !t.Op.IsConst() && t.Op.Var.Typ.IsPointer() {
			g.emit(g.varOf(fn, t.Op.Var), &Proj{Ctor: "ref", Idx: 1, Sv: g.varOf(fn, t.Dst)})
		}
	}
}

func (g *Generator) terminal(fn *lir.Function, term lir.Terminal) {
	switch t := term.(type) {
	case *lir.CallDir:
		callee, ok := g.prog.Functions[t.Callee]
		if !ok {
			return
		}
		for i, prm := range callee.Params {
			if i < len(t.Args) && prm.Typ.IsPointer() && !t.Args[i].IsConst() {
				g.emit(g.varOf(fn, t.Args[i].Var), g.varOf(callee, prm))
			}
		}
		if t.Lhs != nil && t.Lhs.Typ.IsPointer() {
			if rv := callee.RetVar(); rv != nil {
				g.emit(g.varOf(callee, rv), g.varOf(fn, t.Lhs))
			}
		}

	case *lir.CallIdr:
		sig := t.Fp.Typ.Base().Func
		if sig == nil {
			return
		}
		ctor := &Ctor{Name: "lam_", Cell: Wildcard, Type: sig.String()}
		if sig.Ret != nil {
			if t.Lhs != nil {
				ctor.Ret = g.varOf(fn, t.Lhs)
			} else {
				ctor.Ret = g.SetVarOf(fn.Name + ".$drop")
			}
		}
		for _, arg := range t.Args {
			if arg.IsConst() {
				ctor.Params = append(ctor.Params, g.SetVarOf(fn.Name+".$const"))
			} else {
				ctor.Params = append(ctor.Params, g.varOf(fn, arg.Var))
			}
		}
		g.emit(g.varOf(fn, t.Fp), ctor)
	}
}

// Format renders statements deduplicated and sorted, one per line with a
// trailing newline.
func Format(stmts []*Stmt) string {
	if len(stmts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(stmts))
	for _, s := range stmts {
		lines = append(lines, s.String())
	}
	slices.Sort(lines)
	lines = slices.Compact(lines)
	return strings.Join(lines, "\n") + "\n"
}
