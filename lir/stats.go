package lir

import (
	"fmt"
	"strings"
)

// Stats summarizes a program the way the original front-end reported it.
type Stats struct {
	StructFields   int
	ReturningFuncs int
	Params         int
	Locals         int
	BasicBlocks    int
	Instructions   int
	Terminals      int
	IntVars        int
	StructVars     int
	PtrIntVars     int
	PtrStructVars  int
	PtrFuncVars    int
	PtrPtrVars     int
}

func (p *Program) Stats() Stats {
	var s Stats
	for _, st := range p.Structs {
		s.StructFields += len(st.Fields)
	}

	countVar := func(t *Type) {
		switch {
		case t.IsInt():
			s.IntVars++
		case t.Indirection() == 0 && t.Kind == StructKind:
			s.StructVars++
		case t.Indirection() > 1:
			s.PtrPtrVars++
		case t.Kind == IntKind:
			s.PtrIntVars++
		case t.Kind == StructKind:
			s.PtrStructVars++
		case t.Kind == FunctionKind:
			s.PtrFuncVars++
		}
	}

	for _, fn := range p.Functions {
		if fn.RetTy != nil {
			s.ReturningFuncs++
		}
		s.Params += len(fn.Params)
		s.Locals += len(fn.Locals)
		s.BasicBlocks += len(fn.Body)
		s.Terminals += len(fn.Body)
		for _, local := range fn.Locals {
			countVar(local.Typ)
		}
		for _, bb := range fn.Body {
			s.Instructions += len(bb.Insts)
		}
	}

	for _, g := range p.Globals {
		countVar(g.Typ)
	}
	return s
}

func (s Stats) String() string {
	var b strings.Builder
	for _, line := range []struct {
		label string
		count int
	}{
		{"Number of fields across all struct types", s.StructFields},
		{"Number of functions that return a value", s.ReturningFuncs},
		{"Number of function parameters", s.Params},
		{"Number of local variables", s.Locals},
		{"Number of basic blocks", s.BasicBlocks},
		{"Number of instructions", s.Instructions},
		{"Number of terminals", s.Terminals},
		{"Number of int locals/globals", s.IntVars},
		{"Number of struct locals/globals", s.StructVars},
		{"Number of int pointer locals/globals", s.PtrIntVars},
		{"Number of struct pointer locals/globals", s.PtrStructVars},
		{"Number of function pointer locals/globals", s.PtrFuncVars},
		{"Number of pointer pointer locals/globals", s.PtrPtrVars},
	} {
		fmt.Fprintf(&b, "%s: %d\n", line.label, line.count)
	}
	return b.String()
}
