package lir

import (
	analysis "github.com/lirtools/analysis"
)

// validate enforces the model invariants on a parsed function: entry exists,
// every label referenced by a terminal exists, every named variable is
// declared, and operand types fit the operation.
func (p *Program) validate(fn *Function) error {
	if _, ok := fn.Body[Entry]; !ok {
		return analysis.Errorf(analysis.Parse, "%s: no entry block", fn.Name)
	}

	for label, bb := range fn.Body {
		for _, succ := range bb.Term.Successors() {
			if _, ok := fn.Body[succ]; !ok {
				return analysis.Errorf(analysis.UnknownBlock,
					"%s.%s: terminal targets nonexistent block %q", fn.Name, label, succ)
			}
		}

		for i, inst := range bb.Insts {
			if err := p.checkInstruction(fn, inst); err != nil {
				if e, ok := err.(*analysis.Error); ok {
					e.Detail = Point(label, i) + ": " + e.Detail
				}
				return err
			}
		}
		if err := p.checkInstruction(fn, bb.Term); err != nil {
			if e, ok := err.(*analysis.Error); ok {
				e.Detail = TermPoint(label) + ": " + e.Detail
			}
			return err
		}
	}
	return nil
}

func (p *Program) checkVar(fn *Function, v *Variable) error {
	if v == nil {
		return nil
	}
	if isAllocId(v.Name) {
		return nil
	}
	if p.Lookup(fn, v.Name) == nil {
		if _, isFunc := p.Functions[v.Name]; isFunc {
			return nil
		}
		return analysis.Errorf(analysis.Parse, "%s: undeclared variable %q", fn.Name, v.Name)
	}
	return nil
}

func isAllocId(name string) bool {
	return len(name) > 0 && name[0] == '$'
}

func (p *Program) checkOperand(fn *Function, op Operand) error {
	if op.IsConst() {
		return nil
	}
	return p.checkVar(fn, op.Var)
}

func (p *Program) checkIntOperand(fn *Function, op Operand, what string) error {
	if err := p.checkOperand(fn, op); err != nil {
		return err
	}
	if !op.IsConst() && !op.Var.Typ.IsInt() {
		return analysis.Errorf(analysis.TypeMismatch,
			"%s: %s operand %s is not int-typed", fn.Name, what, op.Var.Name)
	}
	return nil
}

func (p *Program) checkPointerVar(fn *Function, v *Variable, what string) error {
	if err := p.checkVar(fn, v); err != nil {
		return err
	}
	if !v.Typ.IsPointer() {
		return analysis.Errorf(analysis.TypeMismatch,
			"%s: %s %s is not pointer-typed", fn.Name, what, v.Name)
	}
	return nil
}

func (p *Program) checkInstruction(fn *Function, inst Instruction) error {
	switch t := inst.(type) {
	case *Copy:
		if err := p.checkVar(fn, t.Lhs); err != nil {
			return err
		}
		return p.checkOperand(fn, t.Op)

	case *Arith:
		if err := p.checkVar(fn, t.Lhs); err != nil {
			return err
		}
		if !t.Lhs.Typ.IsInt() {
			return analysis.Errorf(analysis.TypeMismatch,
				"%s: arithmetic target %s is not int-typed", fn.Name, t.Lhs.Name)
		}
		if err := p.checkIntOperand(fn, t.Op1, "arithmetic"); err != nil {
			return err
		}
		return p.checkIntOperand(fn, t.Op2, "arithmetic")

	case *Cmp:
		if err := p.checkVar(fn, t.Lhs); err != nil {
			return err
		}
		if err := p.checkIntOperand(fn, t.Op1, "comparison"); err != nil {
			return err
		}
		return p.checkIntOperand(fn, t.Op2, "comparison")

	case *Alloc:
		if err := p.checkPointerVar(fn, t.Lhs, "allocation target"); err != nil {
			return err
		}
		return p.checkIntOperand(fn, t.Num, "allocation size")

	case *Addrof:
		if err := p.checkPointerVar(fn, t.Lhs, "addrof target"); err != nil {
			return err
		}
		return p.checkVar(fn, t.Rhs)

	case *Gep:
		if err := p.checkPointerVar(fn, t.Lhs, "gep target"); err != nil {
			return err
		}
		if err := p.checkPointerVar(fn, t.Src, "gep source"); err != nil {
			return err
		}
		return p.checkIntOperand(fn, t.Idx, "gep index")

	case *Gfp:
		if err := p.checkPointerVar(fn, t.Lhs, "gfp target"); err != nil {
			return err
		}
		if err := p.checkPointerVar(fn, t.Src, "gfp source"); err != nil {
			return err
		}
		base := t.Src.Typ.Base()
		if base.Kind != StructKind {
			return analysis.Errorf(analysis.TypeMismatch,
				"%s: gfp source %s does not point to a struct", fn.Name, t.Src.Name)
		}
		if s, ok := p.Structs[base.StructName]; ok {
			for _, f := range s.Fields {
				if f.Name == t.Field {
					return nil
				}
			}
			return analysis.Errorf(analysis.TypeMismatch,
				"%s: struct %s has no field %q", fn.Name, base.StructName, t.Field)
		}
		return nil

	case *Load:
		if err := p.checkVar(fn, t.Lhs); err != nil {
			return err
		}
		return p.checkPointerVar(fn, t.Src, "load source")

	case *Store:
		if err := p.checkPointerVar(fn, t.Dst, "store target"); err != nil {
			return err
		}
		return p.checkOperand(fn, t.Op)

	case *Jump:
		return nil

	case *Branch:
		return p.checkIntOperand(fn, t.Cond, "branch condition")

	case *Ret:
		if t.Op == nil {
			return nil
		}
		return p.checkOperand(fn, *t.Op)

	case *CallDir:
		if err := p.checkVar(fn, t.Lhs); err != nil {
			return err
		}
		if _, ok := p.Functions[t.Callee]; !ok {
			return analysis.Errorf(analysis.UnknownFunction,
				"%s: call to undefined function %q", fn.Name, t.Callee)
		}
		for _, a := range t.Args {
			if err := p.checkOperand(fn, a); err != nil {
				return err
			}
		}
		return nil

	case *CallIdr:
		if err := p.checkVar(fn, t.Lhs); err != nil {
			return err
		}
		if err := p.checkPointerVar(fn, t.Fp, "indirect call target"); err != nil {
			return err
		}
		for _, a := range t.Args {
			if err := p.checkOperand(fn, a); err != nil {
				return err
			}
		}
		return nil

	case *CallExt:
		if err := p.checkVar(fn, t.Lhs); err != nil {
			return err
		}
		for _, a := range t.Args {
			if err := p.checkOperand(fn, a); err != nil {
				return err
			}
		}
		return nil

	default:
		return analysis.Errorf(analysis.Parse, "%s: unhandled instruction %v", fn.Name, inst)
	}
}
