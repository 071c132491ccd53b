// Package lir holds the in-memory model of the low-level intermediate
// representation and its JSON deserializer. A Program is immutable once
// parsed; analyses only read it.
package lir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Program struct {
	Structs   map[string]*Struct
	Globals   []*Variable
	Functions map[string]*Function
	Externs   map[string]*FunctionType
}

type Struct struct {
	Name   string
	Fields []*Field
}

type Field struct {
	Name string
	Typ  *Type
}

type Variable struct {
	Name string
	Typ  *Type
}

func (v *Variable) String() string { return v.Name }

type Function struct {
	Name   string
	Params []*Variable
	RetTy  *Type
	Locals map[string]*Variable
	Body   map[string]*BasicBlock
}

// Entry is the distinguished entry block label.
const Entry = "entry"

type BasicBlock struct {
	Label string
	Insts []Instruction
	Term  Terminal
}

// Operand is either a constant integer or a variable reference.
type Operand struct {
	Var   *Variable
	Const int64
}

func (o Operand) IsConst() bool { return o.Var == nil }

func ConstOp(n int64) Operand   { return Operand{Const: n} }
func VarOp(v *Variable) Operand { return Operand{Var: v} }

func (o Operand) String() string {
	if o.IsConst() {
		return strconv.FormatInt(o.Const, 10)
	}
	return o.Var.Name
}

// Instruction is the tagged instruction variant. A type switch over the
// concrete payloads replaces run-time class checks; adding a kind breaks
// every switch that must handle it.
type Instruction interface {
	instr()
	fmt.Stringer
}

// Terminal instructions always transfer control; every block ends in
// exactly one.
type Terminal interface {
	Instruction
	// Successors are the labels control may continue at.
	Successors() []string
}

type itag struct{}

func (itag) instr() {}

type Copy struct {
	itag
	Lhs *Variable
	Op  Operand
}

type Arith struct {
	itag
	Lhs *Variable
	Aop string // add, sub, mul, div
	Op1 Operand
	Op2 Operand
}

type Cmp struct {
	itag
	Lhs *Variable
	Rop string // eq, neq, lt, lte, gt, gte
	Op1 Operand
	Op2 Operand
}

type Alloc struct {
	itag
	Lhs *Variable
	Num Operand
	// Id is the fresh abstract heap cell introduced by this allocation.
	Id *Variable
}

type Addrof struct {
	itag
	Lhs *Variable
	Rhs *Variable
}

type Gep struct {
	itag
	Lhs *Variable
	Src *Variable
	Idx Operand
}

type Gfp struct {
	itag
	Lhs   *Variable
	Src   *Variable
	Field string
}

type Load struct {
	itag
	Lhs *Variable
	Src *Variable
}

type Store struct {
	itag
	Dst *Variable
	Op  Operand
}

type Jump struct {
	itag
	Label string
}

type Branch struct {
	itag
	Cond Operand
	TT   string
	FF   string
}

type Ret struct {
	itag
	Op *Operand
}

type CallDir struct {
	itag
	Lhs    *Variable
	Callee string
	Args   []Operand
	NextBB string
}

type CallIdr struct {
	itag
	Lhs    *Variable
	Fp     *Variable
	Args   []Operand
	NextBB string
}

type CallExt struct {
	itag
	Lhs    *Variable
	Callee string
	Args   []Operand
	NextBB string
}

func (j *Jump) Successors() []string    { return []string{j.Label} }
func (b *Branch) Successors() []string  { return []string{b.TT, b.FF} }
func (r *Ret) Successors() []string     { return nil }
func (c *CallDir) Successors() []string { return []string{c.NextBB} }
func (c *CallIdr) Successors() []string { return []string{c.NextBB} }
func (c *CallExt) Successors() []string { return []string{c.NextBB} }

func (i *Copy) String() string  { return fmt.Sprintf("%s := %s", i.Lhs, i.Op) }
func (i *Arith) String() string { return fmt.Sprintf("%s := %s %s %s", i.Lhs, i.Op1, i.Aop, i.Op2) }
func (i *Cmp) String() string   { return fmt.Sprintf("%s := %s %s %s", i.Lhs, i.Op1, i.Rop, i.Op2) }
func (i *Alloc) String() string { return fmt.Sprintf("%s := $alloc %s %s", i.Lhs, i.Num, i.Id) }
func (i *Addrof) String() string { return fmt.Sprintf("%s := &%s", i.Lhs, i.Rhs) }
func (i *Gep) String() string   { return fmt.Sprintf("%s := gep %s %s", i.Lhs, i.Src, i.Idx) }
func (i *Gfp) String() string   { return fmt.Sprintf("%s := gfp %s %s", i.Lhs, i.Src, i.Field) }
func (i *Load) String() string  { return fmt.Sprintf("%s := *%s", i.Lhs, i.Src) }
func (i *Store) String() string { return fmt.Sprintf("*%s := %s", i.Dst, i.Op) }
func (i *Jump) String() string  { return "jump " + i.Label }
func (i *Branch) String() string {
	return fmt.Sprintf("branch %s %s %s", i.Cond, i.TT, i.FF)
}
func (i *Ret) String() string {
	if i.Op == nil {
		return "ret"
	}
	return "ret " + i.Op.String()
}
func (i *CallDir) String() string { return callString(i.Lhs, i.Callee, i.Args, i.NextBB) }
func (i *CallIdr) String() string { return callString(i.Lhs, "(*"+i.Fp.Name+")", i.Args, i.NextBB) }
func (i *CallExt) String() string { return callString(i.Lhs, i.Callee, i.Args, i.NextBB) }

func callString(lhs *Variable, callee string, args []Operand, next string) string {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = a.String()
	}
	call := fmt.Sprintf("%s(%s) then %s", callee, strings.Join(strs, ", "), next)
	if lhs == nil {
		return call
	}
	return lhs.Name + " := " + call
}

// Point names the i'th instruction of a block, TermPoint the terminal slot.
func Point(bb string, idx int) string { return bb + "." + strconv.Itoa(idx) }
func TermPoint(bb string) string      { return bb + ".term" }

// BlockLabels returns the function's block labels in ascending order.
func (f *Function) BlockLabels() []string {
	labels := make([]string, 0, len(f.Body))
	for l := range f.Body {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Lookup resolves a variable name against locals, parameters and globals.
func (p *Program) Lookup(f *Function, name string) *Variable {
	if v, ok := f.Locals[name]; ok {
		return v
	}
	for _, prm := range f.Params {
		if prm.Name == name {
			return prm
		}
	}
	for _, g := range p.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// IsGlobal reports whether name denotes a global and is not shadowed by a
// local or parameter of f.
func (p *Program) IsGlobal(f *Function, name string) bool {
	if _, ok := f.Locals[name]; ok {
		return false
	}
	for _, prm := range f.Params {
		if prm.Name == name {
			return false
		}
	}
	for _, g := range p.Globals {
		if g.Name == name {
			return true
		}
	}
	return false
}

// IntGlobals returns the names of int-typed globals.
func (p *Program) IntGlobals() map[string]bool {
	res := make(map[string]bool)
	for _, g := range p.Globals {
		if g.Typ.IsInt() {
			res[g.Name] = true
		}
	}
	return res
}

// AddrTakenInts collects the int-typed variables whose address is taken in f.
// Globals participate only when includeGlobals is set; the historical
// behavior restricted the set to locals and parameters.
func (p *Program) AddrTakenInts(f *Function, includeGlobals bool) map[string]bool {
	res := make(map[string]bool)
	for _, bb := range f.Body {
		for _, inst := range bb.Insts {
			addrof, ok := inst.(*Addrof)
			if !ok || !addrof.Rhs.Typ.IsInt() {
				continue
			}
			name := addrof.Rhs.Name
			if _, isLocal := f.Locals[name]; isLocal {
				res[name] = true
				continue
			}
			for _, prm := range f.Params {
				if prm.Name == name {
					res[name] = true
				}
			}
			if includeGlobals && p.IsGlobal(f, name) {
				res[name] = true
			}
		}
	}
	return res
}

// AddrTaken collects every variable whose address is taken in f, regardless
// of type.
func (p *Program) AddrTaken(f *Function) map[string]bool {
	res := make(map[string]bool)
	for _, bb := range f.Body {
		for _, inst := range bb.Insts {
			if addrof, ok := inst.(*Addrof); ok {
				res[addrof.Rhs.Name] = true
			}
		}
	}
	return res
}

// RetVar returns the variable some block of f returns, or nil when f returns
// nothing or only constants.
func (f *Function) RetVar() *Variable {
	for _, bb := range f.Body {
		if ret, ok := bb.Term.(*Ret); ok {
			if ret.Op != nil && !ret.Op.IsConst() {
				return ret.Op.Var
			}
		}
	}
	return nil
}
