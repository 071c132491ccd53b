package lir

import (
	"strings"
)

// TypeKind discriminates the base of a type after stripping pointers.
type TypeKind int

const (
	IntKind TypeKind = iota
	StructKind
	FunctionKind
)

func (k TypeKind) String() string {
	switch k {
	case IntKind:
		return "int"
	case StructKind:
		return "struct"
	case FunctionKind:
		return "function"
	}
	return "?"
}

// Type is the tagged type variant. Exactly one shape is populated:
//
//	Int                  Kind == IntKind, Elem == nil
//	Struct(name)         Kind == StructKind, StructName set
//	Pointer(T)           Elem != nil (Kind describes the pointee base)
//	Function(params)->r  Kind == FunctionKind, Func set
type Type struct {
	Kind       TypeKind
	StructName string
	Elem       *Type
	Func       *FunctionType
}

type FunctionType struct {
	Params []*Type
	Ret    *Type
}

var IntType = &Type{Kind: IntKind}

func PointerTo(t *Type) *Type {
	return &Type{Kind: t.Kind, Elem: t, StructName: t.StructName, Func: t.Func}
}

func StructTypeOf(name string) *Type {
	return &Type{Kind: StructKind, StructName: name}
}

func FuncTypeOf(params []*Type, ret *Type) *Type {
	return &Type{Kind: FunctionKind, Func: &FunctionType{Params: params, Ret: ret}}
}

// Indirection is the pointer depth: 0 for Int, 2 for &&int.
func (t *Type) Indirection() int {
	n := 0
	for t.Elem != nil {
		n++
		t = t.Elem
	}
	return n
}

// Base strips all pointers.
func (t *Type) Base() *Type {
	for t.Elem != nil {
		t = t.Elem
	}
	return t
}

func (t *Type) IsInt() bool     { return t.Elem == nil && t.Kind == IntKind }
func (t *Type) IsPointer() bool { return t.Elem != nil }

func (t *Type) String() string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t *Type) {
	for t.Elem != nil {
		b.WriteByte('&')
		t = t.Elem
	}
	switch t.Kind {
	case IntKind:
		b.WriteString("int")
	case StructKind:
		b.WriteString(t.StructName)
	case FunctionKind:
		b.WriteString(t.Func.String())
	}
}

// String renders the signature in the form the lam_ constructor annotation
// uses: "(p1,p2)->ret" with "_" for a missing return.
func (ft *FunctionType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range ft.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		writeType(&b, p)
	}
	b.WriteString(")->")
	if ft.Ret == nil {
		b.WriteByte('_')
	} else {
		writeType(&b, ft.Ret)
	}
	return b.String()
}

// Equal compares types structurally.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Indirection() != o.Indirection() {
		return false
	}
	t, o = t.Base(), o.Base()
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case StructKind:
		return t.StructName == o.StructName
	case FunctionKind:
		if len(t.Func.Params) != len(o.Func.Params) {
			return false
		}
		for i, p := range t.Func.Params {
			if !p.Equal(o.Func.Params[i]) {
				return false
			}
		}
		if (t.Func.Ret == nil) != (o.Func.Ret == nil) {
			return false
		}
		return t.Func.Ret == nil || t.Func.Ret.Equal(o.Func.Ret)
	default:
		return true
	}
}
