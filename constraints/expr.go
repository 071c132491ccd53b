package constraints

import (
	"strconv"
	"strings"

	analysis "github.com/lirtools/analysis"
)

// The constraint expression grammar:
//
//	stmt   := expr "<=" expr
//	expr   := setvar | ctor | proj
//	ctor   := name "(" args ")"
//	proj   := "proj(" name "," int "," setvar ")"
//	setvar := ident | ident "." ident
//
// Two constructors exist: ref(cell, X) for "may point to cell with contents
// X" and lam_[(t1,…)->tr](fname, retvar?, p1, …) for function values.

type Expr interface {
	expr()
	String() string
}

type SetVar struct {
	Name string
}

func (*SetVar) expr()            {}
func (v *SetVar) String() string { return v.Name }

// Wildcard is the anonymous position-0 identifier that agrees with any
// concrete cell during nominal matching.
const Wildcard = "_"

type Ctor struct {
	Name string // "ref" or "lam_"
	Cell string // position 0: cell / function name / Wildcard

	Contents *SetVar // ref: position 1

	Type   string    // lam_: signature annotation "(t1,…)->tr"
	Ret    *SetVar   // lam_: return set-variable, nil when the signature returns nothing
	Params []*SetVar // lam_
}

func (*Ctor) expr() {}

func (c *Ctor) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Name == "lam_" {
		b.WriteByte('[')
		b.WriteString(c.Type)
		b.WriteByte(']')
	}
	b.WriteByte('(')
	b.WriteString(c.Cell)
	if c.Contents != nil {
		b.WriteByte(',')
		b.WriteString(c.Contents.Name)
	}
	if c.Ret != nil {
		b.WriteByte(',')
		b.WriteString(c.Ret.Name)
	}
	for _, p := range c.Params {
		b.WriteByte(',')
		b.WriteString(p.Name)
	}
	b.WriteByte(')')
	return b.String()
}

type Proj struct {
	Ctor string
	Idx  int
	Sv   *SetVar
}

func (*Proj) expr() {}

func (p *Proj) String() string {
	return "proj(" + p.Ctor + "," + strconv.Itoa(p.Idx) + "," + p.Sv.Name + ")"
}

type Stmt struct {
	Lhs Expr
	Rhs Expr
}

func (s *Stmt) String() string {
	return s.Lhs.String() + " <= " + s.Rhs.String()
}

// parseExpr consumes one expression. Set variables are interned through sv
// so every occurrence of a name shares one node.
func parseExpr(tk *Tokenizer, sv func(string) *SetVar) (Expr, error) {
	head, err := tk.Consume()
	if err != nil {
		return nil, err
	}

	switch head {
	case "ref":
		if err := tk.Expect("("); err != nil {
			return nil, err
		}
		cell, err := tk.Consume()
		if err != nil {
			return nil, err
		}
		if err := tk.Expect(","); err != nil {
			return nil, err
		}
		contents, err := tk.Consume()
		if err != nil {
			return nil, err
		}
		if err := tk.Expect(")"); err != nil {
			return nil, err
		}
		return &Ctor{Name: "ref", Cell: cell, Contents: sv(contents)}, nil

	case "proj":
		if err := tk.Expect("("); err != nil {
			return nil, err
		}
		name, err := tk.Consume()
		if err != nil {
			return nil, err
		}
		if err := tk.Expect(","); err != nil {
			return nil, err
		}
		idxTok, err := tk.Consume()
		if err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(idxTok)
		if err != nil {
			return nil, analysis.Errorf(analysis.Parse, "bad projection index %q", idxTok)
		}
		if err := tk.Expect(","); err != nil {
			return nil, err
		}
		name2, err := tk.Consume()
		if err != nil {
			return nil, err
		}
		if err := tk.Expect(")"); err != nil {
			return nil, err
		}
		return &Proj{Ctor: name, Idx: idx, Sv: sv(name2)}, nil

	case "lam_":
		typ, hasRet, err := parseLamType(tk)
		if err != nil {
			return nil, err
		}
		if err := tk.Expect("("); err != nil {
			return nil, err
		}
		fname, err := tk.Consume()
		if err != nil {
			return nil, err
		}
		ctor := &Ctor{Name: "lam_", Cell: fname, Type: typ}
		first := true
		for tk.Peek() != ")" {
			if err := tk.Expect(","); err != nil {
				return nil, err
			}
			arg, err := tk.Consume()
			if err != nil {
				return nil, err
			}
			if first && hasRet {
				ctor.Ret = sv(arg)
			} else {
				ctor.Params = append(ctor.Params, sv(arg))
			}
			first = false
		}
		if err := tk.Expect(")"); err != nil {
			return nil, err
		}
		return ctor, nil

	default:
		return sv(head), nil
	}
}

// parseLamType reassembles the bracketed signature annotation and reports
// whether it declares a return value.
func parseLamType(tk *Tokenizer) (string, bool, error) {
	if err := tk.Expect("["); err != nil {
		return "", false, err
	}
	var b strings.Builder
	for tk.Peek() != "]" {
		tok, err := tk.Consume()
		if err != nil {
			return "", false, err
		}
		b.WriteString(tok)
	}
	if err := tk.Expect("]"); err != nil {
		return "", false, err
	}
	typ := b.String()
	return typ, !strings.HasSuffix(typ, "->_"), nil
}

// NewInterner returns a set-variable interner for ParseConstraints: every
// occurrence of a name yields the same node.
func NewInterner() func(string) *SetVar {
	seen := make(map[string]*SetVar)
	return func(name string) *SetVar {
		if v, ok := seen[name]; ok {
			return v
		}
		v := &SetVar{Name: name}
		seen[name] = v
		return v
	}
}

// ParseConstraints reads "expr <= expr" statements, one per line. The sv
// interner is shared across all statements.
func ParseConstraints(input string, sv func(string) *SetVar) ([]*Stmt, error) {
	tk := NewTokenizer(input)
	var stmts []*Stmt
	for !tk.Empty() {
		if tk.Peek() == "\n" {
			tk.Consume()
			continue
		}
		lhs, err := parseExpr(tk, sv)
		if err != nil {
			return nil, err
		}
		if err := tk.Expect("<="); err != nil {
			return nil, err
		}
		rhs, err := parseExpr(tk, sv)
		if err != nil {
			return nil, err
		}
		if !tk.Empty() {
			if err := tk.Expect("\n"); err != nil {
				return nil, err
			}
		}
		stmts = append(stmts, &Stmt{Lhs: lhs, Rhs: rhs})
	}
	return stmts, nil
}
