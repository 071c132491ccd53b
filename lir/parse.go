package lir

import (
	"bytes"
	"encoding/json"
	"fmt"

	analysis "github.com/lirtools/analysis"
)

// Raw JSON shapes. Two-phase decoding: the outer shape is decoded with
// unknown fields rejected, then tagged variants (types, instructions,
// operands) are discriminated by their single key.

type rawProgram struct {
	Structs   map[string][]rawField      `json:"structs"`
	Globals   []rawVariable              `json:"globals"`
	Functions map[string]rawFunction     `json:"functions"`
	Externs   map[string]json.RawMessage `json:"externs"`
}

type rawField struct {
	Name string          `json:"name"`
	Typ  json.RawMessage `json:"typ"`
}

type rawVariable struct {
	Name string          `json:"name"`
	Typ  json.RawMessage `json:"typ"`
}

type rawFunction struct {
	RetTy  json.RawMessage        `json:"ret_ty"`
	Params []rawVariable          `json:"params"`
	Locals map[string]rawVariable `json:"locals"`
	Body   map[string]rawBlock    `json:"body"`
}

type rawBlock struct {
	Insts []json.RawMessage `json:"insts"`
	Term  json.RawMessage   `json:"term"`
}

func parseErrf(format string, args ...any) error {
	return analysis.Errorf(analysis.Parse, format, args...)
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return parseErrf("%v", err)
	}
	return nil
}

// Parse deserializes a JSON-encoded LIR program and validates the model
// invariants. The returned Program is read-only for all consumers.
func Parse(data []byte) (*Program, error) {
	var raw rawProgram
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}

	p := &Program{
		Structs:   make(map[string]*Struct, len(raw.Structs)),
		Functions: make(map[string]*Function, len(raw.Functions)),
		Externs:   make(map[string]*FunctionType, len(raw.Externs)),
	}

	for name, fields := range raw.Structs {
		s := &Struct{Name: name}
		for _, f := range fields {
			typ, err := parseType(f.Typ)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, &Field{Name: f.Name, Typ: typ})
		}
		p.Structs[name] = s
	}

	for _, g := range raw.Globals {
		v, err := parseVariable(g)
		if err != nil {
			return nil, err
		}
		p.Globals = append(p.Globals, v)
	}

	for name, rawExt := range raw.Externs {
		typ, err := parseType(rawExt)
		if err != nil {
			return nil, err
		}
		if typ.Base().Kind != FunctionKind || typ.Base().Func == nil {
			return nil, parseErrf("extern %s is not function-typed", name)
		}
		p.Externs[name] = typ.Base().Func
	}

	for name, rawFn := range raw.Functions {
		fn, err := p.parseFunction(name, rawFn)
		if err != nil {
			return nil, err
		}
		p.Functions[name] = fn
	}

	for _, fn := range p.Functions {
		if err := p.validate(fn); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func parseVariable(raw rawVariable) (*Variable, error) {
	if raw.Name == "" {
		return nil, parseErrf("variable with empty name")
	}
	typ, err := parseType(raw.Typ)
	if err != nil {
		return nil, err
	}
	return &Variable{Name: raw.Name, Typ: typ}, nil
}

func parseType(data []byte) (*Type, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, parseErrf("missing type")
	}

	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != "Int" {
			return nil, parseErrf("unknown type tag %q", tag)
		}
		return IntType, nil
	}

	var variant map[string]json.RawMessage
	if err := json.Unmarshal(data, &variant); err != nil {
		return nil, parseErrf("malformed type: %v", err)
	}
	if len(variant) != 1 {
		return nil, parseErrf("type object must have exactly one tag, got %d", len(variant))
	}

	for tag, payload := range variant {
		switch tag {
		case "Struct":
			var name string
			if err := json.Unmarshal(payload, &name); err != nil {
				return nil, parseErrf("malformed Struct type: %v", err)
			}
			return StructTypeOf(name), nil

		case "Pointer":
			elem, err := parseType(payload)
			if err != nil {
				return nil, err
			}
			return PointerTo(elem), nil

		case "Function":
			var rawFn struct {
				Ret    json.RawMessage   `json:"ret"`
				Params []json.RawMessage `json:"params"`
			}
			if err := decodeStrict(payload, &rawFn); err != nil {
				return nil, err
			}
			var ret *Type
			if len(rawFn.Ret) > 0 && string(rawFn.Ret) != "null" {
				var err error
				if ret, err = parseType(rawFn.Ret); err != nil {
					return nil, err
				}
			}
			params := make([]*Type, len(rawFn.Params))
			for i, rawParam := range rawFn.Params {
				var err error
				if params[i], err = parseType(rawParam); err != nil {
					return nil, err
				}
			}
			return FuncTypeOf(params, ret), nil

		default:
			return nil, parseErrf("unknown type tag %q", tag)
		}
	}
	panic("unreachable")
}

func (p *Program) parseFunction(name string, raw rawFunction) (*Function, error) {
	fn := &Function{
		Name:   name,
		Locals: make(map[string]*Variable, len(raw.Locals)),
		Body:   make(map[string]*BasicBlock, len(raw.Body)),
	}

	if len(raw.RetTy) > 0 && string(raw.RetTy) != "null" {
		typ, err := parseType(raw.RetTy)
		if err != nil {
			return nil, err
		}
		fn.RetTy = typ
	}

	for _, rawParam := range raw.Params {
		v, err := parseVariable(rawParam)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, v)
	}

	for localName, rawLocal := range raw.Locals {
		v, err := parseVariable(rawLocal)
		if err != nil {
			return nil, err
		}
		if v.Name != localName {
			return nil, parseErrf("%s: local key %q names variable %q", name, localName, v.Name)
		}
		fn.Locals[localName] = v
	}

	for label, rawBB := range raw.Body {
		bb := &BasicBlock{Label: label}
		for i, rawInst := range rawBB.Insts {
			inst, err := parseInstruction(rawInst)
			if err != nil {
				return nil, fmt.Errorf("%s.%s.%d: %w", name, label, i, err)
			}
			if _, isTerm := inst.(Terminal); isTerm {
				return nil, parseErrf("%s.%s.%d: terminal in instruction list", name, label, i)
			}
			bb.Insts = append(bb.Insts, inst)
		}
		if len(rawBB.Term) == 0 {
			return nil, parseErrf("%s.%s: block has no terminal", name, label)
		}
		inst, err := parseInstruction(rawBB.Term)
		if err != nil {
			return nil, fmt.Errorf("%s.%s.term: %w", name, label, err)
		}
		term, isTerm := inst.(Terminal)
		if !isTerm {
			return nil, parseErrf("%s.%s: non-terminal %s in terminal position", name, label, inst)
		}
		bb.Term = term
		fn.Body[label] = bb
	}

	return fn, nil
}

func parseInstruction(data []byte) (Instruction, error) {
	var variant map[string]json.RawMessage
	if err := json.Unmarshal(data, &variant); err != nil {
		return nil, parseErrf("malformed instruction: %v", err)
	}
	if len(variant) != 1 {
		return nil, parseErrf("instruction must have exactly one tag, got %d", len(variant))
	}

	for tag, payload := range variant {
		inst, err := parseInstructionTag(tag, payload)
		if err != nil {
			return nil, err
		}
		return inst, nil
	}
	panic("unreachable")
}

type rawOperand struct {
	CInt *int64       `json:"CInt,omitempty"`
	Var  *rawVariable `json:"Var,omitempty"`
}

func parseOperand(raw rawOperand) (Operand, error) {
	switch {
	case raw.CInt != nil && raw.Var == nil:
		return ConstOp(*raw.CInt), nil
	case raw.Var != nil && raw.CInt == nil:
		v, err := parseVariable(*raw.Var)
		if err != nil {
			return Operand{}, err
		}
		return VarOp(v), nil
	default:
		return Operand{}, parseErrf("operand must be CInt or Var")
	}
}

func parseOperands(raws []rawOperand) ([]Operand, error) {
	ops := make([]Operand, len(raws))
	for i, raw := range raws {
		var err error
		if ops[i], err = parseOperand(raw); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func parseInstructionTag(tag string, payload json.RawMessage) (Instruction, error) {
	switch tag {
	case "Copy":
		var raw struct {
			Lhs rawVariable `json:"lhs"`
			Op  rawOperand  `json:"op"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		lhs, err := parseVariable(raw.Lhs)
		if err != nil {
			return nil, err
		}
		op, err := parseOperand(raw.Op)
		if err != nil {
			return nil, err
		}
		return &Copy{Lhs: lhs, Op: op}, nil

	case "Arith", "Cmp":
		var raw struct {
			Lhs rawVariable `json:"lhs"`
			Aop string      `json:"aop,omitempty"`
			Rop string      `json:"rop,omitempty"`
			Op1 rawOperand  `json:"op1"`
			Op2 rawOperand  `json:"op2"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		lhs, err := parseVariable(raw.Lhs)
		if err != nil {
			return nil, err
		}
		op1, err := parseOperand(raw.Op1)
		if err != nil {
			return nil, err
		}
		op2, err := parseOperand(raw.Op2)
		if err != nil {
			return nil, err
		}
		if tag == "Arith" {
			switch raw.Aop {
			case "add", "sub", "mul", "div":
			default:
				return nil, parseErrf("unknown arithmetic op %q", raw.Aop)
			}
			return &Arith{Lhs: lhs, Aop: raw.Aop, Op1: op1, Op2: op2}, nil
		}
		switch raw.Rop {
		case "eq", "neq", "lt", "lte", "gt", "gte":
		default:
			return nil, parseErrf("unknown comparison op %q", raw.Rop)
		}
		return &Cmp{Lhs: lhs, Rop: raw.Rop, Op1: op1, Op2: op2}, nil

	case "Alloc":
		var raw struct {
			Lhs rawVariable `json:"lhs"`
			Num rawOperand  `json:"num"`
			Id  rawVariable `json:"id"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		lhs, err := parseVariable(raw.Lhs)
		if err != nil {
			return nil, err
		}
		num, err := parseOperand(raw.Num)
		if err != nil {
			return nil, err
		}
		id, err := parseVariable(raw.Id)
		if err != nil {
			return nil, err
		}
		return &Alloc{Lhs: lhs, Num: num, Id: id}, nil

	case "Addrof":
		var raw struct {
			Lhs rawVariable `json:"lhs"`
			Rhs rawVariable `json:"rhs"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		lhs, err := parseVariable(raw.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := parseVariable(raw.Rhs)
		if err != nil {
			return nil, err
		}
		return &Addrof{Lhs: lhs, Rhs: rhs}, nil

	case "Gep":
		var raw struct {
			Lhs rawVariable `json:"lhs"`
			Src rawVariable `json:"src"`
			Idx rawOperand  `json:"idx"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		lhs, err := parseVariable(raw.Lhs)
		if err != nil {
			return nil, err
		}
		src, err := parseVariable(raw.Src)
		if err != nil {
			return nil, err
		}
		idx, err := parseOperand(raw.Idx)
		if err != nil {
			return nil, err
		}
		return &Gep{Lhs: lhs, Src: src, Idx: idx}, nil

	case "Gfp":
		var raw struct {
			Lhs   rawVariable `json:"lhs"`
			Src   rawVariable `json:"src"`
			Field string      `json:"field"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		lhs, err := parseVariable(raw.Lhs)
		if err != nil {
			return nil, err
		}
		src, err := parseVariable(raw.Src)
		if err != nil {
			return nil, err
		}
		return &Gfp{Lhs: lhs, Src: src, Field: raw.Field}, nil

	case "Load":
		var raw struct {
			Lhs rawVariable `json:"lhs"`
			Src rawVariable `json:"src"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		lhs, err := parseVariable(raw.Lhs)
		if err != nil {
			return nil, err
		}
		src, err := parseVariable(raw.Src)
		if err != nil {
			return nil, err
		}
		return &Load{Lhs: lhs, Src: src}, nil

	case "Store":
		var raw struct {
			Dst rawVariable `json:"dst"`
			Op  rawOperand  `json:"op"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		dst, err := parseVariable(raw.Dst)
		if err != nil {
			return nil, err
		}
		op, err := parseOperand(raw.Op)
		if err != nil {
			return nil, err
		}
		return &Store{Dst: dst, Op: op}, nil

	case "Jump":
		var label string
		if err := json.Unmarshal(payload, &label); err != nil {
			return nil, parseErrf("malformed Jump: %v", err)
		}
		return &Jump{Label: label}, nil

	case "Branch":
		var raw struct {
			Cond rawOperand `json:"cond"`
			TT   string     `json:"tt"`
			FF   string     `json:"ff"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		cond, err := parseOperand(raw.Cond)
		if err != nil {
			return nil, err
		}
		return &Branch{Cond: cond, TT: raw.TT, FF: raw.FF}, nil

	case "Ret":
		if string(payload) == "null" {
			return &Ret{}, nil
		}
		var raw rawOperand
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		op, err := parseOperand(raw)
		if err != nil {
			return nil, err
		}
		return &Ret{Op: &op}, nil

	case "CallDir", "CallExt":
		var raw struct {
			Lhs    *rawVariable `json:"lhs"`
			Callee string       `json:"callee"`
			Args   []rawOperand `json:"args"`
			NextBB string       `json:"next_bb"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		var lhs *Variable
		if raw.Lhs != nil {
			var err error
			if lhs, err = parseVariable(*raw.Lhs); err != nil {
				return nil, err
			}
		}
		args, err := parseOperands(raw.Args)
		if err != nil {
			return nil, err
		}
		if tag == "CallExt" {
			return &CallExt{Lhs: lhs, Callee: raw.Callee, Args: args, NextBB: raw.NextBB}, nil
		}
		return &CallDir{Lhs: lhs, Callee: raw.Callee, Args: args, NextBB: raw.NextBB}, nil

	case "CallIdr":
		var raw struct {
			Lhs    *rawVariable `json:"lhs"`
			Fp     rawVariable  `json:"fp"`
			Args   []rawOperand `json:"args"`
			NextBB string       `json:"next_bb"`
		}
		if err := decodeStrict(payload, &raw); err != nil {
			return nil, err
		}
		var lhs *Variable
		if raw.Lhs != nil {
			var err error
			if lhs, err = parseVariable(*raw.Lhs); err != nil {
				return nil, err
			}
		}
		args, err := parseOperands(raw.Args)
		if err != nil {
			return nil, err
		}
		fp, err := parseVariable(raw.Fp)
		if err != nil {
			return nil, err
		}
		return &CallIdr{Lhs: lhs, Fp: fp, Args: args, NextBB: raw.NextBB}, nil

	default:
		return nil, parseErrf("unknown instruction tag %q", tag)
	}
}
