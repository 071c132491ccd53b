package dataflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysis "github.com/lirtools/analysis"
	"github.com/lirtools/analysis/dataflow"
	"github.com/lirtools/analysis/lir"
)

// Test-program construction helpers.

func intVar(name string) *lir.Variable {
	return &lir.Variable{Name: name, Typ: lir.IntType}
}

func ptrVar(name string) *lir.Variable {
	return &lir.Variable{Name: name, Typ: lir.PointerTo(lir.IntType)}
}

func block(label string, term lir.Terminal, insts ...lir.Instruction) *lir.BasicBlock {
	return &lir.BasicBlock{Label: label, Insts: insts, Term: term}
}

func fun(name string, params []*lir.Variable, retTy *lir.Type, blocks ...*lir.BasicBlock) *lir.Function {
	fn := &lir.Function{
		Name:   name,
		Params: params,
		RetTy:  retTy,
		Locals: make(map[string]*lir.Variable),
		Body:   make(map[string]*lir.BasicBlock),
	}
	for _, bb := range blocks {
		fn.Body[bb.Label] = bb
	}
	return fn
}

func declare(fn *lir.Function, vars ...*lir.Variable) *lir.Function {
	for _, v := range vars {
		fn.Locals[v.Name] = v
	}
	return fn
}

func program(fns ...*lir.Function) *lir.Program {
	p := &lir.Program{
		Structs:   map[string]*lir.Struct{},
		Functions: map[string]*lir.Function{},
		Externs:   map[string]*lir.FunctionType{},
	}
	for _, fn := range fns {
		p.Functions[fn.Name] = fn
	}
	return p
}

func TestConstantStraightLine(t *testing.T) {
	a, b := intVar("a"), intVar("b")
	p := program(declare(fun("test", nil, nil,
		block("entry", &lir.Ret{},
			&lir.Copy{Lhs: a, Op: lir.ConstOp(3)},
			&lir.Arith{Lhs: b, Aop: "add", Op1: lir.VarOp(a), Op2: lir.ConstOp(4)},
		),
	), a, b))

	out, err := dataflow.Constants(p, "test", dataflow.Options{})
	require.NoError(t, err)
	assert.Equal(t, "entry:\n  a -> 3\n  b -> 7\n\n", out)
}

func TestConstantJoin(t *testing.T) {
	c, x := intVar("c"), intVar("x")
	p := program(declare(fun("test", []*lir.Variable{c}, nil,
		block("entry", &lir.Branch{Cond: lir.VarOp(c), TT: "b1", FF: "b2"}),
		block("b1", &lir.Jump{Label: "l"}, &lir.Copy{Lhs: x, Op: lir.ConstOp(1)}),
		block("b2", &lir.Jump{Label: "l"}, &lir.Copy{Lhs: x, Op: lir.ConstOp(2)}),
		block("l", &lir.Ret{}),
	), x))

	out, err := dataflow.Constants(p, "test", dataflow.Options{})
	require.NoError(t, err)
	assert.Equal(t,
		"b1:\n  c -> TOP\n  x -> 1\n\n"+
			"b2:\n  c -> TOP\n  x -> 2\n\n"+
			"entry:\n  c -> TOP\n\n"+
			"l:\n  c -> TOP\n  x -> TOP\n\n",
		out)
}

func TestConstantWeakUpdate(t *testing.T) {
	a, p_ := intVar("a"), ptrVar("p")
	p := program(declare(fun("test", nil, nil,
		block("entry", &lir.Ret{},
			&lir.Copy{Lhs: a, Op: lir.ConstOp(5)},
			&lir.Addrof{Lhs: p_, Rhs: a},
			&lir.Store{Dst: p_, Op: lir.ConstOp(7)},
		),
	), a, p_))

	out, err := dataflow.Constants(p, "test", dataflow.Options{})
	require.NoError(t, err)
	// 5 ⊔ 7 = TOP through the address-taken weak update.
	assert.Equal(t, "entry:\n  a -> TOP\n\n", out)
}

func TestConstantCallHavoc(t *testing.T) {
	a, r, p_ := intVar("a"), intVar("r"), ptrVar("p")
	callee := declare(fun("callee", nil, lir.IntType,
		block("entry", &lir.Ret{}),
	))
	p := program(declare(fun("test", nil, nil,
		block("entry", &lir.CallDir{Lhs: r, Callee: "callee", NextBB: "after"},
			&lir.Copy{Lhs: a, Op: lir.ConstOp(5)},
			&lir.Addrof{Lhs: p_, Rhs: a},
		),
		block("after", &lir.Ret{}),
	), a, r, p_), callee)

	out, err := dataflow.Constants(p, "test", dataflow.Options{})
	require.NoError(t, err)
	// The call may rewrite both the address-taken a and its int result.
	assert.Equal(t,
		"after:\n  a -> TOP\n  r -> TOP\n\n"+
			"entry:\n  a -> TOP\n  r -> TOP\n\n",
		out)
}

func TestUnknownFunction(t *testing.T) {
	p := program()
	_, err := dataflow.Constants(p, "missing", dataflow.Options{})
	var aerr *analysis.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, analysis.UnknownFunction, aerr.Kind)
}

func loopProgram() *lir.Program {
	i, c := intVar("i"), intVar("c")
	return program(declare(fun("test", nil, nil,
		block("entry", &lir.Jump{Label: "header"},
			&lir.Copy{Lhs: i, Op: lir.ConstOp(0)}),
		block("header", &lir.Branch{Cond: lir.VarOp(c), TT: "body", FF: "exit"},
			&lir.Cmp{Lhs: c, Rop: "lt", Op1: lir.VarOp(i), Op2: lir.ConstOp(100)}),
		block("body", &lir.Jump{Label: "header"},
			&lir.Arith{Lhs: i, Aop: "add", Op1: lir.VarOp(i), Op2: lir.ConstOp(1)}),
		block("exit", &lir.Ret{}),
	), i, c))
}

func TestLoopHeaders(t *testing.T) {
	fn := loopProgram().Functions["test"]
	assert.Equal(t, map[string]bool{"header": true}, dataflow.LoopHeaders(fn))
}

func TestConstantFixpointTermination(t *testing.T) {
	// The loop never stabilizes i on a constant, so i must reach TOP and
	// the analysis must still halt.
	out, err := dataflow.Constants(loopProgram(), "test", dataflow.Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "header:\n  c -> TOP\n  i -> TOP\n")
}
