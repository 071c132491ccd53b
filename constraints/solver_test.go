package constraints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirtools/analysis/constraints"
	"github.com/lirtools/analysis/lir"
)

func solveText(t *testing.T, input string) map[string][]string {
	t.Helper()
	stmts, err := constraints.ParseConstraints(input, constraints.NewInterner())
	require.NoError(t, err)
	return constraints.Solve(stmts)
}

func TestSolveCopyChain(t *testing.T) {
	sol := solveText(t, "ref(a,F.a) <= F.x\nF.x <= F.y\n")
	assert.Equal(t, []string{"a"}, sol["F.x"])
	assert.Equal(t, []string{"a"}, sol["F.y"])
}

func TestSolveProjectionFlow(t *testing.T) {
	// ref(a, X) <= Y and proj(ref, 1, Y) <= Z: X's contents flow to Z.
	sol := solveText(t,
		"ref(b,W) <= X\n"+
			"ref(a,X) <= Y\n"+
			"proj(ref,1,Y) <= Z\n")
	assert.Equal(t, []string{"b"}, sol["Z"])
	assert.Equal(t, []string{"a"}, sol["Y"])
}

func TestSolveStoreThroughPointer(t *testing.T) {
	// *p := q: q's cells end up in the contents of everything p points to.
	sol := solveText(t,
		"ref(a,F.a) <= F.p\n"+
			"ref(b,F.b) <= F.q\n"+
			"F.q <= proj(ref,1,F.p)\n"+
			"proj(ref,1,F.p) <= F.r\n")
	assert.Equal(t, []string{"b"}, sol["F.a"])
	assert.Equal(t, []string{"b"}, sol["F.r"])
}

func TestSolveLamCall(t *testing.T) {
	// A function value flowing into an indirectly-called variable resolves
	// the call: the callee appears in the points-to set and arguments flow
	// contravariantly into its parameter.
	sol := solveText(t,
		"lam_[(&int)->_](f,f.p) <= Y\n"+
			"Y <= lam_[(&int)->_](_,C.a)\n"+
			"ref(x,C.x) <= C.a\n")
	assert.Equal(t, []string{"f"}, sol["Y"])
	assert.Equal(t, []string{"x"}, sol["f.p"])
}

func TestSolveLamReturnCovariant(t *testing.T) {
	sol := solveText(t,
		"lam_[()->&int](f,f.ret) <= Y\n"+
			"Y <= lam_[()->&int](_,C.r)\n"+
			"ref(cell,f.c) <= f.ret\n")
	assert.Equal(t, []string{"cell"}, sol["C.r"])
}

func TestSolveNominalMismatchDrops(t *testing.T) {
	// Distinct concrete cells do not unify; the edge is dropped.
	sol := solveText(t,
		"ref(a,X) <= Y\n"+
			"Y <= ref(b,Z)\n")
	_, ok := sol["Z"]
	assert.False(t, ok)

	// Agreeing cells decompose covariantly.
	sol = solveText(t,
		"ref(c,W) <= X\n"+
			"ref(a,X) <= Y\n"+
			"Y <= ref(a,Z)\n")
	assert.Equal(t, []string{"c"}, sol["Z"])
}

func TestSolutionSorted(t *testing.T) {
	sol := solveText(t,
		"ref(b,X) <= Y\n"+
			"ref(a,X) <= Y\n"+
			"ref(a,X) <= Y\n")
	assert.Equal(t, []string{"a", "b"}, sol["Y"])
}

func TestConstraintRoundTrip(t *testing.T) {
	// Solving the pretty-printed constraints yields the same points-to
	// solution as solving the generated statements directly.
	a, x, y, q := intVar("a"), ptrVar("x"), ptrVar("y"), ptrVar("q")
	pp := &lir.Variable{Name: "pp", Typ: lir.PointerTo(lir.PointerTo(lir.IntType))}
	p := program(declare(fun("F", nil, nil,
		block("entry", &lir.Ret{},
			&lir.Addrof{Lhs: x, Rhs: a},
			&lir.Copy{Lhs: y, Op: lir.VarOp(x)},
			&lir.Alloc{Lhs: pp, Num: lir.ConstOp(1), Id: &lir.Variable{Name: "$h1", Typ: pp.Typ}},
			&lir.Store{Dst: pp, Op: lir.VarOp(y)},
			&lir.Load{Lhs: q, Src: pp},
		),
	), a, x, y, q, pp))

	stmts := constraints.NewGenerator(p).Generate()
	direct := constraints.Solve(stmts)

	parsed, err := constraints.ParseConstraints(constraints.Format(stmts), constraints.NewInterner())
	require.NoError(t, err)
	reparsed := constraints.Solve(parsed)

	assert.Equal(t, direct, reparsed)
	assert.Equal(t, []string{"a"}, direct["F.x"])
	assert.Equal(t, []string{"a"}, direct["F.y"])
	assert.Equal(t, []string{"a"}, direct["F.q"])
	assert.Equal(t, []string{"$h1"}, direct["F.pp"])
}

func TestFormatSolution(t *testing.T) {
	out := constraints.FormatSolution(map[string][]string{
		"F.y": {"a"},
		"F.x": {"a", "b"},
	})
	assert.Equal(t, "F.x -> {a, b}\nF.y -> {a}\n", out)
}

func TestTokenizer(t *testing.T) {
	tk := constraints.NewTokenizer("ref(a,F.x) <= F.y\n")
	for _, want := range []string{"ref", "(", "a", ",", "F.x", ")", "<=", "F.y", "\n"} {
		got, err := tk.Consume()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.True(t, tk.Empty())

	_, err := tk.Consume()
	assert.Error(t, err)
}

func TestTokenizerLam(t *testing.T) {
	tk := constraints.NewTokenizer("lam_[(&int,int)->_](f,f.p,f.q)")
	for _, want := range []string{"lam_", "[", "(", "&int", ",", "int", ")", "->", "_", "]",
		"(", "f", ",", "f.p", ",", "f.q", ")"} {
		got, err := tk.Consume()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := constraints.ParseConstraints("ref(a <= b\n", constraints.NewInterner())
	assert.Error(t, err)

	_, err = constraints.ParseConstraints("x y <= z\n", constraints.NewInterner())
	assert.Error(t, err)
}
