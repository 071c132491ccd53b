package dataflow

import (
	analysis "github.com/lirtools/analysis"
	"github.com/lirtools/analysis/lattice"
	"github.com/lirtools/analysis/lir"
)

type constDomain struct{}

func (constDomain) FromConst(n int64) lattice.Const { return lattice.ConstInt(n) }
func (constDomain) Top() lattice.Const              { return lattice.ConstTop }

func (constDomain) Arith(op string, a, b lattice.Const) lattice.Const { return a.Arith(op, b) }
func (constDomain) Cmp(op string, a, b lattice.Const) lattice.Const   { return a.Cmp(op, b) }

// The constant lattice has finite height; branches are not refined.
func (constDomain) Refine(lattice.Store[lattice.Const], *lir.Branch, *lir.Cmp, bool) {}

// Options tunes the integer analyses.
type Options struct {
	// AddrofGlobals includes address-taken int globals in the weak-update
	// set. The historical analyses restricted the set to locals and
	// parameters.
	AddrofGlobals bool
}

// Constants runs the constant analysis on the named function and returns the
// formatted per-block exit stores.
func Constants(p *lir.Program, funcName string, opts Options) (string, error) {
	fn, ok := p.Functions[funcName]
	if !ok {
		return "", analysis.Errorf(analysis.UnknownFunction, "%q", funcName)
	}

	a := &intAnalysis[lattice.Const]{
		prog:       p,
		dom:        constDomain{},
		addrofInts: p.AddrTakenInts(fn, opts.AddrofGlobals),
	}

	res, err := Run[lattice.Const](fn, a)
	if err != nil {
		return "", err
	}
	exits, err := Exits[lattice.Const](fn, a, res)
	if err != nil {
		return "", err
	}
	return FormatStores(res.Labels, exits), nil
}
