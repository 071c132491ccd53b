package lattice

import (
	"fmt"
	"log"
)

// Bound is an interval endpoint: an integer or one of the infinities.
// Arithmetic saturates (n + ∞ = ∞, n − ∞ = −∞) and 0·∞ = 0.
type Bound struct {
	inf int8 // -1 for −∞, +1 for +∞, 0 for finite
	n   int64
}

var (
	NegInf = Bound{inf: -1}
	PosInf = Bound{inf: 1}
)

func Finite(n int64) Bound { return Bound{n: n} }

func (b Bound) Infinite() bool { return b.inf != 0 }

// Cmp returns -1, 0 or 1 ordering the bounds.
func (b Bound) Cmp(o Bound) int {
	switch {
	case b.inf != o.inf:
		if b.inf < o.inf {
			return -1
		}
		return 1
	case b.inf != 0:
		return 0
	case b.n < o.n:
		return -1
	case b.n > o.n:
		return 1
	default:
		return 0
	}
}

func minBound(a, b Bound) Bound {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func maxBound(a, b Bound) Bound {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func (b Bound) Add(o Bound) Bound {
	if b.inf != 0 {
		return b
	}
	if o.inf != 0 {
		return o
	}
	return Finite(b.n + o.n)
}

func (b Bound) Sub(o Bound) Bound {
	if b.inf != 0 {
		return b
	}
	if o.inf != 0 {
		return Bound{inf: -o.inf}
	}
	return Finite(b.n - o.n)
}

func (b Bound) sign() int {
	if b.inf != 0 {
		return int(b.inf)
	}
	switch {
	case b.n > 0:
		return 1
	case b.n < 0:
		return -1
	default:
		return 0
	}
}

func (b Bound) Mul(o Bound) Bound {
	if b.Infinite() || o.Infinite() {
		s := b.sign() * o.sign()
		if s == 0 {
			return Finite(0)
		}
		return Bound{inf: int8(s)}
	}
	return Finite(b.n * o.n)
}

// Div divides two bounds; the caller has already excluded divisors
// straddling zero. A finite value divided by an infinity is 0.
func (b Bound) Div(o Bound) Bound {
	if o.Infinite() {
		if b.Infinite() {
			s := b.sign() * o.sign()
			return Bound{inf: int8(s)}
		}
		return Finite(0)
	}
	if o.n == 0 {
		log.Panicf("bound division by zero")
	}
	if b.Infinite() {
		s := b.sign() * o.sign()
		return Bound{inf: int8(s)}
	}
	return Finite(b.n / o.n)
}

func (b Bound) String() string {
	switch b.inf {
	case -1:
		return "-∞"
	case 1:
		return "+∞"
	default:
		return fmt.Sprintf("%d", b.n)
	}
}

type intervalKind int8

const (
	intervalBot intervalKind = iota
	intervalRange
)

// Interval is [Lo, Hi] with endpoints in ℤ ∪ {±∞} plus a distinct empty
// element. TOP is [−∞, +∞]. The zero value is BOT.
type Interval struct {
	kind intervalKind
	Lo   Bound
	Hi   Bound
}

var (
	IntervalBot = Interval{}
	IntervalTop = Interval{kind: intervalRange, Lo: NegInf, Hi: PosInf}
)

func Range(lo, hi Bound) Interval {
	if lo.Cmp(hi) > 0 {
		return IntervalBot
	}
	return Interval{kind: intervalRange, Lo: lo, Hi: hi}
}

func Singleton(n int64) Interval { return Range(Finite(n), Finite(n)) }

func (i Interval) IsBot() bool { return i.kind == intervalBot }
func (i Interval) IsTop() bool {
	return i.kind == intervalRange && i.Lo == NegInf && i.Hi == PosInf
}

func (i Interval) Join(o Interval) Interval {
	if i.IsBot() {
		return o
	}
	if o.IsBot() {
		return i
	}
	return Range(minBound(i.Lo, o.Lo), maxBound(i.Hi, o.Hi))
}

// Meet intersects; used by branch refinement.
func (i Interval) Meet(o Interval) Interval {
	if i.IsBot() || o.IsBot() {
		return IntervalBot
	}
	return Range(maxBound(i.Lo, o.Lo), minBound(i.Hi, o.Hi))
}

// Widen is the classical widening: an endpoint that moved outward jumps to
// the corresponding infinity. BOT widened with x is x.
func (i Interval) Widen(o Interval) Interval {
	if i.IsBot() {
		return o
	}
	if o.IsBot() {
		return i
	}
	lo, hi := i.Lo, i.Hi
	if o.Lo.Cmp(i.Lo) < 0 {
		lo = NegInf
	}
	if o.Hi.Cmp(i.Hi) > 0 {
		hi = PosInf
	}
	return Range(lo, hi)
}

func (i Interval) Leq(o Interval) bool {
	if i.IsBot() {
		return true
	}
	if o.IsBot() {
		return false
	}
	return o.Lo.Cmp(i.Lo) <= 0 && i.Hi.Cmp(o.Hi) <= 0
}

func (i Interval) Equal(o Interval) bool { return i == o }

func (i Interval) containsZero() bool {
	return i.Lo.Cmp(Finite(0)) <= 0 && Finite(0).Cmp(i.Hi) <= 0
}

// Arith applies an op with endpoint arithmetic. Either operand BOT yields
// BOT; division by an interval containing 0 yields TOP.
func (i Interval) Arith(op string, o Interval) Interval {
	if i.IsBot() || o.IsBot() {
		return IntervalBot
	}
	switch op {
	case "add":
		return Range(i.Lo.Add(o.Lo), i.Hi.Add(o.Hi))
	case "sub":
		return Range(i.Lo.Sub(o.Hi), i.Hi.Sub(o.Lo))
	case "mul":
		return spanOf(i.Lo.Mul(o.Lo), i.Lo.Mul(o.Hi), i.Hi.Mul(o.Lo), i.Hi.Mul(o.Hi))
	case "div":
		if o.containsZero() {
			return IntervalTop
		}
		return spanOf(i.Lo.Div(o.Lo), i.Lo.Div(o.Hi), i.Hi.Div(o.Lo), i.Hi.Div(o.Hi))
	default:
		log.Panicf("unknown arithmetic op %q", op)
		return IntervalBot
	}
}

func spanOf(bs ...Bound) Interval {
	lo, hi := bs[0], bs[0]
	for _, b := range bs[1:] {
		lo = minBound(lo, b)
		hi = maxBound(hi, b)
	}
	return Range(lo, hi)
}

// Cmp compares two intervals, yielding [1,1] when the comparison must hold,
// [0,0] when it cannot, and [0,1] when the intervals overlap.
func (i Interval) Cmp(op string, o Interval) Interval {
	if i.IsBot() || o.IsBot() {
		return IntervalBot
	}
	tri := func(must, cannot bool) Interval {
		switch {
		case must:
			return Singleton(1)
		case cannot:
			return Singleton(0)
		default:
			return Range(Finite(0), Finite(1))
		}
	}
	switch op {
	case "eq":
		single := i.Lo == i.Hi && o.Lo == o.Hi && i.Lo == o.Lo
		disjoint := i.Hi.Cmp(o.Lo) < 0 || o.Hi.Cmp(i.Lo) < 0
		return tri(single, disjoint)
	case "neq":
		single := i.Lo == i.Hi && o.Lo == o.Hi && i.Lo == o.Lo
		disjoint := i.Hi.Cmp(o.Lo) < 0 || o.Hi.Cmp(i.Lo) < 0
		return tri(disjoint, single)
	case "lt":
		return tri(i.Hi.Cmp(o.Lo) < 0, i.Lo.Cmp(o.Hi) >= 0)
	case "lte":
		return tri(i.Hi.Cmp(o.Lo) <= 0, i.Lo.Cmp(o.Hi) > 0)
	case "gt":
		return tri(i.Lo.Cmp(o.Hi) > 0, i.Hi.Cmp(o.Lo) <= 0)
	case "gte":
		return tri(i.Lo.Cmp(o.Hi) >= 0, i.Hi.Cmp(o.Lo) < 0)
	default:
		log.Panicf("unknown comparison op %q", op)
		return IntervalBot
	}
}

func (i Interval) String() string {
	if i.IsBot() {
		return "BOT"
	}
	return fmt.Sprintf("[%s, %s]", i.Lo, i.Hi)
}
