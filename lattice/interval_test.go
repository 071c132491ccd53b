package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(lo, hi int64) Interval { return Range(Finite(lo), Finite(hi)) }

func TestIntervalJoinLaws(t *testing.T) {
	vals := []Interval{
		IntervalBot, IntervalTop,
		iv(0, 0), iv(-3, 5), iv(10, 20),
		Range(NegInf, Finite(0)), Range(Finite(0), PosInf),
	}

	for _, a := range vals {
		assert.True(t, a.Join(a).Equal(a), "idempotence: %v", a)
		assert.True(t, IntervalBot.Join(a).Equal(a), "BOT is identity: %v", a)
		assert.True(t, IntervalTop.Join(a).Equal(IntervalTop), "TOP absorbs: %v", a)

		for _, b := range vals {
			assert.True(t, a.Join(b).Equal(b.Join(a)), "commutativity: %v %v", a, b)
			assert.True(t, a.Leq(a.Join(b)), "leq of join: %v %v", a, b)

			for _, c := range vals {
				assert.True(t,
					a.Join(b).Join(c).Equal(a.Join(b.Join(c))),
					"associativity: %v %v %v", a, b, c)
			}
		}
	}
}

func TestIntervalJoin(t *testing.T) {
	assert.Equal(t, iv(0, 5), iv(0, 1).Join(iv(3, 5)))
	assert.Equal(t, Range(NegInf, Finite(5)), Range(NegInf, Finite(1)).Join(iv(3, 5)))
}

func TestIntervalMeet(t *testing.T) {
	assert.Equal(t, iv(3, 5), iv(0, 5).Meet(iv(3, 9)))
	assert.True(t, iv(0, 1).Meet(iv(3, 5)).IsBot())
	assert.Equal(t, iv(0, 5), IntervalTop.Meet(iv(0, 5)))
}

func TestIntervalWiden(t *testing.T) {
	// A moved endpoint jumps to infinity; a stable one stays.
	assert.Equal(t, Range(Finite(0), PosInf), iv(0, 1).Widen(iv(0, 2)))
	assert.Equal(t, Range(NegInf, Finite(1)), iv(0, 1).Widen(iv(-1, 1)))
	assert.Equal(t, iv(0, 1), iv(0, 1).Widen(iv(0, 1)))
	assert.Equal(t, iv(0, 1), IntervalBot.Widen(iv(0, 1)))

	for _, pair := range [][2]Interval{
		{iv(0, 1), iv(0, 2)},
		{iv(0, 10), iv(-5, 3)},
		{Range(Finite(0), PosInf), iv(-1, 100)},
	} {
		w := pair[0].Widen(pair[1])
		assert.True(t, pair[1].Leq(w), "widen over-approximates: %v %v", pair[0], pair[1])

		// Iterated widening reaches a fixed point.
		cur := pair[0]
		for i := 0; i < 4; i++ {
			cur = cur.Widen(cur.Join(pair[1]))
		}
		require.True(t, cur.Widen(cur.Join(pair[1])).Equal(cur))
	}
}

func TestIntervalArith(t *testing.T) {
	assert.Equal(t, iv(3, 7), iv(1, 2).Arith("add", iv(2, 5)))
	assert.Equal(t, iv(-4, 0), iv(1, 2).Arith("sub", iv(2, 5)))
	assert.Equal(t, iv(-10, 10), iv(-2, 2).Arith("mul", iv(2, 5)))
	assert.Equal(t, iv(1, 5), iv(2, 10).Arith("div", iv(2, 2)))

	// Saturation at the infinities.
	top := IntervalTop
	assert.Equal(t, top, top.Arith("add", iv(1, 1)))
	assert.Equal(t, iv(0, 0), top.Arith("mul", iv(0, 0)))
	assert.Equal(t, Range(Finite(2), PosInf), Range(Finite(1), PosInf).Arith("add", iv(1, 1)))

	// Division by an interval containing zero.
	assert.Equal(t, top, iv(1, 2).Arith("div", iv(-1, 1)))
	assert.Equal(t, top, iv(1, 2).Arith("div", iv(0, 0)))

	assert.True(t, IntervalBot.Arith("add", iv(1, 1)).IsBot())
}

func TestIntervalCmp(t *testing.T) {
	one, zero, maybe := Singleton(1), Singleton(0), iv(0, 1)

	assert.Equal(t, one, iv(0, 3).Cmp("lt", iv(5, 9)))
	assert.Equal(t, zero, iv(5, 9).Cmp("lt", iv(0, 3)))
	assert.Equal(t, maybe, iv(0, 5).Cmp("lt", iv(3, 9)))

	assert.Equal(t, one, iv(2, 2).Cmp("eq", iv(2, 2)))
	assert.Equal(t, zero, iv(2, 2).Cmp("eq", iv(3, 4)))
	assert.Equal(t, maybe, iv(2, 3).Cmp("eq", iv(3, 4)))

	assert.Equal(t, one, iv(5, 9).Cmp("gte", iv(0, 5)))
	assert.Equal(t, maybe, iv(0, 9).Cmp("gte", iv(0, 5)))

	assert.True(t, IntervalBot.Cmp("lt", iv(0, 1)).IsBot())
}
