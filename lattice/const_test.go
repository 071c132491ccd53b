package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstJoinLaws(t *testing.T) {
	vals := []Const{ConstBot, ConstTop, ConstInt(0), ConstInt(1), ConstInt(-7)}

	for _, a := range vals {
		assert.True(t, a.Join(a).Equal(a), "idempotence: %v", a)
		assert.True(t, ConstBot.Join(a).Equal(a), "BOT is identity: %v", a)
		assert.True(t, ConstTop.Join(a).Equal(ConstTop), "TOP absorbs: %v", a)

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

func TestConstOrdering(t *testing.T) {
	assert.True(t, ConstBot.Leq(ConstInt(3)))
	assert.True(t, ConstInt(3).Leq(ConstTop))
	assert.False(t, ConstInt(3).Leq(ConstInt(4)))
	assert.False(t, ConstTop.Leq(ConstInt(3)))
	assert.True(t, ConstInt(3).Join(ConstInt(4)).Equal(ConstTop))
	assert.True(t, ConstInt(3).Join(ConstInt(3)).Equal(ConstInt(3)))
}

func TestConstArith(t *testing.T) {
	assert.Equal(t, ConstInt(7), ConstInt(3).Arith("add", ConstInt(4)))
	assert.Equal(t, ConstInt(-1), ConstInt(3).Arith("sub", ConstInt(4)))
	assert.Equal(t, ConstInt(12), ConstInt(3).Arith("mul", ConstInt(4)))
	assert.Equal(t, ConstInt(2), ConstInt(9).Arith("div", ConstInt(4)))

	// TOP wins over BOT; BOT otherwise.
	assert.Equal(t, ConstTop, ConstTop.Arith("add", ConstBot))
	assert.Equal(t, ConstBot, ConstBot.Arith("add", ConstInt(1)))

	// Division by a concrete zero is unreachable, not an error.
	assert.Equal(t, ConstBot, ConstInt(5).Arith("div", ConstInt(0)))
}

func TestConstCmp(t *testing.T) {
	assert.Equal(t, ConstInt(1), ConstInt(3).Cmp("lt", ConstInt(4)))
	assert.Equal(t, ConstInt(0), ConstInt(4).Cmp("lt", ConstInt(4)))
	assert.Equal(t, ConstInt(1), ConstInt(4).Cmp("lte", ConstInt(4)))
	assert.Equal(t, ConstInt(1), ConstInt(4).Cmp("eq", ConstInt(4)))
	assert.Equal(t, ConstInt(1), ConstInt(5).Cmp("neq", ConstInt(4)))
	assert.Equal(t, ConstInt(1), ConstInt(5).Cmp("gt", ConstInt(4)))
	assert.Equal(t, ConstInt(0), ConstInt(3).Cmp("gte", ConstInt(4)))
	assert.Equal(t, ConstTop, ConstTop.Cmp("eq", ConstInt(4)))
	assert.Equal(t, ConstBot, ConstBot.Cmp("eq", ConstInt(4)))
}
