package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreBotIsAbsent(t *testing.T) {
	st := Store[Const]{}
	assert.True(t, st.Get("x").IsBot())

	st.Set("x", ConstInt(3))
	assert.Equal(t, ConstInt(3), st.Get("x"))

	// Setting BOT removes the key.
	st.Set("x", ConstBot)
	_, ok := st["x"]
	assert.False(t, ok)
}

func TestStoreJoin(t *testing.T) {
	a := Store[Const]{"x": ConstInt(1), "y": ConstInt(2)}
	b := Store[Const]{"x": ConstInt(1), "z": ConstInt(3)}

	joined, changed := a.Join(b)
	assert.True(t, changed)
	assert.Equal(t, ConstInt(1), joined.Get("x"))
	assert.Equal(t, ConstInt(2), joined.Get("y"))
	assert.Equal(t, ConstInt(3), joined.Get("z"))

	// Joining something below yields no change.
	again, changed := joined.Join(a)
	assert.False(t, changed)
	assert.True(t, again.Equal(joined))

	// Conflicting constants go to TOP.
	c := Store[Const]{"x": ConstInt(9)}
	joined, changed = a.Join(c)
	assert.True(t, changed)
	assert.Equal(t, ConstTop, joined.Get("x"))
}

func TestStoreEqualTreatsMissingAsBot(t *testing.T) {
	a := Store[Const]{"x": ConstInt(1)}
	b := Store[Const]{"x": ConstInt(1)}
	assert.True(t, a.Equal(b))

	b["y"] = ConstInt(2)
	assert.False(t, a.Equal(b))
	delete(b, "y")
	assert.True(t, a.Equal(b))
}

func TestStoreWiden(t *testing.T) {
	old := Store[Interval]{"i": iv(0, 0)}
	new_, _ := old.Join(Store[Interval]{"i": iv(1, 1)})
	widened := old.Widen(new_)
	assert.Equal(t, Range(Finite(0), PosInf), widened.Get("i"))

	// Keys only in the old store survive.
	old["j"] = iv(5, 5)
	widened = old.Widen(new_)
	assert.Equal(t, iv(5, 5), widened.Get("j"))
}

func TestStoreString(t *testing.T) {
	st := Store[Const]{"b": ConstInt(7), "a": ConstInt(3)}
	assert.Equal(t, "a -> 3\nb -> 7\n", st.String())
}
