package worklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorklist(t *testing.T) {
	var w Worklist[string]
	assert.True(t, w.Empty())

	w.Push("a")
	assert.False(t, w.Empty())
	assert.Equal(t, w.Pop(), "a")
	assert.True(t, w.Empty())

	w.Push("b")
	w.Push("c")
	w.Push("b") // duplicate, dropped

	assert.Equal(t, w.Pop(), "b")
	assert.Equal(t, w.Pop(), "c")
	assert.True(t, w.Empty())

	// Popping re-admits the element.
	w.Push("b")
	assert.Equal(t, w.Pop(), "b")

	assert.Panics(t, func() { w.Pop() })
}
