package lattice

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Store maps variable names to abstract values. Absent keys read as the
// domain's BOT; setting a key to BOT removes it, so two stores that agree on
// their non-BOT keys are equal.
type Store[V Value[V]] map[string]V

func (s Store[V]) Get(name string) V { return s[name] }

func (s Store[V]) Set(name string, v V) {
	if v.IsBot() {
		delete(s, name)
		return
	}
	s[name] = v
}

func (s Store[V]) Clone() Store[V] {
	res := make(Store[V], len(s))
	for k, v := range s {
		res[k] = v
	}
	return res
}

// Join computes the pointwise join into a new store and reports whether the
// result is strictly above the receiver.
func (s Store[V]) Join(o Store[V]) (Store[V], bool) {
	res := s.Clone()
	changed := false
	for k, v := range o {
		joined := res.Get(k).Join(v)
		if !joined.Equal(res.Get(k)) {
			changed = true
		}
		res.Set(k, joined)
	}
	return res, changed
}

// Widen applies pointwise widening of the receiver (old) against o (new).
func (s Store[V]) Widen(o Store[V]) Store[V] {
	res := make(Store[V], len(o))
	for k, v := range o {
		res.Set(k, s.Get(k).Widen(v))
	}
	for k, v := range s {
		if _, ok := o[k]; !ok {
			res.Set(k, v)
		}
	}
	return res
}

func (s Store[V]) Equal(o Store[V]) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		if !v.Equal(o.Get(k)) {
			return false
		}
	}
	return true
}

func (s Store[V]) Leq(o Store[V]) bool {
	for k, v := range s {
		if !v.Leq(o.Get(k)) {
			return false
		}
	}
	return true
}

// Names returns the tracked variable names in ascending order.
func (s Store[V]) Names() []string {
	names := maps.Keys(s)
	slices.Sort(names)
	return names
}

func (s Store[V]) String() string {
	var b strings.Builder
	for _, name := range s.Names() {
		b.WriteString(name)
		b.WriteString(" -> ")
		b.WriteString(s[name].String())
		b.WriteByte('\n')
	}
	return b.String()
}
