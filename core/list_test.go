package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probe is a list member that records the events it receives
type probe struct {
	Link
	name  string
	trail *[]string
	kinds []uint8
	vals  []uint16
	fn    func(p *probe)
}

func newProbe(name string, trail *[]string) *probe {
	p := &probe{name: name, trail: trail}
	p.Bind(p)
	return p
}

func (p *probe) OnEvent(kind uint8, value uint16) {
	if p.trail != nil {
		*p.trail = append(*p.trail, p.name)
	}
	p.kinds = append(p.kinds, kind)
	p.vals = append(p.vals, value)
	if p.fn != nil {
		p.fn(p)
	}
}

func TestZeroLinkIsDetached(t *testing.T) {
	var l Link
	assert.False(t, l.IsAttached())
	assert.Same(t, &l, l.Succ())
	assert.Same(t, &l, l.Pred())

	var h Head
	assert.True(t, h.IsEmpty())
	assert.Equal(t, 0, h.Length())
}

func TestHeadAttachOrder(t *testing.T) {
	var h Head
	var a, b, c Link
	h.Attach(&a)
	h.Attach(&b)
	h.Attach(&c)

	require.Equal(t, 3, h.Length())
	assert.Equal(t, 3, h.Available())
	assert.Same(t, &a, h.Succ())
	assert.Same(t, &b, a.Succ())
	assert.Same(t, &c, b.Succ())
	assert.Same(t, &h.Link, c.Succ())
	assert.Same(t, &c, h.Pred())
	assert.Same(t, &a, b.Pred())
}

func TestLinkAttachBeforeMember(t *testing.T) {
	var h Head
	var a, b Link
	h.Attach(&a)
	a.Attach(&b)

	assert.Same(t, &b, h.Succ())
	assert.Same(t, &a, b.Succ())
}

func TestLinkDetach(t *testing.T) {
	var h Head
	var a, b, c Link
	h.Attach(&a)
	h.Attach(&b)
	h.Attach(&c)

	b.Detach()
	assert.False(t, b.IsAttached())
	assert.Same(t, &c, a.Succ())
	assert.Equal(t, 2, h.Length())

	// Detaching twice is the same as once
	b.Detach()
	assert.Equal(t, 2, h.Length())
	assert.Same(t, &b, b.Succ())

	a.Detach()
	c.Detach()
	assert.True(t, h.IsEmpty())
	assert.Equal(t, 0, h.Length())
}

func TestLinkAttachMovesBetweenLists(t *testing.T) {
	var h1, h2 Head
	var a Link
	h1.Attach(&a)
	h2.Attach(&a)

	assert.True(t, h1.IsEmpty())
	assert.Equal(t, 1, h2.Length())

	// Relinking onto the same list keeps a single membership
	h2.Attach(&a)
	assert.Equal(t, 1, h2.Length())
}

func TestHeadLengthMatchesNetAttached(t *testing.T) {
	var h Head
	links := make([]Link, 8)
	ops := []struct {
		idx    int
		attach bool
	}{
		{0, true}, {1, true}, {2, true}, {1, false}, {3, true},
		{0, false}, {0, false}, {4, true}, {2, true}, {5, false},
	}
	member := map[int]bool{}
	for _, op := range ops {
		if op.attach {
			h.Attach(&links[op.idx])
			member[op.idx] = true
		} else {
			links[op.idx].Detach()
			delete(member, op.idx)
		}
		assert.Equal(t, len(member), h.Length())
		assert.Equal(t, len(member) == 0, h.IsEmpty())
	}
}

func TestBareLinkIgnoresEvents(t *testing.T) {
	var h Head
	var l Link
	h.Attach(&l)
	assert.NotPanics(t, func() { h.Broadcast(UserType, 1) })
	assert.Same(t, &l, l.Handler())
}

func TestBroadcast(t *testing.T) {
	t.Run("all members", func(t *testing.T) {
		var h Head
		var trail []string
		a := newProbe("a", &trail)
		b := newProbe("b", &trail)
		h.Attach(&a.Link)
		h.Attach(&b.Link)

		h.OnEvent(TimeoutType, 3)

		assert.Equal(t, []string{"a", "b"}, trail)
		assert.Equal(t, []uint8{TimeoutType}, a.kinds)
		assert.Equal(t, []uint16{3}, b.vals)
		assert.Equal(t, 2, h.Length())
	})

	t.Run("self detach", func(t *testing.T) {
		var h Head
		var trail []string
		a := newProbe("a", &trail)
		b := newProbe("b", &trail)
		c := newProbe("c", &trail)
		for _, p := range []*probe{a, b, c} {
			p.fn = func(p *probe) { p.Detach() }
			h.Attach(&p.Link)
		}

		h.Broadcast(TimeoutType, 0)

		assert.Equal(t, []string{"a", "b", "c"}, trail)
		assert.True(t, h.IsEmpty())
	})

	t.Run("detach pending member", func(t *testing.T) {
		var h Head
		var trail []string
		a := newProbe("a", &trail)
		b := newProbe("b", &trail)
		c := newProbe("c", &trail)
		b.fn = func(*probe) { c.Detach() }
		h.Attach(&a.Link)
		h.Attach(&b.Link)
		h.Attach(&c.Link)

		h.Broadcast(TimeoutType, 0)

		assert.Equal(t, []string{"a", "b"}, trail)
		assert.Equal(t, 2, h.Length())
		assert.False(t, c.IsAttached())
	})

	t.Run("attach during broadcast", func(t *testing.T) {
		var h Head
		var trail []string
		a := newProbe("a", &trail)
		d := newProbe("d", &trail)
		a.fn = func(*probe) { h.Attach(&d.Link) }
		h.Attach(&a.Link)

		h.Broadcast(TimeoutType, 0)

		assert.Equal(t, []string{"a"}, trail)
		assert.Equal(t, 2, h.Length())
		assert.Same(t, &d.Link, a.Succ())
	})

	t.Run("move to another list", func(t *testing.T) {
		var h, other Head
		var trail []string
		a := newProbe("a", &trail)
		b := newProbe("b", &trail)
		a.fn = func(p *probe) { other.Attach(&p.Link) }
		h.Attach(&a.Link)
		h.Attach(&b.Link)

		h.Broadcast(TimeoutType, 0)

		assert.Equal(t, []string{"a", "b"}, trail)
		assert.Equal(t, 1, h.Length())
		assert.Equal(t, 1, other.Length())
	})
}
