package core

// Link is an intrusive, doubly linked, circular list node.
//
// A detached Link points to itself. The zero value is a detached Link; its
// pointers are set up on first use. Types that take part in kernel queues embed
// a Link and Bind themselves as its owner so that list walks can deliver events
// to the embedding type.
type Link struct {
	succ  *Link
	pred  *Link
	owner Handler
}

// lazyInit makes a zero Link self-referencing. Callers hold the guard.
func (l *Link) lazyInit() {
	if l.succ == nil {
		l.succ = l
		l.pred = l
	}
}

// Bind sets the handler that receives events delivered to this link
func (l *Link) Bind(owner Handler) {
	l.owner = owner
}

// Handler returns the bound owner, or the link itself when unbound
func (l *Link) Handler() Handler {
	if l.owner != nil {
		return l.owner
	}
	return l
}

// Succ returns the successor of the link
func (l *Link) Succ() *Link {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	l.lazyInit()
	return l.succ
}

// Pred returns the predecessor of the link
func (l *Link) Pred() *Link {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	l.lazyInit()
	return l.pred
}

// IsAttached returns true if the link is a member of a list
func (l *Link) IsAttached() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return l.succ != nil && l.succ != l
}

// Attach inserts pred immediately before l. If pred is a member of another
// list it is unlinked from it first, within the same critical section.
func (l *Link) Attach(pred *Link) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	l.lazyInit()
	pred.lazyInit()
	if pred == l {
		return
	}
	pred.unlink()
	pred.succ = l
	pred.pred = l.pred
	l.pred.succ = pred
	l.pred = pred
}

// Detach unlinks the link from its list. Detaching a detached link is a no-op.
func (l *Link) Detach() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	l.lazyInit()
	l.unlink()
}

// unlink removes l from its list. Callers hold the guard.
func (l *Link) unlink() {
	if l.succ == l {
		return
	}
	l.succ.pred = l.pred
	l.pred.succ = l.succ
	l.succ = l
	l.pred = l
}

// OnEvent is the default handler of a link and ignores the event. Lists
// deliver to Handler(), so embedding types override OnEvent and Bind
// themselves.
func (l *Link) OnEvent(kind uint8, value uint16) {}

// Head is a list sentinel. It is never treated as payload.
type Head struct {
	Link
}

// IsEmpty returns true if no links are attached
func (h *Head) IsEmpty() bool {
	return !h.Link.IsAttached()
}

// Length counts the attached links by walking the list
func (h *Head) Length() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	h.lazyInit()
	n := 0
	for l := h.succ; l != &h.Link; l = l.succ {
		n++
	}
	return n
}

// Available is an alias of Length
func (h *Head) Available() int {
	return h.Length()
}

// OnEvent broadcasts the event to every currently attached member
func (h *Head) OnEvent(kind uint8, value uint16) {
	h.Broadcast(kind, value)
}

// Broadcast delivers the event to each link attached when the call starts.
//
// The members are moved to a private list first and each one is put back on
// h just before its handler runs, so a handler may detach itself, re-attach
// anywhere, or detach a member that has not run yet. Links attached to h while
// the broadcast runs are not visited.
func (h *Head) Broadcast(kind uint8, value uint16) {
	var pending Head
	h.splice(&pending)
	for l := h.takeFrom(&pending); l != nil; l = h.takeFrom(&pending) {
		l.Handler().OnEvent(kind, value)
	}
}

// splice moves every member of h to the tail of dst
func (h *Head) splice(dst *Head) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	h.lazyInit()
	dst.lazyInit()
	if h.succ == &h.Link {
		return
	}
	first, last := h.succ, h.pred
	h.succ = &h.Link
	h.pred = &h.Link

	first.pred = dst.pred
	dst.pred.succ = first
	last.succ = &dst.Link
	dst.pred = last
}

// takeFrom moves the first member of src to the tail of h and returns it, or
// nil when src is empty
func (h *Head) takeFrom(src *Head) *Link {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	src.lazyInit()
	l := src.succ
	if l == &src.Link {
		return nil
	}
	h.Attach(l)
	return l
}
