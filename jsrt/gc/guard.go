package gc

// Guard is a scoped root set: every Handle it holds is a GC root for as
// long as the Guard is open. Native code that allocates must obtain a
// Guard first and add to it (or allocate into it) any object whose
// lifetime must extend past the allocation call,.
type Guard struct {
	heap *Heap
	handles []Handle
	closed bool
}

// NewGuard opens a new Guard on h and pushes it onto the heap's live-guard
// stack. Callers must Close it (typically via defer) when the scope ends.
func (h *Heap) NewGuard() *Guard {
	g := &Guard{heap: h}
	h.guards = append(h.guards, g)
	return g
}

// RootGuard returns (creating once) the heap's permanent guard, used to
// anchor intrinsics: prototypes and built-in constructors that must
// outlive every ordinary call scope.
func (h *Heap) RootGuard() *Guard {
	if h.rootGuard == nil {
		h.rootGuard = h.NewGuard()
	}
	return h.rootGuard
}

// Add extends the guard's root set with handle. Safe to call repeatedly;
// duplicates are harmless (marking is idempotent).
func (g *Guard) Add(handle Handle) {
	if g == nil || g.closed {
		return
	}
	g.handles = append(g.handles, handle)
}

func (g *Guard) add(handle Handle) { g.Add(handle) }

// Close pops the guard from the heap's live-guard stack. Handles it held
// stop being roots; they survive only if reachable some other way.
func (g *Guard) Close() {
	if g == nil || g.closed {
		return
	}
	g.closed = true
	guards := g.heap.guards
	for i := len(guards) - 1; i >= 0; i-- {
		if guards[i] == g {
			g.heap.guards = append(guards[:i], guards[i+1:]...)
			return
		}
	}
}

// Borrow leases read access to the object at handle, incrementing the
// heap's outstanding-borrow count so Collect defers itself until every
// lease is released. Returns nil if the handle is stale.
func (h *Heap) Borrow(handle Handle) (Tracer, func()) {
	obj := h.Get(handle)
	if obj == nil {
		return nil, func() {}
	}
	h.borrowCount++
	released := false
	return obj, func() {
		if !released {
			released = true
			h.borrowCount--
		}
	}
}

// BorrowMut is identical to Borrow; the implementation does not
// distinguish shared/exclusive leases (the interpreter is single-
// threaded), but the two names exist so call sites document intent, per
// this module's "borrow"/"borrow_mut" vocabulary.
func (h *Heap) BorrowMut(handle Handle) (Tracer, func()) {
	return h.Borrow(handle)
}
