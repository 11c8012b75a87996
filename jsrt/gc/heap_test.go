package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// node is a minimal Tracer for exercising the heap in isolation, without
// pulling in jsrt/value.
type node struct {
	ref Handle
}

func (n *node) Trace(visit func(Handle)) {
	if !n.ref.IsNil() {
		visit(n.ref)
	}
}

func (n *node) Reset() { *n = node{} }

func TestGuard_RootsSurviveCollection(t *testing.T) {
	h := New()
	h.SetThreshold(1) // collect on every allocation, per "stress-test invariants"

	g := h.NewGuard()
	defer g.Close()

	rooted := h.Alloc(g, &node{})
	h.Collect()

	assert.NotNil(t, h.Get(rooted), "a handle held by a live guard must survive GC")
}

func TestGuard_Close_DropsRoot(t *testing.T) {
	h := New()

	g := h.NewGuard()
	orphan := h.Alloc(g, &node{})
	g.Close()

	h.Collect()
	assert.Nil(t, h.Get(orphan), "once its only guard closes, an unreachable object must be collected")
}

func TestOwnerEdges_KeepChildAlive(t *testing.T) {
	h := New()

	g := h.NewGuard()
	defer g.Close()

	parent := h.Alloc(g, &node{})
	child := h.Alloc(&Guard{}, &node{}) // not rooted by any live guard directly

	h.Own(parent, child)
	h.Collect()

	assert.NotNil(t, h.Get(child), "own(child, parent) must keep child alive as long as parent is reachable")
}

func TestReset_ProducesPristineObjectForPoolReuse(t *testing.T) {
	h := New()
	h.SetThreshold(1)

	g := h.NewGuard()
	n := &node{}
	handle := h.Alloc(g, n)
	g.Close()

	h.Collect() // n is now unreachable; sweep resets it and pools the slot

	assert.Nil(t, h.Get(handle), "the stale handle must not resolve post-collection")
	assert.Equal(t, &node{}, n, "reset must wipe the object back to its pristine zero value")

	g2 := h.NewGuard()
	defer g2.Close()
	reused := h.Alloc(g2, &node{})
	assert.NotEqual(t, handle, reused, "a reused slot's generation must differ from the stale handle")
}

func TestCollect_RefusesWhileBorrowed(t *testing.T) {
	h := New()

	g := h.NewGuard()
	handle := h.Alloc(g, &node{})
	g.Close() // now unreachable, but...

	_, release := h.Borrow(handle)
	h.Collect()
	assert.NotNil(t, h.Get(handle), "Collect must not run while a borrow is outstanding")

	release()
	h.Collect()
	assert.Nil(t, h.Get(handle), "once the borrow releases, the next Collect may proceed")
}

func TestOwnerCycle_DoesNotHangOrCorrupt(t *testing.T) {
	h := New()

	g := h.NewGuard()
	defer g.Close()

	a := h.Alloc(g, &node{})
	b := h.Alloc(&Guard{}, &node{})

	h.Own(a, b)
	h.Own(b, a) // cycle among owner edges must be tolerated, per spec

	require.NotPanics(t, func() { h.Collect() })
	assert.NotNil(t, h.Get(a))
	assert.NotNil(t, h.Get(b))
}

func TestStats_TracksAllocationsAndCollections(t *testing.T) {
	h := New()
	h.SetThreshold(5)

	g := h.NewGuard()
	defer g.Close()

	for i := 0; i < 5; i++ {
		h.Alloc(g, &node{})
	}

	stats := h.Stats()
	assert.EqualValues(t, 5, stats.Allocations)
	assert.EqualValues(t, 1, stats.Collections, "crossing the threshold must trigger exactly one automatic collection")
}

func TestHandle_NullIsNeverLive(t *testing.T) {
	h := New()
	assert.Nil(t, h.Get(Handle{}))
	assert.True(t, Handle{}.IsNil())
}
