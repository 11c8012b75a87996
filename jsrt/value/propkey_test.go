package value

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/jsrt/intern"
)

// TestNewStringKey_CanonicalIndex covers §3's "a property key never
// simultaneously exists as index N and string 'N'" and §9's "'10' and 10
// are the same property key, but '10.0' and 10 are not".
func TestNewStringKey_CanonicalIndex(t *testing.T) {
	tab := intern.New()

	tests := []struct {
		s        string
		wantKind KeyKind
	}{
		{"0", KeyIndex},
		{"10", KeyIndex},
		{"4294967295", KeyIndex}, // max uint32
		{"10.0", KeyString},      // not canonical
		{"-1", KeyString},        // negative, not an index
		{"01", KeyString},        // leading zero, not canonical
		{"", KeyString},
		{"length", KeyString},
	}
	for _, tc := range tests {
		k := NewStringKey(tab, tc.s)
		assert.Equalf(t, tc.wantKind, k.Kind(), "NewStringKey(%q)", tc.s)
	}
}

func TestNewStringKey_IndexAndStringFormAreTheSameKey(t *testing.T) {
	tab := intern.New()

	byString := NewStringKey(tab, "10")
	byIndex := NewIndexKey(10)

	assert.True(t, byString.Equal(byIndex), "\"10\" and 10 must canonicalize to the same key")
	assert.Equal(t, "10", byString.String())
	assert.Equal(t, "10", byIndex.String())
}

func TestPropertyKey_Equal_IntegerHashIndependentOfStringForm(t *testing.T) {
	tab := intern.New()

	// "10.0" is never canonicalized to an index, so it must never equal
	// the index key 10, even though ToString(10) == "10" is a prefix.
	nonCanonical := NewStringKey(tab, "10.0")
	idx := NewIndexKey(10)

	assert.False(t, nonCanonical.Equal(idx))
	assert.NotEqual(t, nonCanonical.Kind(), idx.Kind())
}

func TestPropertyKey_Equal_SymbolIdentityNotDescription(t *testing.T) {
	a := NewSymbol("tag")
	b := NewSymbol("tag")

	ka := NewSymbolKey(a)
	kb := NewSymbolKey(b)

	assert.False(t, ka.Equal(kb), "two symbols with the same description must compare unequal")
	assert.True(t, ka.Equal(NewSymbolKey(a)), "a symbol key must equal itself")
}

func TestNewStringKey_GetOrInsertDedupesContent(t *testing.T) {
	tab := intern.New()

	a := NewStringKey(tab, "prototype")
	b := NewStringKey(tab, "prototype")

	assert.True(t, a.Equal(b))
	assert.Same(t, a.StringValue(), b.StringValue(), "repeated interning of equal content must return the same handle")
}
