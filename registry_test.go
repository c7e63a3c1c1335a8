package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve_BestDottedPrefix(t *testing.T) {
	r := NewRegistry([]string{"function", "function.method", "variable"})

	h, ok := r.Resolve("function.method.builtin")
	require.True(t, ok)
	assert.Equal(t, Highlight(1), h, "function.method is more specific than function")

	h, ok = r.Resolve("function.builtin")
	require.True(t, ok)
	assert.Equal(t, Highlight(0), h, "function.method doesn't match; function does")

	_, ok = r.Resolve("keyword")
	assert.False(t, ok)
}

func TestRegistry_Resolve_TieBreakIsListOrder(t *testing.T) {
	r := NewRegistry([]string{"a.b", "b.a"})

	h, ok := r.Resolve("a.b")
	require.True(t, ok)
	assert.Equal(t, Highlight(0), h)
}

func TestRegistry_Names(t *testing.T) {
	names := []string{"string", "comment"}
	r := NewRegistry(names)
	assert.Equal(t, names, r.Names())
}
