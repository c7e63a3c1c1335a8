package html

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	highlight "github.com/treesitter-go/highlighter"
)

type fakeEvent struct {
	kind  int
	start uint
	end   uint
	h     highlight.Highlight
}

const (
	kindSource = iota
	kindStart
	kindEnd
)

func seqOf(source []byte, events []fakeEvent) func(yield func(highlight.Event, error) bool) {
	return func(yield func(highlight.Event, error) bool) {
		for _, e := range events {
			var ev highlight.Event
			switch e.kind {
			case kindSource:
				ev = highlight.EventSource{StartByte: e.start, EndByte: e.end}
			case kindStart:
				ev = highlight.EventHighlightStart{Highlight: e.h}
			case kindEnd:
				ev = highlight.EventHighlightEnd{}
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func TestRenderer_EscapesAndWrapsSpans(t *testing.T) {
	source := []byte(`a<b>`)
	events := []fakeEvent{
		{kind: kindStart, h: 3},
		{kind: kindSource, start: 0, end: 4},
		{kind: kindEnd},
	}

	r := NewRenderer()
	attrs := func(h highlight.Highlight) string { return fmt.Sprintf(`class="h%d"`, h) }
	require.NoError(t, r.Render(seqOf(source, events), source, attrs))

	assert.Equal(t, `<span class="h3">a&lt;b&gt;</span>`+"\n", string(r.HTML()))
}

func TestRenderer_RebalancesSpansAcrossNewlines(t *testing.T) {
	source := []byte("ab\ncd")
	events := []fakeEvent{
		{kind: kindStart, h: 1},
		{kind: kindSource, start: 0, end: uint(len(source))},
		{kind: kindEnd},
	}

	r := NewRenderer()
	require.NoError(t, r.Render(seqOf(source, events), source, nil))

	html := string(r.HTML())
	assert.Equal(t, "<span>ab</span>\n<span>cd</span>\n", html)

	offsets := r.LineOffsets()
	require.Len(t, offsets, 2)
	assert.Equal(t, 0, offsets[0])
	assert.Equal(t, len("<span>ab</span>\n"), offsets[1])
}

func TestRenderer_StripsTrailingCRBeforeNewline(t *testing.T) {
	source := []byte("ab\r\ncd")
	events := []fakeEvent{
		{kind: kindSource, start: 0, end: uint(len(source))},
	}

	r := NewRenderer()
	require.NoError(t, r.Render(seqOf(source, events), source, nil))

	assert.Equal(t, "ab\ncd\n", string(r.HTML()))
}

func TestRenderer_EnsuresFinalNewlineAndDropsEmptyTrailingOffset(t *testing.T) {
	source := []byte("ab\n")
	events := []fakeEvent{
		{kind: kindSource, start: 0, end: uint(len(source))},
	}

	r := NewRenderer()
	require.NoError(t, r.Render(seqOf(source, events), source, nil))

	assert.Equal(t, "ab\n", string(r.HTML()))
	assert.Equal(t, []int{0}, r.LineOffsets())
}

func TestRenderer_ReplacesInvalidUTF8(t *testing.T) {
	source := []byte{'a', 0xff, 'b'}
	events := []fakeEvent{
		{kind: kindSource, start: 0, end: uint(len(source))},
	}

	r := NewRenderer()
	require.NoError(t, r.Render(seqOf(source, events), source, nil))

	assert.Equal(t, "a�b\n", string(r.HTML()))
}

func TestRenderer_PropagatesEventError(t *testing.T) {
	boom := fmt.Errorf("boom")
	events := func(yield func(highlight.Event, error) bool) {
		yield(nil, boom)
	}

	r := NewRenderer()
	err := r.Render(events, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
