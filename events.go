package highlight

// Highlight is an opaque index into the ordered list of recognized
// highlight names a [Configuration] was built with. Consumers only ever
// compare it for equality or use it to index back into the name list they
// supplied to [Configuration.Configure]; the engine never interprets it.
type Highlight uint32

// Event is a single step of a highlighting run. The concrete type is one
// of [EventSource], [EventHighlightStart] or [EventHighlightEnd].
//
// Across a full run, the union of [EventSource] ranges covers every byte of
// the input exactly once, in increasing order. HighlightStart/HighlightEnd
// pairs are properly nested within a single layer; spans from different
// (injection) layers may interleave around them, ordered by the sort key
// described on [layerState.sortKey].
type Event interface {
	isHighlightEvent()
}

// EventSource carries a run of raw source bytes in [StartByte, EndByte)
// that belongs to whatever highlight is currently open (if any).
type EventSource struct {
	StartByte uint
	EndByte   uint
}

func (EventSource) isHighlightEvent() {}

// EventHighlightStart opens a highlighted region. Every subsequent
// EventSource, until the matching EventHighlightEnd, belongs to Highlight.
type EventHighlightStart struct {
	Highlight Highlight
}

func (EventHighlightStart) isHighlightEvent() {}

// EventHighlightEnd closes the most recently opened EventHighlightStart at
// the emitting layer.
type EventHighlightEnd struct{}

func (EventHighlightEnd) isHighlightEvent() {}
