package highlight

import (
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// peekedCapture buffers one (match, capture-index-within-match) pair so
// captureIter.Peek can look ahead without consuming tree_sitter.QueryCaptures,
// which (like most cursor-backed iterators) only moves forward.
type peekedCapture struct {
	match tree_sitter.QueryMatch
	index uint
	ok    bool
}

// captureIter wraps a tree_sitter.QueryCaptures stream with one-ahead
// lookahead: a peekable stream of (Match, capture index within match) pairs.
type captureIter struct {
	captures tree_sitter.QueryCaptures
	peeked   *peekedCapture
}

func newCaptureIter(captures tree_sitter.QueryCaptures) *captureIter {
	return &captureIter{captures: captures}
}

func (c *captureIter) advance() (tree_sitter.QueryMatch, uint, bool) {
	match, index := c.captures.Next()
	if match == nil {
		return tree_sitter.QueryMatch{}, index, false
	}
	// The underlying cursor reuses the Captures slice's backing array on the
	// next call; clone it so a buffered peek (or a match kept around across
	// calls to Remove/inspect later captures on the same node) stays valid.
	match.Captures = slices.Clone(match.Captures)
	return *match, index, true
}

// Next returns the next capture, consuming it.
func (c *captureIter) Next() (tree_sitter.QueryMatch, uint, bool) {
	if c.peeked != nil {
		p := c.peeked
		c.peeked = nil
		return p.match, p.index, p.ok
	}
	return c.advance()
}

// Peek returns the next capture without consuming it.
func (c *captureIter) Peek() (tree_sitter.QueryMatch, uint, bool) {
	if c.peeked == nil {
		match, index, ok := c.advance()
		c.peeked = &peekedCapture{match: match, index: index, ok: ok}
	}
	return c.peeked.match, c.peeked.index, c.peeked.ok
}
