package highlight

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// localDef is a named definition visible from the point it appears onward
// within its enclosing localScope, whose Highlight is filled in later if a
// highlight pattern fires on the same node.
type localDef struct {
	Name       []byte
	ValueRange tree_sitter.Range
	Highlight  *Highlight
}

// localScope tracks one lexical scope's visible definitions. The bottom of
// every layer's scope stack is a non-inheriting scope spanning the whole
// document.
type localScope struct {
	Inherits  bool
	Range     tree_sitter.Range
	LocalDefs []localDef
}

// rootScopeRange is the entire-document range backing a layer's bottom
// scope: [0, ^uint(0)), using the byte type's max value rather than the
// layer's actual source length (the scope is popped only when a capture
// starts past it, which a real document's length never does).
var rootScopeRange = tree_sitter.Range{
	StartByte:  0,
	StartPoint: tree_sitter.Point{Row: 0, Column: 0},
	EndByte:    ^uint(0),
	EndPoint:   tree_sitter.Point{Row: ^uint(0), Column: ^uint(0)},
}

// sortKey is the merge-order tuple for a layer: (offset, is_start, -depth).
// Two keys compare by offset first; at equal offsets an end precedes a start;
// at equal offset and start/end-ness, the deeper layer (larger depth, so
// smaller -depth) precedes the shallower one.
type sortKey struct {
	offset uint
	start  bool
	depth  int
}

func (k sortKey) less(other sortKey) bool {
	if k.offset != other.offset {
		return k.offset < other.offset
	}
	if k.start != other.start {
		// ends (start=false) sort before starts (start=true)
		return !k.start
	}
	return k.depth < other.depth
}

func (k sortKey) greater(other sortKey) bool {
	return other.less(k)
}

// layerState is the runtime record for one (language, range-set) pair being
// highlighted, possibly nested inside a parent layer via injection.
type layerState struct {
	tree              *tree_sitter.Tree
	cursor            *tree_sitter.QueryCursor
	config            *Configuration
	captures          *captureIter
	highlightEndStack []uint
	scopeStack        []localScope
	ranges            []tree_sitter.Range
	depth             uint
}

// sortKey computes this layer's current position in the global merge order,
// or reports ok=false when the layer has nothing left to contribute (no
// more captures and no pending highlight ends) and should be retired.
func (l *layerState) sortKey() (sortKey, bool) {
	depth := -int(l.depth)

	var (
		nextStart uint
		haveStart bool
		nextEnd   uint
		haveEnd   bool
	)
	if match, index, ok := l.captures.Peek(); ok {
		nextStart = match.Captures[index].Node.StartByte()
		haveStart = true
	}
	if n := len(l.highlightEndStack); n > 0 {
		nextEnd = l.highlightEndStack[n-1]
		haveEnd = true
	}

	switch {
	case haveStart && haveEnd:
		if nextStart < nextEnd {
			return sortKey{offset: nextStart, start: true, depth: depth}, true
		}
		return sortKey{offset: nextEnd, start: false, depth: depth}, true
	case haveStart:
		return sortKey{offset: nextStart, start: true, depth: depth}, true
	case haveEnd:
		return sortKey{offset: nextEnd, start: false, depth: depth}, true
	default:
		return sortKey{}, false
	}
}

// intersectRanges computes the byte ranges fed to a nested injection layer:
// the content nodes' own ranges (minus their direct children's ranges,
// unless includeChildren), clipped against the parent layer's already
// sorted, disjoint ranges.
//
// A single forward walk over parentRanges suffices, advancing past any
// parent range that ends before the candidate range starts.
func intersectRanges(parentRanges []tree_sitter.Range, nodes []tree_sitter.Node, includeChildren bool) []tree_sitter.Range {
	if len(parentRanges) == 0 || len(nodes) == 0 {
		return nil
	}

	cursor := nodes[0].Walk()
	var results []tree_sitter.Range

	parentRange := parentRanges[0]
	parentRanges = parentRanges[1:]

	for _, node := range nodes {
		precedingRange := tree_sitter.Range{
			StartByte:  0,
			StartPoint: tree_sitter.Point{Row: 0, Column: 0},
			EndByte:    node.StartByte(),
			EndPoint:   node.StartPosition(),
		}
		followingRange := tree_sitter.Range{
			StartByte:  node.EndByte(),
			StartPoint: node.EndPosition(),
			EndByte:    ^uint(0),
			EndPoint:   tree_sitter.Point{Row: ^uint(0), Column: ^uint(0)},
		}

		var excludedRanges []tree_sitter.Range
		if !includeChildren {
			cursor.Reset(node)
			if cursor.GotoFirstChild() {
				for {
					child := cursor.Node()
					excludedRanges = append(excludedRanges, tree_sitter.Range{
						StartByte:  child.StartByte(),
						StartPoint: child.StartPosition(),
						EndByte:    child.EndByte(),
						EndPoint:   child.EndPosition(),
					})
					if !cursor.GotoNextSibling() {
						break
					}
				}
			}
		}
		excludedRanges = append(excludedRanges, followingRange)

		for _, excluded := range excludedRanges {
			r := tree_sitter.Range{
				StartByte:  precedingRange.EndByte,
				StartPoint: precedingRange.EndPoint,
				EndByte:    excluded.StartByte,
				EndPoint:   excluded.StartPoint,
			}
			precedingRange = excluded

			if r.EndByte < parentRange.StartByte {
				continue
			}

			for parentRange.StartByte <= r.EndByte {
				if parentRange.EndByte > r.StartByte {
					if r.StartByte < parentRange.StartByte {
						r.StartByte = parentRange.StartByte
						r.StartPoint = parentRange.StartPoint
					}

					if parentRange.EndByte < r.EndByte {
						if r.StartByte < parentRange.EndByte {
							results = append(results, tree_sitter.Range{
								StartByte:  r.StartByte,
								StartPoint: r.StartPoint,
								EndByte:    parentRange.EndByte,
								EndPoint:   parentRange.EndPoint,
							})
						}
						r.StartByte = parentRange.EndByte
						r.StartPoint = parentRange.EndPoint
					} else {
						if r.StartByte < r.EndByte {
							results = append(results, r)
						}
						break
					}
				}

				if len(parentRanges) > 0 {
					parentRange = parentRanges[0]
					parentRanges = parentRanges[1:]
				} else {
					return results
				}
			}
		}
	}

	return results
}
