package highlight

import (
	"context"
	"fmt"
	"iter"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/treesitter-go/highlighter/internal/logging"
)

// cancellationCheckInterval is the number of inner loop iterations between
// polls of the cancellation flag. A cost/latency trade-off, not a
// correctness boundary.
const cancellationCheckInterval = 100

// InjectionCallback resolves an injected language's name (read from an
// injection.language capture's text, or hard-coded via a `#set!` property)
// to the Configuration that should highlight its content. Returning nil
// means the language is unknown and the injection is ignored.
type InjectionCallback func(languageName string) *Configuration

// Highlighter is the long-lived, reusable entry point: it owns the
// tree-sitter parser and a pool of query cursors that are meant to survive
// across many Highlight calls, not be rebuilt per call.
type Highlighter struct {
	parser  *tree_sitter.Parser
	cursors []*tree_sitter.QueryCursor
}

// New creates a Highlighter with its own tree-sitter parser. A Highlighter
// is not safe for concurrent use by multiple goroutines; each concurrent
// highlighting run needs its own Highlighter.
func New() *Highlighter {
	return &Highlighter{parser: tree_sitter.NewParser()}
}

func (h *Highlighter) popCursor() *tree_sitter.QueryCursor {
	if n := len(h.cursors); n > 0 {
		c := h.cursors[n-1]
		h.cursors = h.cursors[:n-1]
		return c
	}
	return tree_sitter.NewQueryCursor()
}

func (h *Highlighter) pushCursor(c *tree_sitter.QueryCursor) {
	h.cursors = append(h.cursors, c)
}

// highlightRange records the byte span and depth of the most recently
// emitted HighlightStart, used for the duplicate-suppression rule below:
// a shallower layer's capture covering the exact same range as a deeper
// layer's already-emitted highlight yields nothing new.
type highlightRange struct {
	start uint
	end   uint
	depth uint
}

// iterator drives the merge across all active layers, emitting one event
// per call to next.
type iterator struct {
	ctx               context.Context
	source            []byte
	rootLanguageName  string
	highlighter       *Highlighter
	injectionCallback InjectionCallback
	injectionsCursor  *tree_sitter.QueryCursor

	layers             []*layerState
	byteOffset         uint
	nextEvents         []Event
	lastHighlightRange *highlightRange
	cancel             *CancellationFlag
	iterCount          uint64
}

// buildLayer parses source under ranges with cfg's language and constructs
// the resulting layerState. The capture iterator borrows the parsed tree
// and a pooled cursor, both kept alive as stable handles on the returned
// layerState for as long as the layer stays active.
func buildLayer(ctx context.Context, h *Highlighter, cfg *Configuration, parentLanguageName string, depth uint, ranges []tree_sitter.Range, source []byte, cancel *CancellationFlag) (*layerState, error) {
	if cancel.cancelled() {
		return nil, ErrCancelled
	}

	if err := h.parser.SetIncludedRanges(ranges); err != nil {
		return nil, fmt.Errorf("%w: setting included ranges: %v", ErrInvalidLanguage, err)
	}
	if err := h.parser.SetLanguage(cfg.Language); err != nil {
		return nil, fmt.Errorf("%w: setting language %q: %v", ErrInvalidLanguage, cfg.LanguageName, err)
	}

	tree := h.parser.ParseCtx(ctx, source, nil)
	if tree == nil {
		if ctx.Err() != nil || cancel.cancelled() {
			return nil, ErrCancelled
		}
		return nil, ErrUnknown
	}

	cursor := h.popCursor()
	captures := newCaptureIter(cursor.Captures(cfg.query, tree.RootNode(), source))

	logging.From(ctx).Debug("highlight: layer constructed",
		zap.String("language", cfg.LanguageName),
		zap.Uint("depth", depth),
	)

	return &layerState{
		tree:     tree,
		cursor:   cursor,
		config:   cfg,
		captures: captures,
		scopeStack: []localScope{
			{Inherits: false, Range: rootScopeRange},
		},
		ranges: ranges,
		depth:  depth,
	}, nil
}

// Highlight returns a lazily-pulled sequence of highlight events for
// source, per cfg. injectionCallback resolves any nested-language
// injections discovered mid-stream; cancel, if non-nil, lets a caller
// request cooperative cancellation from another goroutine.
func (h *Highlighter) Highlight(ctx context.Context, cfg Configuration, source []byte, injectionCallback InjectionCallback, cancel *CancellationFlag) iter.Seq2[Event, error] {
	rootRanges := []tree_sitter.Range{rootScopeRange}

	root, err := buildLayer(ctx, h, &cfg, "", 0, rootRanges, source, cancel)
	if err != nil {
		return func(yield func(Event, error) bool) {
			yield(nil, err)
		}
	}

	it := &iterator{
		ctx:               ctx,
		source:            source,
		rootLanguageName:  cfg.LanguageName,
		highlighter:       h,
		injectionCallback: injectionCallback,
		injectionsCursor:  h.popCursor(),
		layers:            []*layerState{root},
		cancel:            cancel,
	}
	it.sortLayers()

	return func(yield func(Event, error) bool) {
		defer h.pushCursor(it.injectionsCursor)
		for {
			event, err := it.next()
			if err != nil {
				yield(nil, err)
				return
			}
			if event == nil {
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}

// emitEvent flushes any unconsumed source text up to offset: if there is
// unflushed source before offset, that Source event is returned now and ev
// is buffered for the next call; otherwise ev is returned immediately. A
// nil ev (used when there is nothing left to buffer, only source to flush)
// is simply dropped once consumed.
func (it *iterator) emitEvent(offset uint, ev Event) (Event, error) {
	var result Event
	if it.byteOffset < offset {
		result = EventSource{StartByte: it.byteOffset, EndByte: offset}
		it.byteOffset = offset
		if ev != nil {
			it.nextEvents = append(it.nextEvents, ev)
		}
	} else {
		result = ev
	}
	it.sortLayers()
	return result, nil
}

func (it *iterator) next() (Event, error) {
	for {
		if len(it.nextEvents) > 0 {
			ev := it.nextEvents[0]
			it.nextEvents = it.nextEvents[1:]
			return ev, nil
		}

		it.iterCount++
		if it.iterCount >= cancellationCheckInterval {
			it.iterCount = 0
			if it.cancel.cancelled() {
				logging.From(it.ctx).Debug("highlight: cancelled")
				return nil, ErrCancelled
			}
		}
		if err := it.ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		if len(it.layers) == 0 {
			if it.byteOffset < uint(len(it.source)) {
				ev := EventSource{StartByte: it.byteOffset, EndByte: uint(len(it.source))}
				it.byteOffset = uint(len(it.source))
				return ev, nil
			}
			return nil, nil
		}

		layer := it.layers[0]

		var (
			match        tree_sitter.QueryMatch
			captureIndex uint
			capture      tree_sitter.QueryCapture
			captureRange tree_sitter.Range
		)
		if m, ci, ok := layer.captures.Peek(); ok {
			match, captureIndex = m, ci
			capture = match.Captures[captureIndex]
			captureRange = capture.Node.Range()
		} else if n := len(layer.highlightEndStack); n > 0 {
			endByte := layer.highlightEndStack[n-1]
			layer.highlightEndStack = layer.highlightEndStack[:n-1]
			return it.emitEvent(endByte, EventHighlightEnd{})
		} else {
			return it.emitEvent(uint(len(it.source)), nil)
		}

		// An end at or before the next capture's start must close first.
		if n := len(layer.highlightEndStack); n > 0 {
			endByte := layer.highlightEndStack[n-1]
			if endByte <= captureRange.StartByte {
				layer.highlightEndStack = layer.highlightEndStack[:n-1]
				return it.emitEvent(endByte, EventHighlightEnd{})
			}
		}

		// Pop any scopes the capture has moved past.
		for captureRange.StartByte > layer.scopeStack[len(layer.scopeStack)-1].Range.EndByte {
			layer.scopeStack = layer.scopeStack[:len(layer.scopeStack)-1]
		}

		match, captureIndex, _ = layer.captures.Next()
		capture = match.Captures[captureIndex]

		// Injection: a match on an injections-section pattern.
		if match.PatternIndex < layer.config.localsPatternIndex {
			site, hasSite := injectionSite(layer.config, match)
			match.Remove()

			if hasSite {
				for {
					nextMatch, _, ok := layer.captures.Peek()
					if !ok || nextMatch.PatternIndex >= layer.config.localsPatternIndex {
						break
					}
					nextSite, nextHasSite := injectionSite(layer.config, nextMatch)
					if !nextHasSite || !nextSite.Equals(site) {
						break
					}
					m, _, _ := layer.captures.Next()
					m.Remove()
				}

				groups := resolveInjections(layer.config, it.injectionsCursor, site, it.rootLanguageName, it.source)
				for _, g := range groups {
					if g.languageName == "" || len(g.contentNodes) == 0 {
						continue
					}
					nextCfg := it.injectionCallback(g.languageName)
					if nextCfg == nil {
						logging.From(it.ctx).Warn("highlight: unresolved injection language",
							zap.String("language", g.languageName))
						continue
					}
					ranges := intersectRanges(layer.ranges, g.contentNodes, g.includeChildren)
					if len(ranges) == 0 {
						continue
					}
					newLayer, err := buildLayer(it.ctx, it.highlighter, nextCfg, layer.config.LanguageName, layer.depth+1, ranges, it.source, it.cancel)
					if err != nil {
						return nil, err
					}
					it.insertLayer(newLayer)
				}
			}

			it.sortLayers()
			continue
		}

		// Locals: walk every same-node capture on a locals-section pattern,
		// maintaining scopes/definitions/references as we go.
		var referenceHighlight *Highlight
		defScopeIdx, defIdx := -1, -1

		for match.PatternIndex < layer.config.highlightsPatternIndex {
			switch {
			case layer.config.localScopeCaptureIdx != nil && uint(capture.Index) == *layer.config.localScopeCaptureIdx:
				defScopeIdx, defIdx = -1, -1
				scope := localScope{Inherits: true, Range: captureRange}
				for _, prop := range layer.config.query.PropertySettings(match.PatternIndex) {
					if prop.Key == propLocalScopeInherits && prop.Value != nil {
						scope.Inherits = *prop.Value == "true"
					}
				}
				layer.scopeStack = append(layer.scopeStack, scope)

			case layer.config.localDefCaptureIdx != nil && uint(capture.Index) == *layer.config.localDefCaptureIdx:
				referenceHighlight = nil
				defScopeIdx, defIdx = -1, -1
				scopeIdx := len(layer.scopeStack) - 1

				var valueRange tree_sitter.Range
				for _, mc := range match.Captures {
					if layer.config.localDefValueCaptureIdx != nil && uint(mc.Index) == *layer.config.localDefValueCaptureIdx {
						valueRange = mc.Node.Range()
					}
				}

				if int(captureRange.EndByte) <= len(it.source) {
					name := it.source[captureRange.StartByte:captureRange.EndByte]
					layer.scopeStack[scopeIdx].LocalDefs = append(layer.scopeStack[scopeIdx].LocalDefs, localDef{
						Name:       name,
						ValueRange: valueRange,
					})
					defScopeIdx = scopeIdx
					defIdx = len(layer.scopeStack[scopeIdx].LocalDefs) - 1
				}

			case layer.config.localRefCaptureIdx != nil && uint(capture.Index) == *layer.config.localRefCaptureIdx && defIdx < 0:
				if int(captureRange.EndByte) <= len(it.source) {
					name := it.source[captureRange.StartByte:captureRange.EndByte]
					for si := len(layer.scopeStack) - 1; si >= 0; si-- {
						scope := layer.scopeStack[si]
						var found *Highlight
						for di := len(scope.LocalDefs) - 1; di >= 0; di-- {
							def := scope.LocalDefs[di]
							if bytesEqual(def.Name, name) && captureRange.StartByte >= def.ValueRange.EndByte {
								found = def.Highlight
								break
							}
						}
						if found != nil {
							referenceHighlight = found
							break
						}
						if !scope.Inherits {
							break
						}
					}
				}
			}

			nextMatch, nextIdx, ok := layer.captures.Peek()
			if !ok {
				break
			}
			nextCapture := nextMatch.Captures[nextIdx]
			if !nextCapture.Node.Equals(capture.Node) {
				break
			}
			capture = nextCapture
			match, _, _ = layer.captures.Next()
		}

		if match.PatternIndex >= layer.config.highlightsPatternIndex {
			// Highlight: a match on a highlights-section pattern.
			hasHighlight := true
			if it.lastHighlightRange != nil {
				last := *it.lastHighlightRange
				if captureRange.StartByte == last.start && captureRange.EndByte == last.end && layer.depth < last.depth {
					hasHighlight = false
				}
			}

			for hasHighlight && (defIdx >= 0 || referenceHighlight != nil) && layer.config.nonLocalVariablePattern[match.PatternIndex] {
				hasHighlight = false
				if nextMatch, nextIdx, ok := layer.captures.Peek(); ok {
					nextCapture := nextMatch.Captures[nextIdx]
					if nextCapture.Node.Equals(capture.Node) {
						capture = nextCapture
						hasHighlight = true
						match, _, _ = layer.captures.Next()
						continue
					}
				}
				break
			}

			if hasHighlight {
				for {
					nextMatch, nextIdx, ok := layer.captures.Peek()
					if !ok || !nextMatch.Captures[nextIdx].Node.Equals(capture.Node) {
						break
					}
					layer.captures.Next()
				}

				currentHighlight := layer.config.highlightIndices[capture.Index]

				if defIdx >= 0 && currentHighlight != nil {
					h := *currentHighlight
					layer.scopeStack[defScopeIdx].LocalDefs[defIdx].Highlight = &h
				}

				highlight := referenceHighlight
				if highlight == nil {
					highlight = currentHighlight
				}
				if highlight != nil {
					it.lastHighlightRange = &highlightRange{
						start: captureRange.StartByte,
						end:   captureRange.EndByte,
						depth: layer.depth,
					}
					layer.highlightEndStack = append(layer.highlightEndStack, captureRange.EndByte)
					return it.emitEvent(captureRange.StartByte, EventHighlightStart{Highlight: *highlight})
				}
			}
		}

		it.sortLayers()
	}
}

// sortLayers retires any front layers whose sort key is absent and moves
// the layer with the smallest sort key to the front. Only the front
// layer's key can have advanced since the last sort, so a single rotation
// suffices instead of a full re-sort.
func (it *iterator) sortLayers() {
	for len(it.layers) > 0 {
		key, ok := it.layers[0].sortKey()
		if ok {
			i := 0
			for i+1 < len(it.layers) {
				nextKey, nextOK := it.layers[i+1].sortKey()
				if nextOK && nextKey.less(key) {
					i++
					continue
				}
				break
			}
			if i > 0 {
				front := it.layers[0]
				copy(it.layers, it.layers[1:i+1])
				it.layers[i] = front
			}
			return
		}

		logging.From(it.ctx).Debug("highlight: layer retired",
			zap.String("language", it.layers[0].config.LanguageName))
		it.highlighter.pushCursor(it.layers[0].cursor)
		it.layers = it.layers[1:]
	}
}

// insertLayer splices a newly-constructed injection layer into it.layers at
// its sort-key position.
func (it *iterator) insertLayer(layer *layerState) {
	key, ok := layer.sortKey()
	if !ok {
		return
	}
	i := 1
	for i < len(it.layers) {
		keyI, ok := it.layers[i].sortKey()
		if !ok {
			it.layers = append(it.layers[:i], it.layers[i+1:]...)
			continue
		}
		if keyI.greater(key) {
			it.layers = append(it.layers[:i], append([]*layerState{layer}, it.layers[i:]...)...)
			return
		}
		i++
	}
	it.layers = append(it.layers, layer)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
