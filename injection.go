package highlight

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// injectionGroup is one pattern-index's worth of matches against the
// injections-only query, rooted at a single injection.site node.
type injectionGroup struct {
	patternIndex    uint
	languageName    string
	contentNodes    []tree_sitter.Node
	includeChildren bool
}

// resolveInjections re-matches cfg's injections-only query rooted at site,
// using the shared injections cursor, and groups the results by pattern
// index.
//
// The capture indices used to pick out injection.language/injection.content
// out of each match are the ones cached on cfg from the combined query, not
// from injectionsQuery's own capture table; see the comment on
// Configuration.injectionContentCaptureIdx for why those coincide.
func resolveInjections(cfg *Configuration, injectionsCursor *tree_sitter.QueryCursor, site tree_sitter.Node, parentLanguageName string, source []byte) []injectionGroup {
	var groups []injectionGroup
	index := make(map[uint]int)

	matches := injectionsCursor.Matches(cfg.injectionsQuery, site, source)
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		i, ok := index[match.PatternIndex]
		if !ok {
			i = len(groups)
			index[match.PatternIndex] = i
			groups = append(groups, injectionGroup{patternIndex: match.PatternIndex})
		}
		g := &groups[i]

		for _, capture := range match.Captures {
			idx := uint(capture.Index)
			switch {
			case cfg.injectionSiteCaptureIdx != nil && idx == *cfg.injectionSiteCaptureIdx:
				// Just an anchor; injectionsQuery was already rooted at it.
			case cfg.injectionLanguageCaptureIdx != nil && idx == *cfg.injectionLanguageCaptureIdx:
				if g.languageName == "" {
					g.languageName = capture.Node.Utf8Text(source)
				}
			case cfg.injectionContentCaptureIdx != nil && idx == *cfg.injectionContentCaptureIdx:
				g.contentNodes = append(g.contentNodes, capture.Node)
			}
		}
	}

	// Property settings (injection.language / injection.self / injection.parent /
	// injection.include-children) are read from the combined query's table at
	// the same pattern index; these coincide for the same reason the capture
	// indices do.
	for i := range groups {
		g := &groups[i]
		for _, prop := range cfg.query.PropertySettings(g.patternIndex) {
			switch prop.Key {
			case propInjectionLanguage:
				if g.languageName == "" && prop.Value != nil {
					g.languageName = *prop.Value
				}
			case propInjectionSelf:
				if g.languageName == "" {
					g.languageName = cfg.LanguageName
				}
			case propInjectionParent:
				if g.languageName == "" {
					g.languageName = parentLanguageName
				}
			case propInjectionIncludeChildren:
				g.includeChildren = true
			}
		}
	}

	return groups
}

// injectionSite extracts the injection.site node from match: the node that
// anchors the injection. Returns ok=false when the combined query's match
// carries no such capture, in which case the injection is silently ignored.
func injectionSite(cfg *Configuration, match tree_sitter.QueryMatch) (tree_sitter.Node, bool) {
	if cfg.injectionSiteCaptureIdx == nil {
		return tree_sitter.Node{}, false
	}
	for _, capture := range match.Captures {
		if uint(capture.Index) == *cfg.injectionSiteCaptureIdx {
			return capture.Node, true
		}
	}
	return tree_sitter.Node{}, false
}
