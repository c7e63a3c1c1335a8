package highlight

import "strings"

// Registry holds the ordered vocabulary of highlight names a caller
// recognizes and resolves a query's dotted capture names against it.
//
// Tree-sitter highlighting queries specify highlights as dot-separated
// names like "punctuation.bracket" or "function.method.builtin". A caller
// can choose to recognize highlights at whatever granularity its theme
// supports: requesting "function" also matches a capture named
// "function.method.builtin", but requesting "function.method" will not
// match a capture merely named "function.builtin".
type Registry struct {
	names []string
}

// NewRegistry builds a Registry from an ordered list of recognized
// highlight names. The order matters only as an earliest-wins tiebreak
// between candidates of equal specificity in Resolve.
func NewRegistry(names []string) *Registry {
	return &Registry{names: names}
}

// Names returns the recognized highlight names, in the order passed to
// NewRegistry.
func (r *Registry) Names() []string {
	return r.names
}

// Resolve finds the best-matching recognized highlight name for a query
// capture name: captureName and a candidate recognized name are each split
// on '.' into part-sets; the recognized name is a
// candidate iff every one of its parts appears somewhere in captureName's
// parts. Among candidates, the one with the most parts wins; ties are
// broken by NewRegistry's list order (earliest wins).
func (r *Registry) Resolve(captureName string) (Highlight, bool) {
	captureParts := strings.Split(captureName, ".")

	var (
		bestIndex    int
		bestMatchLen int
		found        bool
	)
	for i, recognizedName := range r.names {
		matchLen := 0
		matches := true
		for _, part := range strings.Split(recognizedName, ".") {
			matchLen++
			if !containsPart(captureParts, part) {
				matches = false
				break
			}
		}
		if matches && matchLen > bestMatchLen {
			bestIndex = i
			bestMatchLen = matchLen
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return Highlight(bestIndex), true
}

func containsPart(parts []string, part string) bool {
	for _, p := range parts {
		if p == part {
			return true
		}
	}
	return false
}
