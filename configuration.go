package highlight

import (
	"fmt"
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Well-known property keys recognized on highlight patterns.
const (
	propInjectionLanguage        = "injection.language"
	propInjectionSelf            = "injection.self"
	propInjectionParent          = "injection.parent"
	propInjectionIncludeChildren = "injection.include-children"
	propLocal                    = "local"
	propLocalScopeInherits       = "local.scope-inherits"
)

// Well-known capture names recognized by the core.
const (
	captureInjectionSite     = "injection.site"
	captureInjectionContent  = "injection.content"
	captureInjectionLanguage = "injection.language"
	captureLocalScope        = "local.scope"
	captureLocalDefinition   = "local.definition"
	captureLocalDefValue     = "local.definition-value"
	captureLocalReference    = "local.reference"
)

// Configuration is the per-language compiled query set: a grammar paired
// with its injections, locals, and highlights queries. It is immutable
// after [NewConfiguration] and [Configuration.Configure] return, and may be
// shared by reference across concurrently running highlighters.
type Configuration struct {
	Language     *tree_sitter.Language
	LanguageName string

	// query is the combined query: injections, then locals, then
	// highlights, concatenated in that order when compiled so that a
	// pattern's starting byte offset classifies it unambiguously.
	query *tree_sitter.Query

	// injectionsQuery is the injections section compiled on its own, used
	// to harvest injection.language/injection.content sub-captures rooted
	// at a site node without those captures interleaving into the main
	// capture stream.
	injectionsQuery *tree_sitter.Query

	localsPatternIndex     uint
	highlightsPatternIndex uint

	highlightIndices        []*Highlight
	nonLocalVariablePattern []bool
	registry                *Registry

	// injectionSiteCaptureIdx is the only injection-related capture still
	// active on the combined query; injectionContentCaptureIdx and
	// injectionLanguageCaptureIdx are disabled there (query.DisableCapture,
	// below) but their indices are still cached and reused against matches
	// from injectionsQuery. That reuse is valid because injectionsQuery is
	// compiled from exactly the injections section of the same source, so
	// its capture ids coincide with the combined query's for the same
	// names: a tree-sitter Query assigns capture ids in order of first
	// textual occurrence, and the injections section appears first in the
	// concatenation.
	injectionSiteCaptureIdx     *uint
	injectionContentCaptureIdx  *uint
	injectionLanguageCaptureIdx *uint

	localScopeCaptureIdx    *uint
	localDefCaptureIdx      *uint
	localDefValueCaptureIdx *uint
	localRefCaptureIdx      *uint
}

// NewConfiguration compiles the combined query for a language from its
// three query sources (any of which may be empty) and returns a
// Configuration ready for [Configuration.Configure].
//
// The three sources are concatenated in {injections, locals, highlights}
// order and compiled once; the injections source is compiled a second time
// on its own so injection sub-captures can be harvested per occurrence
// without interleaving into the main stream; every pattern is classified
// injection/local/highlight by the byte offset it started at in the
// concatenated source.
func NewConfiguration(language *tree_sitter.Language, languageName string, highlightsQuery, injectionQuery, localsQuery []byte) (*Configuration, error) {
	querySource := make([]byte, 0, len(injectionQuery)+len(localsQuery)+len(highlightsQuery))
	querySource = append(querySource, injectionQuery...)
	localsQueryOffset := uint(len(querySource))
	querySource = append(querySource, localsQuery...)
	highlightsQueryOffset := uint(len(querySource))
	querySource = append(querySource, highlightsQuery...)

	query, err := tree_sitter.NewQuery(language, string(querySource))
	if err != nil {
		return nil, fmt.Errorf("%w: compiling combined query: %v", ErrInvalidLanguage, err)
	}

	injectionsQuery, err := tree_sitter.NewQuery(language, string(injectionQuery))
	if err != nil {
		return nil, fmt.Errorf("%w: compiling injections query: %v", ErrInvalidLanguage, err)
	}

	// Keep only the injection.site capture active in the combined query's
	// stream; injection.content/injection.language are harvested later via
	// injectionsQuery, rooted at the site node, so they never interleave
	// with locals/highlights captures.
	for _, name := range injectionsQuery.CaptureNames() {
		if name != captureInjectionSite {
			query.DisableCapture(name)
		}
	}

	localsPatternIndex := uint(0)
	highlightsPatternIndex := uint(0)
	for i := uint(0); i < query.PatternCount(); i++ {
		patternOffset := query.StartByteForPattern(i)
		if patternOffset < highlightsQueryOffset {
			highlightsPatternIndex++
			if patternOffset < localsQueryOffset {
				localsPatternIndex++
			}
		}
	}

	nonLocalVariablePattern := make([]bool, query.PatternCount())
	for i := range nonLocalVariablePattern {
		for _, predicate := range query.PropertyPredicates(uint(i)) {
			if !predicate.Positive && predicate.Property.Key == propLocal {
				nonLocalVariablePattern[i] = true
				break
			}
		}
	}

	cfg := &Configuration{
		Language:                language,
		LanguageName:            languageName,
		query:                   query,
		injectionsQuery:         injectionsQuery,
		localsPatternIndex:      localsPatternIndex,
		highlightsPatternIndex:  highlightsPatternIndex,
		nonLocalVariablePattern: nonLocalVariablePattern,
	}

	for i, name := range query.CaptureNames() {
		ui := uint(i)
		switch name {
		case captureInjectionSite:
			cfg.injectionSiteCaptureIdx = &ui
		case captureInjectionContent:
			cfg.injectionContentCaptureIdx = &ui
		case captureInjectionLanguage:
			cfg.injectionLanguageCaptureIdx = &ui
		case captureLocalScope:
			cfg.localScopeCaptureIdx = &ui
		case captureLocalDefinition:
			cfg.localDefCaptureIdx = &ui
		case captureLocalDefValue:
			cfg.localDefValueCaptureIdx = &ui
		case captureLocalReference:
			cfg.localRefCaptureIdx = &ui
		}
	}

	return cfg, nil
}

// Configure sets the list of recognized highlight names and precomputes,
// for every capture id in the combined query, the best-matching Highlight
// (or none). Must be called before the
// Configuration is used for highlighting; may be called again to re-theme
// an already-compiled Configuration.
func (c *Configuration) Configure(recognizedNames []string) {
	c.registry = NewRegistry(recognizedNames)
	indices := make([]*Highlight, len(c.query.CaptureNames()))
	for i, name := range c.query.CaptureNames() {
		if h, ok := c.registry.Resolve(name); ok {
			hh := h
			indices[i] = &hh
		}
	}
	c.highlightIndices = indices
}

// Names returns every capture name used by this Configuration's combined
// query, in query-compile order.
func (c *Configuration) Names() []string {
	return c.query.CaptureNames()
}

// NonconformantCaptureNames returns the capture names used by this
// Configuration that are neither in knownNames (StandardCaptureNames when
// knownNames is empty) nor start with an underscore (the convention for
// "private" captures used only for internal query mechanics, e.g. as
// anchors for predicates). A non-empty result usually means a query file
// uses a capture name the caller's theme doesn't know about.
func (c *Configuration) NonconformantCaptureNames(knownNames []string) []string {
	if len(knownNames) == 0 {
		knownNames = StandardCaptureNames
	}
	var out []string
	for _, name := range c.Names() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		if slices.Contains(knownNames, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// StandardCaptureNames lists capture names conventionally used across
// tree-sitter highlight query files. It is opinionated and may not match
// any particular grammar's query files; it exists as a default for
// [Configuration.NonconformantCaptureNames].
var StandardCaptureNames = []string{
	"attribute",
	"boolean",
	"comment",
	"comment.documentation",
	"constant",
	"constant.builtin",
	"constructor",
	"constructor.builtin",
	"embedded",
	"error",
	"escape",
	"function",
	"function.builtin",
	"function.method",
	"keyword",
	"module",
	"number",
	"operator",
	"property",
	"property.builtin",
	"punctuation",
	"punctuation.bracket",
	"punctuation.delimiter",
	"punctuation.special",
	"string",
	"string.escape",
	"string.special",
	"tag",
	"type",
	"type.builtin",
	"variable",
	"variable.builtin",
	"variable.member",
	"variable.parameter",
}
