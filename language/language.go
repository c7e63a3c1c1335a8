// Package language bundles a grammar with the query sources that drive
// highlighting, injection and local-variable resolution for it, and knows
// how to turn that bundle into a ready [highlight.Configuration].
package language

import (
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	highlight "github.com/treesitter-go/highlighter"
)

// Language is the static description of one grammar's highlighting
// support: its compiled tree-sitter grammar plus the three query sources
// that get compiled together into a [highlight.Configuration].
type Language struct {
	Name            string
	HighlightsQuery []byte
	InjectionQuery  []byte
	LocalsQuery     []byte
	Grammar         *tree_sitter.Language
}

// New wraps a raw tree-sitter grammar pointer (as exported by a
// `tree_sitter_<lang>` cgo binding) together with its query sources.
func New(name string, grammar unsafe.Pointer, highlightsQuery, injectionQuery, localsQuery []byte) Language {
	return Language{
		Name:            name,
		HighlightsQuery: highlightsQuery,
		InjectionQuery:  injectionQuery,
		LocalsQuery:     localsQuery,
		Grammar:         tree_sitter.NewLanguage(grammar),
	}
}

// Configure compiles l's queries into a [highlight.Configuration] and themes
// it against recognizedNames in one step.
func (l Language) Configure(recognizedNames []string) (*highlight.Configuration, error) {
	cfg, err := highlight.NewConfiguration(l.Grammar, l.Name, l.HighlightsQuery, l.InjectionQuery, l.LocalsQuery)
	if err != nil {
		return nil, err
	}
	cfg.Configure(recognizedNames)
	return cfg, nil
}
