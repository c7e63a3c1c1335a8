// Package config loads a YAML description of which languages to highlight
// with, which query files back each one, and which highlight names the
// caller's theme recognizes, and turns it into ready [highlight.Configuration]
// values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	highlight "github.com/treesitter-go/highlighter"
	"github.com/treesitter-go/highlighter/language"
)

// Manifest is the top-level structure of a highlighter config file: the
// caller's recognized highlight names plus one entry per supported
// language.
type Manifest struct {
	// RecognizedNames is passed to every language's Configure call. Order
	// matters: it is the tie-break among equally dotted-prefix-matching
	// names.
	RecognizedNames []string `yaml:"recognized_names"`

	Languages []LanguageEntry `yaml:"languages"`
}

// LanguageEntry names one language's query files, relative to the baseDir
// passed to LoadAll unless absolute.
type LanguageEntry struct {
	Name            string `yaml:"name"`
	HighlightsQuery string `yaml:"highlights_query"`
	InjectionQuery  string `yaml:"injections_query"`
	LocalsQuery     string `yaml:"locals_query"`
}

// GrammarLookup resolves a language name to its compiled tree-sitter
// grammar pointer (as exported by a `tree_sitter_<lang>` cgo binding). The
// manifest format has no way to embed a grammar itself, so the caller
// supplies this.
type GrammarLookup func(languageName string) (unsafe.Pointer, bool)

// Load reads and parses the manifest at path. It does not read any query
// files or compile any grammar; call LoadAll for that.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &m, nil
}

// LoadAll resolves every language in m against grammars, reads its query
// files (relative to baseDir), compiles and themes a [highlight.Configuration]
// for it, and returns a name-indexed map. A grammar lookup failure or query
// compile error for one language does not stop the others from loading;
// every such failure is collected with multierr and returned alongside
// whatever configurations did succeed.
func (m *Manifest) LoadAll(baseDir string, grammars GrammarLookup) (map[string]*highlight.Configuration, error) {
	configs := make(map[string]*highlight.Configuration, len(m.Languages))
	var errs error

	for _, entry := range m.Languages {
		cfg, err := m.loadOne(baseDir, grammars, entry)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("config: language %q: %w", entry.Name, err))
			continue
		}
		configs[entry.Name] = cfg
	}

	return configs, errs
}

func (m *Manifest) loadOne(baseDir string, grammars GrammarLookup, entry LanguageEntry) (*highlight.Configuration, error) {
	grammar, ok := grammars(entry.Name)
	if !ok {
		return nil, fmt.Errorf("no grammar registered")
	}

	highlights, err := readQueryFile(baseDir, entry.HighlightsQuery)
	if err != nil {
		return nil, err
	}
	injections, err := readQueryFile(baseDir, entry.InjectionQuery)
	if err != nil {
		return nil, err
	}
	locals, err := readQueryFile(baseDir, entry.LocalsQuery)
	if err != nil {
		return nil, err
	}

	lang := language.New(entry.Name, grammar, highlights, injections, locals)
	return lang.Configure(m.RecognizedNames)
}

func readQueryFile(baseDir, name string) ([]byte, error) {
	if name == "" {
		return nil, nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file %s: %w", path, err)
	}
	return data, nil
}
