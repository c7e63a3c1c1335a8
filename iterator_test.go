package highlight

import (
	"context"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_js "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

func goConfig(t *testing.T, recognized []string) *Configuration {
	t.Helper()
	cfg, err := NewConfiguration(
		goLanguage(t), "go",
		readTestdata(t, "testdata/go/highlights.scm"),
		readTestdata(t, "testdata/go/injections.scm"),
		readTestdata(t, "testdata/go/locals.scm"),
	)
	require.NoError(t, err)
	cfg.Configure(recognized)
	return cfg
}

func collect(t *testing.T, events func(yield func(Event, error) bool)) ([]Event, error) {
	t.Helper()
	var out []Event
	for ev, err := range events {
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func TestHighlighter_Highlight_SourceCoverageAndBalance(t *testing.T) {
	cfg := goConfig(t, []string{"keyword", "string", "function", "variable", "comment"})
	source := readTestdata(t, "testdata/go/simple.go")

	h := New()
	events, err := collect(t, h.Highlight(context.Background(), *cfg, source, func(string) *Configuration { return nil }, nil))
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var covered uint
	var depth int
	for _, ev := range events {
		switch e := ev.(type) {
		case EventSource:
			assert.Equal(t, covered, e.StartByte, "source ranges must be contiguous and in order")
			assert.Less(t, e.StartByte, e.EndByte)
			covered = e.EndByte
		case EventHighlightStart:
			depth++
		case EventHighlightEnd:
			depth--
			assert.GreaterOrEqual(t, depth, 0, "highlight ends must not exceed starts")
		}
	}
	assert.Equal(t, uint(len(source)), covered, "Source events must cover the whole input")
	assert.Zero(t, depth, "every HighlightStart must be balanced by a HighlightEnd")
}

func TestHighlighter_Highlight_EmptySourceTerminatesImmediately(t *testing.T) {
	cfg := goConfig(t, []string{"keyword"})

	h := New()
	events, err := collect(t, h.Highlight(context.Background(), *cfg, []byte(""), func(string) *Configuration { return nil }, nil))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestHighlighter_Highlight_OverlappingCapturesCoalesceToOneSpan(t *testing.T) {
	// "package" is matched both by the generic keyword list and by the
	// more specific (package_clause "package" @keyword) pattern; both
	// resolve to the same recognized highlight, so only one HighlightStart/
	// HighlightEnd pair should be emitted for it, not two nested ones.
	cfg := goConfig(t, []string{"keyword"})
	source := []byte("package main\n")

	h := New()
	events, err := collect(t, h.Highlight(context.Background(), *cfg, source, func(string) *Configuration { return nil }, nil))
	require.NoError(t, err)

	var starts int
	for _, ev := range events {
		if _, ok := ev.(EventHighlightStart); ok {
			starts++
		}
	}
	assert.Equal(t, 1, starts, "overlapping captures on the same node must coalesce to a single highlight")
}

func TestHighlighter_Highlight_LocalReferenceInheritsDefinitionHighlight(t *testing.T) {
	// "count" is specifically highlighted as variable.parameter at its
	// definition site (the parameter declaration) and only generically as
	// variable everywhere else; the reference inside the body must still
	// carry the parameter's highlight, not the generic one, because a
	// local.reference always prefers its definition's recorded highlight.
	cfg := goConfig(t, []string{"variable", "variable.parameter"})
	source := []byte("package main\n\nfunc use(count int) int {\n\treturn count\n}\n")

	h := New()
	events, err := collect(t, h.Highlight(context.Background(), *cfg, source, func(string) *Configuration { return nil }, nil))
	require.NoError(t, err)

	paramHighlight, ok := cfg.registry.Resolve("variable.parameter")
	require.True(t, ok)

	refStart := strings.LastIndex(string(source), "count")
	require.Positive(t, refStart)

	var sawInheritedHighlight bool
	var byteOffset uint
	for _, ev := range events {
		switch e := ev.(type) {
		case EventSource:
			byteOffset = e.EndByte
		case EventHighlightStart:
			if byteOffset == uint(refStart) && e.Highlight == paramHighlight {
				sawInheritedHighlight = true
			}
		}
	}
	assert.True(t, sawInheritedHighlight, "reference must inherit the parameter definition's highlight")
}

func TestHighlighter_Highlight_Injection(t *testing.T) {
	jsCfg, err := NewConfiguration(tree_sitter.NewLanguage(tree_sitter_js.Language()), "javascript",
		readTestdata(t, "testdata/js/highlights.scm"), nil, nil)
	require.NoError(t, err)
	jsCfg.Configure([]string{"keyword", "function", "variable"})

	cfg := goConfig(t, []string{"keyword", "string", "function", "variable"})
	source := readTestdata(t, "testdata/go/with_injection.go")

	h := New()
	events, err := collect(t, h.Highlight(context.Background(), *cfg, source, func(name string) *Configuration {
		if name == "javascript" {
			return jsCfg
		}
		return nil
	}, nil))
	require.NoError(t, err)

	var sawJSFunctionKeyword bool
	funcAt := strings.Index(string(source), "function")
	require.Positive(t, funcAt)
	var byteOffset uint
	jsKeyword, _ := jsCfg.registry.Resolve("keyword")
	for _, ev := range events {
		switch e := ev.(type) {
		case EventSource:
			byteOffset = e.EndByte
		case EventHighlightStart:
			if byteOffset == uint(funcAt) && e.Highlight == jsKeyword {
				sawJSFunctionKeyword = true
			}
		}
	}
	assert.True(t, sawJSFunctionKeyword, "the injected JavaScript layer must highlight its own keywords")
}

func TestHighlighter_Highlight_CancellationStopsIteration(t *testing.T) {
	cfg := goConfig(t, []string{"keyword", "string", "function", "variable", "comment"})

	var source strings.Builder
	source.WriteString("package main\n\nfunc f() {\n")
	for i := 0; i < 200; i++ {
		source.WriteString("\tvar x = 1\n")
	}
	source.WriteString("}\n")

	h := New()
	var cancel CancellationFlag
	next, stop := iter.Pull2(h.Highlight(context.Background(), *cfg, []byte(source.String()), func(string) *Configuration { return nil }, &cancel))
	defer stop()

	for i := 0; i < 5; i++ {
		_, _, ok := next()
		require.True(t, ok)
	}
	cancel.Cancel()

	var sawCancelled bool
	for {
		ev, err, ok := next()
		if !ok {
			break
		}
		if err != nil {
			require.ErrorIs(t, err, ErrCancelled)
			sawCancelled = true
			continue
		}
		require.False(t, sawCancelled, "no further events after Cancelled: got %#v", ev)
	}
	assert.True(t, sawCancelled)
}
