package highlight

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
)

func goLanguage(t *testing.T) *tree_sitter.Language {
	t.Helper()
	return tree_sitter.NewLanguage(tree_sitter_go.Language())
}

func readTestdata(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestNewConfiguration_ClassifiesPatternsBySection(t *testing.T) {
	highlights := readTestdata(t, "testdata/go/highlights.scm")
	injections := readTestdata(t, "testdata/go/injections.scm")
	locals := readTestdata(t, "testdata/go/locals.scm")

	cfg, err := NewConfiguration(goLanguage(t), "go", highlights, injections, locals)
	require.NoError(t, err)

	require.NotNil(t, cfg.injectionSiteCaptureIdx)
	require.NotNil(t, cfg.localScopeCaptureIdx)
	require.NotNil(t, cfg.localDefCaptureIdx)
	require.NotNil(t, cfg.localRefCaptureIdx)

	require.Greater(t, cfg.localsPatternIndex, uint(0))
	require.GreaterOrEqual(t, cfg.highlightsPatternIndex, cfg.localsPatternIndex)
}

func TestConfiguration_Configure_ResolvesHighlightIndices(t *testing.T) {
	highlights := readTestdata(t, "testdata/go/highlights.scm")

	cfg, err := NewConfiguration(goLanguage(t), "go", highlights, nil, nil)
	require.NoError(t, err)
	cfg.Configure([]string{"keyword", "string", "function"})

	var sawResolved bool
	for i, name := range cfg.query.CaptureNames() {
		if name == "keyword" && cfg.highlightIndices[i] != nil {
			sawResolved = true
		}
	}
	require.True(t, sawResolved, "keyword capture should resolve against the recognized-names list")
}

func TestConfiguration_NonconformantCaptureNames(t *testing.T) {
	highlights := readTestdata(t, "testdata/go/highlights.scm")

	cfg, err := NewConfiguration(goLanguage(t), "go", highlights, nil, nil)
	require.NoError(t, err)

	nonconformant := cfg.NonconformantCaptureNames([]string{"keyword", "string", "function"})
	require.NotContains(t, nonconformant, "keyword")
	require.Contains(t, nonconformant, "variable.member")
}

func TestNewConfiguration_InvalidQueryIsReported(t *testing.T) {
	_, err := NewConfiguration(goLanguage(t), "go", []byte("(this is not valid"), nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidLanguage)
}
