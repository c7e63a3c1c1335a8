package highlight

import (
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// NewLanguage wraps a grammar's raw language pointer (as returned by a
// generated `tree_sitter_<name>()` C function) into a *tree_sitter.Language.
// Re-exported so callers need not import go-tree-sitter directly just to
// construct the Language handle NewConfiguration expects.
func NewLanguage(ptr unsafe.Pointer) *tree_sitter.Language {
	return tree_sitter.NewLanguage(ptr)
}
