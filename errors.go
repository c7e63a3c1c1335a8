package highlight

import "errors"

// Sentinel errors covering every way a highlighting run can fail. Use
// errors.Is to test for them; iterator errors are always one of these
// three (wrapped with additional context via fmt.Errorf("%w", ...) where
// useful).
var (
	// ErrCancelled is yielded when cooperative cancellation was observed,
	// either while constructing an injection layer's parse tree or while
	// the iterator's next() loop was polling its cancellation flag.
	ErrCancelled = errors.New("highlight: cancelled")

	// ErrInvalidLanguage is yielded when the tree-sitter parser rejects a
	// Configuration's language handle.
	ErrInvalidLanguage = errors.New("highlight: invalid language")

	// ErrUnknown is yielded when parsing fails for a reason other than
	// cancellation (the parser returned no tree at all).
	ErrUnknown = errors.New("highlight: unknown parse failure")
)

// CancellationFlag is a cooperative cancellation signal shared between a
// caller and a running [Highlighter.Highlight] iteration. A nonzero value
// observed at a poll causes the next yielded item to be ErrCancelled; no
// further items are produced afterwards. The zero value is "not cancelled".
//
// There are no timeouts built in; a caller that wants one sets the flag
// from its own timer.
type CancellationFlag struct {
	n uint32
}

// Cancel marks the flag as cancelled. Safe to call from any goroutine.
func (f *CancellationFlag) Cancel() {
	if f == nil {
		return
	}
	storeCancelled(&f.n)
}

// cancelled reports whether the flag has been cancelled. Safe to call from
// any goroutine, including concurrently with Cancel.
func (f *CancellationFlag) cancelled() bool {
	if f == nil {
		return false
	}
	return loadCancelled(&f.n)
}
