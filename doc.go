/*
Package highlight turns tree-sitter parse trees into a flat stream of
syntax-highlight events.

It is a generalized Go rendering of the upstream tree-sitter-highlight
engine: given source bytes, a compiled [Configuration] (highlights query,
an optional injections query, an optional locals query) and a caller
dictionary of recognized highlight names, [Highlighter.Highlight] returns a
lazily-pulled [iter.Seq2] of [Event] values that interleave raw source spans
with highlight start/end markers. Nested language injections are discovered
mid-stream and merged in by byte offset and layer depth; local-variable
scopes let identifier references borrow the highlight assigned to their
declaration site.

# Usage

	source := []byte("package main\n\nfunc main() {}\n")

	language := tree_sitter.NewLanguage(tree_sitter_go.Language())
	cfg, err := highlight.NewConfiguration(language, "go", highlightsQuery, injectionsQuery, localsQuery)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Configure([]string{"function", "keyword", "string", "variable"})

	h := highlight.New()
	events := h.Highlight(context.Background(), *cfg, source, func(name string) *highlight.Configuration {
		return nil // no injections resolved in this example
	}, nil) // nil: no cancellation flag for this example

	for event, err := range events {
		if err != nil {
			log.Fatal(err)
		}
		switch e := event.(type) {
		case highlight.EventHighlightStart:
			fmt.Printf("<span data-h=%d>", e.Highlight)
		case highlight.EventHighlightEnd:
			fmt.Print("</span>")
		case highlight.EventSource:
			fmt.Print(string(source[e.StartByte:e.EndByte]))
		}
	}

The [html] subpackage builds on this event stream to produce line-indexed
escaped HTML; see its doc comment for the event contract it relies on.
*/
package highlight
