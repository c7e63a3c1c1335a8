// Package html renders a highlight event stream to escaped, span-per-highlight
// HTML. It is an example sink over the core event contract, not part of the
// highlighting engine itself.
package html

import (
	"bytes"
	"fmt"
	"iter"
	"unicode/utf8"

	highlight "github.com/treesitter-go/highlighter"
)

// AttributeCallback generates the HTML attributes for a highlight's opening
// span (e.g. `class="..."`). An empty return means no attributes.
type AttributeCallback func(h highlight.Highlight) string

// Renderer is a stateful accumulator; Render may be called more than once on
// a fresh Renderer but not concurrently.
type Renderer struct {
	html        bytes.Buffer
	lineOffsets []int
}

// NewRenderer returns a Renderer ready for Render.
func NewRenderer() *Renderer {
	r := &Renderer{}
	r.Reset()
	return r
}

// Reset clears any previously rendered output.
func (r *Renderer) Reset() {
	r.html.Reset()
	r.lineOffsets = []int{0}
}

// Render consumes events, writing HTML for source into the Renderer's
// buffer. On return, HTML and LineOffsets reflect the whole run.
func (r *Renderer) Render(events iter.Seq2[highlight.Event, error], source []byte, attrs AttributeCallback) error {
	var highlights []highlight.Highlight

	for event, err := range events {
		if err != nil {
			return fmt.Errorf("html: rendering: %w", err)
		}

		switch e := event.(type) {
		case highlight.EventHighlightStart:
			highlights = append(highlights, e.Highlight)
			r.startHighlight(e.Highlight, attrs)
		case highlight.EventHighlightEnd:
			highlights = highlights[:len(highlights)-1]
			r.endHighlight()
		case highlight.EventSource:
			r.addText(source[e.StartByte:e.EndByte], highlights, attrs)
		}
	}

	if b := r.html.Bytes(); len(b) == 0 || b[len(b)-1] != '\n' {
		r.html.WriteByte('\n')
	}
	if n := len(r.lineOffsets); n > 0 && r.lineOffsets[n-1] == r.html.Len() {
		r.lineOffsets = r.lineOffsets[:n-1]
	}
	return nil
}

// HTML returns the buffer rendered so far.
func (r *Renderer) HTML() []byte {
	return r.html.Bytes()
}

// LineOffsets returns the byte offset, into HTML(), of each line's first
// byte. LineOffsets()[0] is always 0.
func (r *Renderer) LineOffsets() []int {
	return r.lineOffsets
}

// Lines splits HTML() into lines (each still terminated by, or ending
// right before, its '\n') using LineOffsets.
func (r *Renderer) Lines() []string {
	html := r.HTML()
	lines := make([]string, len(r.lineOffsets))
	for i, start := range r.lineOffsets {
		end := len(html)
		if i+1 < len(r.lineOffsets) {
			end = r.lineOffsets[i+1]
		}
		lines[i] = string(html[start:end])
	}
	return lines
}

func (r *Renderer) startHighlight(h highlight.Highlight, attrs AttributeCallback) {
	r.html.WriteString("<span")
	var attributes string
	if attrs != nil {
		attributes = attrs(h)
	}
	if len(attributes) > 0 {
		r.html.WriteByte(' ')
		r.html.WriteString(attributes)
	}
	r.html.WriteByte('>')
}

func (r *Renderer) endHighlight() {
	r.html.WriteString("</span>")
}

// addText appends src to the buffer, escaping HTML-sensitive characters and
// replacing invalid UTF-8 with the Unicode replacement character. A newline
// closes every currently-open span, strips an immediately preceding '\r',
// records the new line's start offset, then reopens every span so each
// rendered line is independently well-formed HTML.
func (r *Renderer) addText(src []byte, highlights []highlight.Highlight, attrs AttributeCallback) {
	for len(src) > 0 {
		c, size := utf8.DecodeRune(src)
		src = src[size:]

		switch c {
		case '\n':
			if b := r.html.Bytes(); len(b) > 0 && b[len(b)-1] == '\r' {
				r.html.Truncate(r.html.Len() - 1)
			}
			for range highlights {
				r.endHighlight()
			}
			r.html.WriteByte('\n')
			r.lineOffsets = append(r.lineOffsets, r.html.Len())
			for _, h := range highlights {
				r.startHighlight(h, attrs)
			}
		case '&':
			r.html.WriteString("&amp;")
		case '<':
			r.html.WriteString("&lt;")
		case '>':
			r.html.WriteString("&gt;")
		case '"':
			r.html.WriteString("&quot;")
		case '\'':
			r.html.WriteString("&#39;")
		default:
			r.html.WriteRune(c)
		}
	}
}
