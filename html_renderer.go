// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package markdown

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go4.org/bytereplacer"
	"golang.org/x/net/html/atom"
)

// Options is the set of parameters to [Convert].
// The zero value produces XHTML-style void elements
// and uses the default limits.
type Options struct {
	// If HTML5 is true, void elements are written as "<hr>"
	// instead of "<hr />".
	HTML5 bool
	// MaxNesting is passed to both [Parser] and [HTMLRenderer].
	MaxNesting int
	// MaxInputSize is passed to [Parser].
	MaxInputSize int
}

// ToHTML converts Markdown text to an HTML fragment
// using the default options.
// It never fails: malformed markup is rendered as text.
func ToHTML(text string) string {
	html, _ := Convert(text, nil)
	return html
}

// Convert converts Markdown text to an HTML fragment.
// A nil opts is treated the same as a pointer to the zero value.
// The returned HTML is always usable.
// If a resource limit was exceeded,
// Convert also returns a [*LimitError] for the first violation.
func Convert(text string, opts *Options) (string, error) {
	if opts == nil {
		opts = new(Options)
	}
	p := &Parser{
		MaxNesting:   opts.MaxNesting,
		MaxInputSize: opts.MaxInputSize,
	}
	doc, parseErr := p.Parse(text)
	r := &HTMLRenderer{
		HTML5:      opts.HTML5,
		MaxNesting: opts.MaxNesting,
	}
	html, renderErr := r.AppendDocument(nil, doc)
	if parseErr != nil {
		return string(html), parseErr
	}
	return string(html), renderErr
}

// An HTMLRenderer converts parsed blocks into HTML.
//
// # Security considerations
//
// Raw HTML blocks and inline tags are copied to the output verbatim,
// which can introduce [Cross-Site Scripting (XSS)] vulnerabilities
// when used with untrusted inputs.
// The resulting HTML should be sent through an HTML sanitizer
// before it is shown to other users.
//
// [Cross-Site Scripting (XSS)]: https://owasp.org/www-community/attacks/xss/
type HTMLRenderer struct {
	// If HTML5 is true, void elements are written in HTML5 style ("<br>")
	// rather than XHTML style ("<br />").
	HTML5 bool
	// MaxNesting is the maximum depth of blocks and inline spans.
	// Text nested deeper is written as escaped text.
	// If MaxNesting is zero, DefaultMaxNesting is used.
	MaxNesting int
}

// RenderHTML writes the given document to the given writer as HTML
// using the default options for [HTMLRenderer].
// It will return the first error encountered, if any.
func RenderHTML(w io.Writer, doc *Document) error {
	return new(HTMLRenderer).Render(w, doc)
}

// Render writes the given document to the given writer as HTML,
// each top-level block followed by a newline.
// It will return the first error encountered, if any.
// A [*LimitError] is only returned after the whole document has been written.
func (r *HTMLRenderer) Render(w io.Writer, doc *Document) error {
	state := r.newState(doc.ReferenceMap)
	var buf []byte
	for _, b := range doc.Blocks {
		state.dst = buf[:0]
		state.block(b, 0)
		state.dst = append(state.dst, '\n')
		buf = state.dst
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("render markdown to html: %w", err)
		}
	}
	return state.err
}

// AppendDocument appends the rendered HTML of a document to dst
// and returns the resulting byte slice.
// The error is nil or a [*LimitError].
func (r *HTMLRenderer) AppendDocument(dst []byte, doc *Document) ([]byte, error) {
	state := r.newState(doc.ReferenceMap)
	state.dst = dst
	for _, b := range doc.Blocks {
		state.block(b, 0)
		state.dst = append(state.dst, '\n')
	}
	return state.dst, state.err
}

// AppendBlock appends the rendered HTML of a single block to dst
// and returns the resulting byte slice.
// Links are resolved against refMap, which may be nil.
func (r *HTMLRenderer) AppendBlock(dst []byte, block *Block, refMap ReferenceMap) []byte {
	state := r.newState(refMap)
	state.dst = dst
	state.block(block, 0)
	return state.dst
}

func (r *HTMLRenderer) newState(refMap ReferenceMap) *renderState {
	state := &renderState{
		HTMLRenderer: r,
		refs:         refMap,
		maxNesting:   r.MaxNesting,
	}
	if state.maxNesting <= 0 {
		state.maxNesting = DefaultMaxNesting
	}
	return state
}

type renderState struct {
	*HTMLRenderer
	refs       ReferenceMap
	maxNesting int
	dst        []byte
	err        error
}

func (r *renderState) exceeded() {
	if r.err != nil {
		return
	}
	r.err = &LimitError{
		Limit: "nesting depth",
		Max:   r.maxNesting,
	}
	tracer().Errorf("markdown: render: %v", r.err)
}

// voidEnd returns the end of a void element's start tag.
func (r *renderState) voidEnd() string {
	if r.HTML5 {
		return ">"
	}
	return " />"
}

func (r *renderState) openTagAttr(name atom.Atom) {
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, name.String()...)
}

func (r *renderState) openTag(name atom.Atom) {
	r.openTagAttr(name)
	r.dst = append(r.dst, '>')
}

func (r *renderState) closeTag(name atom.Atom) {
	r.dst = append(r.dst, "</"...)
	r.dst = append(r.dst, name.String()...)
	r.dst = append(r.dst, '>')
}

var headingTags = [6]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func (r *renderState) block(block *Block, depth int) {
	if depth > r.maxNesting && block.Kind() != LiteralKind {
		r.exceeded()
		r.dst = escapeHTML(r.dst, strings.Join(literalLines(block), "\n"), false)
		return
	}
	switch block.Kind() {
	case ParagraphKind:
		r.dst = append(r.dst, r.inline(block.Text(), depth)...)
	case HeadingKind:
		tag := headingTags[block.HeadingLevel()-1]
		r.openTag(tag)
		r.dst = append(r.dst, r.inline(block.Text(), depth)...)
		r.closeTag(tag)
	case ThematicBreakKind:
		r.openTagAttr(atom.Hr)
		r.dst = append(r.dst, r.voidEnd()...)
	case CodeBlockKind:
		r.openTag(atom.Pre)
		r.openTagAttr(atom.Code)
		if lang := block.Language(); lang != "" {
			r.dst = append(r.dst, ` class="language-`...)
			r.dst = escapeHTML(r.dst, lang, true)
			r.dst = append(r.dst, '"')
		}
		r.dst = append(r.dst, '>')
		for _, line := range block.Lines() {
			r.dst = escapeHTML(r.dst, line, false)
			r.dst = append(r.dst, '\n')
		}
		r.closeTag(atom.Code)
		r.closeTag(atom.Pre)
	case HTMLBlockKind:
		r.dst = append(r.dst, block.Text()...)
	case BlockQuoteKind:
		r.openTag(atom.Blockquote)
		r.children(block, depth+1)
		r.closeTag(atom.Blockquote)
	case ListKind:
		tag := atom.Ul
		if block.IsOrderedList() {
			tag = atom.Ol
		}
		r.openTag(tag)
		r.dst = append(r.dst, '\n')
		for _, item := range block.children {
			r.listItem(item, depth+1)
		}
		r.closeTag(tag)
	case ListItemKind:
		r.listItem(block, depth)
	case LiteralKind:
		r.dst = escapeHTML(r.dst, block.Text(), false)
	default:
		panic(fmt.Sprintf("unhandled block kind %v", block.Kind()))
	}
}

// literalLines returns the source lines written in place of a block
// that is nested too deeply to render.
// A list has no lines of its own, so its items' lines are used.
func literalLines(block *Block) []string {
	if block.Kind() != ListKind {
		return block.Lines()
	}
	var lines []string
	for _, item := range block.children {
		lines = append(lines, item.lines...)
	}
	return lines
}

// listItem renders an item's lead lines as inline text
// and the rest of its content as blocks.
func (r *renderState) listItem(item *Block, depth int) {
	r.openTag(atom.Li)
	if lead := item.Lead(); len(lead) > 0 {
		r.dst = append(r.dst, r.inline(strings.Join(lead, "\n"), depth)...)
	}
	r.children(item, depth)
	r.closeTag(atom.Li)
	r.dst = append(r.dst, '\n')
}

func (r *renderState) children(parent *Block, depth int) {
	for _, c := range parent.children {
		r.block(c, depth)
		r.dst = append(r.dst, '\n')
	}
}

var (
	textEscaper = bytereplacer.New(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = bytereplacer.New(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
)

// EscapeString escapes '&', '<', and '>' in s.
// If quotes is true, it also escapes '"'
// so that the result can be used in an attribute value.
func EscapeString(s string, quotes bool) string {
	return string(escapeHTML(nil, s, quotes))
}

// escapeHTML appends the HTML-escaped version of s to dst.
func escapeHTML(dst []byte, s string, quotes bool) []byte {
	escaper := textEscaper
	if quotes {
		escaper = attrEscaper
	}
	// Replace may modify its argument, so give it a copy.
	return append(dst, escaper.Replace([]byte(s))...)
}

// NormalizeURI percent-encodes any characters in a string
// that are not reserved or unreserved URI characters.
// This is used for transforming link destinations
// into strings suitable for href or src attributes.
func NormalizeURI(s string) string {
	// RFC 3986 reserved and unreserved characters.
	const safeSet = `;/?:@&=+$,-_.!~*'()#`

	sb := new(strings.Builder)
	sb.Grow(len(s))
	skip := 0
	var buf [utf8.UTFMax]byte
	for i, c := range s {
		if skip > 0 {
			skip--
			sb.WriteRune(c)
			continue
		}
		switch {
		case c == '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				skip = 2
				sb.WriteByte('%')
			} else {
				sb.WriteString("%25")
			}
		case (c < 0x80 && (isASCIILetter(byte(c)) || isASCIIDigit(byte(c)))) || strings.ContainsRune(safeSet, c):
			sb.WriteRune(c)
		default:
			n := utf8.EncodeRune(buf[:], c)
			for _, b := range buf[:n] {
				sb.WriteByte('%')
				sb.WriteByte(urlHexDigit(b >> 4))
				sb.WriteByte(urlHexDigit(b & 0x0f))
			}
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' || isASCIIDigit(c)
}

func urlHexDigit(x byte) byte {
	switch {
	case x < 0xa:
		return '0' + x
	case x < 0x10:
		return 'A' + x - 0xa
	default:
		panic("out of bounds")
	}
}
