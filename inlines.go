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
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html/atom"
)

// escapableChars is the set of characters that a backslash escapes.
const escapableChars = "\\`*_{}[]()>#+-.!"

var entityRE = regexp.MustCompile(`^&#?\w+;`)

// maxLinkLabel is the longest link label, in bytes,
// that is looked up in the reference map.
const maxLinkLabel = 999

// inline renders text through the inline handlers and returns the HTML.
// depth counts the enclosing blocks and inline spans.
func (r *renderState) inline(text string, depth int) string {
	if depth > r.maxNesting {
		r.exceeded()
		return EscapeString(text, false)
	}
	var out []byte
	links := &linkScanner{text: text}
	for i := 0; i < len(text); {
		start := i
		for i < len(text) && !isInlineTrigger(text, i) {
			i++
		}
		out = append(out, text[start:i]...)
		if i >= len(text) {
			break
		}
		fragment, n := r.dispatch(text, i, depth, links)
		out = append(out, fragment...)
		i += n
	}
	return string(out)
}

// isInlineTrigger reports whether a handler is registered
// for the text starting at text[i].
func isInlineTrigger(text string, i int) bool {
	switch text[i] {
	case '&', '*', '_', '<', '>', '[', '\\', '`':
		return true
	case ' ':
		return strings.HasPrefix(text[i:], "  \n")
	case '!':
		return i+1 < len(text) && text[i+1] == '['
	default:
		return false
	}
}

// dispatch runs the handler for the trigger at text[i].
// Every handler returns an HTML fragment
// and the number of bytes consumed, which is always at least 1.
func (r *renderState) dispatch(text string, i int, depth int, links *linkScanner) (string, int) {
	rest := text[i:]
	switch rest[0] {
	case ' ':
		return r.parseHardBreak(rest)
	case '&':
		return parseEntity(rest)
	case '!':
		return r.parseImage(text, i, links)
	case '*', '_':
		return r.parseEmphasis(rest, depth)
	case '<':
		return parseLessThan(rest)
	case '>':
		return "&gt;", 1
	case '[':
		return r.parseLink(text, i, depth, links)
	case '\\':
		return parseEscape(rest)
	case '`':
		return parseCodeSpan(rest)
	default:
		return rest[:1], 1
	}
}

func (r *renderState) parseHardBreak(text string) (string, int) {
	if !strings.HasPrefix(text, "  \n") {
		return " ", 1
	}
	return "<" + atom.Br.String() + r.voidEnd() + "\n", 3
}

func parseEscape(text string) (string, int) {
	if len(text) > 1 && strings.IndexByte(escapableChars, text[1]) >= 0 {
		return EscapeString(text[1:2], false), 2
	}
	return `\`, 1
}

func parseEntity(text string) (string, int) {
	if m := entityRE.FindString(text); m != "" {
		return m, len(m)
	}
	return "&amp;", 1
}

// parseLessThan handles autolinks and inline HTML tags,
// which are passed through as-is.
func parseLessThan(text string) (string, int) {
	if strings.IndexByte(text, '>') >= 0 {
		if m := emailAutolinkRE.FindStringSubmatch(text); m != nil {
			return `<a href="mailto:` + EscapeString(m[1], true) + `">` +
				EscapeString(m[1], false) + "</a>", len(m[0])
		}
		if m := urlAutolinkRE.FindStringSubmatch(text); m != nil {
			return `<a href="` + EscapeString(NormalizeURI(m[1]), true) + `">` +
				EscapeString(m[1], false) + "</a>", len(m[0])
		}
		if m := inlineTagRE.FindString(text); m != "" {
			return m, len(m)
		}
	}
	return "&lt;", 1
}

// parseLink handles the "[text](dest "title")" and "[text][label]" forms
// for the '[' at text[i].
// The inline form wins when both could apply.
func (r *renderState) parseLink(text string, i, depth int, links *linkScanner) (string, int) {
	links.startLine(i)
	if at := links.nextInlineTail(i + 2); at >= 0 {
		t := links.inlineTail
		return r.anchor(text[i+1:at], t.dest, t.title, t.hasTitle, depth), t.end - i
	}
	if at := links.nextReferenceTail(i + 2); at >= 0 {
		t := &links.refTail
		if t.label != "" {
			if !t.looked {
				t.looked = true
				if len(t.label) <= maxLinkLabel {
					t.def, t.found = r.refs.Lookup(t.label)
				}
			}
			if t.found {
				return r.anchor(text[i+1:at], t.def.Destination, t.def.Title, t.def.TitlePresent, depth), t.end - i
			}
		} else if at-(i+1) <= maxLinkLabel {
			if def, ok := r.refs.Lookup(text[i+1 : at]); ok {
				return r.anchor(text[i+1:at], def.Destination, def.Title, def.TitlePresent, depth), t.end - i
			}
		}
	}
	return "[", 1
}

func (r *renderState) anchor(text, dest, title string, hasTitle bool, depth int) string {
	var sb strings.Builder
	sb.WriteString(`<a href="`)
	sb.WriteString(EscapeString(NormalizeURI(dest), true))
	sb.WriteString(`"`)
	if hasTitle {
		sb.WriteString(` title="`)
		sb.WriteString(EscapeString(title, true))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	sb.WriteString(r.inline(text, depth+1))
	sb.WriteString("</a>")
	return sb.String()
}

// parseImage handles only the inline form
// for the "![" at text[i].
// Reference-style images are not supported:
// "![alt][label]" renders a literal '!' followed by a link.
func (r *renderState) parseImage(text string, i int, links *linkScanner) (string, int) {
	links.startLine(i)
	at := links.nextInlineTail(i + 3)
	if at < 0 {
		return "!", 1
	}
	t := links.inlineTail
	var sb strings.Builder
	sb.WriteString("<" + atom.Img.String() + ` src="`)
	sb.WriteString(EscapeString(NormalizeURI(t.dest), true))
	sb.WriteString(`" alt="`)
	sb.WriteString(EscapeString(text[i+2:at], true))
	sb.WriteString(`"`)
	if t.hasTitle {
		sb.WriteString(` title="`)
		sb.WriteString(EscapeString(t.title, true))
		sb.WriteString(`"`)
	}
	sb.WriteString(r.voidEnd())
	return sb.String(), t.end - i
}

// linkScanner finds the closing halves of links on one line of inline text:
// the "](dest)" of an inline link or the "][label]" of a reference link.
// A closing half does not depend on the '[' that opens it,
// so the first one after a position serves every '[' before it.
// Positions passed to a linkScanner must not decrease.
type linkScanner struct {
	text    string
	lineEnd int // index of the current line's '\n' or len(text)
	started bool

	inline     tailSearch
	inlineTail inlineTail
	ref        tailSearch
	refTail    referenceTail
	quoteParen tailSearch
}

// tailSearch remembers the result of a search that began at from.
// at is -1 if nothing was found before the end of the line.
type tailSearch struct {
	valid bool
	from  int
	at    int
}

// lookup reports the cached result for a search beginning at from.
func (ts *tailSearch) lookup(from int) (at int, ok bool) {
	if ts.valid && ts.from <= from && (ts.at < 0 || ts.at >= from) {
		return ts.at, true
	}
	return 0, false
}

type inlineTail struct {
	dest     string
	title    string
	hasTitle bool
	end      int // index just past the closing ')'
}

type referenceTail struct {
	label string
	end   int // index just past the closing ']'

	looked bool
	found  bool
	def    LinkDefinition
}

// startLine moves the scanner to the line containing text[i].
func (s *linkScanner) startLine(i int) {
	if s.started && i < s.lineEnd {
		return
	}
	end := strings.IndexByte(s.text[i:], '\n')
	if end < 0 {
		end = len(s.text)
	} else {
		end += i
	}
	*s = linkScanner{text: s.text, lineEnd: end, started: true}
}

// nextInlineTail returns the index of the first "](dest)" or `](dest "title")`
// in text[from:lineEnd] and stores it in s.inlineTail.
// It returns -1 if there is none.
func (s *linkScanner) nextInlineTail(from int) int {
	if at, ok := s.inline.lookup(from); ok {
		return at
	}
	s.inline = tailSearch{valid: true, from: from, at: -1}
	for i := from; i < s.lineEnd; {
		k := strings.Index(s.text[i:s.lineEnd], "](")
		if k < 0 {
			break
		}
		i += k
		t, next, ok := s.inlineTailAt(i)
		if ok {
			s.inline.at = i
			s.inlineTail = t
			break
		}
		i = next
	}
	return s.inline.at
}

// inlineTailAt parses the inline link tail starting with the "](" at text[i].
// The destination is the longest run of non-space characters
// that is followed by a quoted title and ')' or by ')' alone.
// If there is no tail at i, inlineTailAt returns the index
// at which the next candidate may start:
// a "](" inside the same destination run cannot succeed either.
func (s *linkScanner) inlineTailAt(i int) (t inlineTail, next int, ok bool) {
	text := s.text[:s.lineEnd]
	start := i + 2
	e := start
	for e < len(text) && !isDestinationSpace(text[e]) {
		e++
	}
	if e == start {
		return inlineTail{}, start, false
	}
	if strings.HasPrefix(text[e:], ` "`) {
		if q := s.nextQuoteParen(e + 2); q >= 0 {
			return inlineTail{
				dest:     text[start:e],
				title:    text[e+2 : q],
				hasTitle: true,
				end:      q + 2,
			}, 0, true
		}
	}
	if k := strings.LastIndexByte(text[start+1:e], ')'); k >= 0 {
		end := start + 1 + k
		return inlineTail{dest: text[start:end], end: end + 1}, 0, true
	}
	return inlineTail{}, e, false
}

// nextQuoteParen returns the index of the first `")` in text[from:lineEnd]
// or -1 if there is none.
func (s *linkScanner) nextQuoteParen(from int) int {
	if at, ok := s.quoteParen.lookup(from); ok {
		return at
	}
	s.quoteParen = tailSearch{valid: true, from: from, at: -1}
	if k := strings.Index(s.text[from:s.lineEnd], `")`); k >= 0 {
		s.quoteParen.at = from + k
	}
	return s.quoteParen.at
}

// nextReferenceTail returns the index of the first "][label]" or "] [label]"
// in text[from:lineEnd] and stores it in s.refTail.
// It returns -1 if there is none.
func (s *linkScanner) nextReferenceTail(from int) int {
	if at, ok := s.ref.lookup(from); ok {
		return at
	}
	s.ref = tailSearch{valid: true, from: from, at: -1}
	text := s.text[:s.lineEnd]
	for i := from; i < len(text); i++ {
		k := strings.IndexByte(text[i:], ']')
		if k < 0 {
			break
		}
		i += k
		j := i + 1
		switch {
		case strings.HasPrefix(text[j:], " ["):
			j += 2
		case strings.HasPrefix(text[j:], "["):
			j++
		default:
			continue
		}
		k = strings.IndexByte(text[j:], ']')
		if k < 0 {
			// No later candidate can be closed either.
			break
		}
		s.ref.at = i
		s.refTail = referenceTail{label: text[j : j+k], end: j + k + 1}
		break
	}
	return s.ref.at
}

// isDestinationSpace reports whether c ends a link destination.
func isDestinationSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}

// parseCodeSpan handles both "`code`" and "`` code ``".
// The padded form may contain backticks.
// A code span never crosses a line break.
func parseCodeSpan(text string) (string, int) {
	if k := strings.IndexByte(text, '\n'); k >= 0 {
		text = text[:k]
	}
	n := runLength(text, '`')
	if n+1 < len(text) && text[n] == ' ' {
		closing := " " + text[:n]
		if k := strings.Index(text[n+2:], closing); k >= 0 {
			end := n + 2 + k
			return codeSpan(text[n+1 : end]), end + len(closing)
		}
	}
	if len(text) > 2 {
		if k := strings.IndexByte(text[2:], '`'); k >= 0 {
			end := 2 + k
			return codeSpan(text[1:end]), end + 1
		}
	}
	return "`", 1
}

func codeSpan(content string) string {
	return "<" + atom.Code.String() + ">" + EscapeString(content, false) + "</" + atom.Code.String() + ">"
}

func (r *renderState) parseEmphasis(text string, depth int) (string, int) {
	marker := text[0]
	if len(text) < 2 {
		return text[:1], 1
	}
	if text[1] == marker {
		if inner, n, ok := matchStrong(text); ok {
			return "<" + atom.Strong.String() + ">" + r.inline(inner, depth+1) + "</" + atom.Strong.String() + ">", n
		}
		return text[:1], 1
	}
	if inner, n, ok := matchEmph(text); ok {
		return "<" + atom.Em.String() + ">" + r.inline(inner, depth+1) + "</" + atom.Em.String() + ">", n
	}
	return text[:1], 1
}

// matchStrong matches a span opened by a doubled marker at the start of text
// and closed by the shortest following doubled marker
// that is not followed by a third marker.
// Inside, single markers must pair up.
func matchStrong(text string) (inner string, n int, ok bool) {
	marker := text[0]
	pos := 2
	for units := 0; ; units++ {
		if units > 0 && pos+1 < len(text) && text[pos] == marker && text[pos+1] == marker &&
			(pos+2 == len(text) || text[pos+2] != marker) {
			return text[2:pos], pos + 2, true
		}
		if pos >= len(text) {
			return "", 0, false
		}
		if text[pos] != marker {
			pos++
			continue
		}
		// A marker, a run of non-markers, and a marker.
		k := strings.IndexByte(text[pos+1:], marker)
		if k < 0 {
			return "", 0, false
		}
		pos += k + 2
	}
}

// matchEmph matches a span opened by a single marker at the start of text
// and closed by the shortest following single marker.
// Inside, doubled markers must pair up.
// An underscore span must also end at a word boundary
// so that snake_case_words are left alone.
func matchEmph(text string) (inner string, n int, ok bool) {
	marker := text[0]
	// Asterisks require at least one character between a pair of doubled markers.
	minPaired := 1
	if marker == '_' {
		minPaired = 0
	}
	pos := 1
	for units := 0; ; units++ {
		if units > 0 && pos < len(text) && text[pos] == marker &&
			(pos+1 == len(text) || text[pos+1] != marker) &&
			(marker != '_' || isWordBoundary(text, pos+1)) {
			return text[1:pos], pos + 1, true
		}
		if pos >= len(text) {
			return "", 0, false
		}
		if text[pos] != marker {
			pos++
			continue
		}
		// Two markers, a run of non-markers, and two markers.
		if pos+1 >= len(text) || text[pos+1] != marker {
			return "", 0, false
		}
		k := strings.IndexByte(text[pos+2:], marker)
		if k < minPaired {
			return "", 0, false
		}
		end := pos + 2 + k
		if end+1 >= len(text) || text[end+1] != marker {
			return "", 0, false
		}
		pos = end + 2
	}
}

// isWordBoundary reports whether text[i] starts a non-word character
// or i is the end of text.
// It assumes text[i-1] is a word character.
func isWordBoundary(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	c, _ := utf8.DecodeRuneInString(text[i:])
	return !(c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c))
}
