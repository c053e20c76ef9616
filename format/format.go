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

// Package format provides a function to format a Markdown file
// that is equivalent to the original Markdown.
package format

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"zombiezen.com/go/markdown"
)

// listIndent is the width of every list marker written by [Format],
// so that nested content lines up at four-column stops.
const listIndent = 4

// indent is the text written before a block's lines.
// first precedes the block's first line and rest the others.
type indent struct {
	first string
	rest  string
}

// Format writes the given document as Markdown to the given writer.
// Headings are written in ATX style,
// list markers are padded to four columns,
// and link reference definitions are collected at the end.
func Format(w io.Writer, doc *markdown.Document) error {
	ww := &errWriter{w: w}
	for i, root := range doc.Blocks {
		if i > 0 {
			ww.WriteString("\n")
			if doc.Blocks[i-1].Kind() == markdown.ListKind {
				// A single blank line can continue the last list item.
				ww.WriteString("\n")
			}
		}
		indents := map[*markdown.Block]indent{root: {}}
		markdown.Walk(root, &markdown.WalkOptions{
			Pre: func(c *markdown.Cursor) bool {
				preSeparator(ww, indents, c)
				return preBlock(ww, indents, c)
			},
		})
	}
	writeReferences(ww, doc.ReferenceMap)
	return ww.err
}

// preSeparator writes the lines that separate a block from its previous sibling.
func preSeparator(w *errWriter, indents map[*markdown.Block]indent, c *markdown.Cursor) {
	parent := c.Parent()
	if parent == nil || c.Index() == 0 {
		return
	}
	rest := indents[parent].rest
	switch parent.Kind() {
	case markdown.BlockQuoteKind:
		writeTrimmedIndent(w, rest+"> ")
		w.WriteString("\n")
		if parent.Child(c.Index()-1).Kind() == markdown.ListKind {
			writeTrimmedIndent(w, rest+"> ")
			w.WriteString("\n")
		}
	case markdown.ListKind:
		if parent.Child(c.Index() - 1).IsLazy() {
			writeTrimmedIndent(w, rest)
			w.WriteString("\n")
		}
	case markdown.ListItemKind:
		if parent.IsLazy() {
			writeTrimmedIndent(w, rest)
			w.WriteString("\n")
		}
	}
}

func preBlock(w *errWriter, indents map[*markdown.Block]indent, c *markdown.Cursor) (descend bool) {
	curr := c.Block()
	ind := indents[curr]
	switch curr.Kind() {
	case markdown.ParagraphKind, markdown.HTMLBlockKind, markdown.LiteralKind:
		writeLines(w, ind, curr.Lines())
		return false
	case markdown.HeadingKind:
		line := strings.Repeat("#", curr.HeadingLevel())
		if text := atxHeadingText(curr.Text()); text != "" {
			line += " " + text
		}
		writeLines(w, ind, []string{line})
		return false
	case markdown.ThematicBreakKind:
		// Asterisks never underline a Setext heading.
		writeLines(w, ind, []string{"***"})
		return false
	case markdown.CodeBlockKind:
		writeCode(w, ind, curr)
		return false
	case markdown.BlockQuoteKind:
		if curr.ChildCount() == 0 {
			writeLines(w, ind, []string{">"})
			return false
		}
		for i := 0; i < curr.ChildCount(); i++ {
			first := ind.rest
			if i == 0 {
				first = ind.first
			}
			indents[curr.Child(i)] = indent{
				first: first + "> ",
				rest:  ind.rest + "> ",
			}
		}
		return true
	case markdown.ListKind:
		for i := 0; i < curr.ChildCount(); i++ {
			marker := listMarker(curr, i)
			first := ind.rest
			if i == 0 {
				first = ind.first
			}
			indents[curr.Child(i)] = indent{
				first: first + marker,
				rest:  ind.rest + strings.Repeat(" ", len(marker)),
			}
		}
		return true
	case markdown.ListItemKind:
		lead := curr.Lead()
		writeLines(w, ind, lead)
		if len(lead) == 0 && curr.ChildCount() == 0 {
			writeTrimmedIndent(w, ind.first)
			w.WriteString("\n")
		}
		for i := 0; i < curr.ChildCount(); i++ {
			first := ind.rest
			if i == 0 && len(lead) == 0 {
				first = ind.first
			}
			indents[curr.Child(i)] = indent{first: first, rest: ind.rest}
		}
		return true
	default:
		return false
	}
}

// atxHeadingText returns a heading's text as written after an ATX marker.
// Surrounding whitespace is dropped,
// and a '#' at either end is written as a character reference
// so that it is not taken as part of the marker.
func atxHeadingText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "#") {
		text = "&#35;" + text[1:]
	}
	if strings.HasSuffix(text, "#") {
		text = text[:len(text)-1] + "&#35;"
	}
	return text
}

// listMarker returns the marker for the i'th item of list,
// padded with spaces to at least listIndent columns.
func listMarker(list *markdown.Block, i int) string {
	marker := "-"
	if list.IsOrderedList() {
		marker = strconv.Itoa(i+1) + "."
	}
	if n := listIndent - len(marker); n > 1 {
		return marker + strings.Repeat(" ", n)
	}
	return marker + " "
}

func writeCode(w *errWriter, ind indent, b *markdown.Block) {
	lines := b.Lines()
	fenced := b.Language() != "" || len(lines) == 0 ||
		strings.TrimSpace(lines[0]) == "" || strings.TrimSpace(lines[len(lines)-1]) == ""
	if !fenced {
		indented := make([]string, len(lines))
		for i, line := range lines {
			if strings.TrimSpace(line) != "" {
				indented[i] = "    " + line
			}
		}
		writeLines(w, ind, indented)
		return
	}
	fence := "```"
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " "), "```") {
			fence = "~~~"
			break
		}
	}
	all := make([]string, 0, len(lines)+2)
	all = append(all, fence+b.Language())
	all = append(all, lines...)
	all = append(all, fence)
	writeLines(w, ind, all)
}

// writeLines writes lines, the first preceded by ind.first
// and the rest by ind.rest.
// Empty lines get the indent with trailing spaces removed.
func writeLines(w *errWriter, ind indent, lines []string) {
	for i, line := range lines {
		prefix := ind.rest
		if i == 0 {
			prefix = ind.first
		}
		if line == "" {
			writeTrimmedIndent(w, prefix)
		} else {
			w.WriteString(prefix)
			w.WriteString(line)
		}
		w.WriteString("\n")
	}
}

func writeTrimmedIndent(w *errWriter, prefix string) {
	w.WriteString(strings.TrimRight(prefix, " \t"))
}

func writeReferences(w *errWriter, refMap markdown.ReferenceMap) {
	labels := make([]string, 0, len(refMap))
	for label := range refMap {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for i, label := range labels {
		if i == 0 && w.hasWritten {
			w.WriteString("\n")
		}
		def := refMap[label]
		w.WriteString("[")
		w.WriteString(label)
		w.WriteString("]: ")
		if def.Destination == "" || strings.ContainsAny(def.Destination, " \t") {
			w.WriteString("<" + def.Destination + ">")
		} else {
			w.WriteString(def.Destination)
		}
		if def.TitlePresent {
			if strings.Contains(def.Title, `"`) {
				w.WriteString(" (" + def.Title + ")")
			} else {
				w.WriteString(` "` + def.Title + `"`)
			}
		}
		w.WriteString("\n")
	}
}

type errWriter struct {
	w          io.Writer
	hasWritten bool
	err        error
}

func (w *errWriter) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = w.w.Write(p)
	w.hasWritten = w.hasWritten || n > 0
	return n, w.err
}

func (w *errWriter) WriteString(s string) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = io.WriteString(w.w, s)
	w.hasWritten = w.hasWritten || n > 0
	return n, w.err
}
