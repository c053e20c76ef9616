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

// Package normhtml provides a function for normalizing HTML fragments
// which ignores insignificant output differences:
// whitespace around block elements,
// runs of whitespace in text,
// attribute order,
// entity spelling,
// and XHTML-style self-closing void elements.
package normhtml

import (
	"bytes"
	"regexp"
	"sort"
	"unicode"

	"go4.org/bytereplacer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

var textEscaper = bytereplacer.New(
	"&", "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// NormalizeHTML strips insignificant output differences from HTML.
func NormalizeHTML(b []byte) []byte {
	n := &normalizer{
		tok:  html.NewTokenizerFragment(bytes.NewReader(b), "div"),
		last: html.StartTagToken,
	}
	for n.next() {
	}
	return bytes.TrimRightFunc(n.output, unicode.IsSpace)
}

type normalizer struct {
	tok     *html.Tokenizer
	output  []byte
	last    html.TokenType
	lastTag atom.Atom
	inPre   bool
}

// next processes a single token.
// It returns false at the end of input.
func (n *normalizer) next() bool {
	tt := n.tok.Next()
	switch tt {
	case html.ErrorToken:
		return false
	case html.TextToken:
		n.text(n.tok.Text())
	case html.EndTagToken:
		name, _ := n.tok.TagName()
		tag := atom.Lookup(name)
		if tag == atom.Pre {
			n.inPre = false
		} else if isBlockTag(tag) {
			n.output = bytes.TrimRightFunc(n.output, unicode.IsSpace)
		}
		n.output = append(n.output, "</"...)
		n.output = append(n.output, name...)
		n.output = append(n.output, '>')
		n.lastTag = tag
	case html.StartTagToken, html.SelfClosingTagToken:
		n.startTag()
		if tt == html.SelfClosingTagToken {
			tt = html.EndTagToken
		}
	case html.CommentToken:
		n.output = append(n.output, n.tok.Raw()...)
	}
	n.last = tt
	return true
}

func (n *normalizer) text(data []byte) {
	afterTag := n.last == html.EndTagToken || n.last == html.StartTagToken
	if afterTag && n.lastTag == atom.Br {
		data = bytes.TrimLeft(data, "\n")
	}
	if !n.inPre {
		data = whitespaceRE.ReplaceAll(data, []byte(" "))
		if afterTag && isBlockTag(n.lastTag) {
			if n.last == html.StartTagToken {
				data = bytes.TrimLeftFunc(data, unicode.IsSpace)
			} else {
				data = bytes.TrimSpace(data)
			}
		}
	}
	// Replace may modify its argument in place.
	n.output = append(n.output, textEscaper.Replace(bytes.Clone(data))...)
}

func (n *normalizer) startTag() {
	type htmlAttribute struct {
		key   string
		value string
	}

	name, hasAttr := n.tok.TagName()
	tag := atom.Lookup(name)
	if tag == atom.Pre {
		n.inPre = true
	}
	if isBlockTag(tag) {
		n.output = bytes.TrimRightFunc(n.output, unicode.IsSpace)
	}
	n.output = append(n.output, '<')
	n.output = append(n.output, name...)
	if hasAttr {
		var attrs []htmlAttribute
		for {
			k, v, more := n.tok.TagAttr()
			attrs = append(attrs, htmlAttribute{string(k), string(v)})
			if !more {
				break
			}
		}
		sort.Slice(attrs, func(i, j int) bool {
			return attrs[i].key < attrs[j].key
		})
		for _, attr := range attrs {
			n.output = append(n.output, ' ')
			n.output = append(n.output, attr.key...)
			if attr.value != "" {
				n.output = append(n.output, `="`...)
				n.output = append(n.output, html.EscapeString(attr.value)...)
				n.output = append(n.output, '"')
			}
		}
	}
	n.output = append(n.output, '>')
	n.lastTag = tag
}

var blockTags = map[atom.Atom]struct{}{
	atom.Article:    {},
	atom.Aside:      {},
	atom.Blockquote: {},
	atom.Body:       {},
	atom.Dd:         {},
	atom.Div:        {},
	atom.Dl:         {},
	atom.Dt:         {},
	atom.Fieldset:   {},
	atom.Figure:     {},
	atom.Footer:     {},
	atom.Form:       {},
	atom.H1:         {},
	atom.H2:         {},
	atom.H3:         {},
	atom.H4:         {},
	atom.H5:         {},
	atom.H6:         {},
	atom.Header:     {},
	atom.Hr:         {},
	atom.Li:         {},
	atom.Ol:         {},
	atom.P:          {},
	atom.Pre:        {},
	atom.Section:    {},
	atom.Table:      {},
	atom.Tbody:      {},
	atom.Td:         {},
	atom.Th:         {},
	atom.Thead:      {},
	atom.Tr:         {},
	atom.Ul:         {},
}

func isBlockTag(tag atom.Atom) bool {
	_, ok := blockTags[tag]
	return ok
}
