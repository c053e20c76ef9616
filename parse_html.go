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

	"golang.org/x/net/html/atom"
)

// isHTMLBlockStart reports whether line opens a raw HTML region:
// a '<' followed by an alphanumeric tag name that is terminated
// by '>' or a space and does not name an inline element.
func isHTMLBlockStart(line string) bool {
	if len(line) < 2 || line[1] == ' ' {
		return false
	}
	tag := htmlBlockTag(line)
	if tag == "" || !isAlphanumeric(tag) {
		return false
	}
	return !isInlineElement(tag)
}

// htmlBlockTag returns the text between the leading '<'
// and the first '>' or space,
// or the empty string if there is neither.
func htmlBlockTag(line string) string {
	end := strings.IndexAny(line, "> ")
	if end < 1 {
		return ""
	}
	return line[1:end]
}

// tagBalance returns the number of times tag is opened on line
// minus the number of times it is closed.
func tagBalance(line, tag string) int {
	return strings.Count(line, "<"+tag) - strings.Count(line, "</"+tag+">")
}

func isAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isASCIILetter(s[i]) && !isASCIIDigit(s[i]) {
			return false
		}
	}
	return true
}

func isInlineElement(tag string) bool {
	_, ok := inlineElements[atom.Lookup([]byte(strings.ToLower(tag)))]
	return ok
}

func isVoidElement(tag string) bool {
	_, ok := voidElements[atom.Lookup([]byte(strings.ToLower(tag)))]
	return ok
}

// inlineElements is the set of element names
// that never begin a raw HTML block.
// A line starting with one of these is a paragraph
// and its tags are passed through by the inline parser.
var inlineElements = map[atom.Atom]struct{}{
	atom.A:        {},
	atom.Abbr:     {},
	atom.Acronym:  {},
	atom.B:        {},
	atom.Basefont: {},
	atom.Bdo:      {},
	atom.Big:      {},
	atom.Br:       {},
	atom.Button:   {},
	atom.Blink:    {},
	atom.Cite:     {},
	atom.Code:     {},
	atom.Del:      {},
	atom.Dfn:      {},
	atom.Em:       {},
	atom.Font:     {},
	atom.I:        {},
	atom.Img:      {},
	atom.Ins:      {},
	atom.Input:    {},
	atom.Iframe:   {},
	atom.Kbd:      {},
	atom.Label:    {},
	atom.Listing:  {},
	atom.Map:      {},
	atom.Mark:     {},
	atom.Nobr:     {},
	atom.Object:   {},
	atom.Q:        {},
	atom.Rp:       {},
	atom.Rt:       {},
	atom.Ruby:     {},
	atom.S:        {},
	atom.Samp:     {},
	atom.Script:   {},
	atom.Select:   {},
	atom.Small:    {},
	atom.Spacer:   {},
	atom.Span:     {},
	atom.Strong:   {},
	atom.Sub:      {},
	atom.Sup:      {},
	atom.Tt:       {},
	atom.Var:      {},
	atom.U:        {},
	atom.Wbr:      {},
	atom.Time:     {},
}

// voidElements is the set of elements that have no closing tag.
// A raw HTML region opened by one of these ends on its first line.
var voidElements = map[atom.Atom]struct{}{
	atom.Area:   {},
	atom.Base:   {},
	atom.Col:    {},
	atom.Embed:  {},
	atom.Hr:     {},
	atom.Link:   {},
	atom.Meta:   {},
	atom.Param:  {},
	atom.Source: {},
	atom.Track:  {},
}

// Patterns tried by the '<' inline handler, in order.
var (
	emailAutolinkRE = regexp.MustCompile(`^<(.*?@.*?\.\w+?)>`)
	urlAutolinkRE   = regexp.MustCompile(`^<([a-z]{3,}://.+?)>`)
	inlineTagRE     = regexp.MustCompile(`^</?\w.*?>`)
)

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
