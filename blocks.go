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

//go:generate stringer -type=BlockKind,lineKind -output=kind_string.go

package markdown

import (
	"regexp"
	"strings"
)

// Block is a structural element of a document,
// spanning one or more whole lines.
type Block struct {
	kind     BlockKind
	lines    []string
	level    int
	info     string
	ordered  bool
	lazy     bool
	lead     []string
	children []*Block
}

// Kind returns the type of block.
func (b *Block) Kind() BlockKind {
	if b == nil {
		return 0
	}
	return b.kind
}

// Lines returns the text lines the block holds, without line terminators.
// For paragraphs, code blocks, HTML blocks, and literal blocks,
// these are the lines that are rendered.
// For headings, it is a single line holding the heading text.
// For block quotes, they are the lines with the quote markers removed.
// For list items, they are the lines with the item indentation removed.
func (b *Block) Lines() []string {
	if b == nil {
		return nil
	}
	return b.lines
}

// Text returns the block's lines joined by newlines.
func (b *Block) Text() string {
	return strings.Join(b.Lines(), "\n")
}

// HeadingLevel returns the 1-based level for a [HeadingKind]
// or zero otherwise.
func (b *Block) HeadingLevel() int {
	if b.Kind() != HeadingKind {
		return 0
	}
	return b.level
}

// Language returns the first word of a fenced code block's info string,
// or the empty string if absent.
func (b *Block) Language() string {
	if b.Kind() != CodeBlockKind {
		return ""
	}
	return b.info
}

// IsOrderedList reports whether the block is a [ListKind]
// introduced by numeric markers.
func (b *Block) IsOrderedList() bool {
	return b.Kind() == ListKind && b.ordered
}

// IsLazy reports whether the block is a [ListItemKind]
// whose content is rendered entirely through the block pipeline
// because it was separated from its neighbors by blank lines.
func (b *Block) IsLazy() bool {
	return b.Kind() == ListItemKind && b.lazy
}

// Lead returns the run of paragraph lines at the start of a non-lazy list item.
// Lead lines are rendered as inline text directly inside the item.
func (b *Block) Lead() []string {
	if b.Kind() != ListItemKind {
		return nil
	}
	return b.lead
}

// ChildCount returns the number of children the block has.
func (b *Block) ChildCount() int {
	if b == nil {
		return 0
	}
	return len(b.children)
}

// Child returns the i'th child of the block.
func (b *Block) Child(i int) *Block {
	return b.children[i]
}

// BlockKind is an enumeration of values returned by [*Block.Kind].
type BlockKind uint16

const (
	// ParagraphKind is used for a block of text.
	// Paragraph text is not wrapped in an element when rendered.
	ParagraphKind BlockKind = 1 + iota
	// HeadingKind is used for an ATX (#-prefixed) or Setext (underlined) heading.
	HeadingKind
	// ThematicBreakKind is used for a horizontal rule.
	// It has no content.
	ThematicBreakKind
	// CodeBlockKind is used for indented and fenced code blocks.
	CodeBlockKind
	// HTMLBlockKind is used for a region of raw HTML.
	HTMLBlockKind
	// BlockQuoteKind is used for a block quote.
	// Its children are the blocks parsed from the quoted lines.
	BlockQuoteKind
	// ListKind is used for ordered and unordered lists.
	// Its children are always of [ListItemKind].
	ListKind
	// ListItemKind is used for an item in a list.
	// Its children are the blocks parsed from the item's lines
	// after any [*Block.Lead] lines.
	ListItemKind
	// LiteralKind is used for content nested past the configured maximum depth.
	// Its lines are rendered as escaped text.
	LiteralKind
)

// lineKind is the classification of a line,
// naming the block that the line would begin.
type lineKind int8

const (
	lineEmpty lineKind = iota
	lineParagraph
	lineHTML
	lineQuote
	lineThematicBreak
	lineUnordered
	lineOrdered
	lineHeading
	lineReference
	lineCode
	lineFence
)

// lineRule is an entry in the classification table.
// A rule applies when the line's first byte satisfies lead
// and the whole line satisfies match.
type lineRule struct {
	lead  func(c byte) bool
	kind  lineKind
	match func(line string) bool
}

// lineRules is the ordered classification table.
// The first applicable rule wins,
// so a thematic break takes precedence over a list item
// and raw HTML over a paragraph.
var lineRules = []lineRule{
	{oneOf("<"), lineHTML, isHTMLBlockStart},
	{oneOf(">"), lineQuote, isQuoteStart},
	{oneOf("-*_"), lineThematicBreak, isThematicBreak},
	{oneOf("-+*"), lineUnordered, hasSpaceAfterMarker},
	{oneOf("#"), lineHeading, always},
	{oneOf("["), lineReference, referenceLineRE.MatchString},
	{oneOf("`~"), lineFence, isFenceStart},
	{oneOf("\t"), lineCode, always},
	{oneOf(" "), lineCode, hasCodeIndent},
	{oneOf(" "), lineUnordered, indentedBulletRE.MatchString},
	{oneOf(" "), lineReference, indentedReferenceLineRE.MatchString},
	{noneOf("<>-*_+#[`~\t"), lineOrdered, orderedMarkerRE.MatchString},
}

var (
	indentedBulletRE = regexp.MustCompile(`^ {0,3}[\-+*] `)
	orderedMarkerRE  = regexp.MustCompile(`^ {0,3}\d+\. `)

	unorderedItemRE = regexp.MustCompile(`^ {0,3}[\-+*]\s+`)
	orderedItemRE   = regexp.MustCompile(`^ {0,3}\d+\.\s+`)
)

// classifyLine returns the kind of block that lines[i] would begin.
// It looks at lines[i+1] only to detect Setext headings.
func classifyLine(lines []string, i int) lineKind {
	if i >= len(lines) || isBlank(lines[i]) {
		return lineEmpty
	}
	line := lines[i]
	for _, rule := range lineRules {
		if rule.lead(line[0]) && rule.match(line) {
			return rule.kind
		}
	}
	if i+1 < len(lines) && isSetextUnderline(lines[i+1]) {
		return lineHeading
	}
	return lineParagraph
}

func oneOf(set string) func(byte) bool {
	return func(c byte) bool { return strings.IndexByte(set, c) >= 0 }
}

func noneOf(set string) func(byte) bool {
	return func(c byte) bool { return strings.IndexByte(set, c) < 0 }
}

func always(string) bool { return true }

func isQuoteStart(line string) bool {
	return len(line) == 1 || line[1] == ' '
}

// isThematicBreak reports whether line consists of three or more
// of its first character and nothing else besides whitespace.
func isThematicBreak(line string) bool {
	c := line[0]
	n := 0
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == c:
			n++
		case !isSpaceByte(line[i]):
			return false
		}
	}
	return n >= 3
}

func hasSpaceAfterMarker(line string) bool {
	return len(line) > 1 && line[1] == ' '
}

func hasCodeIndent(line string) bool {
	return strings.HasPrefix(line, "    ")
}

// isFenceStart reports whether line opens a fenced code block.
func isFenceStart(line string) bool {
	n := runLength(line, line[0])
	if n < 3 {
		return false
	}
	return line[0] != '`' || !strings.Contains(line[n:], "`")
}

func isSetextUnderline(line string) bool {
	if line == "" || (line[0] != '=' && line[0] != '-') {
		return false
	}
	return isBlank(line[runLength(line, line[0]):])
}

func runLength(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

// consume dispatches to the consumer for kind.
// It returns the block (nil if the lines produce no renderable block)
// and the index of the first unconsumed line.
func (p *blockParser) consume(kind lineKind, lines []string, i, depth, lineno int) (*Block, int) {
	switch kind {
	case lineHTML:
		return consumeHTML(lines, i)
	case lineQuote:
		return p.consumeQuote(lines, i, depth, lineno)
	case lineThematicBreak:
		return &Block{kind: ThematicBreakKind}, i + 1
	case lineUnordered, lineOrdered:
		return p.consumeList(kind, lines, i, depth, lineno)
	case lineHeading:
		return consumeHeading(lines, i)
	case lineReference:
		return p.consumeReferences(lines, i)
	case lineCode:
		return consumeCode(lines, i)
	case lineFence:
		return consumeFence(lines, i)
	default:
		return consumeParagraph(lines, i)
	}
}

// consumeParagraph takes the line at i along with the lines after it
// up to a blank line or a line that starts some other block.
// Indented lines continue a paragraph even though they classify as code:
// indented code cannot interrupt a paragraph.
func consumeParagraph(lines []string, i int) (*Block, int) {
	j := i + 1
	for j < len(lines) {
		if k := classifyLine(lines, j); k != lineParagraph && k != lineCode {
			break
		}
		j++
	}
	return &Block{kind: ParagraphKind, lines: lines[i:j]}, j
}

// consumeQuote takes the lines up to the next blank line.
// A leading "> " or a lone ">" is removed;
// other lines, including ">text", are kept as they are.
func (p *blockParser) consumeQuote(lines []string, i, depth, lineno int) (*Block, int) {
	var content []string
	j := i
	for ; j < len(lines) && !isBlank(lines[j]); j++ {
		line := lines[j]
		if line == ">" {
			line = ""
		} else {
			line = strings.TrimPrefix(line, "> ")
		}
		content = append(content, line)
	}
	return &Block{
		kind:     BlockQuoteKind,
		lines:    content,
		children: p.parseBlocks(content, depth+1, lineno),
	}, j
}

func consumeCode(lines []string, i int) (*Block, int) {
	var content []string
	j := i
	for ; j < len(lines); j++ {
		line := lines[j]
		if isBlank(line) && classifyLine(lines, j+1) != lineCode {
			break
		}
		content = append(content, stripCodeIndent(line))
	}
	return &Block{kind: CodeBlockKind, lines: content}, j
}

// stripCodeIndent removes a leading tab or up to four leading spaces.
func stripCodeIndent(line string) string {
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	n := 0
	for n < 4 && n < len(line) && line[n] == ' ' {
		n++
	}
	return line[n:]
}

func consumeFence(lines []string, i int) (*Block, int) {
	fenceChar := lines[i][0]
	fenceLen := runLength(lines[i], fenceChar)
	b := &Block{kind: CodeBlockKind}
	if info := strings.Fields(lines[i][fenceLen:]); len(info) > 0 {
		b.info = info[0]
	}
	for j := i + 1; j < len(lines); j++ {
		if isClosingFence(lines[j], fenceChar, fenceLen) {
			return b, j + 1
		}
		b.lines = append(b.lines, lines[j])
	}
	// An unclosed fence runs to the end of input.
	return b, len(lines)
}

func isClosingFence(line string, c byte, minLen int) bool {
	for i := 0; i < 3 && strings.HasPrefix(line, " "); i++ {
		line = line[1:]
	}
	n := runLength(line, c)
	return n >= minLen && isBlank(line[n:])
}

func consumeHeading(lines []string, i int) (*Block, int) {
	line := lines[i]
	if line[0] == '#' {
		level := 1
		for level < 6 && level < len(line) && line[level] == '#' {
			level++
		}
		return &Block{
			kind:  HeadingKind,
			level: level,
			lines: []string{strings.Trim(line, "# \t")},
		}, i + 1
	}
	if i+1 >= len(lines) {
		return consumeParagraph(lines, i)
	}
	level := 2
	if lines[i+1][0] == '=' {
		level = 1
	}
	return &Block{
		kind:  HeadingKind,
		level: level,
		lines: []string{line},
	}, i + 2
}

// consumeHTML takes lines until the opening tag is balanced by closing tags.
// A region whose tag is never closed runs to the end of input.
func consumeHTML(lines []string, i int) (*Block, int) {
	tag := htmlBlockTag(lines[i])
	if isVoidElement(tag) {
		return &Block{kind: HTMLBlockKind, lines: lines[i : i+1]}, i + 1
	}
	depth := 0
	j := i
	for j < len(lines) {
		depth += tagBalance(lines[j], tag)
		j++
		if depth <= 0 {
			break
		}
	}
	return &Block{kind: HTMLBlockKind, lines: lines[i:j]}, j
}

// consumeReferences records consecutive link reference definitions
// into the parser's reference map.
// It never produces a block.
func (p *blockParser) consumeReferences(lines []string, i int) (*Block, int) {
	j := i
	for j < len(lines) {
		def, label, ok := parseReferenceDefinition(lines[j])
		if !ok {
			break
		}
		j++
		if !def.TitlePresent && j < len(lines) {
			if title, ok := parseReferenceTitle(lines[j]); ok {
				def.Title = title
				def.TitlePresent = true
				j++
			}
		}
		p.refs.define(label, def)
	}
	return nil, j
}

func (p *blockParser) consumeList(kind lineKind, lines []string, i, depth, lineno int) (*Block, int) {
	marker := unorderedItemRE
	if kind == lineOrdered {
		marker = orderedItemRE
	}
	var items []*Block
	indent := ""
	j := i
scan:
	for ; j < len(lines); j++ {
		line := lines[j]
		if end := marker.FindStringIndex(line); end != nil {
			indent = strings.Repeat(" ", end[1])
			items = append(items, &Block{
				kind:  ListItemKind,
				lines: []string{line[end[1]:]},
			})
			continue
		}
		if len(items) == 0 {
			break
		}
		curr := items[len(items)-1]
		switch {
		case isBlank(line):
			if classifyLine(lines, j+1) != kind && !(j+1 < len(lines) && strings.HasPrefix(lines[j+1], indent)) {
				break scan
			}
			curr.lazy = true
		case strings.HasPrefix(line, indent):
			line = line[len(indent):]
		case curr.lazy:
			break scan
		}
		curr.lines = append(curr.lines, line)
	}
	if len(items) == 0 {
		return nil, i
	}
	if n := len(items); n >= 2 && items[n-2].lazy {
		items[n-1].lazy = true
	}

	for _, item := range items {
		rest := item.lines
		if !item.lazy {
			n := 0
			for n < len(rest) && classifyLine(rest, n) == lineParagraph {
				n++
			}
			item.lead = rest[:n]
			rest = rest[n:]
		}
		item.children = p.parseBlocks(rest, depth+1, lineno)
	}
	return &Block{
		kind:     ListKind,
		ordered:  kind == lineOrdered,
		children: items,
	}, j
}
