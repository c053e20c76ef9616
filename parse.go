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

// Package markdown converts documents written in the classic Markdown dialect
// into HTML fragments.
//
// Conversion happens in two phases.
// [Parser.Parse] splits the input into lines
// and partitions them into [Block] records,
// collecting link reference definitions into a [ReferenceMap] on the way.
// [HTMLRenderer] then walks the blocks
// and runs the inline parser over their text.
// [ToHTML] and [Convert] do both in one call.
//
// Conversion never fails on malformed markup:
// anything that is not a recognized construct is rendered as text.
// The only errors are resource limits (see [LimitError]).
package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'markdown'.
func tracer() tracing.Trace {
	return tracing.Select("markdown")
}

// DefaultMaxNesting is the nesting depth used
// when [Parser.MaxNesting] or [HTMLRenderer.MaxNesting] is zero.
const DefaultMaxNesting = 64

// ErrLimitExceeded is matched by every [*LimitError] under [errors.Is].
var ErrLimitExceeded = errors.New("resource limit exceeded")

// LimitError reports that a document exceeded one of the configured resource limits.
// The output produced alongside a LimitError is still valid HTML:
// content past the limit is either dropped (input size)
// or rendered as escaped text (nesting).
type LimitError struct {
	// Limit names the limit that was hit,
	// either "nesting depth" or "input size".
	Limit string
	// Max is the configured maximum.
	Max int
	// Line is the 1-based line number where the limit was hit,
	// or zero if not applicable.
	Line int
}

func (e *LimitError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s exceeds limit of %d", e.Line, e.Limit, e.Max)
	}
	return fmt.Sprintf("%s exceeds limit of %d", e.Limit, e.Max)
}

// Is reports whether target is [ErrLimitExceeded].
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// A Document is the result of the block parsing phase.
type Document struct {
	// Blocks is the sequence of top-level blocks.
	// Link reference definitions do not appear here.
	Blocks []*Block
	// ReferenceMap holds every link reference definition in the document,
	// including those nested inside quotes and lists.
	ReferenceMap ReferenceMap
}

// Parser holds the options for the block parsing phase.
// The zero value uses the defaults.
// A Parser may be reused and shared between goroutines:
// each call to [Parser.Parse] starts from an empty [ReferenceMap].
type Parser struct {
	// MaxNesting is the maximum depth of nested quotes and lists.
	// Content nested deeper is kept as a literal text block.
	// If MaxNesting is zero, DefaultMaxNesting is used.
	MaxNesting int
	// MaxInputSize is the maximum number of bytes parsed.
	// Input past the last line that fits is ignored.
	// If MaxInputSize is zero or negative, there is no limit.
	MaxInputSize int
}

// Parse parses text with the default [Parser].
func Parse(text string) *Document {
	doc, _ := new(Parser).Parse(text)
	return doc
}

// Parse splits text into lines and parses them into blocks.
// Parse always returns a non-nil document.
// If a resource limit was exceeded,
// Parse also returns a [*LimitError] describing the first violation.
func (p *Parser) Parse(text string) (*Document, error) {
	bp := &blockParser{
		maxNesting: p.MaxNesting,
		refs:       make(ReferenceMap),
	}
	if bp.maxNesting <= 0 {
		bp.maxNesting = DefaultMaxNesting
	}
	if p.MaxInputSize > 0 && len(text) > p.MaxInputSize {
		cut := strings.LastIndexByte(text[:p.MaxInputSize], '\n')
		// Line is the first line that is dropped.
		line := strings.Count(text[:cut+1], "\n") + 1
		if cut < 0 {
			cut = 0
		}
		bp.exceeded(&LimitError{
			Limit: "input size",
			Max:   p.MaxInputSize,
			Line:  line,
		})
		text = text[:cut]
	}
	doc := &Document{
		Blocks:       bp.parseBlocks(splitLines(text), 0, 1),
		ReferenceMap: bp.refs,
	}
	return doc, bp.err
}

// splitLines normalizes line endings and splits text into lines
// without their terminators.
func splitLines(text string) []string {
	if strings.IndexByte(text, 0) >= 0 {
		// Contains one or more NUL bytes.
		// Replace with Unicode replacement character.
		text = strings.ReplaceAll(text, "\x00", "\ufffd")
	}
	if strings.IndexByte(text, '\r') >= 0 {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// blockParser is the state shared by one document's block phase,
// including all of its nested parses.
type blockParser struct {
	maxNesting int
	refs       ReferenceMap
	err        error
}

// exceeded records a limit violation.
// Only the first one is reported to the caller.
func (p *blockParser) exceeded(e *LimitError) {
	tracer().Errorf("markdown: %v", e)
	if p.err == nil {
		p.err = e
	}
}

// parseBlocks partitions lines into blocks.
// depth is the number of containers enclosing lines
// and lineno is the document line number of lines[0].
// List item lines are re-based after indentation is stripped,
// so lineno is only approximate inside containers.
func (p *blockParser) parseBlocks(lines []string, depth int, lineno int) []*Block {
	if depth > p.maxNesting {
		p.exceeded(&LimitError{
			Limit: "nesting depth",
			Max:   p.maxNesting,
			Line:  lineno,
		})
		lines = trimBlankLines(lines)
		if len(lines) == 0 {
			return nil
		}
		return []*Block{{kind: LiteralKind, lines: lines}}
	}

	var blocks []*Block
	for i := 0; i < len(lines); {
		kind := classifyLine(lines, i)
		if kind == lineEmpty {
			i++
			continue
		}
		b, next := p.consume(kind, lines, i, depth, lineno+i)
		if next <= i {
			// Every consumer takes at least one line.
			// Guard against an infinite loop anyway.
			b, next = consumeParagraph(lines, i)
		}
		tracer().Debugf("markdown: line %d: %v consumed %d line(s)", lineno+i, kind, next-i)
		if b != nil {
			blocks = append(blocks, b)
		}
		i = next
	}
	return blocks
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// isBlank reports whether line is empty or consists only of whitespace.
func isBlank(line string) bool {
	for i := 0; i < len(line); i++ {
		if !isSpaceByte(line[i]) {
			return false
		}
	}
	return true
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f' || c == '\r' || c == '\n'
}
