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

	"golang.org/x/text/cases"
)

// LinkDefinition is the data of a link reference definition
// such as:
//
//	[label]: https://example.com/ "Title"
type LinkDefinition struct {
	Destination  string
	Title        string
	TitlePresent bool
}

// ReferenceMap is a mapping of normalized labels (see [NormalizeLabel])
// to link definitions.
type ReferenceMap map[string]LinkDefinition

// MatchReference reports whether the normalized label appears in the map.
func (m ReferenceMap) MatchReference(normalizedLabel string) bool {
	_, ok := m[normalizedLabel]
	return ok
}

// Lookup returns the definition for the given label,
// normalizing it first.
func (m ReferenceMap) Lookup(label string) (LinkDefinition, bool) {
	def, ok := m[NormalizeLabel(label)]
	return def, ok
}

// define adds a definition to the map.
// Unlike CommonMark, a later definition replaces an earlier one.
func (m ReferenceMap) define(label string, def LinkDefinition) {
	m[NormalizeLabel(label)] = def
}

// NormalizeLabel returns the key a link label is stored under:
// surrounding whitespace is removed,
// inner runs of whitespace become a single space,
// and the result is case folded.
func NormalizeLabel(label string) string {
	return cases.Fold().String(strings.Join(strings.Fields(label), " "))
}

var (
	// referenceLineRE classifies an unindented line.
	referenceLineRE = regexp.MustCompile(`^\[(.+?)\]:[ ]*(.+?)(?:[ ]+['"](.+?)['"])?[ ]*$`)
	// indentedReferenceLineRE classifies a line starting with a space.
	indentedReferenceLineRE = regexp.MustCompile(`^ {0,3}\[(.+?)\]:\s*(.+?)(?:\s+['"](.+?)['"])?\s*$`)

	referenceDefinitionRE = regexp.MustCompile(`^ {0,3}\[(.+?)\]:\s*(.+?)(?:\s+[('"](.+?)[)'"])?\s*$`)
	referenceTitleRE      = regexp.MustCompile(`^\s+[('"](.+?)[)'"]\s*$`)
)

// parseReferenceDefinition parses a single-line link reference definition.
func parseReferenceDefinition(line string) (def LinkDefinition, label string, ok bool) {
	m := referenceDefinitionRE.FindStringSubmatch(line)
	if m == nil {
		return LinkDefinition{}, "", false
	}
	def = LinkDefinition{
		Destination:  trimAngleBrackets(strings.TrimSpace(m[2])),
		Title:        m[3],
		TitlePresent: m[3] != "",
	}
	return def, m[1], true
}

// parseReferenceTitle parses an indented line holding only a quoted title,
// which continues the definition on the line before.
func parseReferenceTitle(line string) (title string, ok bool) {
	m := referenceTitleRE.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func trimAngleBrackets(dest string) string {
	if len(dest) >= 2 && dest[0] == '<' && dest[len(dest)-1] == '>' {
		return dest[1 : len(dest)-1]
	}
	return dest
}
