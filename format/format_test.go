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

package format

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/internal/corpus"
	"zombiezen.com/go/markdown/internal/normhtml"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{
			name:     "Empty",
			markdown: "\n\n",
			want:     "",
		},
		{
			name:     "SetextHeading",
			markdown: "Title\n=====\n\nSome *text*\n",
			want:     "# Title\n\nSome *text*\n",
		},
		{
			name:     "ClosedATXHeading",
			markdown: "## Section ##\n",
			want:     "## Section\n",
		},
		{
			name:     "IndentedSetextHeading",
			markdown: "0\n 0\n-\n",
			want:     "0\n\n## 0\n",
		},
		{
			name:     "SetextHeadingWithHashes",
			markdown: " #a #\n---\n",
			want:     "## &#35;a &#35;\n",
		},
		{
			name:     "ThematicBreak",
			markdown: "para\n\n---\n",
			want:     "para\n\n***\n",
		},
		{
			name:     "TightList",
			markdown: "* one\n* two\n",
			want:     "-   one\n-   two\n",
		},
		{
			name:     "OrderedList",
			markdown: "1. one\n2. two\n",
			want:     "1.  one\n2.  two\n",
		},
		{
			name:     "LazyList",
			markdown: "- a\n\n- b\n",
			want:     "-   a\n\n-   b\n",
		},
		{
			name:     "LazyContinuation",
			markdown: "- item one\n  continued\n\n  still item one\n- item two\n",
			want:     "-   item one\n    continued\n\n    still item one\n\n-   item two\n",
		},
		{
			name:     "NestedList",
			markdown: "- a\n    - b\n",
			want:     "-   a\n    -   b\n",
		},
		{
			name:     "ListThenParagraph",
			markdown: "- a\n\nafter\n",
			want:     "-   a\n\n\nafter\n",
		},
		{
			name:     "ListThenQuote",
			markdown: "* one\n* two\n\n> quoted\n",
			want:     "-   one\n-   two\n\n\n> quoted\n",
		},
		{
			name:     "Quote",
			markdown: "> a\n>\n> b\n",
			want:     "> a\n>\n> b\n",
		},
		{
			name:     "NestedQuote",
			markdown: "> > inner\n",
			want:     "> > inner\n",
		},
		{
			name:     "IndentedCode",
			markdown: "    x < y\n    z\n",
			want:     "    x < y\n    z\n",
		},
		{
			name:     "FencedCode",
			markdown: "```go\nfmt.Println()\n```\n",
			want:     "```go\nfmt.Println()\n```\n",
		},
		{
			name:     "FenceInsideCode",
			markdown: "~~~go\n```\n~~~\n",
			want:     "~~~go\n```\n~~~\n",
		},
		{
			name:     "FenceWithLeadingBlank",
			markdown: "```\n\ncode\n```\n",
			want:     "```\n\ncode\n```\n",
		},
		{
			name:     "IndentedFenceLine",
			markdown: "~~~\n```\n~~~\n",
			want:     "    ```\n",
		},
		{
			name:     "RawHTML",
			markdown: "<div>\n*x*\n</div>\n",
			want:     "<div>\n*x*\n</div>\n",
		},
		{
			name:     "References",
			markdown: "[b]: /b\n\n[x][Ref] and [y][b]\n\n[REF]: /u\n    \"T\"\n",
			want:     "[x][Ref] and [y][b]\n\n[b]: /b\n[ref]: /u \"T\"\n",
		},
		{
			name:     "ReferenceTitleWithQuote",
			markdown: "[x][r]\n\n[r]: /u 'say \"hi\"'\n",
			want:     "[x][r]\n\n[r]: /u (say \"hi\")\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := markdown.Parse(test.markdown)
			got := new(strings.Builder)
			if err := Format(got, doc); err != nil {
				t.Error("Format:", err)
			}
			if diff := cmp.Diff(test.want, got.String()); diff != "" {
				t.Errorf("Input:\n%s\nOutput (-want +got):\n%s", test.markdown, diff)
			}

			originalHTML := normhtml.NormalizeHTML([]byte(markdown.ToHTML(test.markdown)))
			formattedHTML := normhtml.NormalizeHTML([]byte(markdown.ToHTML(got.String())))
			if diff := cmp.Diff(string(originalHTML), string(formattedHTML)); diff != "" {
				t.Errorf("Reformatting changed semantics. Original:\n%s\nReformatting:\n%s\nHTML diff (-want +got):\n%s", test.markdown, got, diff)
			}
		})
	}
}

func FuzzFormat(f *testing.F) {
	examples, err := corpus.Load()
	if err != nil {
		f.Fatal(err)
	}
	for _, ex := range examples {
		f.Add(ex.Markdown)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("Invalid UTF-8")
		}
		doc := markdown.Parse(input)
		originalHTML := markdown.ToHTML(input)

		got := new(strings.Builder)
		if err := Format(got, doc); err != nil {
			t.Error("Format #1:", err)
		}

		formattedDoc := markdown.Parse(got.String())
		formattedHTML := markdown.ToHTML(got.String())
		diff := cmp.Diff(string(normhtml.NormalizeHTML([]byte(originalHTML))), string(normhtml.NormalizeHTML([]byte(formattedHTML))))
		if diff != "" {
			// Lazy continuation lines can change meaning once reindented.
			t.Skipf("Reformatting changed semantics. Original:\n%s\nReformatting:\n%s\nHTML diff (-want +got):\n%s", input, got, diff)
		}

		reformatted := new(strings.Builder)
		if err := Format(reformatted, formattedDoc); err != nil {
			t.Error("Format #2:", err)
		}
		if diff := cmp.Diff(got.String(), reformatted.String()); diff != "" {
			t.Errorf("Format not idempotent (-first +second):\n%s", diff)
		}
	})
}

type failWriter struct {
	n   int
	err error
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, w.err
	}
	w.n--
	return len(p), nil
}

func TestFormatWriteError(t *testing.T) {
	wantErr := errors.New("bork")
	doc := markdown.Parse("# a\n\nb\n\n[r]: /u\n")
	for n := 0; n < 3; n++ {
		err := Format(&failWriter{n: n, err: wantErr}, doc)
		if !errors.Is(err, wantErr) {
			t.Errorf("Format(writer failing after %d writes) = %v; want %v", n, err, wantErr)
		}
	}
}

func TestWriteTrimmedIndent(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", ""},
		{" \t ", ""},
		{"> ", ">"},
		{"> > ", "> >"},
		{"> >     ", "> >"},
		{"    ", ""},
	}
	for _, test := range tests {
		got := new(strings.Builder)
		w := &errWriter{w: got}
		writeTrimmedIndent(w, test.prefix)
		if got.String() != test.want || w.err != nil {
			t.Errorf("writeTrimmedIndent(buf, %q) = %q, %v; want %q, <nil>",
				test.prefix, got, w.err, test.want)
		}
	}
}
