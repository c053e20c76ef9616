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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHTMLRenderer(t *testing.T) {
	tests := []struct {
		name  string
		html5 bool
		input string
		want  string
	}{
		{
			name:  "Empty",
			input: "",
			want:  "",
		},
		{
			name:  "FencedLanguage",
			input: "```go\nx := 1\n```\n",
			want:  "<pre><code class=\"language-go\">x := 1\n</code></pre>\n",
		},
		{
			name:  "EmptyFence",
			input: "```\n```\n",
			want:  "<pre><code></code></pre>\n",
		},
		{
			name:  "QuoteParagraphs",
			input: "> a\n>\n> b\n",
			want:  "<blockquote>a\nb\n</blockquote>\n",
		},
		{
			name:  "LazyItems",
			input: "* a\n\n* b\n",
			want:  "<ul>\n<li>a\n</li>\n<li>b\n</li>\n</ul>\n",
		},
		{
			name:  "ItemWithCode",
			input: "- a\n\n      code\n",
			want:  "<ul>\n<li>a\n<pre><code>code\n</code></pre>\n</li>\n</ul>\n",
		},
		{
			name:  "HeadingInline",
			input: "## *a* & b\n",
			want:  "<h2><em>a</em> &amp; b</h2>\n",
		},
		{
			name:  "RawHTMLVerbatim",
			input: "<table>\n<tr><td>*x* & y</td></tr>\n</table>\n",
			want:  "<table>\n<tr><td>*x* & y</td></tr>\n</table>\n",
		},
		{
			name:  "XHTML",
			input: "---\n\na  \nb\n",
			want:  "<hr />\na<br />\nb\n",
		},
		{
			name:  "HTML5",
			html5: true,
			input: "---\n\na  \nb\n",
			want:  "<hr>\na<br>\nb\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &HTMLRenderer{HTML5: test.html5}
			buf := new(bytes.Buffer)
			if err := r.Render(buf, Parse(test.input)); err != nil {
				t.Error("Render:", err)
			}
			if diff := cmp.Diff(test.want, buf.String()); diff != "" {
				t.Errorf("Input:\n%s\nOutput (-want +got):\n%s", test.input, diff)
			}
		})
	}
}

func TestRendererNestingLimit(t *testing.T) {
	tests := []struct {
		name       string
		maxNesting int
		input      string
		want       string
	}{
		{
			name:       "Quote",
			maxNesting: 1,
			input:      "> > a\n",
			want:       "<blockquote><blockquote>a\n</blockquote>\n</blockquote>\n",
		},
		{
			name:       "List",
			maxNesting: 2,
			input:      "- a\n    - b\n        - c\n            - d\n",
			want: "<ul>\n<li>a<ul>\n<li>b<ul>\n<li>cd\n</li>\n</ul>\n" +
				"</li>\n</ul>\n</li>\n</ul>\n",
		},
		{
			name:       "ListItems",
			maxNesting: 1,
			input:      "- a\n    - b\n        - c & d\n          more\n        - e\n",
			want:       "<ul>\n<li>a<ul>\n<li>bc &amp; d\nmore\ne\n</li>\n</ul>\n</li>\n</ul>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &HTMLRenderer{MaxNesting: test.maxNesting}
			got, err := r.AppendDocument(nil, Parse(test.input))
			if diff := cmp.Diff(test.want, string(got)); diff != "" {
				t.Errorf("AppendDocument(Parse(%q)) (-want +got):\n%s", test.input, diff)
			}
			var limitErr *LimitError
			if !errors.As(err, &limitErr) {
				t.Fatalf("AppendDocument(Parse(%q)) error = %v; want *LimitError", test.input, err)
			}
			want := LimitError{Limit: "nesting depth", Max: test.maxNesting}
			if diff := cmp.Diff(want, *limitErr); diff != "" {
				t.Errorf("error (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAppendBlock(t *testing.T) {
	doc := Parse("[x][r]\n\n[r]: /u\n")
	if len(doc.Blocks) != 1 {
		t.Fatalf("len(blocks) = %d; want 1", len(doc.Blocks))
	}
	got := new(HTMLRenderer).AppendBlock([]byte("prefix:"), doc.Blocks[0], doc.ReferenceMap)
	const want = `prefix:<a href="/u">x</a>`
	if string(got) != want {
		t.Errorf("AppendBlock(...) = %q; want %q", got, want)
	}

	got = new(HTMLRenderer).AppendBlock(nil, doc.Blocks[0], nil)
	if want := "[x][r]"; string(got) != want {
		t.Errorf("AppendBlock(..., nil) = %q; want %q", got, want)
	}
}

type errorWriter struct {
	err error
}

func (w errorWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func TestRenderWriteError(t *testing.T) {
	writeErr := errors.New("bork")
	err := RenderHTML(errorWriter{writeErr}, Parse("Hello\n"))
	if !errors.Is(err, writeErr) {
		t.Errorf("RenderHTML(...) = %v; want %v", err, writeErr)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "render markdown to html: ") {
		t.Errorf("RenderHTML(...) = %q; want \"render markdown to html: \" prefix", err)
	}
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		s      string
		quotes bool
		want   string
	}{
		{"", false, ""},
		{"plain", false, "plain"},
		{`<a & "b">`, false, `&lt;a &amp; "b"&gt;`},
		{`<a & "b">`, true, `&lt;a &amp; &quot;b&quot;&gt;`},
		{"&amp;", false, "&amp;amp;"},
	}
	for _, test := range tests {
		if got := EscapeString(test.s, test.quotes); got != test.want {
			t.Errorf("EscapeString(%q, %t) = %q; want %q", test.s, test.quotes, got, test.want)
		}
	}
}

func TestNormalizeURI(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"", ""},
		{"http://x.test/a?b=c&d#e", "http://x.test/a?b=c&d#e"},
		{"http://x.test/a b", "http://x.test/a%20b"},
		{"/%41%aF", "/%41%aF"},
		{"100%", "100%25"},
		{"%zz", "%25zz"},
		{"/ä", "/%C3%A4"},
		{"a[b]", "a%5Bb%5D"},
		{`"quoted"`, "%22quoted%22"},
	}
	for _, test := range tests {
		if got := NormalizeURI(test.s); got != test.want {
			t.Errorf("NormalizeURI(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}
