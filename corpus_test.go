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
	"fmt"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/markdown/internal/corpus"
	"zombiezen.com/go/markdown/internal/normhtml"
)

func TestCorpus(t *testing.T) {
	for _, test := range loadCorpus(t) {
		t.Run(fmt.Sprintf("Example%d", test.Example), func(t *testing.T) {
			got, err := Convert(test.Markdown, nil)
			if err != nil {
				t.Error("Convert:", err)
			}
			if diff := cmp.Diff(test.HTML, got); diff != "" {
				t.Errorf("Input:\n%s\nOutput (-want +got):\n%s", test.Markdown, diff)
			}
		})
	}
}

// TestCorpusHTML5 verifies that the HTML5 option
// only changes the spelling of void elements.
func TestCorpusHTML5(t *testing.T) {
	for _, test := range loadCorpus(t) {
		t.Run(fmt.Sprintf("Example%d", test.Example), func(t *testing.T) {
			got, err := Convert(test.Markdown, &Options{HTML5: true})
			if err != nil {
				t.Error("Convert:", err)
			}
			if strings.Contains(got, " />") {
				t.Errorf("Convert(%q, HTML5) = %q; contains XHTML-style void element", test.Markdown, got)
			}
			want := string(normhtml.NormalizeHTML([]byte(test.HTML)))
			if diff := cmp.Diff(want, string(normhtml.NormalizeHTML([]byte(got)))); diff != "" {
				t.Errorf("Input:\n%s\nNormalized output (-want +got):\n%s", test.Markdown, diff)
			}
		})
	}
}

func FuzzConvert(f *testing.F) {
	for _, test := range loadCorpus(f) {
		f.Add(test.Markdown)
	}

	f.Fuzz(func(t *testing.T, markdown string) {
		if !utf8.ValidString(markdown) {
			t.Skip("Invalid UTF-8")
		}
		got, err := Convert(markdown, nil)
		if err != nil && !errors.Is(err, ErrLimitExceeded) {
			t.Error("Convert:", err)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Convert(%q) = %q; not valid UTF-8", markdown, got)
		}
		if isBlank(markdown) && got != "" {
			t.Errorf("Convert(%q) = %q; want \"\"", markdown, got)
		}

		buf := new(bytes.Buffer)
		if err := RenderHTML(buf, Parse(markdown)); err != nil && !errors.Is(err, ErrLimitExceeded) {
			t.Error("RenderHTML:", err)
		}
		if buf.String() != got {
			t.Errorf("RenderHTML(Parse(%q)) = %q; Convert = %q", markdown, buf, got)
		}
	})
}

func BenchmarkToHTML(b *testing.B) {
	input := new(strings.Builder)
	examples := loadCorpus(b)
	for i, test := range examples {
		if i > 0 {
			input.WriteString("\n\n")
		}
		input.WriteString(test.Markdown)
	}
	b.ResetTimer()
	b.SetBytes(int64(input.Len()))
	b.ReportMetric(float64(len(examples)), "examples/op")

	for i := 0; i < b.N; i++ {
		ToHTML(input.String())
	}
}

func BenchmarkRenderHTML(b *testing.B) {
	input := new(strings.Builder)
	for i, test := range loadCorpus(b) {
		if i > 0 {
			input.WriteString("\n\n")
		}
		input.WriteString(test.Markdown)
	}
	doc := Parse(input.String())
	b.ResetTimer()
	b.SetBytes(int64(input.Len()))

	for i := 0; i < b.N; i++ {
		RenderHTML(io.Discard, doc)
	}
}

func loadCorpus(tb testing.TB) []corpus.Example {
	tb.Helper()
	examples, err := corpus.Load()
	if err != nil {
		tb.Fatal(err)
	}
	return examples
}
