package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragments(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  []string
	}{
		{
			name:  "match spanning the whole text keeps bare edges",
			query: "hello",
			text:  "hello world",
			want:  []string{"<mark>hello</mark> world"},
		},
		{
			name:  "window clipped mid-text gets ellipses",
			query: "hello",
			text:  strings.Repeat("x", 60) + " hello " + strings.Repeat("y", 60),
			want:  []string{"…<mark>hello</mark>…"},
		},
		{
			name:  "case-insensitive match preserves original casing",
			query: "HELLO",
			text:  "Say hello.",
			want:  []string{"Say <mark>hello</mark>."},
		},
		{
			name:  "nearby occurrences share one window, both highlighted",
			query: "hello",
			text:  "say hello and hello again",
			want:  []string{"say <mark>hello</mark> and <mark>hello</mark> again"},
		},
		{
			name:  "regex metacharacters are literal",
			query: "a.c",
			text:  "xac abc a.c done",
			want:  []string{"xac abc <mark>a.c</mark> done"},
		},
		{
			name:  "window stops at a line break",
			query: "hello",
			text:  "first line\nfind hello here\nlast line",
			want:  []string{"…find <mark>hello</mark> here…"},
		},
		{
			name:  "no match",
			query: "zzz",
			text:  "hello world",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fragments(tt.query, tt.text))
		})
	}
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "a<mark>B</mark>c", Highlight("b", "aBc"))
	assert.Equal(t, "say <mark>(x)</mark>", Highlight("(x)", "say (x)"))
	assert.Equal(t, "untouched", Highlight("zzz", "untouched"))
}
