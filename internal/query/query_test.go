package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		baseTerm string
		filters  []Filter
	}{
		{
			name:     "plain term",
			raw:      "harry potter",
			baseTerm: "harry potter",
		},
		{
			name:     "name filter after term",
			raw:      "harry filter:potter",
			baseTerm: "harry",
			filters:  []Filter{{Kind: NameContains, Pattern: "potter"}},
		},
		{
			name:     "only filters yields empty term",
			raw:      "tag:scifi filter:foundation",
			baseTerm: "",
			filters: []Filter{
				{Kind: TagContains, Pattern: "scifi"},
				{Kind: NameContains, Pattern: "foundation"},
			},
		},
		{
			name:     "filter interleaved with term",
			raw:      "  the filter:ring   lord ",
			baseTerm: "the lord",
			filters:  []Filter{{Kind: NameContains, Pattern: "ring"}},
		},
		{
			name:     "keyword is case-insensitive, pattern keeps case",
			raw:      "FILTER:Potter Tag:Fantasy",
			baseTerm: "",
			filters: []Filter{
				{Kind: NameContains, Pattern: "Potter"},
				{Kind: TagContains, Pattern: "Fantasy"},
			},
		},
		{
			name:     "unknown keyword stays in text",
			raw:      "author:tolkien hobbit",
			baseTerm: "author:tolkien hobbit",
		},
		{
			name:     "empty pattern stays in text",
			raw:      "filter: dune",
			baseTerm: "filter: dune",
		},
		{
			name:     "pattern may contain colons",
			raw:      "filter:a:b",
			baseTerm: "",
			filters:  []Filter{{Kind: NameContains, Pattern: "a:b"}},
		},
		{
			name:     "more than two tokens are all recognized",
			raw:      "x filter:a filter:b tag:c",
			baseTerm: "x",
			filters: []Filter{
				{Kind: NameContains, Pattern: "a"},
				{Kind: NameContains, Pattern: "b"},
				{Kind: TagContains, Pattern: "c"},
			},
		},
		{
			name:     "empty input",
			raw:      "",
			baseTerm: "",
		},
		{
			name:     "whitespace only",
			raw:      " \t\n ",
			baseTerm: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Parse(tt.raw)
			assert.Equal(t, tt.raw, q.Raw)
			assert.Equal(t, tt.baseTerm, q.BaseTerm)
			assert.Equal(t, tt.filters, q.Filters)
		})
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"", ":", "::", "filter", "tag:", ":tag", "filter:\x00", "ünïcode tag:日本",
		"filter:x\tfilter:y", "\xff\xfe", "a:b:c:d", "  lead  trail  ",
		"tag: tag:a filter:", "FiLtEr:x word TAG:y other", "filter:a:b rest",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			q := Parse(in)
			assert.Equal(t, in, q.Raw)
			assert.Equal(t, strings.TrimSpace(q.BaseTerm), q.BaseTerm)

			var words []string
			tokens := 0
			for _, field := range strings.Fields(in) {
				if _, ok := parseToken(field); ok {
					tokens++
					continue
				}
				words = append(words, field)
			}
			assert.Len(t, q.Filters, tokens)
			assert.Equal(t, words, nonEmpty(strings.Fields(q.BaseTerm)), "free text keeps its order")

			for _, field := range strings.Fields(q.BaseTerm) {
				_, ok := parseToken(field)
				assert.False(t, ok, "%q left in base term", field)
			}
		})
	}
}

// nonEmpty maps an empty slice to nil so it compares equal to an unset one.
func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

type book struct{ title, category string }

func TestQueryMatchIsIdempotent(t *testing.T) {
	books := []book{
		{"Foundation", "SciFi"},
		{"Foundation and Empire", "Classic SciFi"},
		{"Dune", "SciFi"},
		{"The Foundation Pit", "Literature"},
		{"", ""},
	}
	keep := func(q Query, in []book) []book {
		var out []book
		for _, b := range in {
			if q.Match(b.title, b.category) {
				out = append(out, b)
			}
		}
		return out
	}

	for _, raw := range []string{"tag:scifi filter:foundation", "filter:FOUND", "no filters", "tag:none"} {
		q := Parse(raw)
		once := keep(q, books)
		assert.Equal(t, once, keep(q, once), raw)
	}
}

func TestFilterMatch(t *testing.T) {
	name := Filter{Kind: NameContains, Pattern: "AbC"}
	assert.True(t, name.Match("xxabcxx", ""))
	assert.True(t, name.Match("ABC", "other"))
	assert.False(t, name.Match("ab c", "abc"))

	tag := Filter{Kind: TagContains, Pattern: "scifi"}
	assert.True(t, tag.Match("whatever", "Classic SciFi"))
	assert.False(t, tag.Match("scifi", ""))
}

func TestQueryMatchIsConjunction(t *testing.T) {
	q := Parse("tag:scifi filter:foundation")

	assert.True(t, q.Match("Foundation and Empire", "SciFi"))
	assert.False(t, q.Match("Foundation and Empire", "History"))
	assert.False(t, q.Match("Dune", "SciFi"))
	assert.True(t, Parse("no filters").Match("anything", ""))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "harry", Parse("harry").Describe())
	assert.Equal(t, "harry [filter:potter]", Parse("harry filter:potter").Describe())
	assert.Equal(t, "[tag:scifi]", Parse("tag:scifi").Describe())
	assert.Equal(t, "", Parse("").Describe())
}

func TestFilterKindString(t *testing.T) {
	assert.Equal(t, "filter", NameContains.String())
	assert.Equal(t, "tag", TagContains.String())
	assert.Equal(t, "unknown", FilterKind(42).String())
}
