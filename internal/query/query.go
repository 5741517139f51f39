package query

import (
	"strings"
)

// FilterKind selects which item field a filter token matches against.
type FilterKind int

const (
	// NameContains matches against the item title.
	NameContains FilterKind = iota
	// TagContains matches against the item category.
	TagContains
)

func (k FilterKind) String() string {
	switch k {
	case NameContains:
		return "filter"
	case TagContains:
		return "tag"
	default:
		return "unknown"
	}
}

// keywords maps the lowercased token keyword to its filter kind.
var keywords = map[string]FilterKind{
	"filter": NameContains,
	"tag":    TagContains,
}

// Filter is a single retain-predicate parsed from a keyword:pattern token.
type Filter struct {
	Kind    FilterKind
	Pattern string
}

// Match reports whether an item with the given title and category passes
// the filter. Matching is a case-insensitive substring test.
func (f Filter) Match(title, category string) bool {
	field := title
	if f.Kind == TagContains {
		field = category
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(f.Pattern))
}

func (f Filter) String() string {
	return f.Kind.String() + ":" + f.Pattern
}

// Query is a raw search string split into the free-text term and the
// filter tokens found in it.
type Query struct {
	Raw      string
	BaseTerm string
	Filters  []Filter
}

// Parse splits raw into a base term and filters. Tokens of the form
// filter:pattern and tag:pattern may appear anywhere; the keyword is
// case-insensitive and the pattern is everything after the first colon.
// Unknown keywords and empty patterns stay in the free text. Parse never
// fails.
func Parse(raw string) Query {
	q := Query{Raw: raw}

	var words []string
	for _, field := range strings.Fields(raw) {
		if f, ok := parseToken(field); ok {
			q.Filters = append(q.Filters, f)
			continue
		}
		words = append(words, field)
	}
	q.BaseTerm = strings.Join(words, " ")

	return q
}

func parseToken(field string) (Filter, bool) {
	keyword, pattern, found := strings.Cut(field, ":")
	if !found || pattern == "" {
		return Filter{}, false
	}
	kind, ok := keywords[strings.ToLower(keyword)]
	if !ok {
		return Filter{}, false
	}
	return Filter{Kind: kind, Pattern: pattern}, true
}

// Match reports whether an item passes every filter in the query.
func (q Query) Match(title, category string) bool {
	for _, f := range q.Filters {
		if !f.Match(title, category) {
			return false
		}
	}
	return true
}

// Describe renders the query for status display, e.g. `harry [filter:potter]`.
func (q Query) Describe() string {
	if len(q.Filters) == 0 {
		return q.BaseTerm
	}
	tokens := make([]string, len(q.Filters))
	for i, f := range q.Filters {
		tokens[i] = f.String()
	}
	desc := "[" + strings.Join(tokens, " ") + "]"
	if q.BaseTerm == "" {
		return desc
	}
	return q.BaseTerm + " " + desc
}
