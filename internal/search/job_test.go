package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/shelf/internal/bus"
	"github.com/pders01/shelf/internal/query"
	"github.com/pders01/shelf/internal/source"
)

type recorder struct {
	mu   sync.Mutex
	msgs []bus.Result
	fail bool
}

func (r *recorder) Send(m bus.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return bus.ErrClosed
	}
	r.msgs = append(r.msgs, m)
	return nil
}

type fakePager struct {
	pages map[int]source.Page
	errs  map[int]error
	calls []int
	terms []string
}

func (f *fakePager) FetchPage(_ context.Context, term string, page int) (source.Page, error) {
	f.calls = append(f.calls, page)
	f.terms = append(f.terms, term)
	if err := f.errs[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func books(titles ...string) source.Page {
	p := make(source.Page, len(titles))
	for i, t := range titles {
		p[i] = source.NewItem(t, "https://example.org/"+t, "")
	}
	return p
}

func titles(items []source.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title()
	}
	return out
}

func TestJobStreamsPagesInOrder(t *testing.T) {
	pager := &fakePager{pages: map[int]source.Page{
		0: books("a1", "a2"),
		1: books("b1"),
		2: books("c1"),
	}}
	rec := &recorder{}

	job := NewJob(7, query.Parse("dune"), pager, rec)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []int{0, 1, 2}, pager.calls)
	assert.Equal(t, []string{"dune", "dune", "dune"}, pager.terms)
	require.Len(t, rec.msgs, 7)
	assert.Equal(t, bus.Status{Gen: 7, Text: "[1/3] loading..."}, rec.msgs[0])
	assert.Equal(t, []string{"a1", "a2"}, titles(rec.msgs[1].(bus.Replace).Items))
	assert.Equal(t, bus.Status{Gen: 7, Text: "[2/3] loading..."}, rec.msgs[2])
	assert.Equal(t, []string{"b1"}, titles(rec.msgs[3].(bus.Append).Items))
	assert.Equal(t, bus.Status{Gen: 7, Text: "[3/3] loading..."}, rec.msgs[4])
	assert.Equal(t, []string{"c1"}, titles(rec.msgs[5].(bus.Append).Items))
	assert.Equal(t, bus.Status{Gen: 7, Text: "dune"}, rec.msgs[6])

	for _, m := range rec.msgs {
		assert.Equal(t, uint64(7), m.Generation())
	}
}

func TestJobStopsAtEmptyPage(t *testing.T) {
	pager := &fakePager{pages: map[int]source.Page{0: books("only")}}
	rec := &recorder{}

	require.NoError(t, NewJob(1, query.Parse("x"), pager, rec).Run(context.Background()))

	assert.Equal(t, []int{0, 1}, pager.calls, "page 2 must never be requested")
	require.Len(t, rec.msgs, 4)
	assert.IsType(t, bus.Replace{}, rec.msgs[1])
	assert.Equal(t, bus.Status{Gen: 1, Text: "x"}, rec.msgs[3])
}

func TestJobEmptyFirstPageSendsNoReplace(t *testing.T) {
	pager := &fakePager{}
	rec := &recorder{}

	require.NoError(t, NewJob(2, query.Parse("nothing"), pager, rec).Run(context.Background()))

	assert.Equal(t, []int{0}, pager.calls)
	assert.Equal(t, []bus.Result{
		bus.Status{Gen: 2, Text: "[1/3] loading..."},
		bus.Status{Gen: 2, Text: "nothing"},
	}, rec.msgs)
}

func TestJobAppliesFilters(t *testing.T) {
	pager := &fakePager{pages: map[int]source.Page{
		0: {
			source.NewItem("Harry Potter and the Goblet", "l1", "Fantasy"),
			source.NewItem("Harry Hole", "l2", "Crime"),
			source.NewItem("HARRY POTTER omnibus", "l3", "Science Fiction"),
		},
	}}
	rec := &recorder{}

	q := query.Parse("harry filter:potter tag:fantasy")
	require.NoError(t, NewJob(3, q, pager, rec).Run(context.Background()))

	assert.Equal(t, []string{"harry"}, pager.terms[:1], "filter tokens are stripped before fetching")
	repl := rec.msgs[1].(bus.Replace)
	assert.Equal(t, []string{"Harry Potter and the Goblet"}, titles(repl.Items))
	assert.Equal(t, bus.Status{Gen: 3, Text: "harry"}, rec.msgs[len(rec.msgs)-1])
}

func TestJobFilteredPageStillContinues(t *testing.T) {
	// A page whose items are all filtered out is sent empty but does not end
	// the traversal; only an empty fetch does.
	pager := &fakePager{pages: map[int]source.Page{
		0: books("alpha"),
		1: books("beta"),
	}}
	rec := &recorder{}

	require.NoError(t, NewJob(4, query.Parse("filter:beta"), pager, rec).Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2}, pager.calls)
	assert.Empty(t, rec.msgs[1].(bus.Replace).Items)
	assert.Equal(t, []string{"beta"}, titles(rec.msgs[3].(bus.Append).Items))
}

func TestJobFilterIsIdempotent(t *testing.T) {
	page := source.Page{
		source.NewItem("Harry Potter and the Goblet", "l1", "Fantasy"),
		source.NewItem("Harry Hole", "l2", "Crime"),
		source.NewItem("harry potter omnibus", "l3", "Urban Fantasy"),
		source.NewItem("Potted Plants", "l4", "Fantasy"),
	}
	j := NewJob(1, query.Parse("harry filter:potter tag:fantasy"), &fakePager{}, &recorder{})

	once := j.filter(page)
	require.Len(t, once, 2)
	assert.Equal(t, once, j.filter(source.Page(once)))
}

func TestJobTransportErrorDegrades(t *testing.T) {
	pager := &fakePager{
		pages: map[int]source.Page{0: books("a"), 2: books("never")},
		errs:  map[int]error{1: &source.TransportError{URL: "https://example.org", Status: 503}},
	}
	rec := &recorder{}

	require.NoError(t, NewJob(5, query.Parse("t"), pager, rec).Run(context.Background()))

	assert.Equal(t, []int{0, 1}, pager.calls)
	for _, m := range rec.msgs {
		if s, ok := m.(bus.Status); ok {
			assert.NotContains(t, s.Text, "error")
		}
	}
	assert.Equal(t, bus.Status{Gen: 5, Text: "t"}, rec.msgs[len(rec.msgs)-1])
}

func TestJobFatalErrorReportsStatus(t *testing.T) {
	pager := &fakePager{errs: map[int]error{
		0: fmt.Errorf("compiling item selector %q: %w", "li[", source.ErrInvalidSelector),
	}}
	rec := &recorder{}

	require.NoError(t, NewJob(6, query.Parse("t"), pager, rec).Run(context.Background()))

	require.Len(t, rec.msgs, 2)
	last := rec.msgs[1].(bus.Status)
	assert.Equal(t, uint64(6), last.Gen)
	assert.Contains(t, last.Text, "error: ")
	assert.Contains(t, last.Text, "invalid selector")
}

func TestJobStopsWhenReceiverGone(t *testing.T) {
	pager := &fakePager{pages: map[int]source.Page{0: books("a")}}
	rec := &recorder{fail: true}

	err := NewJob(8, query.Parse("t"), pager, rec).Run(context.Background())
	assert.True(t, errors.Is(err, bus.ErrClosed))
	assert.Empty(t, pager.calls)
}

func TestJobCustomPageLimit(t *testing.T) {
	pager := &fakePager{pages: map[int]source.Page{0: books("a"), 1: books("b")}}
	rec := &recorder{}

	job := &Job{Gen: 9, Query: query.Parse("t"), Pager: pager, Results: rec, PageLimit: 1}
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []int{0}, pager.calls)
	assert.Equal(t, bus.Status{Gen: 9, Text: "[1/1] loading..."}, rec.msgs[0])
	assert.Equal(t, "search#9", job.Name())
}
