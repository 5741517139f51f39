// Package search runs one query against a source, page by page, and
// streams what it finds onto the results bus.
package search

import (
	"context"
	"fmt"

	"github.com/pders01/shelf/internal/bus"
	"github.com/pders01/shelf/internal/debuglog"
	"github.com/pders01/shelf/internal/query"
	"github.com/pders01/shelf/internal/source"
)

// DefaultPageLimit is how many pages a single search traverses.
const DefaultPageLimit = 3

// Job is one submitted search. Jobs share nothing but the pager and the
// results queue.
type Job struct {
	Gen       uint64
	Query     query.Query
	Pager     source.Pager
	Results   bus.Sender[bus.Result]
	PageLimit int
}

// NewJob builds a job with the default page limit.
func NewJob(gen uint64, q query.Query, pager source.Pager, results bus.Sender[bus.Result]) *Job {
	return &Job{Gen: gen, Query: q, Pager: pager, Results: results, PageLimit: DefaultPageLimit}
}

func (j *Job) Name() string {
	return fmt.Sprintf("search#%d", j.Gen)
}

// Run fetches up to PageLimit pages. Page 0 is sent as a Replace and later
// pages as Appends; the loop stops at the first empty page. Transport
// failures count as an empty page. Any other fetch error ends the job with
// an "error: ..." status. The last message is a status holding the base
// term.
func (j *Job) Run(ctx context.Context) error {
	limit := j.PageLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	log := debuglog.WithFields(map[string]any{"gen": j.Gen, "term": j.Query.BaseTerm})

	for page := 0; page < limit; page++ {
		if err := j.send(bus.Status{Gen: j.Gen, Text: fmt.Sprintf("[%d/%d] loading...", page+1, limit)}); err != nil {
			return err
		}

		items, err := j.Pager.FetchPage(ctx, j.Query.BaseTerm, page)
		if err != nil {
			if !source.IsTransport(err) {
				log.Errorf("page %d: %v", page, err)
				return j.send(bus.Status{Gen: j.Gen, Text: "error: " + err.Error()})
			}
			log.Warnf("page %d degraded to empty: %v", page, err)
			items = nil
		}
		if len(items) == 0 {
			log.Debugf("page %d empty, stopping", page)
			break
		}

		kept := j.filter(items)
		log.Debugf("page %d: %d items, %d kept", page, len(items), len(kept))

		var msg bus.Result = bus.Append{Gen: j.Gen, Items: kept}
		if page == 0 {
			msg = bus.Replace{Gen: j.Gen, Items: kept}
		}
		if err := j.send(msg); err != nil {
			return err
		}
	}

	return j.send(bus.Status{Gen: j.Gen, Text: j.Query.BaseTerm})
}

func (j *Job) filter(items source.Page) []source.Item {
	kept := make([]source.Item, 0, len(items))
	for _, it := range items {
		if j.Query.Match(it.Title(), it.Category()) {
			kept = append(kept, it)
		}
	}
	return kept
}

func (j *Job) send(r bus.Result) error {
	if err := j.Results.Send(r); err != nil {
		return fmt.Errorf("sending result for %s: %w", j.Name(), err)
	}
	return nil
}
