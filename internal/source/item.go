package source

import (
	"context"
	"errors"
	"fmt"
)

// Item is one fetched search result. It is a value type with unexported
// fields so a copy can never be altered after construction.
type Item struct {
	title    string
	link     string
	category string
}

// NewItem builds an Item. category may be empty.
func NewItem(title, link, category string) Item {
	return Item{title: title, link: link, category: category}
}

func (i Item) Title() string    { return i.title }
func (i Item) Link() string     { return i.link }
func (i Item) Category() string { return i.category }

// Page is the ordered set of items produced by fetching one page index.
type Page []Item

// Pager is the fetch-and-extract capability a search job runs against.
// page is zero-based.
type Pager interface {
	FetchPage(ctx context.Context, term string, page int) (Page, error)
}

// PagerFunc adapts a function to the Pager interface.
type PagerFunc func(ctx context.Context, term string, page int) (Page, error)

func (f PagerFunc) FetchPage(ctx context.Context, term string, page int) (Page, error) {
	return f(ctx, term, page)
}

// ErrInvalidSelector is returned when a configured document selector does
// not compile.
var ErrInvalidSelector = errors.New("invalid selector")

// TransportError wraps failures to obtain a response body: dial errors,
// timeouts and HTTP error statuses. Search jobs treat these as empty pages.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: HTTP error: %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
