package source

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint expands a search path template against a fixed origin.
//
// Supported placeholders: {query} (query-escaped term), {page} (zero-based),
// {page1} (one-based), {offset} (page*PageSize) and {start} (offset+1).
type Endpoint struct {
	origin   *url.URL
	path     string
	pageSize int
}

// NewEndpoint parses origin and checks that it is an absolute http(s) URL.
func NewEndpoint(origin, path string, pageSize int) (*Endpoint, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("origin must use http or https, got %q", origin)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("origin must have a host, got %q", origin)
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Endpoint{origin: u, path: path, pageSize: pageSize}, nil
}

// URL returns the absolute URL for one page of a search.
func (e *Endpoint) URL(term string, page int) string {
	offset := page * e.pageSize
	r := strings.NewReplacer(
		"{query}", url.QueryEscape(term),
		"{page}", strconv.Itoa(page),
		"{page1}", strconv.Itoa(page+1),
		"{offset}", strconv.Itoa(offset),
		"{start}", strconv.Itoa(offset+1),
	)
	return e.Resolve(r.Replace(e.path))
}

// Resolve joins href against the origin. Absolute links pass through and
// unparsable links are returned unchanged.
func (e *Endpoint) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return e.origin.ResolveReference(ref).String()
}
