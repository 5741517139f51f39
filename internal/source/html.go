package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

const htmlAccept = "text/html, application/xhtml+xml"

// Selectors describes where item fields live in a results page. Item is
// required; Title, Link and Category are evaluated inside each item node,
// and an empty Title or Link selector means the item node itself.
type Selectors struct {
	Item     string
	Title    string
	Link     string
	LinkAttr string
	Category string
}

type compiledSelectors struct {
	item     goquery.Matcher
	title    goquery.Matcher
	link     goquery.Matcher
	category goquery.Matcher
}

// HTMLPager extracts items from HTML result pages with CSS selectors.
type HTMLPager struct {
	client    *Client
	endpoint  *Endpoint
	selectors Selectors

	once     sync.Once
	compiled *compiledSelectors
	err      error
}

func NewHTMLPager(client *Client, endpoint *Endpoint, selectors Selectors) *HTMLPager {
	if selectors.LinkAttr == "" {
		selectors.LinkAttr = "href"
	}
	return &HTMLPager{client: client, endpoint: endpoint, selectors: selectors}
}

// FetchPage fetches and extracts one page. Selector compile errors wrap
// ErrInvalidSelector and are returned on every call.
func (p *HTMLPager) FetchPage(ctx context.Context, term string, page int) (Page, error) {
	sel, err := p.compile()
	if err != nil {
		return nil, err
	}

	body, err := p.client.Get(ctx, p.endpoint.URL(term, page), htmlAccept)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	items := make(Page, 0)
	doc.FindMatcher(sel.item).Each(func(_ int, s *goquery.Selection) {
		title := collapse(within(s, sel.title).Text())
		if title == "" {
			return
		}

		var link string
		if href, ok := within(s, sel.link).Attr(p.selectors.LinkAttr); ok && strings.TrimSpace(href) != "" {
			link = p.endpoint.Resolve(href)
		}

		var category string
		if sel.category != nil {
			category = collapse(s.FindMatcher(sel.category).First().Text())
		}

		items = append(items, NewItem(title, link, category))
	})

	return items, nil
}

func (p *HTMLPager) compile() (*compiledSelectors, error) {
	p.once.Do(func() {
		var c compiledSelectors
		if strings.TrimSpace(p.selectors.Item) == "" {
			p.err = fmt.Errorf("%w: item selector is empty", ErrInvalidSelector)
			return
		}
		fields := []struct {
			expr string
			dst  *goquery.Matcher
		}{
			{p.selectors.Item, &c.item},
			{p.selectors.Title, &c.title},
			{p.selectors.Link, &c.link},
			{p.selectors.Category, &c.category},
		}
		for _, f := range fields {
			if strings.TrimSpace(f.expr) == "" {
				continue
			}
			m, err := cascadia.Compile(f.expr)
			if err != nil {
				p.err = fmt.Errorf("%w %q: %v", ErrInvalidSelector, f.expr, err)
				return
			}
			*f.dst = m
		}
		p.compiled = &c
	})
	return p.compiled, p.err
}

// within returns the first match of m below s, or s itself when m is nil.
func within(s *goquery.Selection, m goquery.Matcher) *goquery.Selection {
	if m == nil {
		return s
	}
	return s.FindMatcher(m).First()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
