package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

const feedAccept = "application/atom+xml, application/rss+xml, application/xml, text/xml"

// FeedPager extracts items from Atom, RSS or OPDS search feeds.
type FeedPager struct {
	client   *Client
	endpoint *Endpoint
}

func NewFeedPager(client *Client, endpoint *Endpoint) *FeedPager {
	return &FeedPager{client: client, endpoint: endpoint}
}

func (p *FeedPager) FetchPage(ctx context.Context, term string, page int) (Page, error) {
	body, err := p.client.Get(ctx, p.endpoint.URL(term, page), feedAccept)
	if err != nil {
		return nil, err
	}

	// gofeed parsers keep per-parse state, so each fetch gets its own.
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := make(Page, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title := collapse(entry.Title)
		if title == "" {
			continue
		}
		items = append(items, NewItem(title, p.link(entry), entryCategory(entry)))
	}

	return items, nil
}

func (p *FeedPager) link(entry *gofeed.Item) string {
	href := entry.Link
	if href == "" && len(entry.Links) > 0 {
		href = entry.Links[0]
	}
	if strings.TrimSpace(href) == "" {
		return ""
	}
	return p.endpoint.Resolve(href)
}

func entryCategory(entry *gofeed.Item) string {
	for _, c := range entry.Categories {
		if c = collapse(c); c != "" {
			return c
		}
	}
	for _, a := range entry.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return collapse(a.Name)
		}
	}
	return ""
}
