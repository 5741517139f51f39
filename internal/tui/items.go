package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/pders01/shelf/internal/source"
)

// resultItem adapts a search result to the list widget.
type resultItem struct {
	item source.Item
}

func (i resultItem) Title() string { return i.item.Title() }

func (i resultItem) Description() string {
	link := truncateMiddle(i.item.Link(), 60)
	if c := i.item.Category(); c != "" {
		return truncateEnd(c, 40) + " · " + link
	}
	return link
}

func (i resultItem) FilterValue() string { return i.item.Title() }

func toListItems(items []source.Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = resultItem{item: it}
	}
	return out
}
