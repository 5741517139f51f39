package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/shelf/internal/debuglog"
)

const querySyntax = `
## Query syntax

Free text is sent to the catalogue. Two tokens narrow what comes back:

- ` + "`filter:word`" + ` keeps results whose title contains *word*
- ` + "`tag:word`" + ` keeps results whose category contains *word*

Tokens can go anywhere and combine, e.g. ` + "`tag:horror filter:house lovecraft`" + `.
Matching ignores case.
`

// helpMarkdown renders the key reference for keys as a markdown document.
func helpMarkdown(keys KeyMap) string {
	var b strings.Builder
	b.WriteString("# " + AppName + "\n\n## Keys\n\n| key | action |\n|---|---|\n")

	row := func(bindings ...key.Binding) {
		for _, kb := range bindings {
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	for _, group := range (normalHelp{keys}).FullHelp() {
		row(group...)
	}
	b.WriteString("\nWhile typing a query:\n\n| key | action |\n|---|---|\n")
	row(keys.Submit, keys.Cancel)
	b.WriteString(querySyntax)
	return b.String()
}

// helpOverlay caches the glamour rendering per wrap width.
type helpOverlay struct {
	source string
	width  int
	cache  string
}

func newHelpOverlay(keys KeyMap) *helpOverlay {
	return &helpOverlay{source: helpMarkdown(keys)}
}

func (h *helpOverlay) Render(width int) string {
	wrap := min(max(width-4, 20), 100)
	if h.cache != "" && h.width == wrap {
		return h.cache
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		debuglog.Warnf("help renderer: %v", err)
		return h.source
	}
	out, err := r.Render(h.source)
	if err != nil {
		debuglog.Warnf("help render: %v", err)
		return h.source
	}
	h.width, h.cache = wrap, out
	return out
}
