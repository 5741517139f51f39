package tui

import "github.com/mattn/go-runewidth"

// truncateEnd shortens s to at most limit terminal cells, ending with an
// ellipsis when something was cut.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return runewidth.Truncate(s, limit, "…")
}

// truncateMiddle keeps both ends of s and drops the middle. Used for links,
// where host and final path segment carry the meaning.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}

	r := []rune(s)
	keep := limit - 1
	left := runewidth.Truncate(s, keep/2+keep%2, "")
	right := ""
	for i := len(r) - 1; i >= 0; i-- {
		next := string(r[i]) + right
		if runewidth.StringWidth(next) > keep/2 {
			break
		}
		right = next
	}
	return left + "…" + right
}
