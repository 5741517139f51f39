package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages.
const (
	MsgLoading   = "loading..."
	MsgNoResults = "No results"
)

func MsgOpenFailed(err error) string {
	return fmt.Sprintf("open failed: %v", err)
}

func MsgSubmitFailed(err error) string {
	return fmt.Sprintf("error: %v", err)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// isLoading reports whether a status line describes work in flight.
func isLoading(status string) bool {
	return strings.HasSuffix(status, MsgLoading)
}
