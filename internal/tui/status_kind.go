package tui

import "strings"

// StatusKind indicates severity for status messages/spinners.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// classifyStatus picks a severity from the status text.
func classifyStatus(status string) StatusKind {
	switch {
	case strings.HasPrefix(status, "error:"), strings.HasPrefix(status, "open failed:"):
		return StatusError
	case strings.HasPrefix(status, "input dropped"), strings.HasPrefix(status, "task "):
		return StatusWarn
	case isLoading(status), status == "":
		return StatusInfo
	default:
		return StatusSuccess
	}
}
