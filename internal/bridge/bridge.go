// Package bridge moves terminal key events from the terminal's reader onto
// the input queue without ever blocking the UI loop.
package bridge

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/shelf/internal/bus"
	"github.com/pders01/shelf/internal/debuglog"
)

// DefaultPollInterval bounds each wait on the input source.
const DefaultPollInterval = 250 * time.Millisecond

// Source yields terminal key events. Poll waits at most timeout and reports
// false when nothing arrived.
type Source interface {
	Poll(ctx context.Context, timeout time.Duration) (tea.KeyMsg, bool, error)
}

// KeySource is a Source fed by Push. The bubbletea program pushes every key
// it reads.
type KeySource struct {
	q *bus.Queue[tea.KeyMsg]
}

func NewKeySource() *KeySource {
	return &KeySource{q: bus.NewQueue[tea.KeyMsg]()}
}

// Push records a key event. Keys pushed after Close are dropped.
func (s *KeySource) Push(k tea.KeyMsg) {
	if err := s.q.Send(k); err != nil {
		debuglog.Debugf("key %q dropped: %v", k.String(), err)
	}
}

func (s *KeySource) Poll(ctx context.Context, timeout time.Duration) (tea.KeyMsg, bool, error) {
	wait, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	k, err := s.q.Recv(wait)
	switch {
	case err == nil:
		return k, true, nil
	case ctx.Err() != nil:
		return tea.KeyMsg{}, false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return tea.KeyMsg{}, false, nil
	default:
		return tea.KeyMsg{}, false, err
	}
}

// Close stops the source; Poll returns bus.ErrClosed once it is drained.
func (s *KeySource) Close() {
	s.q.Close()
}

// Bridge forwards events from Source to Input.
type Bridge struct {
	Source   Source
	Input    bus.Sender[tea.KeyMsg]
	Results  bus.Sender[bus.Result]
	Interval time.Duration
}

// Run polls until ctx is done or the source is closed. When Input rejects
// an event the bridge reports it on Results and keeps going; if Results is
// gone too the failure is only logged.
func (b *Bridge) Run(ctx context.Context) error {
	interval := b.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		k, ok, err := b.Source.Poll(ctx, interval)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, bus.ErrClosed) {
				return nil
			}
			return err
		}
		if !ok {
			continue
		}

		if err := b.Input.Send(k); err != nil {
			b.degrade(k, err)
		}
	}
}

func (b *Bridge) degrade(k tea.KeyMsg, cause error) {
	status := bus.Status{Text: "input dropped: " + cause.Error()}
	if err := b.Results.Send(status); err != nil {
		debuglog.WithFields(map[string]any{"key": k.String()}).
			Warnf("input and results both closed: %v", err)
	}
}
