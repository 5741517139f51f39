package bridge

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/shelf/internal/bus"
)

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestKeySourcePoll(t *testing.T) {
	src := NewKeySource()

	_, ok, err := src.Poll(context.Background(), 5*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "timeout is not an error")

	src.Push(key('j'))
	k, ok, err := src.Poll(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "j", k.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = src.Poll(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)

	src.Close()
	src.Push(key('x'))
	_, _, err = src.Poll(context.Background(), time.Second)
	assert.ErrorIs(t, err, bus.ErrClosed)
}

func runBridge(t *testing.T, b *Bridge) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	return cancel, done
}

func TestBridgeForwardsInOrder(t *testing.T) {
	src := NewKeySource()
	b := bus.New()
	cancel, done := runBridge(t, &Bridge{Source: src, Input: b.Input, Results: b.Results, Interval: 5 * time.Millisecond})

	for _, r := range "jjkq" {
		src.Push(key(r))
	}
	require.Eventually(t, func() bool { return b.Input.Len() == 4 }, 2*time.Second, time.Millisecond)

	var got string
	for {
		k, ok := b.Input.TryRecv()
		if !ok {
			break
		}
		got += k.String()
	}
	assert.Equal(t, "jjkq", got)

	cancel()
	assert.NoError(t, <-done)
}

func TestBridgeDegradesWhenInputClosed(t *testing.T) {
	src := NewKeySource()
	b := bus.New()
	b.Input.Close()
	cancel, done := runBridge(t, &Bridge{Source: src, Input: b.Input, Results: b.Results, Interval: 5 * time.Millisecond})

	src.Push(key('j'))
	src.Push(key('k'))
	require.Eventually(t, func() bool { return b.Results.Len() == 2 }, 2*time.Second, time.Millisecond)

	r, ok := b.Results.TryRecv()
	require.True(t, ok)
	status, ok := r.(bus.Status)
	require.True(t, ok)
	assert.Zero(t, status.Gen, "diagnostics are never stale")
	assert.Contains(t, status.Text, "input dropped")

	// Both channels gone: the bridge still keeps polling.
	b.Results.Close()
	src.Push(key('q'))
	select {
	case err := <-done:
		t.Fatalf("bridge exited early: %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestBridgeStopsWhenSourceCloses(t *testing.T) {
	src := NewKeySource()
	b := bus.New()
	_, done := runBridge(t, &Bridge{Source: src, Input: b.Input, Results: b.Results})

	src.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
}
