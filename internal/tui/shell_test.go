package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/shelf/internal/bus"
	"github.com/pders01/shelf/internal/routine"
)

type sinkRecorder struct {
	keys []tea.KeyMsg
}

func (s *sinkRecorder) Push(k tea.KeyMsg) { s.keys = append(s.keys, k) }

func newTestShell(t *testing.T) (*Shell, *fixture, *sinkRecorder) {
	t.Helper()
	f := newFixture(t, nil)
	sink := &sinkRecorder{}
	s := NewShell(f.m, sink, time.Millisecond)
	s.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return s, f, sink
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestShellForwardsKeysToSink(t *testing.T) {
	s, f, sink := newTestShell(t)

	_, cmd := s.Update(runes("j"))
	assert.Nil(t, cmd)
	require.Len(t, sink.keys, 1)
	assert.Equal(t, "j", sink.keys[0].String())
	assert.Zero(t, f.bus.Input.Len(), "the shell never writes the input queue itself")
}

func TestShellCtrlCQuitsImmediately(t *testing.T) {
	s, _, sink := newTestShell(t)

	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
	assert.Empty(t, sink.keys)
}

func TestShellFrameStepsMachine(t *testing.T) {
	s, f, _ := newTestShell(t)
	require.NoError(t, f.bus.Results.Send(bus.Replace{Items: items("Dune", "Emma")}))
	require.NoError(t, f.bus.Results.Send(bus.Status{Text: "dune"}))

	_, cmd := s.Update(frameMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.False(t, isQuit(cmd))
	assert.Len(t, s.list.Items(), 2)
	assert.Equal(t, 1, f.bus.Results.Len(), "one result per frame")

	s.Update(frameMsg(time.Now()))
	view := s.View()
	assert.Contains(t, view, "Dune")
	assert.Contains(t, view, "dune")
	assert.Contains(t, view, MsgResultsCount(2))
}

func TestShellQuitsWhenMachineDoes(t *testing.T) {
	s, f, _ := newTestShell(t)
	require.NoError(t, f.bus.Input.Send(runes("q")))

	_, cmd := s.Update(frameMsg(time.Now()))
	assert.True(t, isQuit(cmd))
}

func TestShellFollowsSelection(t *testing.T) {
	s, f, _ := newTestShell(t)
	f.m.Apply(bus.Replace{Items: items("a", "b", "c")})
	f.m.HandleKey(runes("k"))

	s.Update(frameMsg(time.Now()))
	assert.Equal(t, 2, s.list.Index())
}

func TestShellViewStates(t *testing.T) {
	s, f, _ := newTestShell(t)

	assert.Contains(t, s.View(), "Press enter to search")

	f.m.HandleKey(enter)
	assert.Contains(t, s.View(), "author")

	f.m.HandleKey(esc)
	f.m.HandleKey(runes("?"))
	assert.Contains(t, s.View(), "Keys")
}

func TestShellShowsNoResultsAfterEmptySearch(t *testing.T) {
	s, f, _ := newTestShell(t)
	f.m.HandleKey(enter)
	f.m.HandleKey(enter)
	assert.NotContains(t, s.View(), MsgNoResults, "still loading")

	f.m.Apply(bus.Status{Gen: 1, Text: "nothing"})
	view := s.View()
	assert.Contains(t, view, MsgNoResults)
	assert.NotContains(t, view, "Press enter to search")
}

func TestShellTintsRoutinePhase(t *testing.T) {
	s, f, _ := newTestShell(t)

	f.m.Apply(bus.Routine{State: routine.State{Phase: routine.Relax, Round: 1, Rounds: 2, Remaining: time.Second}})
	s.Update(frameMsg(time.Now()))

	assert.Equal(t, routine.Relax, s.phase)
	assert.Contains(t, s.View(), "relax 1/2")
}
