package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/shelf/internal/bus"
	"github.com/pders01/shelf/internal/debuglog"
	"github.com/pders01/shelf/internal/query"
	"github.com/pders01/shelf/internal/routine"
	"github.com/pders01/shelf/internal/search"
	"github.com/pders01/shelf/internal/source"
	"github.com/pders01/shelf/internal/worker"
)

// Submitter accepts background tasks. *worker.Pool satisfies it.
type Submitter interface {
	Submit(t worker.Task) error
}

// Opener opens a link outside the terminal.
type Opener interface {
	Open(link string) error
}

// Deps wires the machine to the rest of the pipeline.
type Deps struct {
	Bus       *bus.Bus
	Pool      Submitter
	Pager     source.Pager
	Opener    Opener
	Routine   routine.Routine
	PageLimit int
	Keys      *KeyMap
	// Context bounds the interval routine. Search jobs ignore it.
	Context context.Context
}

// Machine owns all UI state. It is driven from a single goroutine: Step
// takes at most one key and one result off the bus per call, and nothing
// else reads or writes its fields.
type Machine struct {
	bus       *bus.Bus
	pool      Submitter
	pager     source.Pager
	opener    Opener
	routine   routine.Routine
	pageLimit int
	keys      KeyMap
	ctx       context.Context

	mode     Mode
	buffer   textinput.Model
	items    []source.Item
	selected int
	status   string
	phase    routine.State
	gen      uint64
	quit     bool
	showHelp bool
	revision uint64
}

func NewMachine(d Deps) *Machine {
	keys := DefaultKeyMap
	if d.Keys != nil {
		keys = *d.Keys
	}
	ctx := d.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pageLimit := d.PageLimit
	if pageLimit <= 0 {
		pageLimit = search.DefaultPageLimit
	}

	ti := textinput.New()
	ti.Placeholder = "title, author… filter:word tag:subject"
	ti.Prompt = "› "

	return &Machine{
		bus:       d.Bus,
		pool:      d.Pool,
		pager:     d.Pager,
		opener:    d.Opener,
		routine:   d.Routine,
		pageLimit: pageLimit,
		keys:      keys,
		ctx:       ctx,
		buffer:    ti,
		selected:  -1,
	}
}

// Step applies at most one pending input event and at most one pending
// job result without blocking. It reports whether anything was applied.
func (m *Machine) Step() bool {
	applied := false
	if k, ok := m.bus.Input.TryRecv(); ok {
		m.HandleKey(k)
		applied = true
	}
	if r, ok := m.bus.Results.TryRecv(); ok {
		m.Apply(r)
		applied = true
	}
	return applied
}

// HandleKey applies one key event.
func (m *Machine) HandleKey(k tea.KeyMsg) {
	if m.mode == ModeSearch {
		m.handleSearchKey(k)
		return
	}
	m.handleNormalKey(k)
}

func (m *Machine) handleNormalKey(k tea.KeyMsg) {
	switch {
	case key.Matches(k, m.keys.Search):
		m.mode = ModeSearch
		m.showHelp = false
		m.buffer.Focus()
	case key.Matches(k, m.keys.Quit):
		m.quit = true
	case key.Matches(k, m.keys.Down):
		m.move(1)
	case key.Matches(k, m.keys.Up):
		m.move(-1)
	case key.Matches(k, m.keys.PageDown):
		m.move(5)
	case key.Matches(k, m.keys.PageUp):
		m.move(-5)
	case key.Matches(k, m.keys.Open):
		m.openSelected()
	case key.Matches(k, m.keys.Routine):
		m.startRoutine()
	case key.Matches(k, m.keys.Help):
		m.showHelp = !m.showHelp
	case k.Type == tea.KeyEsc:
		m.showHelp = false
	}
}

func (m *Machine) handleSearchKey(k tea.KeyMsg) {
	switch {
	case key.Matches(k, m.keys.Submit):
		m.submit()
	case key.Matches(k, m.keys.Cancel):
		m.mode = ModeNormal
		m.buffer.Blur()
	default:
		m.buffer, _ = m.buffer.Update(k)
	}
}

// submit parses and clears the buffer and hands a new job to the pool.
func (m *Machine) submit() {
	q := query.Parse(m.buffer.Value())
	m.buffer.Reset()
	m.buffer.Blur()
	m.mode = ModeNormal

	// The generation advances only for an accepted job.
	job := search.NewJob(m.gen+1, q, m.pager, m.bus.Results)
	job.PageLimit = m.pageLimit
	if err := m.pool.Submit(job); err != nil {
		m.status = MsgSubmitFailed(err)
		return
	}
	m.gen = job.Gen
	debuglog.WithFields(map[string]any{"gen": m.gen, "query": q.Describe()}).Infof("search submitted")
	m.status = MsgLoading
}

// move shifts the selection by delta with wraparound. With nothing
// selected, a forward move lands on the first item and a backward move on
// the last.
func (m *Machine) move(delta int) {
	n := len(m.items)
	if n == 0 {
		return
	}
	if m.selected < 0 {
		if delta > 0 {
			m.selected = 0
		} else {
			m.selected = n - 1
		}
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

func (m *Machine) openSelected() {
	it, ok := m.Selected()
	if !ok || m.opener == nil {
		return
	}
	if err := m.opener.Open(it.Link()); err != nil {
		m.status = MsgOpenFailed(err)
	}
}

func (m *Machine) startRoutine() {
	if m.phase.Active() {
		return
	}
	rt, results, ctx := m.routine, m.bus.Results, m.ctx
	task := worker.TaskFunc("routine", func(context.Context) error {
		return rt.Run(ctx, func(s routine.State) {
			if err := results.Send(bus.Routine{State: s}); err != nil {
				debuglog.Debugf("routine report %s dropped: %v", s, err)
			}
		})
	})
	if err := m.pool.Submit(task); err != nil {
		m.status = MsgSubmitFailed(err)
		return
	}
	// Mark busy until the first report arrives so a second g is ignored.
	m.phase = routine.State{Phase: routine.Hold, Round: 1, Rounds: rt.Rounds, Remaining: rt.Hold}
}

// Apply folds one job result into the state. Search messages older than
// the latest submitted generation are dropped.
func (m *Machine) Apply(r bus.Result) {
	if g := r.Generation(); g != 0 && g < m.gen {
		debuglog.Debugf("discarding stale %T from generation %d (current %d)", r, g, m.gen)
		return
	}

	switch r := r.(type) {
	case bus.Replace:
		m.items = append([]source.Item(nil), r.Items...)
		m.selected = -1
		if len(m.items) > 0 {
			m.selected = 0
		}
		m.revision++
	case bus.Append:
		if len(r.Items) == 0 {
			return
		}
		m.items = append(m.items, r.Items...)
		m.revision++
	case bus.Status:
		m.status = r.Text
	case bus.Routine:
		m.phase = r.State
	}
}

func (m *Machine) Mode() Mode             { return m.mode }
func (m *Machine) Items() []source.Item   { return m.items }
func (m *Machine) SelectedIndex() int     { return m.selected }
func (m *Machine) Status() string         { return m.status }
func (m *Machine) Routine() routine.State { return m.phase }
func (m *Machine) Generation() uint64     { return m.gen }
func (m *Machine) Quit() bool             { return m.quit }
func (m *Machine) ShowHelp() bool         { return m.showHelp }
func (m *Machine) Buffer() string         { return m.buffer.Value() }
func (m *Machine) BufferView() string     { return m.buffer.View() }
func (m *Machine) Keys() KeyMap           { return m.keys }

// Revision changes whenever Items does.
func (m *Machine) Revision() uint64 { return m.revision }

func (m *Machine) SetBufferWidth(width int) { m.buffer.Width = width }

// Selected returns the selected item, if any.
func (m *Machine) Selected() (source.Item, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return source.Item{}, false
	}
	return m.items[m.selected], true
}
