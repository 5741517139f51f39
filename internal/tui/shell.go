package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/shelf/internal/routine"
)

// DefaultFrameInterval is how often the shell steps the machine.
const DefaultFrameInterval = 30 * time.Millisecond

// KeySink receives raw key events. *bridge.KeySource satisfies it.
type KeySink interface {
	Push(k tea.KeyMsg)
}

type frameMsg time.Time

// Shell is the bubbletea model. It never mutates pipeline state itself:
// keys go to the sink, and every frame tick asks the machine to take one
// step.
type Shell struct {
	machine *Machine
	sink    KeySink
	frame   time.Duration

	list     list.Model
	delegate list.DefaultDelegate
	spinner  spinner.Model
	help     help.Model
	overlay  *helpOverlay

	width    int
	height   int
	revision uint64
	phase    routine.Phase
}

func NewShell(m *Machine, sink KeySink, frame time.Duration) *Shell {
	if frame <= 0 {
		frame = DefaultFrameInterval
	}

	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "› results"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	s := &Shell{
		machine:  m,
		sink:     sink,
		frame:    frame,
		list:     l,
		delegate: delegate,
		spinner:  sp,
		help:     help.New(),
		overlay:  newHelpOverlay(m.Keys()),
		width:    80,
		height:   24,
	}
	s.tint(routine.Idle)
	s.resize()
	return s
}

func (s *Shell) Init() tea.Cmd {
	return tea.Batch(s.tick(), s.spinner.Tick)
}

func (s *Shell) tick() tea.Cmd {
	return tea.Tick(s.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		s.resize()
		return s, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return s, tea.Quit
		}
		s.sink.Push(msg)
		return s, nil

	case frameMsg:
		s.machine.Step()
		s.sync()
		if s.machine.Quit() {
			return s, tea.Quit
		}
		return s, s.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

// sync copies machine state into the widgets.
func (s *Shell) sync() {
	if rev := s.machine.Revision(); rev != s.revision {
		s.revision = rev
		s.list.SetItems(toListItems(s.machine.Items()))
	}
	if sel := s.machine.SelectedIndex(); sel >= 0 && sel != s.list.Index() {
		s.list.Select(sel)
	}
	if p := s.machine.Routine().Phase; p != s.phase {
		s.tint(p)
		s.resize()
	}
}

// tint recolors the selected row after the routine phase.
func (s *Shell) tint(p routine.Phase) {
	s.phase = p
	color := AccentColor
	switch p {
	case routine.Hold:
		color = HoldColor
	case routine.Relax:
		color = RelaxColor
	}

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(color).BorderForeground(color)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(MutedColor).BorderForeground(color)
	s.delegate = d
	s.list.SetDelegate(d)
}

func (s *Shell) resize() {
	s.help.Width = s.width
	s.machine.SetBufferWidth(max(s.width-10, 10))
	s.list.SetSize(s.width, s.bodyHeight())
}

// Header, status and footer take one row each; the input frame takes
// three more while typing.
func (s *Shell) bodyHeight() int {
	h := s.height - 3
	if s.machine.Mode() == ModeSearch {
		h -= 3
	}
	return max(h, 1)
}

func (s *Shell) View() string {
	rows := []string{renderHeader(CompactLogo, s.subtitle(), s.width)}

	if s.machine.Mode() == ModeSearch {
		rows = append(rows, renderInputFrame(s.machine.BufferView(), true, max(s.width-4, 10)))
	}

	// Sizes depend on mode, which may have changed since the last resize.
	s.list.SetSize(s.width, s.bodyHeight())
	switch {
	case s.machine.ShowHelp():
		rows = append(rows, lipgloss.NewStyle().MaxHeight(s.bodyHeight()).Render(s.overlay.Render(s.width)))
	case len(s.machine.Items()) == 0 && s.searched():
		rows = append(rows, renderCentered(s.width, s.bodyHeight(), renderMuted(MsgNoResults)))
	case len(s.machine.Items()) == 0:
		rows = append(rows, renderCentered(s.width, s.bodyHeight(), GetWelcomeMessage()))
	default:
		rows = append(rows, s.list.View())
	}

	rows = append(rows, s.statusLine(), s.footer())
	return strings.Join(rows, "\n")
}

// searched reports whether a search has finished, or failed, since startup.
func (s *Shell) searched() bool {
	return s.machine.Generation() > 0 && !isLoading(s.machine.Status())
}

func (s *Shell) subtitle() string {
	if st := s.machine.Routine(); st.Active() {
		return st.String()
	}
	if n := len(s.machine.Items()); n > 0 {
		return MsgResultsCount(n)
	}
	return ""
}

func (s *Shell) statusLine() string {
	status := s.machine.Status()
	if isLoading(status) {
		return s.spinner.View() + renderStatus(status, s.width-2)
	}
	return renderStatus(status, s.width)
}

func (s *Shell) footer() string {
	var km help.KeyMap = normalHelp{s.machine.Keys()}
	if s.machine.Mode() == ModeSearch {
		km = searchHelp{s.machine.Keys()}
	}
	return StatusBarStyle.Render(s.help.View(km))
}
