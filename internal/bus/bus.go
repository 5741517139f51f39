package bus

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/shelf/internal/routine"
	"github.com/pders01/shelf/internal/source"
)

// Result is a message on the job-results channel. Gen identifies the job
// generation that produced it; zero means the message does not belong to a
// search job and is never considered stale.
type Result interface {
	Generation() uint64
	result()
}

// Replace tells the consumer to clear its list and show Items.
type Replace struct {
	Gen   uint64
	Items []source.Item
}

// Append tells the consumer to extend its list with Items.
type Append struct {
	Gen   uint64
	Items []source.Item
}

// Status carries progress or error text for the status line.
type Status struct {
	Gen  uint64
	Text string
}

// Routine carries a progress update from the interval routine.
type Routine struct {
	State routine.State
}

func (m Replace) Generation() uint64 { return m.Gen }
func (m Append) Generation() uint64  { return m.Gen }
func (m Status) Generation() uint64  { return m.Gen }
func (m Routine) Generation() uint64 { return 0 }

func (Replace) result() {}
func (Append) result()  {}
func (Status) result()  {}
func (Routine) result() {}

// Sender is the producer side of a queue.
type Sender[T any] interface {
	Send(v T) error
}

// Bus bundles the two channels into the single consumer.
type Bus struct {
	Input   *Queue[tea.KeyMsg]
	Results *Queue[Result]
}

func New() *Bus {
	return &Bus{
		Input:   NewQueue[tea.KeyMsg](),
		Results: NewQueue[Result](),
	}
}

// Close closes both queues.
func (b *Bus) Close() {
	b.Input.Close()
	b.Results.Close()
}
