// Package opener hands result links to an external program.
package opener

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/shelf/internal/debuglog"
)

// ErrNoOpener means no configured or known opener is installed.
var ErrNoOpener = errors.New("no application found to open links")

type Option func(*Launcher)

// WithCommand overrides registry lookup. command may include arguments; the
// link is appended last.
func WithCommand(command string) Option {
	return func(l *Launcher) { l.command = strings.Fields(command) }
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(l *Launcher) { l.lookPath = fn }
}

// WithStarter replaces the function that starts the built command.
func WithStarter(fn func(*exec.Cmd) error) Option {
	return func(l *Launcher) { l.start = fn }
}

// WithGOOS pretends to run on another platform.
func WithGOOS(goos string) Option {
	return func(l *Launcher) { l.goos = goos }
}

type Launcher struct {
	registry *Registry
	command  []string
	goos     string
	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

func NewLauncher(registry *Registry, opts ...Option) *Launcher {
	l := &Launcher{
		registry: registry,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		start:    startDetached,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Command builds the command that would open link.
func (l *Launcher) Command(link string) (*exec.Cmd, error) {
	if strings.TrimSpace(link) == "" {
		return nil, errors.New("nothing to open")
	}

	if len(l.command) > 0 {
		name, args := l.command[0], l.command[1:]
		// A configured command that matches a known opener keeps its args.
		if def, ok := l.registry.Lookup(name); ok && len(args) == 0 {
			args = def.Args
		}
		return exec.Command(name, append(cloneArgs(args), link)...), nil
	}

	def, ok := l.registry.Find(l.goos, l.lookPath)
	if !ok {
		return nil, ErrNoOpener
	}
	return exec.Command(def.Name, append(cloneArgs(def.Args), link)...), nil
}

// Open starts the opener for link without waiting for it to exit.
func (l *Launcher) Open(link string) error {
	cmd, err := l.Command(link)
	if err != nil {
		return err
	}
	debuglog.WithFields(map[string]any{"cmd": cmd.Path, "link": link}).Infof("opening link")
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Args[0], err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// cloneArgs copies args so appending the link never aliases registry data.
func cloneArgs(args []string) []string {
	return append([]string(nil), args...)
}
