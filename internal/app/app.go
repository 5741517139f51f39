// Package app wires the search pipeline together and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/pders01/shelf/internal/bridge"
	"github.com/pders01/shelf/internal/bus"
	"github.com/pders01/shelf/internal/config"
	"github.com/pders01/shelf/internal/debuglog"
	"github.com/pders01/shelf/internal/opener"
	"github.com/pders01/shelf/internal/routine"
	"github.com/pders01/shelf/internal/source"
	"github.com/pders01/shelf/internal/tui"
	"github.com/pders01/shelf/internal/worker"
)

type settings struct {
	cfg         *config.Config
	pager       source.Pager
	opener      tui.Opener
	programOpts []tea.ProgramOption
}

type Option func(*settings)

// WithConfig runs with cfg instead of the built-in defaults.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithPager replaces the pager built from the source config.
func WithPager(p source.Pager) Option {
	return func(s *settings) { s.pager = p }
}

// WithOpener replaces the platform link opener.
func WithOpener(o tui.Opener) Option {
	return func(s *settings) { s.opener = o }
}

// WithProgramOptions appends bubbletea program options, e.g. to swap the
// terminal for a reader and writer.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(s *settings) { s.programOpts = append(s.programOpts, opts...) }
}

// Run builds the pipeline and blocks until the user quits or ctx is done.
// Anything that can fail at setup fails before the terminal is touched.
func Run(ctx context.Context, opts ...Option) error {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	cfg := s.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer debuglog.Close()

	pager, err := buildPager(cfg, s.pager)
	if err != nil {
		return err
	}
	open, err := buildOpener(cfg, s.opener)
	if err != nil {
		return err
	}

	b := bus.New()
	pool, err := worker.New(cfg.Pool.Workers, worker.WithPanicHandler(func(name string, value any) {
		if err := b.Results.Send(bus.Status{Text: fmt.Sprintf("task %s panicked: %v", name, value)}); err != nil {
			debuglog.Warnf("panic report for %s dropped: %v", name, err)
		}
	}))
	if err != nil {
		return err
	}

	routineCtx, cancelRoutine := context.WithCancel(ctx)
	defer cancelRoutine()

	tui.ApplyColors(cfg.UI.Colors)
	machine := tui.NewMachine(tui.Deps{
		Bus:    b,
		Pool:   pool,
		Pager:  pager,
		Opener: open,
		Routine: routine.Routine{
			Rounds: cfg.Routine.Rounds,
			Hold:   cfg.Routine.Hold,
			Relax:  cfg.Routine.Relax,
		},
		PageLimit: cfg.Pool.PageLimit,
		Context:   routineCtx,
	})
	keys := bridge.NewKeySource()
	shell := tui.NewShell(machine, keys, cfg.UI.FrameInterval)

	bridgeCtx, cancelBridge := context.WithCancel(ctx)
	defer cancelBridge()
	g, gctx := errgroup.WithContext(bridgeCtx)
	g.Go(func() error {
		br := &bridge.Bridge{
			Source:   keys,
			Input:    b.Input,
			Results:  b.Results,
			Interval: cfg.UI.PollInterval,
		}
		return br.Run(gctx)
	})

	debuglog.WithFields(map[string]any{
		"workers": pool.Size(),
		"preset":  cfg.Source.Preset,
	}).Infof("starting")

	programOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, s.programOpts...)
	_, runErr := tea.NewProgram(shell, programOpts...).Run()

	// Receivers go first so nothing new is accepted, then the producers are
	// stopped and drained.
	b.Input.Close()
	keys.Close()
	cancelBridge()
	cancelRoutine()
	bridgeErr := g.Wait()
	pool.Shutdown()
	b.Results.Close()
	debuglog.Infof("stopped")

	if runErr != nil {
		if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal: %w", runErr)
	}
	if bridgeErr != nil {
		return fmt.Errorf("input bridge: %w", bridgeErr)
	}
	return nil
}

func buildPager(cfg *config.Config, override source.Pager) (source.Pager, error) {
	if override != nil {
		return override, nil
	}
	profile, err := cfg.Source.Profile()
	if err != nil {
		return nil, err
	}
	pager, err := source.New(profile, source.NewClient(cfg.Network.Timeout, cfg.Network.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("failed to build source: %w", err)
	}
	return pager, nil
}

func buildOpener(cfg *config.Config, override tui.Opener) (tui.Opener, error) {
	if override != nil {
		return override, nil
	}
	registry, err := opener.NewRegistry(cfg.Opener.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load openers: %w", err)
	}
	return opener.NewLauncher(registry, opener.WithCommand(cfg.Opener.Command)), nil
}
