// Package routine implements the hold/relax interval timer bound to the
// "g" key. It runs as a pool task and reports its progress as State values.
package routine

import (
	"context"
	"fmt"
	"time"
)

// Phase is the current step of the routine.
type Phase int

const (
	Idle Phase = iota
	Hold
	Relax
)

func (p Phase) String() string {
	switch p {
	case Hold:
		return "hold"
	case Relax:
		return "relax"
	default:
		return "idle"
	}
}

// State is a snapshot of a running routine.
type State struct {
	Phase     Phase
	Round     int
	Rounds    int
	Remaining time.Duration
}

// Active reports whether a routine is running.
func (s State) Active() bool {
	return s.Phase != Idle
}

func (s State) String() string {
	if !s.Active() {
		return "idle"
	}
	return fmt.Sprintf("%s %d/%d · %s", s.Phase, s.Round, s.Rounds, s.Remaining.Round(time.Second))
}

// Routine runs Rounds cycles of Hold followed by Relax, reporting every
// Step.
type Routine struct {
	Rounds int
	Hold   time.Duration
	Relax  time.Duration
	Step   time.Duration
}

// Run blocks until every round has finished or ctx is done. The last
// report is always an Idle state.
func (r Routine) Run(ctx context.Context, report func(State)) error {
	defer report(State{Phase: Idle})

	step := r.Step
	if step <= 0 {
		step = time.Second
	}

	for round := 1; round <= r.Rounds; round++ {
		for _, phase := range []struct {
			phase Phase
			dur   time.Duration
		}{{Hold, r.Hold}, {Relax, r.Relax}} {
			for remaining := phase.dur; remaining > 0; remaining -= step {
				report(State{Phase: phase.phase, Round: round, Rounds: r.Rounds, Remaining: remaining})
				if err := sleep(ctx, min(step, remaining)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
