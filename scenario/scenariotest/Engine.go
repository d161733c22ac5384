// Package scenariotest provides a physics engine for tests that need to
// observe simulator lifecycles or inject simulator failures. Simulators
// of the engine are analytic simulators that report when they are
// opened and closed.
package scenariotest

import (
	"errors"
	"sync"

	"github.com/samuelfneumann/simgym/scenario"
	"github.com/samuelfneumann/simgym/scenario/analytic"
)

// ErrInjected is returned by runs that were made to fail
var ErrInjected = errors.New("injected simulator failure")

// Engine is a registered physics engine that tracks its simulators
type Engine struct {
	name scenario.PhysicsEngine

	mu             sync.Mutex
	opened         int
	live           int
	failPausedRuns int
	failOpens      int
	failCloses     int
	lastSimulator  *Simulator
}

// NewEngine registers and returns a new Engine called name. Like
// scenario.Register, it panics if name is already registered, so it is
// usually called once per test binary.
func NewEngine(name scenario.PhysicsEngine) *Engine {
	e := &Engine{name: name}
	scenario.Register(name, e.open)
	return e
}

// Name returns the name the engine is registered under
func (e *Engine) Name() scenario.PhysicsEngine {
	return e.name
}

func (e *Engine) open(opts scenario.Options) (scenario.Simulator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failOpens > 0 {
		e.failOpens--
		return nil, ErrInjected
	}

	sim, err := analytic.New(opts)
	if err != nil {
		return nil, err
	}
	e.opened++
	e.live++
	e.lastSimulator = &Simulator{Simulator: sim, engine: e}
	return e.lastSimulator, nil
}

// Opened returns the number of simulators opened so far
func (e *Engine) Opened() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened
}

// Live returns the number of opened simulators that have not been
// closed
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Last returns the most recently opened simulator
func (e *Engine) Last() *Simulator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSimulator
}

// FailPausedRuns makes the next n paused runs of any simulator of the
// engine fail with ErrInjected
func (e *Engine) FailPausedRuns(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failPausedRuns = n
}

// FailOpens makes the next n attempts to open a simulator fail with
// ErrInjected
func (e *Engine) FailOpens(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failOpens = n
}

// FailCloses makes the next n simulators closed return ErrInjected.
// The simulators are closed regardless.
func (e *Engine) FailCloses(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failCloses = n
}

// Reset clears all injected failures and counters
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened, e.live = 0, 0
	e.failPausedRuns, e.failOpens, e.failCloses = 0, 0, 0
	e.lastSimulator = nil
}

// Simulator is an analytic simulator opened by an Engine
type Simulator struct {
	*analytic.Simulator
	engine *Engine
	once   sync.Once
}

// Run implements the scenario.Simulator interface
func (s *Simulator) Run(paused bool) error {
	if paused {
		s.engine.mu.Lock()
		fail := s.engine.failPausedRuns > 0
		if fail {
			s.engine.failPausedRuns--
		}
		s.engine.mu.Unlock()

		if fail {
			return ErrInjected
		}
	}
	return s.Simulator.Run(paused)
}

// Close implements the scenario.Simulator interface
func (s *Simulator) Close() error {
	var fail bool
	s.once.Do(func() {
		s.engine.mu.Lock()
		s.engine.live--
		fail = s.engine.failCloses > 0
		if fail {
			s.engine.failCloses--
		}
		s.engine.mu.Unlock()
	})
	if err := s.Simulator.Close(); err != nil {
		return err
	}
	if fail {
		return ErrInjected
	}
	return nil
}
