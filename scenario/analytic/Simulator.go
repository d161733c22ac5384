// Package analytic implements a deterministic physics engine that
// integrates the closed-form equations of motion of the pendulum and
// cart-pole models with Euler's method. It trades generality for
// exactness: only models whose description Kind is "pendulum" or
// "cartpole" can be inserted into its worlds.
//
// Importing this package registers the scenario.Analytic engine.
package analytic

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/simgym/scenario"
	"gonum.org/v1/gonum/spatial/r2"
)

func init() {
	scenario.Register(scenario.Analytic, Open)
}

// Simulator is a scenario.Simulator with a single World whose models
// are integrated analytically
type Simulator struct {
	opts        scenario.Options
	world       *World
	time        float64
	steps       int
	initialized bool
	closed      bool
}

// New returns a new, uninitialized Simulator
func New(opts scenario.Options) (*Simulator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	sim := &Simulator{opts: opts}
	sim.world = &World{
		sim:     sim,
		gravity: scenario.DefaultGravity,
		models:  make(map[string]*Model),
	}
	return sim, nil
}

// Open implements scenario.OpenFunc
func Open(opts scenario.Options) (scenario.Simulator, error) {
	sim, err := New(opts)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

// Initialize implements the scenario.Simulator interface
func (s *Simulator) Initialize() error {
	if s.closed {
		return fmt.Errorf("initialize: %w", scenario.ErrClosed)
	}
	s.initialized = true
	return nil
}

// Run implements the scenario.Simulator interface. Edits to the world
// take effect immediately, so a paused run only checks that the
// simulator is usable.
func (s *Simulator) Run(paused bool) error {
	if err := s.usable(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if paused {
		return nil
	}

	dt := s.opts.StepSize
	for i := 0; i < s.opts.StepsPerRun; i++ {
		for _, name := range s.world.ModelNames() {
			s.world.models[name].step(s.world.gravity, dt)
		}
		s.steps++
	}
	s.time = float64(s.steps) * dt
	return nil
}

// World implements the scenario.Simulator interface
func (s *Simulator) World() (scenario.World, error) {
	if err := s.usable(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	return s.world, nil
}

// Time implements the scenario.Simulator interface
func (s *Simulator) Time() float64 {
	return s.time
}

// Close implements the scenario.Simulator interface
func (s *Simulator) Close() error {
	s.closed = true
	return nil
}

// Closed returns whether the simulator has been closed
func (s *Simulator) Closed() bool {
	return s.closed
}

func (s *Simulator) usable() error {
	if s.closed {
		return scenario.ErrClosed
	}
	if !s.initialized {
		return scenario.ErrNotInitialized
	}
	return nil
}

// World is the scenario.World of an analytic Simulator
type World struct {
	sim     *Simulator
	gravity r2.Vec
	models  map[string]*Model
}

// Name implements the scenario.World interface
func (w *World) Name() string {
	return "default"
}

// InsertModel implements the scenario.World interface
func (w *World) InsertModel(desc scenario.ModelDescription, pose scenario.Pose,
	name string) error {
	if w.sim.closed {
		return fmt.Errorf("insertModel: %w", scenario.ErrClosed)
	}
	if name == "" {
		name = desc.Name
	}
	if _, ok := w.models[name]; ok {
		return fmt.Errorf("insertModel: %w: %q", scenario.ErrDuplicateModel,
			name)
	}

	model, err := newModel(w, desc.Clone(), pose, name)
	if err != nil {
		return fmt.Errorf("insertModel: %w", err)
	}
	w.models[name] = model
	return nil
}

// RemoveModel implements the scenario.World interface
func (w *World) RemoveModel(name string) error {
	if w.sim.closed {
		return fmt.Errorf("removeModel: %w", scenario.ErrClosed)
	}
	if _, ok := w.models[name]; !ok {
		return fmt.Errorf("removeModel: %w: %q", scenario.ErrModelNotFound,
			name)
	}
	delete(w.models, name)
	return nil
}

// Model implements the scenario.World interface
func (w *World) Model(name string) (scenario.Model, error) {
	model, ok := w.models[name]
	if !ok {
		return nil, fmt.Errorf("model: %w: %q", scenario.ErrModelNotFound,
			name)
	}
	return model, nil
}

// ModelNames implements the scenario.World interface
func (w *World) ModelNames() []string {
	names := make([]string, 0, len(w.models))
	for name := range w.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gravity implements the scenario.World interface
func (w *World) Gravity() r2.Vec {
	return w.gravity
}

// SetGravity implements the scenario.World interface
func (w *World) SetGravity(g r2.Vec) error {
	if w.sim.closed {
		return fmt.Errorf("setGravity: %w", scenario.ErrClosed)
	}
	w.gravity = g
	return nil
}
