// Package box2d implements a physics engine for planar articulated
// models backed by the Box2D rigid-body engine. Each link of a model
// becomes a dynamic body whose mass is spread uniformly over its
// rectangle, and each joint becomes a Box2D revolute or prismatic
// joint. Links never collide with one another.
//
// Importing this package registers the scenario.Box2D engine.
package box2d

import (
	"fmt"
	"sort"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/simgym/scenario"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// Constraint solver iterations per physics step
	VelocityIterations = 8
	PositionIterations = 3
)

func init() {
	scenario.Register(scenario.Box2D, Open)
}

// Simulator is a scenario.Simulator backed by a single Box2D world
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
	return &Simulator{opts: opts}, nil
}

// Open implements scenario.OpenFunc
func Open(opts scenario.Options) (scenario.Simulator, error) {
	sim, err := New(opts)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

// Initialize implements the scenario.Simulator interface. It creates
// the Box2D world with the default gravity.
func (s *Simulator) Initialize() error {
	if s.closed {
		return fmt.Errorf("initialize: %w", scenario.ErrClosed)
	}
	if s.initialized {
		return nil
	}

	gravity := scenario.DefaultGravity
	s.world = &World{
		sim:     s,
		b2:      box2d.MakeB2World(box2d.MakeB2Vec2(gravity.X, gravity.Y)),
		gravity: gravity,
		models:  make(map[string]*Model),
	}
	s.initialized = true
	return nil
}

// Run implements the scenario.Simulator interface. Box2D applies body
// creation and destruction immediately, so a paused run only checks
// that the simulator is usable.
func (s *Simulator) Run(paused bool) error {
	if err := s.usable(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if paused {
		return nil
	}

	dt := s.opts.StepSize
	for i := 0; i < s.opts.StepsPerRun; i++ {
		// Box2D clears applied forces after each step
		for _, name := range s.world.ModelNames() {
			s.world.models[name].applyForces()
		}
		s.world.b2.Step(dt, VelocityIterations, PositionIterations)
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

// Close implements the scenario.Simulator interface. All bodies are
// destroyed.
func (s *Simulator) Close() error {
	if s.closed {
		return nil
	}
	if s.world != nil {
		for _, name := range s.world.ModelNames() {
			s.world.models[name].destroy()
		}
		s.world.models = nil
	}
	s.closed = true
	return nil
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

// World is the scenario.World of a Box2D Simulator
type World struct {
	sim     *Simulator
	b2      box2d.B2World
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
	model, ok := w.models[name]
	if !ok {
		return fmt.Errorf("removeModel: %w: %q", scenario.ErrModelNotFound,
			name)
	}
	model.destroy()
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
	w.b2.SetGravity(box2d.MakeB2Vec2(g.X, g.Y))
	return nil
}
