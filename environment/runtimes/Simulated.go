// Package runtimes implements environments whose tasks are solved in a
// simulated world. A runtime owns exactly one simulator session and the
// task bound to it.
package runtimes

import (
	"context"
	"fmt"
	"math"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/randomizers"
	"github.com/samuelfneumann/simgym/scenario"
	ts "github.com/samuelfneumann/simgym/timestep"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/mat"
)

var logger = log.WithField("component", "runtime")

// TaskFactory creates a task in world. The factory is responsible for
// populating world with the models the task acts on.
type TaskFactory func(world scenario.World,
	agentRate float64) (environment.Task, error)

// Config configures a Simulated runtime
type Config struct {
	// AgentRate is the number of actions taken per simulated second
	AgentRate float64 `json:"agent_rate" yaml:"agent_rate" mapstructure:"agent_rate"`

	// PhysicsRate is the number of physics steps per simulated second.
	// It must be an integer multiple of AgentRate.
	PhysicsRate float64 `json:"physics_rate" yaml:"physics_rate" mapstructure:"physics_rate"`

	// RealTimeFactor is the desired ratio of simulated to wall-clock
	// time. Infinite values or math.MaxFloat64 run as fast as possible.
	RealTimeFactor float64 `json:"real_time_factor" yaml:"real_time_factor" mapstructure:"real_time_factor"`

	Discount float64 `json:"discount" yaml:"discount" mapstructure:"discount"`
}

// DefaultConfig returns the Config used by registered environments
func DefaultConfig() Config {
	return Config{
		AgentRate:      1000,
		PhysicsRate:    1000,
		RealTimeFactor: math.Inf(1),
		Discount:       1.0,
	}
}

// StepsPerRun returns the number of physics steps taken for each
// agent step
func (c Config) StepsPerRun() (int, error) {
	if c.AgentRate <= 0 || math.IsInf(c.AgentRate, 0) ||
		math.IsNaN(c.AgentRate) {
		return 0, fmt.Errorf("stepsPerRun: %w: agent rate must be positive "+
			"and finite, got %v", environment.ErrConfiguration, c.AgentRate)
	}
	if c.PhysicsRate <= 0 || math.IsInf(c.PhysicsRate, 0) ||
		math.IsNaN(c.PhysicsRate) {
		return 0, fmt.Errorf("stepsPerRun: %w: physics rate must be positive "+
			"and finite, got %v", environment.ErrConfiguration, c.PhysicsRate)
	}

	ratio := c.PhysicsRate / c.AgentRate
	steps := math.Round(ratio)
	if steps < 1 || math.Abs(ratio-steps) > 1e-9 {
		return 0, fmt.Errorf("stepsPerRun: %w: physics rate %v must be an "+
			"integer multiple of agent rate %v", environment.ErrConfiguration,
			c.PhysicsRate, c.AgentRate)
	}
	return int(steps), nil
}

// Validate returns an error wrapping environment.ErrConfiguration if
// the Config cannot be used to create a runtime
func (c Config) Validate() error {
	if _, err := c.StepsPerRun(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.RealTimeFactor <= 0 || math.IsNaN(c.RealTimeFactor) {
		return fmt.Errorf("validate: %w: real time factor must be positive, "+
			"got %v", environment.ErrConfiguration, c.RealTimeFactor)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: %w: discount must be in [0, 1], got %v",
			environment.ErrConfiguration, c.Discount)
	}
	return nil
}

// realTime returns whether c requests pacing against wall-clock time
func (c Config) realTime() bool {
	return !math.IsInf(c.RealTimeFactor, 1) &&
		c.RealTimeFactor != math.MaxFloat64
}

// Simulated is an environment whose task is solved in a simulator
// session. Each call to Step applies the action through the task and
// runs the simulator for PhysicsRate / AgentRate physics steps.
//
// Simulated implements the environment.Environment interface.
type Simulated struct {
	task    environment.Task
	sim     scenario.Simulator
	physics randomizers.PhysicsRandomizer
	cfg     Config
	limiter *rate.Limiter

	actionSpec      environment.Spec
	observationSpec environment.Spec
	discountSpec    environment.Spec

	lastStep ts.TimeStep
	closed   bool
}

// seeding is the randomness a task is created with
type seeding struct {
	seed  *uint64
	state rand.Source
}

// Option configures the randomness of a new Simulated runtime
type Option func(*seeding)

// WithSeed seeds the task before the physics are randomized
func WithSeed(seed uint64) Option {
	return func(s *seeding) { s.seed = &seed }
}

// WithRandomState sets the random state of the task before the physics
// are randomized. It is applied after WithSeed.
func WithRandomState(src rand.Source) Option {
	return func(s *seeding) { s.state = src }
}

// apply seeds task
func (s seeding) apply(task environment.Task) {
	if s.seed != nil {
		task.SeedTask(*s.seed)
	}
	if s.state != nil {
		task.SetRandomState(s.state)
	}
}

// New creates a new Simulated runtime. A simulator is opened with the
// physics engine chosen by physics, newTask creates the task in its
// world, the task is seeded with opts, and the physics of the world are
// randomized with the random state of the task. If any step fails, the
// simulator is closed before returning.
func New(newTask TaskFactory, cfg Config,
	physics randomizers.PhysicsRandomizer, opts ...Option) (*Simulated,
	error) {
	if newTask == nil || physics == nil {
		return nil, fmt.Errorf("new: %w: task factory and physics "+
			"randomizer must be non-nil", environment.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	stepsPerRun, _ := cfg.StepsPerRun()

	simOpts := scenario.Options{
		StepSize:       1 / cfg.PhysicsRate,
		StepsPerRun:    stepsPerRun,
		RealTimeFactor: cfg.RealTimeFactor,
	}
	sim, err := scenario.Open(physics.Engine(), simOpts)
	if err != nil {
		return nil, fmt.Errorf("new: %w: %w", environment.ErrConfiguration,
			err)
	}

	var seeds seeding
	for _, opt := range opts {
		opt(&seeds)
	}

	s, err := newSimulated(sim, newTask, cfg, physics, seeds)
	if err != nil {
		if closeErr := sim.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("could not close simulator")
		}
		return nil, fmt.Errorf("new: %w", err)
	}

	logger.WithFields(log.Fields{
		"engine":      physics.Engine(),
		"model":       s.task.ModelName(),
		"stepsPerRun": stepsPerRun,
	}).Debug("created runtime")
	return s, nil
}

// newSimulated binds a task to an opened simulator
func newSimulated(sim scenario.Simulator, newTask TaskFactory, cfg Config,
	physics randomizers.PhysicsRandomizer, seeds seeding) (*Simulated,
	error) {
	if err := sim.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: could not initialize simulator: %w",
			environment.ErrConfiguration, err)
	}
	world, err := sim.World()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", environment.ErrConfiguration, err)
	}

	task, err := newTask(world, cfg.AgentRate)
	if err != nil {
		return nil, fmt.Errorf("could not create task: %w", err)
	}
	task.SetWorld(world)
	seeds.apply(task)

	if err := physics.RandomizePhysics(task, world); err != nil {
		return nil, fmt.Errorf("%w: could not randomize physics: %w",
			environment.ErrConfiguration, err)
	}
	if err := sim.Run(true); err != nil {
		return nil, fmt.Errorf("%w: %w", environment.ErrSimulationStep, err)
	}

	action, observation := task.CreateSpaces()
	discount := environment.NewBoxSpec(environment.Discount,
		[]float64{cfg.Discount}, []float64{cfg.Discount})

	var limiter *rate.Limiter
	if cfg.realTime() {
		limiter = rate.NewLimiter(rate.Limit(cfg.AgentRate*cfg.RealTimeFactor),
			1)
	}

	return &Simulated{
		task:            task,
		sim:             sim,
		physics:         physics,
		cfg:             cfg,
		limiter:         limiter,
		actionSpec:      action,
		observationSpec: observation,
		discountSpec:    discount,
	}, nil
}

// Task returns the task solved in the environment
func (s *Simulated) Task() environment.Task {
	return s.task
}

// Simulator returns the simulator session owned by the environment
func (s *Simulated) Simulator() scenario.Simulator {
	return s.sim
}

// Physics returns the physics randomizer the environment was created
// with
func (s *Simulated) Physics() randomizers.PhysicsRandomizer {
	return s.physics
}

// Config returns the configuration of the environment
func (s *Simulated) Config() Config {
	return s.cfg
}

// Timestamp returns the simulated time in seconds
func (s *Simulated) Timestamp() float64 {
	return s.sim.Time()
}

// Reset resets the task and returns the first step of a new episode
func (s *Simulated) Reset() (ts.TimeStep, error) {
	if s.closed {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", environment.ErrClosed)
	}
	if err := s.task.ResetTask(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	obs, err := s.task.Observation()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	s.lastStep = ts.New(ts.First, 0, s.cfg.Discount, obs, 0)
	return s.lastStep, nil
}

// Step takes one environmental step given action and returns the next
// step and whether the episode has ended
func (s *Simulated) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if s.closed {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w",
			environment.ErrClosed)
	}
	if action.Len() != s.actionSpec.Len() {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w: actions should be "+
			"%v-dimensional, got %v", environment.ErrActuation,
			s.actionSpec.Len(), action.Len())
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(context.Background()); err != nil {
			return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
		}
	}

	if err := s.task.SetAction(action); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}
	if err := s.sim.Run(false); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w: %w",
			environment.ErrSimulationStep, err)
	}

	next, err := s.nextStep()
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}
	s.lastStep = next
	return next, next.Last(), nil
}

// nextStep builds the timestep observed after the simulator has run
func (s *Simulated) nextStep() (ts.TimeStep, error) {
	obs, err := s.task.Observation()
	if err != nil {
		return ts.TimeStep{}, err
	}
	terminated, err := s.task.Terminated()
	if err != nil {
		return ts.TimeStep{}, err
	}
	truncated, err := s.task.Truncated()
	if err != nil {
		return ts.TimeStep{}, err
	}
	reward, err := s.task.Reward()
	if err != nil {
		return ts.TimeStep{}, err
	}

	step := ts.New(ts.Mid, reward, s.cfg.Discount, obs, s.lastStep.Number+1)
	switch {
	case terminated:
		step.SetEnd(ts.TerminalStateReached)
	case truncated:
		step.SetEnd(ts.Timeout)
	}
	return step, nil
}

// Seed seeds the task and returns the seeds used. The physics of the
// world are randomized again with the new random state of the task, so
// that they depend on seed only.
func (s *Simulated) Seed(seed uint64) ([]uint64, error) {
	if s.closed {
		return nil, fmt.Errorf("seed: %w", environment.ErrClosed)
	}
	seeds := s.task.SeedTask(seed)

	world, err := s.sim.World()
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if err := s.physics.RandomizePhysics(s.task, world); err != nil {
		return nil, fmt.Errorf("seed: %w: could not randomize physics: %w",
			environment.ErrConfiguration, err)
	}
	if err := s.sim.Run(true); err != nil {
		return nil, fmt.Errorf("seed: %w: %w", environment.ErrSimulationStep,
			err)
	}
	return seeds, nil
}

// CurrentTimeStep returns the last step taken in the environment
func (s *Simulated) CurrentTimeStep() ts.TimeStep {
	return s.lastStep
}

// ActionSpec returns the action specification of the environment
func (s *Simulated) ActionSpec() environment.Spec {
	return s.actionSpec
}

// ObservationSpec returns the observation specification of the
// environment
func (s *Simulated) ObservationSpec() environment.Spec {
	return s.observationSpec
}

// DiscountSpec returns the discount specification of the environment
func (s *Simulated) DiscountSpec() environment.Spec {
	return s.discountSpec
}

// Closed returns whether the environment has been closed
func (s *Simulated) Closed() bool {
	return s.closed
}

// Close closes the simulator session. Calls after the first have no
// effect.
func (s *Simulated) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.sim.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	logger.WithField("model", s.task.ModelName()).Debug("closed runtime")
	return nil
}

// String returns a string representation of the environment
func (s *Simulated) String() string {
	return fmt.Sprintf("Simulated(%v, %T)", s.physics.Engine(), s.task)
}
