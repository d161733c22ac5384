// Package envrandomizer implements an environment wrapper that applies
// domain randomization between rollouts.
//
// Before each rollout, a Randomizer asks the physics randomizer of its
// session whether the physics have expired. If they have, the session
// is closed and a new one is created, carrying over the seed and random
// state of the task so that the randomness of the episodes is
// unaffected. The task randomizer then randomizes the entities of the
// live session, and a paused run of the simulator materializes the
// changes before the task is reset.
package envrandomizer

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/randomizers"
	"github.com/samuelfneumann/simgym/randomizers/physics"
	"github.com/samuelfneumann/simgym/scenario"
	ts "github.com/samuelfneumann/simgym/timestep"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

var logger = log.WithField("component", "envrandomizer")

// Session is the simulated environment at the core of a randomized
// environment. runtimes.Simulated is a Session.
type Session interface {
	environment.Environment
	Task() environment.Task
	Simulator() scenario.Simulator
	Physics() randomizers.PhysicsRandomizer
}

// sessionOf returns the Session wrapped by env
func sessionOf(env environment.Environment) (Session, error) {
	for env != nil {
		if session, ok := env.(Session); ok {
			return session, nil
		}
		wrapper, ok := env.(environment.Unwrapper)
		if !ok {
			break
		}
		env = wrapper.Unwrapped()
	}
	return nil, fmt.Errorf("%w: environment does not wrap a simulated "+
		"session", environment.ErrConfiguration)
}

// Randomizer wraps an environment and randomizes it before each
// rollout. If creating a new session fails, the Randomizer is left
// without a session and all further calls return an error wrapping
// environment.ErrClosed.
//
// Randomizer implements the environment.Environment and
// randomizers.TaskRandomizer interfaces.
type Randomizer struct {
	source Source
	opts   []registration.Option
	task   randomizers.TaskRandomizer

	env     environment.Environment
	session Session

	actionSpec      environment.Spec
	observationSpec environment.Spec
	discountSpec    environment.Spec

	log *log.Entry
}

// New creates a new Randomizer whose sessions are created by source
// with opts. The physics randomizer is passed to every session with
// registration.WithPhysics, overriding any physics set in opts. If
// physics is nil, Box2D is used without physics randomization. The
// task randomizer is applied to the live session before every rollout.
func New(source Source, task randomizers.TaskRandomizer,
	physicsRandomizer randomizers.PhysicsRandomizer,
	opts ...registration.Option) (*Randomizer, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("new: %w: nil task randomizer",
			environment.ErrConfiguration)
	}
	if physicsRandomizer == nil {
		physicsRandomizer = physics.NewNone(scenario.Box2D)
	}

	r := &Randomizer{
		source: source,
		opts: append(append([]registration.Option(nil), opts...),
			registration.WithPhysics(physicsRandomizer)),
		task: task,
		log:  logger.WithField("source", source.String()),
	}

	if err := r.open(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return r, nil
}

// open creates a new session with the options of r followed by extra.
// On failure, no session is left open.
func (r *Randomizer) open(extra ...registration.Option) error {
	opts := append(append([]registration.Option(nil), r.opts...), extra...)
	env, err := r.source.make(opts)
	if err != nil {
		return fmt.Errorf("open: %w: could not create environment: %w",
			environment.ErrConfiguration, err)
	}

	session, err := sessionOf(env)
	if err != nil {
		if closeErr := env.Close(); closeErr != nil {
			r.log.WithError(closeErr).Warn("could not close environment")
		}
		return fmt.Errorf("open: %w", err)
	}

	r.env, r.session = env, session
	r.actionSpec = env.ActionSpec()
	r.observationSpec = env.ObservationSpec()
	r.discountSpec = env.DiscountSpec()

	sessionsCreated.WithLabelValues(r.source.String()).Inc()
	return nil
}

// closeSession closes the current session
func (r *Randomizer) closeSession() error {
	env := r.env
	r.env, r.session = nil, nil

	sessionsClosed.WithLabelValues(r.source.String()).Inc()
	if err := env.Close(); err != nil {
		return fmt.Errorf("closeSession: %w", err)
	}
	return nil
}

// recreate replaces the current session with a new one, carrying over
// the seed and random state of the task. The new task is seeded before
// its physics are randomized, so the physics of the new session are
// drawn from the carried random state.
func (r *Randomizer) recreate() error {
	task := r.session.Task()
	seed := task.Seed()
	state := task.RandomState()

	if err := r.closeSession(); err != nil {
		return fmt.Errorf("recreate: %w", err)
	}
	if err := r.open(registration.WithSeed(seed),
		registration.WithRandomState(state)); err != nil {
		return fmt.Errorf("recreate: %w", err)
	}

	if got := r.session.Task().Seed(); got != seed {
		if err := r.closeSession(); err != nil {
			r.log.WithError(err).Warn("could not close session")
		}
		return fmt.Errorf("recreate: %w: task of new session has seed %v, "+
			"want %v", environment.ErrContractViolation, got, seed)
	}

	r.log.WithField("seed", seed).Debug("recreated session")
	return nil
}

// Session returns the current session, or nil if the Randomizer has
// no session
func (r *Randomizer) Session() Session {
	return r.session
}

// Unwrapped returns the environment of the current session
func (r *Randomizer) Unwrapped() environment.Environment {
	return r.env
}

// RandomizeTask randomizes task in the simulator sim using the task
// randomizer of r
func (r *Randomizer) RandomizeTask(task environment.Task,
	sim scenario.Simulator) error {
	return r.task.RandomizeTask(task, sim)
}

// Reset starts a new rollout. If the physics of the current session
// have expired, the session is recreated first. The task is then
// randomized, the simulator runs paused once, and the first step of
// the new episode is returned.
func (r *Randomizer) Reset() (ts.TimeStep, error) {
	step, err := r.reset()
	if err != nil {
		resetFailures.WithLabelValues(r.source.String()).Inc()
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	return step, nil
}

func (r *Randomizer) reset() (ts.TimeStep, error) {
	if r.env == nil {
		return ts.TimeStep{}, environment.ErrClosed
	}

	physicsRandomizer := r.session.Physics()
	if physicsRandomizer.Expired(r.env) {
		if err := r.recreate(); err != nil {
			return ts.TimeStep{}, err
		}
	}

	physicsRandomizer.MarkRolloutStart(r.env)
	rollouts.WithLabelValues(r.source.String()).Inc()

	if err := r.RandomizeTask(r.session.Task(),
		r.session.Simulator()); err != nil {
		return ts.TimeStep{}, fmt.Errorf("could not randomize task: %w", err)
	}

	if err := r.session.Simulator().Run(true); err != nil {
		return ts.TimeStep{}, fmt.Errorf("%w: paused run failed: %w",
			environment.ErrSimulationStep, err)
	}

	return r.env.Reset()
}

// Step takes one step in the current session
func (r *Randomizer) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if r.env == nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w",
			environment.ErrClosed)
	}
	return r.env.Step(action)
}

// Seed seeds the task of the current session
func (r *Randomizer) Seed(seed uint64) ([]uint64, error) {
	if r.env == nil {
		return nil, fmt.Errorf("seed: %w", environment.ErrClosed)
	}
	return r.env.Seed(seed)
}

// CurrentTimeStep returns the last step taken in the current session
func (r *Randomizer) CurrentTimeStep() ts.TimeStep {
	if r.env == nil {
		return ts.TimeStep{}
	}
	return r.env.CurrentTimeStep()
}

// ActionSpec returns the action specification of the most recent
// session
func (r *Randomizer) ActionSpec() environment.Spec {
	return r.actionSpec
}

// ObservationSpec returns the observation specification of the most
// recent session
func (r *Randomizer) ObservationSpec() environment.Spec {
	return r.observationSpec
}

// DiscountSpec returns the discount specification of the most recent
// session
func (r *Randomizer) DiscountSpec() environment.Spec {
	return r.discountSpec
}

// Close closes the current session. Calls after the first have no
// effect.
func (r *Randomizer) Close() error {
	if r.env == nil {
		return nil
	}
	if err := r.closeSession(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// String returns a string representation of the Randomizer
func (r *Randomizer) String() string {
	return fmt.Sprintf("EnvRandomizer(%v)", r.source)
}
