// Package environment outlines the interfaces and structs needed to
// implement concrete environments. An Environment is a simulated
// world in which a Task is solved. Tasks read the state of models in a
// simulated scenario.World and drive them with actions, while the
// Environment owns the simulator and steps it.
package environment

import (
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/samuelfneumann/simgym/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Seeder is a source of reproducible randomness. Seeding re-creates the
// random state from the seed. The random state itself can be captured
// and re-injected so that it survives the object that held it.
type Seeder interface {
	// SeedTask seeds the task and returns the seeds that were used
	SeedTask(seed uint64) []uint64

	// Seed returns the most recent seed
	Seed() uint64

	RandomState() rand.Source
	SetRandomState(src rand.Source)
}

// Task adapts a simulated model into a reinforcement learning problem
// by defining its action and observation spaces, how actions drive the
// model, and what is observed and rewarded.
type Task interface {
	Seeder

	// World returns the world the task acts on. An error wrapping
	// ErrConfiguration is returned if no world has been set.
	World() (scenario.World, error)
	SetWorld(w scenario.World)
	HasWorld() bool

	// ModelName returns the name of the model the task acts on
	ModelName() string
	SetModelName(name string)

	// AgentRate is the number of actions taken per simulated second
	AgentRate() float64

	// CreateSpaces returns the action and observation specifications
	CreateSpaces() (action, observation Spec)

	// ResetTask puts the task's model into a new starting state
	ResetTask() error

	// SetAction applies an action to the task's model
	SetAction(action mat.Vector) error

	Observation() (*mat.VecDense, error)
	Reward() (float64, error)

	// Terminated returns whether the task reached a terminal state
	Terminated() (bool, error)

	// Truncated returns whether the task ended the episode without
	// reaching a terminal state
	Truncated() (bool, error)
}

// Environment implements a simualted environment, which includes a Task to
// complete
type Environment interface {
	// Reset starts a new episode and returns its first step
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step given an action and returns the
	// next step and whether the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	// Seed seeds the environment and returns the seeds that were used
	Seed(seed uint64) ([]uint64, error)

	CurrentTimeStep() timestep.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec

	// Close releases all resources held by the environment
	Close() error
}

// Unwrapper is an environment that wraps another environment
type Unwrapper interface {
	Unwrapped() Environment
}

// Unwrap returns the innermost environment of a chain of wrappers
func Unwrap(env Environment) Environment {
	for {
		wrapper, ok := env.(Unwrapper)
		if !ok {
			return env
		}
		inner := wrapper.Unwrapped()
		if inner == nil {
			return env
		}
		env = inner
	}
}
