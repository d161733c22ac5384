// Package randomizers outlines the interfaces used to apply domain
// randomization to simulated environments. Randomization happens at
// two levels:
//
//   - Physics randomization changes the physics engine and its global
//     parameters. It can only be applied when a simulator session is
//     created, so a PhysicsRandomizer decides when the current session
//     has expired and must be recreated.
//   - Task randomization changes simulated entities, such as the
//     masses of a model's links, in a live session before each rollout.
package randomizers

import (
	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/scenario"
)

// PhysicsRandomizer chooses the physics engine of a session and
// randomizes its physics when the session is created. Its lifetime
// spans the sessions it configures.
type PhysicsRandomizer interface {
	// Engine returns the physics engine sessions should be created with
	Engine() scenario.PhysicsEngine

	// RandomizePhysics randomizes the physics of a newly created world
	RandomizePhysics(task environment.Task, world scenario.World) error

	// Expired returns whether session must be recreated before the next
	// rollout to apply new physics
	Expired(session environment.Environment) bool

	// MarkRolloutStart records that a rollout is starting in session
	MarkRolloutStart(session environment.Environment)
}

// TaskRandomizer randomizes the entities of a live session before a
// rollout
type TaskRandomizer interface {
	RandomizeTask(task environment.Task, sim scenario.Simulator) error
}

// TaskRandomizerFunc is an adapter to allow the use of ordinary
// functions as TaskRandomizers
type TaskRandomizerFunc func(environment.Task, scenario.Simulator) error

// RandomizeTask calls f(task, sim)
func (f TaskRandomizerFunc) RandomizeTask(task environment.Task,
	sim scenario.Simulator) error {
	return f(task, sim)
}

// ModelDescriptionRandomizer samples randomized descriptions of the
// model a task acts on
type ModelDescriptionRandomizer interface {
	RandomizeModelDescription(task environment.Task) (
		scenario.ModelDescription, error)
}
