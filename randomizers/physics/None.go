// Package physics implements physics randomizers
package physics

import (
	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/randomizers"
	"github.com/samuelfneumann/simgym/scenario"
)

// None selects a physics engine but never randomizes it. Sessions it
// configures never expire.
//
// None implements the randomizers.PhysicsRandomizer interface.
type None struct {
	*randomizers.RolloutCounter
	engine scenario.PhysicsEngine
}

// NewNone returns a new None randomizer for the given engine
func NewNone(engine scenario.PhysicsEngine) *None {
	return &None{
		RolloutCounter: randomizers.NewRolloutCounter(0),
		engine:         engine,
	}
}

// Engine returns the physics engine
func (n *None) Engine() scenario.PhysicsEngine {
	return n.engine
}

// RandomizePhysics does nothing
func (n *None) RandomizePhysics(environment.Task, scenario.World) error {
	return nil
}
