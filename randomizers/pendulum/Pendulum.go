// Package pendulum implements the randomization of the pendulum
// environment. The pendulum is not randomized; the randomizer only
// ensures that the world holds a pendulum for the task to act on.
package pendulum

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/randomizers/envrandomizer"
	"github.com/samuelfneumann/simgym/randomizers/physics"
	"github.com/samuelfneumann/simgym/scenario"
)

// Randomizer populates worlds with a pendulum.
//
// Randomizer implements the randomizers.PhysicsRandomizer and
// randomizers.TaskRandomizer interfaces.
type Randomizer struct {
	*physics.None
}

// New returns a new Randomizer using the given physics engine
func New(engine scenario.PhysicsEngine) *Randomizer {
	return &Randomizer{physics.NewNone(engine)}
}

// RandomizeTask inserts a pendulum into the world of task if the model
// task acts on is missing
func (r *Randomizer) RandomizeTask(task environment.Task,
	sim scenario.Simulator) error {
	world, err := task.World()
	if err != nil {
		return fmt.Errorf("randomizeTask: %w", err)
	}
	if name := task.ModelName(); name != "" && scenario.HasModel(world, name) {
		return nil
	}

	name, err := models.Insert(world, models.Pendulum(), scenario.Pose{})
	if err != nil {
		return fmt.Errorf("randomizeTask: %w", err)
	}
	task.SetModelName(name)

	if err := sim.Run(true); err != nil {
		return fmt.Errorf("randomizeTask: %w: %w",
			environment.ErrSimulationStep, err)
	}
	return nil
}

// NewEnvRandomizer returns a pendulum environment whose sessions are
// created by source and populated by a Randomizer
func NewEnvRandomizer(source envrandomizer.Source,
	engine scenario.PhysicsEngine,
	opts ...registration.Option) (*envrandomizer.Randomizer, error) {
	r := New(engine)
	env, err := envrandomizer.New(source, r, r, opts...)
	if err != nil {
		return nil, fmt.Errorf("newEnvRandomizer: %w", err)
	}
	return env, nil
}
