// Package cartpole implements the randomization of the cart-pole
// environments. Gravity is randomized when a session is created, and
// the masses of the cart and pole are randomized before each rollout
// by replacing the cart-pole with a newly sampled one.
package cartpole

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/randomizers/envrandomizer"
	"github.com/samuelfneumann/simgym/randomizers/model"
	"github.com/samuelfneumann/simgym/randomizers/physics"
	"github.com/samuelfneumann/simgym/scenario"
)

// Parameters of the randomizations
const (
	GravityMean   = -9.8
	GravityStdDev = 0.2
	MassLow       = -0.2
	MassHigh      = 0.2
)

// Randomizer randomizes the physics, task, and model description of
// cart-pole environments.
//
// Randomizer implements the randomizers.PhysicsRandomizer,
// randomizers.TaskRandomizer, and randomizers.ModelDescriptionRandomizer
// interfaces.
type Randomizer struct {
	*physics.Gravity
	description *model.DescriptionRandomizer
}

// New returns a new Randomizer whose physics expire every
// randomizePhysicsAfterRollouts rollouts. Physics never expire if
// randomizePhysicsAfterRollouts is 0.
func New(engine scenario.PhysicsEngine,
	randomizePhysicsAfterRollouts int) (*Randomizer, error) {
	gravity, err := physics.NewGravity(engine, GravityMean, GravityStdDev,
		randomizePhysicsAfterRollouts)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	description := model.NewDescriptionRandomizer(models.CartPole(), 0)
	err = description.Add(model.Randomization{
		Selector:      "links/*/mass",
		Distribution:  model.Uniform{Low: MassLow, High: MassHigh},
		Method:        model.Additive,
		ForcePositive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if err := description.Process(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return &Randomizer{Gravity: gravity, description: description}, nil
}

// RandomizeTask replaces the cart-pole acted on by task with a new one
// whose link masses are randomized
func (r *Randomizer) RandomizeTask(task environment.Task,
	sim scenario.Simulator) error {
	world, err := task.World()
	if err != nil {
		return fmt.Errorf("randomizeTask: %w", err)
	}

	if name := task.ModelName(); name != "" && scenario.HasModel(world, name) {
		if err := world.RemoveModel(name); err != nil {
			return fmt.Errorf("randomizeTask: could not remove model: %w", err)
		}
	}
	if err := sim.Run(true); err != nil {
		return fmt.Errorf("randomizeTask: %w: %w",
			environment.ErrSimulationStep, err)
	}

	desc, err := r.RandomizeModelDescription(task)
	if err != nil {
		return fmt.Errorf("randomizeTask: %w", err)
	}
	name, err := models.Insert(world, desc, scenario.Pose{})
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

// RandomizeModelDescription returns a cart-pole description with
// randomized link masses, sampled with the random state of task
func (r *Randomizer) RandomizeModelDescription(
	task environment.Task) (scenario.ModelDescription, error) {
	r.description.SetRandomState(task.RandomState())
	desc, err := r.description.Sample()
	if err != nil {
		return scenario.ModelDescription{}, fmt.Errorf(
			"randomizeModelDescription: %w", err)
	}
	return desc, nil
}

// NewEnvRandomizer returns a randomized cart-pole environment whose
// sessions are created by source. Physics are randomized every
// physicsRollouts rollouts, and masses before every rollout.
func NewEnvRandomizer(source envrandomizer.Source,
	engine scenario.PhysicsEngine, physicsRollouts int,
	opts ...registration.Option) (*envrandomizer.Randomizer, error) {
	r, err := New(engine, physicsRollouts)
	if err != nil {
		return nil, fmt.Errorf("newEnvRandomizer: %w", err)
	}

	env, err := envrandomizer.New(source, r, r, opts...)
	if err != nil {
		return nil, fmt.Errorf("newEnvRandomizer: %w", err)
	}
	return env, nil
}
