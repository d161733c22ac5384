// Package envs registers the environments provided by this module.
// Importing the package for its side effects makes the environments
// available to registration.Make:
//
//	import _ "github.com/samuelfneumann/simgym/environment/envs"
package envs

import (
	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/simgym/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/environment/runtimes"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/randomizers/physics"
	"github.com/samuelfneumann/simgym/scenario"

	// Physics engines
	_ "github.com/samuelfneumann/simgym/scenario/analytic"
	_ "github.com/samuelfneumann/simgym/scenario/box2d"
)

// IDs of the registered environments
const (
	Pendulum                    = "Pendulum-Box2D-v0"
	CartPoleDiscreteBalancing   = "CartPoleDiscreteBalancing-Box2D-v0"
	CartPoleContinuousBalancing = "CartPoleContinuousBalancing-Box2D-v0"
	CartPoleContinuousSwingup   = "CartPoleContinuousSwingup-Box2D-v0"
)

// MaxEpisodeSteps is the default maximum number of steps in an episode
// of the registered environments
const MaxEpisodeSteps = 5000

// NewTask creates a task acting on the model called modelName
type NewTask func(agentRate float64, modelName string) environment.Task

// Populated returns a runtimes.TaskFactory that inserts the model
// described by desc into the world and creates a task acting on it
func Populated(desc func() scenario.ModelDescription,
	newTask NewTask) runtimes.TaskFactory {
	return func(world scenario.World,
		agentRate float64) (environment.Task, error) {
		name, err := models.Insert(world, desc(), scenario.Pose{})
		if err != nil {
			return nil, err
		}
		return newTask(agentRate, name), nil
	}
}

func defaultKwargs() registration.Kwargs {
	return registration.Kwargs{
		Config:          runtimes.DefaultConfig(),
		Physics:         physics.NewNone(scenario.Box2D),
		MaxEpisodeSteps: MaxEpisodeSteps,
	}
}

func init() {
	registration.MustRegister(registration.Entry{
		ID:          Pendulum,
		Description: "Swing up and balance a torque-actuated pendulum",
		EntryPoint: registration.Runtime(Populated(models.Pendulum,
			func(rate float64, name string) environment.Task {
				return pendulum.NewSwingUp(rate, name)
			})),
		Kwargs: defaultKwargs(),
	})

	registration.MustRegister(registration.Entry{
		ID:          CartPoleDiscreteBalancing,
		Description: "Balance a pole on a cart pushed left or right",
		EntryPoint: registration.Runtime(Populated(models.CartPole,
			func(rate float64, name string) environment.Task {
				return cartpole.NewDiscreteBalancing(rate, name)
			})),
		Kwargs: defaultKwargs(),
	})

	registration.MustRegister(registration.Entry{
		ID:          CartPoleContinuousBalancing,
		Description: "Balance a pole on a cart driven by a bounded force",
		EntryPoint: registration.Runtime(Populated(models.CartPole,
			func(rate float64, name string) environment.Task {
				return cartpole.NewContinuousBalancing(rate, name)
			})),
		Kwargs: defaultKwargs(),
	})

	registration.MustRegister(registration.Entry{
		ID:          CartPoleContinuousSwingup,
		Description: "Swing up and balance a pole hanging from a cart",
		EntryPoint: registration.Runtime(Populated(models.CartPole,
			func(rate float64, name string) environment.Task {
				return cartpole.NewContinuousSwingup(rate, name)
			})),
		Kwargs: defaultKwargs(),
	})
}
