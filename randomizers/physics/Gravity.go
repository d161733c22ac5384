package physics

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/randomizers"
	"github.com/samuelfneumann/simgym/scenario"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gravity randomizes the vertical gravity of a world, sampling it from
// a normal distribution each time a session is created. Sessions expire
// every RandomizeAfterRollouts rollouts.
//
// Gravity implements the randomizers.PhysicsRandomizer interface.
type Gravity struct {
	*randomizers.RolloutCounter
	engine scenario.PhysicsEngine
	mean   float64
	stddev float64
}

// NewGravity returns a new Gravity randomizer. Vertical gravity is
// drawn from N(mean, stddev²).
func NewGravity(engine scenario.PhysicsEngine, mean, stddev float64,
	randomizeAfterRollouts int) (*Gravity, error) {
	if stddev < 0 {
		return nil, fmt.Errorf("newGravity: %w: standard deviation must "+
			"be non-negative, got %v", environment.ErrConfiguration, stddev)
	}
	if randomizeAfterRollouts < 0 {
		return nil, fmt.Errorf("newGravity: %w: number of rollouts must "+
			"be non-negative, got %v", environment.ErrConfiguration,
			randomizeAfterRollouts)
	}

	return &Gravity{
		RolloutCounter: randomizers.NewRolloutCounter(randomizeAfterRollouts),
		engine:         engine,
		mean:           mean,
		stddev:         stddev,
	}, nil
}

// Engine returns the physics engine
func (g *Gravity) Engine() scenario.PhysicsEngine {
	return g.engine
}

// RandomizePhysics samples a new vertical gravity for world using the
// random state of task
func (g *Gravity) RandomizePhysics(task environment.Task,
	world scenario.World) error {
	dist := distuv.Normal{Mu: g.mean, Sigma: g.stddev, Src: task.RandomState()}

	gravity := r2.Vec{X: 0, Y: g.mean}
	if g.stddev > 0 {
		gravity.Y = dist.Rand()
	}

	if err := world.SetGravity(gravity); err != nil {
		return fmt.Errorf("randomizePhysics: %w", err)
	}
	return nil
}
