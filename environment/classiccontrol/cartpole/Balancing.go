package cartpole

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Thresholds (+/-) of the balancing tasks' non-terminal states. Speeds
// are unbounded.
var (
	BalancingPositionThreshold = 2.5
	BalancingAngleThreshold    = floatutils.Deg2Rad(24)
)

const (
	// BalancingMaxForce is the magnitude of the force applied to the
	// cart by the discrete task, and bounds (+/-) the force applied by
	// the continuous task
	BalancingMaxForce = 20.0

	// Discrete actions
	PushLeft  = 0
	PushRight = 1
)

// balancing implements the reward and reset of the balancing tasks.
// The pole starts almost upright and the agent must keep it within
// BalancingAngleThreshold of upright without the cart leaving
// [-BalancingPositionThreshold, BalancingPositionThreshold]. The
// reward is 1 on every step that does not terminate the episode and 0
// otherwise.
type balancing struct {
	*base
}

func newBalancing(agentRate float64, modelName string) balancing {
	thresholds := [4]float64{
		BalancingPositionThreshold,
		math.Inf(1),
		BalancingAngleThreshold,
		math.Inf(1),
	}
	return balancing{newBase(agentRate, modelName, thresholds,
		BalancingMaxForce)}
}

// ResetTask puts the cart and pole near the upright rest state
func (b balancing) ResetTask() error {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}
	state := environment.NewUniformStarter(bounds, b.RandomState()).Start()

	if err := b.resetState(state); err != nil {
		return fmt.Errorf("resetTask: %w", err)
	}
	return nil
}

// Reward returns 1 if the current state is non-terminal and 0 otherwise
func (b balancing) Reward() (float64, error) {
	terminated, err := b.Terminated()
	if err != nil {
		return 0, fmt.Errorf("reward: %w", err)
	}
	return 1 - floatutils.Indicator(terminated), nil
}

// ContinuousBalancing implements the cart-pole balancing task with
// continuous actions, clipped to [-BalancingMaxForce,
// BalancingMaxForce].
//
// ContinuousBalancing implements the environment.Task interface
type ContinuousBalancing struct {
	balancing
}

// NewContinuousBalancing creates and returns a new ContinuousBalancing
// task acting on the model called modelName
func NewContinuousBalancing(agentRate float64,
	modelName string) *ContinuousBalancing {
	return &ContinuousBalancing{newBalancing(agentRate, modelName)}
}

// CreateSpaces returns the action and observation specifications of
// the task
func (c *ContinuousBalancing) CreateSpaces() (environment.Spec,
	environment.Spec) {
	action := environment.NewSymmetricSpec(environment.Action,
		[]float64{BalancingMaxForce})
	return action, c.observationSpec
}

// SetAction applies the force in action to the cart
func (c *ContinuousBalancing) SetAction(action mat.Vector) error {
	if action.Len() != ActionDims {
		return fmt.Errorf("setAction: %w: actions should be %v-dimensional, "+
			"got %v", environment.ErrActuation, ActionDims, action.Len())
	}
	if err := c.applyForce(action.AtVec(0)); err != nil {
		return fmt.Errorf("setAction: %w", err)
	}
	return nil
}

// DiscreteBalancing implements the cart-pole balancing task with
// discrete actions:
//
//	Action	Meaning
//	  0		Push the cart left with force BalancingMaxForce
//	  1		Push the cart right with force BalancingMaxForce
//
// DiscreteBalancing implements the environment.Task interface
type DiscreteBalancing struct {
	balancing
	actionSpec environment.Spec
}

// NewDiscreteBalancing creates and returns a new DiscreteBalancing task
// acting on the model called modelName
func NewDiscreteBalancing(agentRate float64,
	modelName string) *DiscreteBalancing {
	return &DiscreteBalancing{
		balancing:  newBalancing(agentRate, modelName),
		actionSpec: environment.NewDiscreteSpec(environment.Action, 2),
	}
}

// CreateSpaces returns the action and observation specifications of
// the task
func (d *DiscreteBalancing) CreateSpaces() (environment.Spec,
	environment.Spec) {
	return d.actionSpec, d.observationSpec
}

// SetAction pushes the cart left or right. Actions outside of {0, 1}
// are rejected.
func (d *DiscreteBalancing) SetAction(action mat.Vector) error {
	if !d.actionSpec.Contains(action) {
		return fmt.Errorf("setAction: %w: illegal action %v ∉ {%v, %v}",
			environment.ErrActuation, mat.Formatted(action.T()), PushLeft,
			PushRight)
	}

	force := BalancingMaxForce
	if int(action.AtVec(0)) == PushLeft {
		force = -BalancingMaxForce
	}
	if err := d.applyForce(force); err != nil {
		return fmt.Errorf("setAction: %w", err)
	}
	return nil
}
