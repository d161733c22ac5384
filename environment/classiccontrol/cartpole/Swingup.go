package cartpole

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Thresholds (+/-) of the swing-up task's non-terminal states
var (
	SwingupPositionThreshold        = 2.4
	SwingupSpeedThreshold           = 20.0
	SwingupAngleThreshold           = floatutils.Deg2Rad(1800)
	SwingupAngularVelocityThreshold = floatutils.Deg2Rad(1080)
)

const (
	// SwingupMaxForce bounds (+/-) the force applied to the cart
	SwingupMaxForce = 200.0

	// SwingupStartAngle bounds (+/-) the starting deviation of the pole
	// from hanging straight down, in degrees
	SwingupStartAngle = 60.0

	// RailPenalty is the penalty for the cart nearing the positive end
	// of its rail, which begins at RailFraction of the position
	// threshold
	RailPenalty  = 10.0
	RailFraction = 0.8
)

// ContinuousSwingup implements the cart-pole swing-up task. The pole
// starts hanging down and the agent must push the cart back and forth
// to swing the pole up and balance it. Rewards reward an upright pole
// and penalize a fast cart or a cart near the positive end of the rail:
//
//	r = (cos θ + 1) / 2 - 0.1 ẋ² - RailPenalty · 1[x ≥ RailFraction · x_threshold]
//
// Only the positive end of the rail is penalized. Reaching either end
// terminates the episode.
//
// Actions are continuous and clipped to [-SwingupMaxForce,
// SwingupMaxForce].
//
// ContinuousSwingup implements the environment.Task interface
type ContinuousSwingup struct {
	*base
}

// NewContinuousSwingup creates and returns a new ContinuousSwingup task
// acting on the model called modelName
func NewContinuousSwingup(agentRate float64,
	modelName string) *ContinuousSwingup {
	thresholds := [4]float64{
		SwingupPositionThreshold,
		SwingupSpeedThreshold,
		SwingupAngleThreshold,
		SwingupAngularVelocityThreshold,
	}
	return &ContinuousSwingup{newBase(agentRate, modelName, thresholds,
		SwingupMaxForce)}
}

// CreateSpaces returns the action and observation specifications of
// the task
func (c *ContinuousSwingup) CreateSpaces() (environment.Spec,
	environment.Spec) {
	action := environment.NewSymmetricSpec(environment.Action,
		[]float64{SwingupMaxForce})
	return action, c.observationSpec
}

// ResetTask puts the pole near the hanging position and the cart near
// the centre of the rail, both almost at rest
func (c *ContinuousSwingup) ResetTask() error {
	bounds := []r1.Interval{
		{Min: -StartBound, Max: StartBound},
		{Min: -StartBound, Max: StartBound},
		{Min: -SwingupStartAngle, Max: SwingupStartAngle},
		{Min: -StartBound, Max: StartBound},
	}
	state := environment.NewUniformStarter(bounds, c.RandomState()).Start()
	state.SetVec(2, math.Pi-floatutils.Deg2Rad(state.AtVec(2)))

	if err := c.resetState(state); err != nil {
		return fmt.Errorf("resetTask: %w", err)
	}
	return nil
}

// SetAction applies the force in action to the cart
func (c *ContinuousSwingup) SetAction(action mat.Vector) error {
	if action.Len() != ActionDims {
		return fmt.Errorf("setAction: %w: actions should be %v-dimensional, "+
			"got %v", environment.ErrActuation, ActionDims, action.Len())
	}
	if err := c.applyForce(action.AtVec(0)); err != nil {
		return fmt.Errorf("setAction: %w", err)
	}
	return nil
}

// Reward returns the reward for the current state
func (c *ContinuousSwingup) Reward() (float64, error) {
	obs, err := c.Observation()
	if err != nil {
		return 0, fmt.Errorf("reward: %w", err)
	}
	return SwingupReward(obs.AtVec(0), obs.AtVec(1), obs.AtVec(2)), nil
}

// SwingupReward returns the swing-up reward of a cart at position x
// moving with speed xDot carrying a pole at angle th
func SwingupReward(x, xDot, th float64) float64 {
	nearRailEnd := x >= RailFraction*SwingupPositionThreshold
	return (math.Cos(th)+1)/2 - 0.1*xDot*xDot -
		RailPenalty*floatutils.Indicator(nearRailEnd)
}
