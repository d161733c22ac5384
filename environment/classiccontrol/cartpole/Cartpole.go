// Package cartpole implements tasks on the cart-pole model. In this
// model, a pole is attached by the revolute joint "pivot" to a cart,
// which slides horizontally along the prismatic joint "linear". The
// pole is upright at a pivot angle of 0, and positive angles rotate the
// pole counter clockwise.
//
// Observations of all tasks are 4-dimensional and consist of the
// cart's position and speed followed by the pole's angle and angular
// velocity:
//
//	[x, ẋ, θ, θ̇]
//
// Actions determine the horizontal force applied to the cart.
package cartpole

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/samuelfneumann/simgym/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// Joint names of the cart-pole model
	LinearJoint = "linear"
	PivotJoint  = "pivot"

	ObservationDims = 4
	ActionDims      = 1

	// ObservationScale is the factor by which the observation space is
	// larger than the space of non-terminal states
	ObservationScale = 1.2

	// StartBound bounds (+/-) the starting cart position and speed and
	// the starting pole angular velocity
	StartBound = 0.05
)

// base implements the parts of the environment.Task interface shared
// by all cart-pole tasks. Episodes terminate when the state leaves the
// reset space, which is the space of non-terminal states.
type base struct {
	*environment.BaseTask
	forceBounds     r1.Interval
	resetSpace      environment.Spec
	observationSpec environment.Spec
}

// newBase returns a new base whose non-terminal states are bounded by
// thresholds and whose force is bounded by maxForce
func newBase(agentRate float64, modelName string, thresholds [4]float64,
	maxForce float64) *base {
	b := &base{
		BaseTask:    environment.NewBaseTask(agentRate),
		forceBounds: r1.Interval{Min: -maxForce, Max: maxForce},
	}
	b.SetModelName(modelName)

	high := thresholds[:]
	b.resetSpace = environment.NewSymmetricSpec(environment.Observation, high)

	scaled := make([]float64, len(high))
	for i := range high {
		scaled[i] = ObservationScale * high[i]
	}
	b.observationSpec = environment.NewSymmetricSpec(environment.Observation,
		scaled)
	return b
}

// ResetSpace returns the space of non-terminal states
func (b *base) ResetSpace() environment.Spec {
	return b.resetSpace
}

// Observation returns the current state of the cart and pole
func (b *base) Observation() (*mat.VecDense, error) {
	linear, pivot, err := b.joints()
	if err != nil {
		return nil, fmt.Errorf("observation: %w", err)
	}
	return mat.NewVecDense(ObservationDims, []float64{
		linear.Position(), linear.Velocity(),
		pivot.Position(), pivot.Velocity(),
	}), nil
}

// Terminated returns whether the current state lies outside the reset
// space
func (b *base) Terminated() (bool, error) {
	obs, err := b.Observation()
	if err != nil {
		return false, fmt.Errorf("terminated: %w", err)
	}
	return !b.resetSpace.Contains(obs), nil
}

// Truncated implements the environment.Task interface. Cart-pole tasks
// never truncate episodes themselves.
func (b *base) Truncated() (bool, error) {
	return false, nil
}

// applyForce applies a horizontal force to the cart, clipped to the
// legal range of forces
func (b *base) applyForce(force float64) error {
	linear, _, err := b.joints()
	if err != nil {
		return fmt.Errorf("applyForce: %w", err)
	}

	force = floatutils.ClipInterval(force, b.forceBounds)
	if err := linear.SetGeneralizedForceTarget(force); err != nil {
		return fmt.Errorf("applyForce: %w: failed to set force %v: %w",
			environment.ErrActuation, force, err)
	}
	return nil
}

// resetState puts the cart and pole in the state [x, ẋ, θ, θ̇] with the
// cart under force control and no force applied
func (b *base) resetState(state mat.Vector) error {
	linear, pivot, err := b.joints()
	if err != nil {
		return fmt.Errorf("resetState: %w", err)
	}

	if err := linear.SetControlMode(scenario.Force); err != nil {
		return fmt.Errorf("resetState: could not set control mode: %w", err)
	}
	if err := linear.SetGeneralizedForceTarget(0); err != nil {
		return fmt.Errorf("resetState: %w: %w", environment.ErrActuation, err)
	}

	if err := linear.Reset(state.AtVec(0), state.AtVec(1)); err != nil {
		return fmt.Errorf("resetState: could not reset cart: %w", err)
	}
	if err := pivot.Reset(state.AtVec(2), state.AtVec(3)); err != nil {
		return fmt.Errorf("resetState: could not reset pole: %w", err)
	}
	return nil
}

func (b *base) joints() (linear, pivot scenario.Joint, err error) {
	joints, err := b.Joints(LinearJoint, PivotJoint)
	if err != nil {
		return nil, nil, err
	}
	return joints[0], joints[1], nil
}
