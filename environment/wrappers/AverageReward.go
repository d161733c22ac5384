package wrappers

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/timestep"
	"gonum.org/v1/gonum/mat"
)

// AverageReward wraps an environment and alters rewards so that the
// differential reward is returned for each action. The average reward
// of the policy acting in the environment is estimated as an
// exponential moving average of the rewards it receives:
//
//	avgReward <- avgReward + learningRate * (reward - avgReward)
//
// and each reward is replaced by reward - avgReward. The average
// reward setting does not use discounting, so all discounts are 1.
//
// AverageReward itself implements the environment.Environment
// interface, and is therefore itself an Environment.
type AverageReward struct {
	environment.Environment
	avgReward    float64
	learningRate float64
}

// NewAverageReward creates and returns a new AverageReward Environment
// wrapper. The init parameter is the initial value for the average
// reward, usually set to 0.
func NewAverageReward(env environment.Environment, init,
	learningRate float64) (*AverageReward, error) {
	if learningRate <= 0 || learningRate > 1 {
		return nil, fmt.Errorf("newAverageReward: %w: learning rate must "+
			"be in (0, 1], got %v", environment.ErrConfiguration,
			learningRate)
	}
	return &AverageReward{env, init, learningRate}, nil
}

// Reset resets the environment and returns the first step of the
// episode
func (a *AverageReward) Reset() (timestep.TimeStep, error) {
	step, err := a.Environment.Reset()
	if err != nil {
		return step, err
	}
	step.Discount = 1.0
	return step, nil
}

// Step takes one environmental step given action and returns the next
// timestep with the differential reward
func (a *AverageReward) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	step, last, err := a.Environment.Step(action)
	if err != nil {
		return step, last, err
	}

	a.avgReward += a.learningRate * (step.Reward - a.avgReward)
	step.Reward -= a.avgReward
	step.Discount = 1.0

	return step, last, nil
}

// AverageReward returns the current estimate of the average reward
func (a *AverageReward) AverageReward() float64 {
	return a.avgReward
}

// DiscountSpec returns the discount specification for the environment.
// Average reward setting does not use discounting, so the discount
// value is always 1.0.
func (a *AverageReward) DiscountSpec() environment.Spec {
	discountSpec := a.Environment.DiscountSpec()

	bounds := make([]float64, discountSpec.Len())
	for i := range bounds {
		bounds[i] = 1.0
	}
	discountSpec.LowerBound = mat.NewVecDense(len(bounds), bounds)
	discountSpec.UpperBound = mat.NewVecDense(len(bounds),
		append([]float64(nil), bounds...))

	return discountSpec
}

// Unwrapped returns the wrapped environment
func (a *AverageReward) Unwrapped() environment.Environment {
	return a.Environment
}

// String returns a string representation of the AverageReward
// environment
func (a *AverageReward) String() string {
	return fmt.Sprintf("Average Reward: %v", a.Environment)
}
