// Package wrappers provides wrappers for environments
package wrappers

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/timestep"
	"gonum.org/v1/gonum/mat"
)

// TimeLimit wraps an environment and truncates episodes after a fixed
// number of steps. Truncated episodes end with EndType timestep.Timeout.
// An episode that reaches a terminal state on its last allowed step is
// reported as terminated rather than truncated.
//
// TimeLimit itself implements the environment.Environment interface.
type TimeLimit struct {
	environment.Environment
	maxSteps int
	steps    int
	current  timestep.TimeStep
}

// NewTimeLimit returns a new TimeLimit wrapping env which truncates
// episodes after maxSteps steps
func NewTimeLimit(env environment.Environment, maxSteps int) (*TimeLimit,
	error) {
	if maxSteps <= 0 {
		return nil, fmt.Errorf("newTimeLimit: %w: maximum steps must be "+
			"positive, got %v", environment.ErrConfiguration, maxSteps)
	}
	return &TimeLimit{Environment: env, maxSteps: maxSteps}, nil
}

// MaxSteps returns the maximum number of steps in an episode
func (t *TimeLimit) MaxSteps() int {
	return t.maxSteps
}

// Reset resets the wrapped environment and the step count
func (t *TimeLimit) Reset() (timestep.TimeStep, error) {
	step, err := t.Environment.Reset()
	if err != nil {
		return step, err
	}
	t.steps = 0
	t.current = step
	return step, nil
}

// Step takes one step in the wrapped environment, truncating the
// episode if it has reached its maximum length
func (t *TimeLimit) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	step, last, err := t.Environment.Step(action)
	if err != nil {
		return step, last, err
	}

	t.steps++
	if !last && t.steps >= t.maxSteps {
		step.SetEnd(timestep.Timeout)
		last = true
	}
	t.current = step
	return step, last, nil
}

// CurrentTimeStep returns the last step taken, including truncation
func (t *TimeLimit) CurrentTimeStep() timestep.TimeStep {
	return t.current
}

// Unwrapped returns the wrapped environment
func (t *TimeLimit) Unwrapped() environment.Environment {
	return t.Environment
}

// String returns a string representation of the TimeLimit environment
func (t *TimeLimit) String() string {
	return fmt.Sprintf("TimeLimit(%v): %v", t.maxSteps, t.Environment)
}
