package pendulum

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/samuelfneumann/simgym/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// SwingUp implements the pendulum swing-up task. Rewards are the
// negative Cost of the current state and torque. Episodes terminate
// when the observation leaves the observation space, which happens
// once the pole spins faster than MaxSpeed.
//
// SwingUp implements the environment.Task interface
type SwingUp struct {
	*environment.BaseTask
	torqueBounds    r1.Interval
	observationSpec environment.Spec
}

// NewSwingUp creates and returns a new SwingUp task acting on the model
// called modelName
func NewSwingUp(agentRate float64, modelName string) *SwingUp {
	task := &SwingUp{
		BaseTask:     environment.NewBaseTask(agentRate),
		torqueBounds: r1.Interval{Min: -MaxTorque, Max: MaxTorque},
	}
	task.SetModelName(modelName)
	_, task.observationSpec = task.CreateSpaces()
	return task
}

// CreateSpaces returns the action and observation specifications of
// the task
func (s *SwingUp) CreateSpaces() (environment.Spec, environment.Spec) {
	action := environment.NewSymmetricSpec(environment.Action,
		[]float64{MaxTorque})
	observation := environment.NewSymmetricSpec(environment.Observation,
		[]float64{1, 1, MaxSpeed})
	return action, observation
}

// ResetTask puts the pole in a random state drawn uniformly from the
// observation space
func (s *SwingUp) ResetTask() error {
	model, err := s.Model()
	if err != nil {
		return fmt.Errorf("resetTask: %w", err)
	}
	pivot, err := model.Joint(JointName)
	if err != nil {
		return fmt.Errorf("resetTask: %w: %w", environment.ErrConfiguration,
			err)
	}

	if err := pivot.SetControlMode(scenario.Force); err != nil {
		return fmt.Errorf("resetTask: could not set control mode: %w", err)
	}
	if err := pivot.SetGeneralizedForceTarget(0); err != nil {
		return fmt.Errorf("resetTask: %w: %w", environment.ErrActuation, err)
	}

	obs := s.observationSpec.Sample(s.RandomState())
	if err := pivot.Reset(Angle(obs), obs.AtVec(2)); err != nil {
		return fmt.Errorf("resetTask: could not reset joint: %w", err)
	}
	return nil
}

// SetAction applies the torque in action to the pole's base
func (s *SwingUp) SetAction(action mat.Vector) error {
	if action.Len() != ActionDims {
		return fmt.Errorf("setAction: %w: actions should be %v-dimensional, "+
			"got %v", environment.ErrActuation, ActionDims, action.Len())
	}
	pivot, err := s.pivot()
	if err != nil {
		return fmt.Errorf("setAction: %w", err)
	}

	torque := floatutils.ClipInterval(action.AtVec(0), s.torqueBounds)
	if err := pivot.SetGeneralizedForceTarget(torque); err != nil {
		return fmt.Errorf("setAction: %w: failed to set torque %v: %w",
			environment.ErrActuation, torque, err)
	}
	return nil
}

// Observation returns the current observation of the pole
func (s *SwingUp) Observation() (*mat.VecDense, error) {
	pivot, err := s.pivot()
	if err != nil {
		return nil, fmt.Errorf("observation: %w", err)
	}
	return Observation(pivot.Position(), pivot.Velocity()), nil
}

// Reward returns the negative cost of the current state and torque
func (s *SwingUp) Reward() (float64, error) {
	pivot, err := s.pivot()
	if err != nil {
		return 0, fmt.Errorf("reward: %w", err)
	}
	terminated, err := s.Terminated()
	if err != nil {
		return 0, fmt.Errorf("reward: %w", err)
	}

	cost := Cost(pivot.Position(), pivot.Velocity(),
		pivot.GeneralizedForceTarget(), terminated)
	return -cost, nil
}

// Terminated returns whether the current observation lies outside the
// observation space
func (s *SwingUp) Terminated() (bool, error) {
	obs, err := s.Observation()
	if err != nil {
		return false, fmt.Errorf("terminated: %w", err)
	}
	return !s.observationSpec.Contains(obs), nil
}

// Truncated implements the environment.Task interface. The task never
// truncates episodes itself.
func (s *SwingUp) Truncated() (bool, error) {
	return false, nil
}

func (s *SwingUp) pivot() (scenario.Joint, error) {
	joints, err := s.Joints(JointName)
	if err != nil {
		return nil, err
	}
	return joints[0], nil
}
