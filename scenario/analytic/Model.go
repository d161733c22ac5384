package analytic

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/scenario"
	"gonum.org/v1/gonum/spatial/r2"
)

// dynamics advances the joints of a model by a single physics step
type dynamics interface {
	step(gravity r2.Vec, dt float64)
}

// Model is the scenario.Model of an analytic World
type Model struct {
	world  *World
	name   string
	desc   scenario.ModelDescription
	pose   scenario.Pose
	joints []*Joint
	byName map[string]*Joint
	dynamics
}

func newModel(w *World, desc scenario.ModelDescription, pose scenario.Pose,
	name string) (*Model, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("newModel: %w", err)
	}

	m := &Model{
		world:  w,
		name:   name,
		desc:   desc,
		pose:   pose,
		byName: make(map[string]*Joint, len(desc.Joints)),
	}
	for _, jointDesc := range desc.Joints {
		joint := &Joint{
			model:      m,
			name:       jointDesc.Name,
			typ:        jointDesc.Type,
			continuous: jointDesc.Continuous(),
			limits:     jointDesc.Limits,
		}
		m.joints = append(m.joints, joint)
		m.byName[joint.name] = joint
	}

	var err error
	switch desc.Kind {
	case models.PendulumKind:
		m.dynamics, err = newPendulum(m)
	case models.CartPoleKind:
		m.dynamics, err = newCartPole(m)
	default:
		err = fmt.Errorf("%w: analytic engine cannot simulate model kind %q",
			scenario.ErrInvalidDescription, desc.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("newModel: %w", err)
	}
	return m, nil
}

// Name implements the scenario.Model interface
func (m *Model) Name() string {
	return m.name
}

// Joint implements the scenario.Model interface
func (m *Model) Joint(name string) (scenario.Joint, error) {
	joint, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("joint: %w: %q in model %q",
			scenario.ErrJointNotFound, name, m.name)
	}
	return joint, nil
}

// JointNames implements the scenario.Model interface
func (m *Model) JointNames() []string {
	names := make([]string, len(m.joints))
	for i, joint := range m.joints {
		names[i] = joint.name
	}
	return names
}

// Description returns the description the model was built from
func (m *Model) Description() scenario.ModelDescription {
	return m.desc.Clone()
}

// Joint is the scenario.Joint of an analytic Model
type Joint struct {
	model      *Model
	name       string
	typ        scenario.JointType
	continuous bool
	limits     *scenario.Limits
	position   float64
	velocity   float64
	force      float64
	mode       scenario.JointControlMode
}

// Name implements the scenario.Joint interface
func (j *Joint) Name() string {
	return j.name
}

// Type implements the scenario.Joint interface
func (j *Joint) Type() scenario.JointType {
	return j.typ
}

// Position implements the scenario.Joint interface
func (j *Joint) Position() float64 {
	return j.position
}

// Velocity implements the scenario.Joint interface
func (j *Joint) Velocity() float64 {
	return j.velocity
}

// ControlMode implements the scenario.Joint interface
func (j *Joint) ControlMode() scenario.JointControlMode {
	return j.mode
}

// SetControlMode implements the scenario.Joint interface
func (j *Joint) SetControlMode(mode scenario.JointControlMode) error {
	if j.model.world.sim.closed {
		return fmt.Errorf("setControlMode: %w", scenario.ErrClosed)
	}
	j.mode = mode
	if mode != scenario.Force {
		j.force = 0
	}
	return nil
}

// SetGeneralizedForceTarget implements the scenario.Joint interface
func (j *Joint) SetGeneralizedForceTarget(force float64) error {
	if j.model.world.sim.closed {
		return fmt.Errorf("setGeneralizedForceTarget: %w", scenario.ErrClosed)
	}
	if j.mode != scenario.Force {
		return fmt.Errorf("setGeneralizedForceTarget: %w: joint %q is in "+
			"%v mode", scenario.ErrControlMode, j.name, j.mode)
	}
	if math.IsNaN(force) || math.IsInf(force, 0) {
		return fmt.Errorf("setGeneralizedForceTarget: illegal force %v", force)
	}
	j.force = force
	return nil
}

// GeneralizedForceTarget implements the scenario.Joint interface
func (j *Joint) GeneralizedForceTarget() float64 {
	return j.force
}

// Reset implements the scenario.Joint interface
func (j *Joint) Reset(position, velocity float64) error {
	if j.model.world.sim.closed {
		return fmt.Errorf("reset: %w", scenario.ErrClosed)
	}
	j.position, j.velocity = position, velocity
	j.enforce()
	return nil
}

// applied returns the generalized force acting on the joint this step
func (j *Joint) applied() float64 {
	if j.mode != scenario.Force {
		return 0
	}
	return j.force
}

// enforce wraps continuous joints and stops limited joints at their
// limits
func (j *Joint) enforce() {
	if j.continuous {
		j.position = scenario.WrapAngle(j.position)
		return
	}
	if j.limits == nil {
		return
	}
	if j.position < j.limits.Lower {
		j.position, j.velocity = j.limits.Lower, math.Max(j.velocity, 0)
	} else if j.position > j.limits.Upper {
		j.position, j.velocity = j.limits.Upper, math.Min(j.velocity, 0)
	}
}
