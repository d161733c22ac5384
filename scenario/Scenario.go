// Package scenario outlines the interfaces that a rigid-body physics
// simulator must implement so that tasks can drive it. A Simulator owns
// exactly one World. A World holds named Models, each of which exposes
// named Joints whose generalized coordinates can be read, reset, and
// actuated.
//
// Concrete simulators live in sub-packages and make themselves
// available by calling Register from an init function, so that the
// physics engine used by an environment can be chosen by name:
//
//	import _ "github.com/samuelfneumann/simgym/scenario/box2d"
//
//	sim, err := scenario.Open(scenario.Box2D, opts)
package scenario

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Errors returned by simulators
var (
	ErrClosed             = errors.New("simulator closed")
	ErrNotInitialized     = errors.New("simulator not initialized")
	ErrModelNotFound      = errors.New("model not found")
	ErrJointNotFound      = errors.New("joint not found")
	ErrDuplicateModel     = errors.New("model already exists")
	ErrInvalidDescription = errors.New("invalid model description")
	ErrControlMode        = errors.New("joint not in required control mode")
	ErrUnknownEngine      = errors.New("unknown physics engine")
)

// DefaultGravity is the gravity of a newly created World
var DefaultGravity = r2.Vec{X: 0, Y: -9.8}

// JointType is the kinematic type of a joint
type JointType string

const (
	// Revolute joints rotate about a fixed axis. A revolute joint
	// without limits is continuous.
	Revolute JointType = "revolute"

	// Prismatic joints translate along a fixed axis
	Prismatic JointType = "prismatic"
)

// JointControlMode determines how a joint is actuated
type JointControlMode int

const (
	// Idle joints are not actuated
	Idle JointControlMode = iota

	// Force joints apply their generalized force target on every
	// physics step
	Force
)

func (j JointControlMode) String() string {
	switch j {
	case Force:
		return "Force"
	default:
		return "Idle"
	}
}

// Pose is the placement of a model's root in the world frame
type Pose struct {
	Position r2.Vec
	Angle    float64
}

// Options configure a Simulator when it is opened
type Options struct {
	// StepSize is the duration in seconds of a single physics step
	StepSize float64

	// StepsPerRun is the number of physics steps taken by each
	// unpaused call to Run
	StepsPerRun int

	// RealTimeFactor is the desired ratio of simulated to wall-clock
	// time. Values that are infinite or math.MaxFloat64 request
	// simulation as fast as possible.
	RealTimeFactor float64
}

// Validate returns an error if the options cannot be used to open a
// Simulator
func (o Options) Validate() error {
	if o.StepSize <= 0 || math.IsNaN(o.StepSize) || math.IsInf(o.StepSize, 0) {
		return fmt.Errorf("validate: step size must be positive and finite, "+
			"got %v", o.StepSize)
	}
	if o.StepsPerRun < 1 {
		return fmt.Errorf("validate: steps per run must be positive, got %v",
			o.StepsPerRun)
	}
	if o.RealTimeFactor <= 0 || math.IsNaN(o.RealTimeFactor) {
		return fmt.Errorf("validate: real time factor must be positive, "+
			"got %v", o.RealTimeFactor)
	}
	return nil
}

// Simulator is a session of a physics simulator
type Simulator interface {
	// Initialize prepares the simulator so that it can be run. It must
	// be called once before any call to Run or World.
	Initialize() error

	// Run advances the simulation by StepsPerRun physics steps. A
	// paused run processes pending world edits, such as model insertion
	// and removal, without advancing simulated time.
	Run(paused bool) error

	// World returns the single world owned by the simulator
	World() (World, error)

	// Time returns the simulated time in seconds
	Time() float64

	// Close releases all resources held by the simulator. It is safe
	// to call Close more than once.
	Close() error
}

// World holds named models and global physical parameters
type World interface {
	Name() string

	// InsertModel inserts a model built from desc at pose. If name is
	// empty, the description's name is used.
	InsertModel(desc ModelDescription, pose Pose, name string) error
	RemoveModel(name string) error
	Model(name string) (Model, error)

	// ModelNames returns the sorted names of all models in the world
	ModelNames() []string

	Gravity() r2.Vec
	SetGravity(g r2.Vec) error
}

// Model is an articulated body in a World
type Model interface {
	Name() string
	Joint(name string) (Joint, error)

	// JointNames returns the names of the model's joints, ordered as
	// in the model's description
	JointNames() []string
}

// Joint is a single-degree-of-freedom joint of a Model
type Joint interface {
	Name() string
	Type() JointType

	// Position returns the generalized coordinate of the joint. The
	// position of continuous revolute joints lies in [-π, π).
	Position() float64
	Velocity() float64

	ControlMode() JointControlMode
	SetControlMode(mode JointControlMode) error

	// SetGeneralizedForceTarget sets the force (prismatic) or torque
	// (revolute) applied on every physics step. The joint must be in
	// Force control mode.
	SetGeneralizedForceTarget(force float64) error
	GeneralizedForceTarget() float64

	// Reset sets the generalized coordinate and velocity of the joint
	Reset(position, velocity float64) error
}

// HasModel returns whether the world contains a model called name
func HasModel(w World, name string) bool {
	for _, model := range w.ModelNames() {
		if model == name {
			return true
		}
	}
	return false
}

// WrapAngle wraps angle to [-π, π)
func WrapAngle(angle float64) float64 {
	wrapped := math.Mod(angle+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}
