// Package pendulum implements the pendulum swing-up task. In this task,
// a pole is attached to a fixed base by the revolute joint "pivot". An
// agent applies a torque at the base and must swing the pole up and
// balance it in the upright position, which is at a joint angle of 0.
//
// Observations are 3-dimensional and consist of the cosine and sine of
// the pole angle, followed by the pole's angular velocity:
//
//	[cos θ, sin θ, θ̇]
//
// Actions are 1-dimensional and continuous, consisting of the torque
// applied at the base. Torques are clipped to stay within
// [-MaxTorque, MaxTorque].
package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// JointName is the name of the joint that the task actuates
	JointName = "pivot"

	// Bounds (+/-) on the pole's angular velocity and on the torque
	MaxSpeed  float64 = 10.0
	MaxTorque float64 = 50.0

	ObservationDims = 3
	ActionDims      = 1

	// TerminalCost is the cost incurred when the pole leaves the
	// observation space
	TerminalCost float64 = 100.0
)

// Observation returns the observation for a pole at angle th rotating
// with angular velocity thdot
func Observation(th, thdot float64) *mat.VecDense {
	sin, cos := math.Sincos(th)
	return mat.NewVecDense(ObservationDims, []float64{cos, sin, thdot})
}

// Angle recovers the pole angle in [-π, π] from an observation
func Angle(obs mat.Vector) float64 {
	return math.Atan2(obs.AtVec(1), obs.AtVec(0))
}

// Cost returns the cost of a pole at angle th rotating with angular
// velocity thdot when torque is applied. A fixed penalty is added if
// the episode has terminated.
func Cost(th, thdot, torque float64, terminated bool) float64 {
	cost := th*th + 0.1*thdot*thdot + 0.001*torque*torque
	if terminated {
		cost += TerminalCost
	}
	return cost
}
