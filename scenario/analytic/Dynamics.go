package analytic

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/simgym/scenario"
	"gonum.org/v1/gonum/spatial/r2"
)

// pendulum is a uniform rod of a given mass and length hinged at one
// end. Angles are measured counter clockwise from the upright
// position.
type pendulum struct {
	pivot  *Joint
	mass   float64
	length float64
}

func newPendulum(m *Model) (*pendulum, error) {
	if len(m.desc.Joints) != 1 {
		return nil, fmt.Errorf("newPendulum: %w: expected 1 joint, got %v",
			scenario.ErrInvalidDescription, len(m.desc.Joints))
	}
	joint := m.desc.Joints[0]
	if joint.Type != scenario.Revolute || joint.Parent != scenario.WorldFrame {
		return nil, fmt.Errorf("newPendulum: %w: joint %q must be a "+
			"revolute joint attached to the world",
			scenario.ErrInvalidDescription, joint.Name)
	}
	pole, _ := m.desc.Link(joint.Child)

	return &pendulum{
		pivot:  m.joints[0],
		mass:   pole.Mass,
		length: pole.Length(),
	}, nil
}

func (p *pendulum) step(gravity r2.Vec, dt float64) {
	th, thdot := p.pivot.position, p.pivot.velocity
	torque := p.pivot.applied()

	// Moment of inertia of the rod about its end
	inertia := p.mass * p.length * p.length / 3

	// Torque due to gravity acting at the centre of the rod
	sin, cos := math.Sincos(th)
	gravityTorque := p.mass * p.length / 2 * (-sin*gravity.Y - cos*gravity.X)

	newthdot := thdot + (gravityTorque+torque)/inertia*dt
	newth := th + newthdot*dt

	p.pivot.position, p.pivot.velocity = newth, newthdot
	p.pivot.enforce()
}

// cartPole is a pole hinged on a cart that slides horizontally. The
// pole angle is measured counter clockwise from upright, and forces on
// the cart act along the cart's axis of translation.
type cartPole struct {
	linear         *Joint
	pivot          *Joint
	cartMass       float64
	poleMass       float64
	halfPoleLength float64
}

func newCartPole(m *Model) (*cartPole, error) {
	if len(m.desc.Joints) != 2 {
		return nil, fmt.Errorf("newCartPole: %w: expected 2 joints, got %v",
			scenario.ErrInvalidDescription, len(m.desc.Joints))
	}
	linear, pivot := m.desc.Joints[0], m.desc.Joints[1]
	if linear.Type != scenario.Prismatic || linear.Parent != scenario.WorldFrame {
		return nil, fmt.Errorf("newCartPole: %w: joint %q must be a "+
			"prismatic joint attached to the world",
			scenario.ErrInvalidDescription, linear.Name)
	}
	if pivot.Type != scenario.Revolute || pivot.Parent != linear.Child {
		return nil, fmt.Errorf("newCartPole: %w: joint %q must be a "+
			"revolute joint attached to the cart",
			scenario.ErrInvalidDescription, pivot.Name)
	}
	cart, _ := m.desc.Link(linear.Child)
	pole, _ := m.desc.Link(pivot.Child)

	return &cartPole{
		linear:         m.joints[0],
		pivot:          m.joints[1],
		cartMass:       cart.Mass,
		poleMass:       pole.Mass,
		halfPoleLength: pole.Length() / 2,
	}, nil
}

func (c *cartPole) step(gravity r2.Vec, dt float64) {
	x, xDot := c.linear.position, c.linear.velocity
	th, thDot := c.pivot.position, c.pivot.velocity
	force := c.linear.applied()
	g := -gravity.Y

	// Calculate physical variables to determine next state
	sinTheta, cosTheta := math.Sincos(th)

	totalMass := c.poleMass + c.cartMass
	poleMassLength := c.poleMass * c.halfPoleLength

	temp := (force - poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (g*sinTheta + cosTheta*temp) / (c.halfPoleLength *
		(4.0/3.0 - c.poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp + poleMassLength*thAcc*cosTheta/totalMass

	// Update state variables using Euler kinematic integration
	x += dt * xDot
	xDot += dt * xAcc
	th += dt * thDot
	thDot += dt * thAcc

	c.linear.position, c.linear.velocity = x, xDot
	c.pivot.position, c.pivot.velocity = th, thDot
	c.linear.enforce()
	c.pivot.enforce()
}
