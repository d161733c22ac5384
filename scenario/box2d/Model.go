package box2d

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/simgym/scenario"
	"gonum.org/v1/gonum/spatial/r2"
)

// Model is the scenario.Model of a Box2D World. Joint coordinates are
// recovered from the states of the bodies they connect.
type Model struct {
	world  *World
	name   string
	desc   scenario.ModelDescription
	pose   scenario.Pose
	ground *box2d.B2Body
	bodies map[string]*box2d.B2Body
	zero   map[string]scenario.LinkState
	joints []*Joint
	byName map[string]*Joint
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
		bodies: make(map[string]*box2d.B2Body, len(desc.Links)),
		byName: make(map[string]*Joint, len(desc.Joints)),
	}

	// Static body standing in for the world frame
	groundDef := box2d.MakeB2BodyDef()
	groundDef.Type = 0 // Static body
	groundDef.Position = box2d.MakeB2Vec2(0, 0)
	m.ground = w.b2.CreateBody(&groundDef)

	// Create every link at the zero configuration
	m.zero = scenario.ForwardKinematics(desc, pose, nil)
	for _, link := range desc.Links {
		state := m.zero[link.Name]

		bodyDef := box2d.MakeB2BodyDef()
		bodyDef.Type = 2 // Dynamic body
		bodyDef.Position = box2d.MakeB2Vec2(state.Position.X, state.Position.Y)
		bodyDef.Angle = state.Angle
		bodyDef.AllowSleep = false
		body := w.b2.CreateBody(&bodyDef)

		shape := box2d.NewB2PolygonShape()
		shape.SetAsBox(link.Size[0]/2, link.Size[1]/2)

		fixture := box2d.MakeB2FixtureDef()
		fixture.Shape = shape
		fixture.Density = link.Mass / (link.Size[0] * link.Size[1])
		fixture.Friction = 0.0
		filter := box2d.MakeB2Filter()
		filter.MaskBits = 0x0000
		fixture.Filter = filter
		body.CreateFixtureFromDef(&fixture)

		m.bodies[link.Name] = body
	}

	for _, jointDesc := range desc.Joints {
		joint := &Joint{
			model: m,
			desc:  jointDesc,
		}
		m.createJoint(jointDesc)
		m.joints = append(m.joints, joint)
		m.byName[jointDesc.Name] = joint
	}

	return m, nil
}

func (m *Model) createJoint(desc scenario.JointDescription) {
	parent := m.body(desc.Parent)
	child := m.body(desc.Child)

	// Anchor positions in the local frames of both bodies, computed at
	// the zero configuration where all bodies were created
	anchor := m.anchorWorld(desc)
	localA := parent.GetLocalPoint(box2d.MakeB2Vec2(anchor.X, anchor.Y))
	localB := child.GetLocalPoint(box2d.MakeB2Vec2(anchor.X, anchor.Y))

	switch desc.Type {
	case scenario.Prismatic:
		frame := parent.GetAngle()
		if desc.Parent == scenario.WorldFrame {
			frame = m.pose.Angle
		}
		axis := rotate(unit(r2.Vec{X: desc.Axis[0], Y: desc.Axis[1]}), frame)

		pjd := box2d.MakeB2PrismaticJointDef()
		pjd.BodyA = parent
		pjd.BodyB = child
		pjd.LocalAnchorA = localA
		pjd.LocalAnchorB = localB
		pjd.LocalAxisA = parent.GetLocalVector(box2d.MakeB2Vec2(axis.X, axis.Y))
		pjd.ReferenceAngle = child.GetAngle() - parent.GetAngle()
		if desc.Limits != nil {
			pjd.EnableLimit = true
			pjd.LowerTranslation = desc.Limits.Lower
			pjd.UpperTranslation = desc.Limits.Upper
		}
		m.world.b2.CreateJoint(&pjd)

	default:
		rjd := box2d.MakeB2RevoluteJointDef()
		rjd.BodyA = parent
		rjd.BodyB = child
		rjd.LocalAnchorA = localA
		rjd.LocalAnchorB = localB
		rjd.ReferenceAngle = child.GetAngle() - parent.GetAngle()
		if desc.Limits != nil {
			rjd.EnableLimit = true
			rjd.LowerAngle = desc.Limits.Lower
			rjd.UpperAngle = desc.Limits.Upper
		}
		m.world.b2.CreateJoint(&rjd)
	}
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
		names[i] = joint.desc.Name
	}
	return names
}

// Description returns the description the model was built from
func (m *Model) Description() scenario.ModelDescription {
	return m.desc.Clone()
}

// Mass returns the total mass of the model's bodies
func (m *Model) Mass() float64 {
	mass := 0.0
	for _, body := range m.bodies {
		mass += body.GetMass()
	}
	return mass
}

func (m *Model) body(link string) *box2d.B2Body {
	if link == scenario.WorldFrame {
		return m.ground
	}
	return m.bodies[link]
}

func (m *Model) linkState(link string) scenario.LinkState {
	body := m.body(link)
	position := body.GetPosition()
	velocity := body.GetLinearVelocity()
	return scenario.LinkState{
		Position:        r2.Vec{X: position.X, Y: position.Y},
		Angle:           body.GetAngle(),
		LinearVelocity:  r2.Vec{X: velocity.X, Y: velocity.Y},
		AngularVelocity: body.GetAngularVelocity(),
	}
}

// anchorWorld returns the current world position of a joint's anchor,
// which is fixed to the joint's parent
func (m *Model) anchorWorld(desc scenario.JointDescription) r2.Vec {
	anchor := r2.Vec{X: desc.Anchor[0], Y: desc.Anchor[1]}
	if desc.Parent == scenario.WorldFrame {
		return add(m.pose.Position, rotate(anchor, m.pose.Angle))
	}

	// Express the anchor relative to the parent at the zero
	// configuration, then move it with the parent
	parentZero := m.zero[desc.Parent]
	local := rotate(sub(add(m.pose.Position, rotate(anchor, m.pose.Angle)),
		parentZero.Position), -parentZero.Angle)

	parent := m.linkState(desc.Parent)
	return add(parent.Position, rotate(local, parent.Angle))
}

// jointStates returns the current state of every joint of the model
func (m *Model) jointStates() map[string]scenario.JointState {
	states := make(map[string]scenario.JointState, len(m.joints))
	for _, joint := range m.joints {
		states[joint.desc.Name] = scenario.JointState{
			Position: joint.Position(),
			Velocity: joint.Velocity(),
		}
	}
	return states
}

// setJointStates moves every body so that the model's joints take on
// the given states
func (m *Model) setJointStates(states map[string]scenario.JointState) {
	links := scenario.ForwardKinematics(m.desc, m.pose, states)
	for name, state := range links {
		body := m.bodies[name]
		body.SetTransform(box2d.MakeB2Vec2(state.Position.X, state.Position.Y),
			state.Angle)
		body.SetLinearVelocity(box2d.MakeB2Vec2(state.LinearVelocity.X,
			state.LinearVelocity.Y))
		body.SetAngularVelocity(state.AngularVelocity)
	}
}

func (m *Model) applyForces() {
	for _, joint := range m.joints {
		joint.applyForce()
	}
}

func (m *Model) destroy() {
	// Joints are destroyed along with the bodies they connect
	for _, body := range m.bodies {
		m.world.b2.DestroyBody(body)
	}
	m.world.b2.DestroyBody(m.ground)
	m.bodies = nil
}

// Joint is the scenario.Joint of a Box2D Model
type Joint struct {
	model *Model
	desc  scenario.JointDescription
	force float64
	mode  scenario.JointControlMode
}

// Name implements the scenario.Joint interface
func (j *Joint) Name() string {
	return j.desc.Name
}

// Type implements the scenario.Joint interface
func (j *Joint) Type() scenario.JointType {
	return j.desc.Type
}

// Position implements the scenario.Joint interface
func (j *Joint) Position() float64 {
	parent := j.model.linkState(j.desc.Parent)
	child := j.model.linkState(j.desc.Child)

	if j.desc.Type == scenario.Prismatic {
		link, _ := j.model.desc.Link(j.desc.Child)
		origin := sub(child.Position, rotate(r2.Vec{X: link.Offset[0],
			Y: link.Offset[1]}, child.Angle))
		return dot(sub(origin, j.model.anchorWorld(j.desc)), j.axis(parent))
	}

	position := child.Angle - j.frame(parent)
	if j.desc.Continuous() {
		return scenario.WrapAngle(position)
	}
	return position
}

// Velocity implements the scenario.Joint interface
func (j *Joint) Velocity() float64 {
	parent := j.model.linkState(j.desc.Parent)
	child := j.model.linkState(j.desc.Child)

	if j.desc.Type == scenario.Prismatic {
		// Velocity of the child relative to a point fixed to the parent
		// that coincides with the child's centre
		carried := add(parent.LinearVelocity,
			cross(parent.AngularVelocity, sub(child.Position, parent.Position)))
		return dot(sub(child.LinearVelocity, carried), j.axis(parent))
	}
	return child.AngularVelocity - parent.AngularVelocity
}

// frame returns the orientation of the frame the joint is attached to
func (j *Joint) frame(parent scenario.LinkState) float64 {
	if j.desc.Parent == scenario.WorldFrame {
		return j.model.pose.Angle
	}
	return parent.Angle
}

// axis returns the joint's axis of translation in the world frame
func (j *Joint) axis(parent scenario.LinkState) r2.Vec {
	return rotate(unit(r2.Vec{X: j.desc.Axis[0], Y: j.desc.Axis[1]}),
		j.frame(parent))
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
			"%v mode", scenario.ErrControlMode, j.desc.Name, j.mode)
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

// Reset implements the scenario.Joint interface. The states of all
// other joints of the model are preserved.
func (j *Joint) Reset(position, velocity float64) error {
	if j.model.world.sim.closed {
		return fmt.Errorf("reset: %w", scenario.ErrClosed)
	}
	states := j.model.jointStates()
	states[j.desc.Name] = scenario.JointState{
		Position: position,
		Velocity: velocity,
	}
	j.model.setJointStates(states)
	return nil
}

// applyForce applies the joint's force target to the bodies it
// connects, equal and opposite
func (j *Joint) applyForce() {
	if j.mode != scenario.Force || j.force == 0 {
		return
	}
	parent := j.model.body(j.desc.Parent)
	child := j.model.body(j.desc.Child)
	dynamicParent := j.desc.Parent != scenario.WorldFrame

	if j.desc.Type == scenario.Prismatic {
		axis := j.axis(j.model.linkState(j.desc.Parent))
		force := box2d.MakeB2Vec2(axis.X*j.force, axis.Y*j.force)
		child.ApplyForceToCenter(force, true)
		if dynamicParent {
			parent.ApplyForceToCenter(box2d.MakeB2Vec2(-force.X, -force.Y),
				true)
		}
		return
	}

	child.ApplyTorque(j.force, true)
	if dynamicParent {
		parent.ApplyTorque(-j.force, true)
	}
}

func add(p, q r2.Vec) r2.Vec {
	return r2.Vec{X: p.X + q.X, Y: p.Y + q.Y}
}

func sub(p, q r2.Vec) r2.Vec {
	return r2.Vec{X: p.X - q.X, Y: p.Y - q.Y}
}

func dot(p, q r2.Vec) float64 {
	return p.X*q.X + p.Y*q.Y
}

func unit(p r2.Vec) r2.Vec {
	norm := math.Hypot(p.X, p.Y)
	if norm == 0 {
		return p
	}
	return r2.Vec{X: p.X / norm, Y: p.Y / norm}
}

func rotate(p r2.Vec, angle float64) r2.Vec {
	sin, cos := math.Sincos(angle)
	return r2.Vec{X: cos*p.X - sin*p.Y, Y: sin*p.X + cos*p.Y}
}

func cross(w float64, r r2.Vec) r2.Vec {
	return r2.Vec{X: -w * r.Y, Y: w * r.X}
}
