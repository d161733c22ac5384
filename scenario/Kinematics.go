package scenario

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// LinkState is the planar pose and velocity of a link's centre in the
// world frame
type LinkState struct {
	Position        r2.Vec
	Angle           float64
	LinearVelocity  r2.Vec
	AngularVelocity float64
}

// JointState is the generalized coordinate and velocity of a joint
type JointState struct {
	Position float64
	Velocity float64
}

// ForwardKinematics computes the world-frame state of every link of
// desc placed at pose, given the state of each joint. Joints missing
// from joints are taken to be at zero. The world frame is static.
func ForwardKinematics(desc ModelDescription, pose Pose,
	joints map[string]JointState) map[string]LinkState {
	states := make(map[string]LinkState, len(desc.Links)+1)
	states[WorldFrame] = LinkState{}

	// Zero-configuration link centres in the model frame, used to
	// express each joint anchor relative to its parent link
	zero := make(map[string]r2.Vec, len(desc.Links)+1)
	zero[WorldFrame] = r2.Vec{}

	for _, joint := range desc.Joints {
		link, _ := desc.Link(joint.Child)
		anchor := vec(joint.Anchor)
		zero[joint.Child] = add(anchor, vec(link.Offset))

		parent := states[joint.Parent]
		state := joints[joint.Name]

		var anchorWorld r2.Vec
		if joint.Parent == WorldFrame {
			anchorWorld = add(pose.Position, rotate(anchor, pose.Angle))
		} else {
			local := sub(anchor, zero[joint.Parent])
			anchorWorld = add(parent.Position, rotate(local, parent.Angle))
		}
		frame := parent.Angle
		if joint.Parent == WorldFrame {
			frame = pose.Angle
		}

		// Velocity of the anchor point, which is fixed to the parent
		anchorVel := add(parent.LinearVelocity,
			cross(parent.AngularVelocity, sub(anchorWorld, parent.Position)))

		var child LinkState
		switch joint.Type {
		case Prismatic:
			axis := rotate(unit(vec(joint.Axis)), frame)
			child.Angle = frame
			child.AngularVelocity = parent.AngularVelocity
			origin := add(anchorWorld, scale(state.Position, axis))
			child.Position = add(origin, rotate(vec(link.Offset), child.Angle))
			child.LinearVelocity = add(
				add(anchorVel, scale(state.Velocity, axis)),
				cross(parent.AngularVelocity, sub(child.Position, anchorWorld)),
			)

		default:
			child.Angle = frame + state.Position
			child.AngularVelocity = parent.AngularVelocity + state.Velocity
			child.Position = add(anchorWorld, rotate(vec(link.Offset),
				child.Angle))
			child.LinearVelocity = add(anchorVel,
				cross(child.AngularVelocity, sub(child.Position, anchorWorld)))
		}
		states[joint.Child] = child
	}

	delete(states, WorldFrame)
	return states
}

func vec(v [2]float64) r2.Vec {
	return r2.Vec{X: v[0], Y: v[1]}
}

func add(p, q r2.Vec) r2.Vec {
	return r2.Vec{X: p.X + q.X, Y: p.Y + q.Y}
}

func sub(p, q r2.Vec) r2.Vec {
	return r2.Vec{X: p.X - q.X, Y: p.Y - q.Y}
}

func scale(f float64, p r2.Vec) r2.Vec {
	return r2.Vec{X: f * p.X, Y: f * p.Y}
}

func unit(p r2.Vec) r2.Vec {
	norm := math.Hypot(p.X, p.Y)
	if norm == 0 {
		return p
	}
	return scale(1/norm, p)
}

func rotate(p r2.Vec, angle float64) r2.Vec {
	sin, cos := math.Sincos(angle)
	return r2.Vec{X: cos*p.X - sin*p.Y, Y: sin*p.X + cos*p.Y}
}

// cross returns the planar cross product of an angular velocity w with
// a vector r
func cross(w float64, r r2.Vec) r2.Vec {
	return r2.Vec{X: -w * r.Y, Y: w * r.X}
}
