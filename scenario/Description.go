package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// WorldFrame is the name of the implicit, static parent of all root
// joints
const WorldFrame = "world"

// ModelDescription describes a planar articulated model as a tree of
// links connected by joints. At the zero configuration the centre of
// each link sits at the anchor of the joint that connects it to its
// parent, displaced by the link's Offset. All coordinates are in the
// model frame, which is placed in the world by a Pose on insertion.
type ModelDescription struct {
	Name   string             `yaml:"name"`
	Kind   string             `yaml:"kind,omitempty"`
	Links  []LinkDescription  `yaml:"links"`
	Joints []JointDescription `yaml:"joints"`
}

// LinkDescription describes a rigid rectangular link
type LinkDescription struct {
	Name string  `yaml:"name"`
	Mass float64 `yaml:"mass"`

	// Size is the width and height of the link
	Size [2]float64 `yaml:"size"`

	// Offset is the link centre relative to its parent joint's anchor
	// at the zero configuration
	Offset [2]float64 `yaml:"offset"`
}

// Length returns the height of the link
func (l LinkDescription) Length() float64 {
	return l.Size[1]
}

// Limits bound the generalized coordinate of a joint
type Limits struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// JointDescription describes a joint connecting a parent link (or the
// world) to a child link
type JointDescription struct {
	Name   string    `yaml:"name"`
	Type   JointType `yaml:"type"`
	Parent string    `yaml:"parent"`
	Child  string    `yaml:"child"`

	// Anchor is the joint origin in the model frame at the zero
	// configuration
	Anchor [2]float64 `yaml:"anchor"`

	// Axis is the direction of translation of prismatic joints
	Axis [2]float64 `yaml:"axis,omitempty"`

	Limits *Limits `yaml:"limits,omitempty"`
}

// Continuous returns whether the joint is an unlimited revolute joint
func (j JointDescription) Continuous() bool {
	return j.Type == Revolute && j.Limits == nil
}

// LoadDescription reads a YAML model description from a file
func LoadDescription(path string) (ModelDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelDescription{}, fmt.Errorf("loadDescription: could not "+
			"read file: %w", err)
	}
	return ParseDescription(data)
}

// ParseDescription decodes and validates a YAML model description
func ParseDescription(data []byte) (ModelDescription, error) {
	var desc ModelDescription
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&desc); err != nil {
		return ModelDescription{}, fmt.Errorf("parseDescription: %w: %v",
			ErrInvalidDescription, err)
	}

	if err := desc.Validate(); err != nil {
		return ModelDescription{}, fmt.Errorf("parseDescription: %w", err)
	}
	return desc, nil
}

// Marshal encodes the description as YAML
func (m ModelDescription) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// Clone returns a deep copy of the description
func (m ModelDescription) Clone() ModelDescription {
	clone := m
	clone.Links = append([]LinkDescription(nil), m.Links...)
	clone.Joints = make([]JointDescription, len(m.Joints))
	for i, joint := range m.Joints {
		clone.Joints[i] = joint
		if joint.Limits != nil {
			limits := *joint.Limits
			clone.Joints[i].Limits = &limits
		}
	}
	return clone
}

// Link returns the description of the link called name
func (m ModelDescription) Link(name string) (LinkDescription, bool) {
	for _, link := range m.Links {
		if link.Name == name {
			return link, true
		}
	}
	return LinkDescription{}, false
}

// Joint returns the description of the joint called name
func (m ModelDescription) Joint(name string) (JointDescription, bool) {
	for _, joint := range m.Joints {
		if joint.Name == name {
			return joint, true
		}
	}
	return JointDescription{}, false
}

// Validate returns an error wrapping ErrInvalidDescription if the
// description does not describe a tree of links with positive mass and
// size rooted at the world.
func (m ModelDescription) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("validate: %w: model has no name",
			ErrInvalidDescription)
	}
	if len(m.Links) == 0 {
		return fmt.Errorf("validate: %w: model %q has no links",
			ErrInvalidDescription, m.Name)
	}

	links := make(map[string]bool, len(m.Links))
	for _, link := range m.Links {
		if link.Name == "" || link.Name == WorldFrame {
			return fmt.Errorf("validate: %w: illegal link name %q",
				ErrInvalidDescription, link.Name)
		}
		if links[link.Name] {
			return fmt.Errorf("validate: %w: duplicate link %q",
				ErrInvalidDescription, link.Name)
		}
		if !(link.Mass > 0) || math.IsInf(link.Mass, 0) {
			return fmt.Errorf("validate: %w: link %q must have positive "+
				"finite mass, got %v", ErrInvalidDescription, link.Name,
				link.Mass)
		}
		if !(link.Size[0] > 0) || !(link.Size[1] > 0) {
			return fmt.Errorf("validate: %w: link %q must have positive "+
				"size, got %v", ErrInvalidDescription, link.Name, link.Size)
		}
		links[link.Name] = true
	}

	joints := make(map[string]bool, len(m.Joints))
	parented := make(map[string]bool, len(m.Links))
	placed := map[string]bool{WorldFrame: true}
	for _, joint := range m.Joints {
		if joint.Name == "" || joints[joint.Name] {
			return fmt.Errorf("validate: %w: illegal or duplicate joint "+
				"name %q", ErrInvalidDescription, joint.Name)
		}
		joints[joint.Name] = true

		switch joint.Type {
		case Revolute:
		case Prismatic:
			if joint.Axis[0] == 0 && joint.Axis[1] == 0 {
				return fmt.Errorf("validate: %w: prismatic joint %q has no "+
					"axis", ErrInvalidDescription, joint.Name)
			}
		default:
			return fmt.Errorf("validate: %w: joint %q has unknown type %q",
				ErrInvalidDescription, joint.Name, joint.Type)
		}

		if !links[joint.Child] {
			return fmt.Errorf("validate: %w: joint %q has unknown child %q",
				ErrInvalidDescription, joint.Name, joint.Child)
		}
		if parented[joint.Child] {
			return fmt.Errorf("validate: %w: link %q has more than one "+
				"parent joint", ErrInvalidDescription, joint.Child)
		}

		// Joints are listed parent first so that configurations can be
		// propagated down the tree in order
		if !placed[joint.Parent] {
			return fmt.Errorf("validate: %w: joint %q references parent "+
				"%q before it is attached", ErrInvalidDescription,
				joint.Name, joint.Parent)
		}
		if joint.Limits != nil && joint.Limits.Lower > joint.Limits.Upper {
			return fmt.Errorf("validate: %w: joint %q has empty limits",
				ErrInvalidDescription, joint.Name)
		}
		parented[joint.Child] = true
		placed[joint.Child] = true
	}

	for name := range links {
		if !parented[name] {
			return fmt.Errorf("validate: %w: link %q is not attached by any "+
				"joint", ErrInvalidDescription, name)
		}
	}
	return nil
}
