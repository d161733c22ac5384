package scenario_test

import (
	"math"
	"testing"

	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{math.Pi, -math.Pi},
		{-math.Pi, -math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{4*math.Pi + 0.1, 0.1},
	}
	for _, test := range tests {
		assert.InDelta(t, test.want, scenario.WrapAngle(test.in), 1e-9,
			"wrap(%v)", test.in)
	}
}

func TestOptionsValidate(t *testing.T) {
	valid := scenario.Options{StepSize: 0.001, StepsPerRun: 1,
		RealTimeFactor: math.Inf(1)}
	assert.NoError(t, valid.Validate())

	for _, opts := range []scenario.Options{
		{StepSize: 0, StepsPerRun: 1, RealTimeFactor: 1},
		{StepSize: 0.01, StepsPerRun: 0, RealTimeFactor: 1},
		{StepSize: 0.01, StepsPerRun: 1, RealTimeFactor: 0},
		{StepSize: math.NaN(), StepsPerRun: 1, RealTimeFactor: 1},
	} {
		assert.Error(t, opts.Validate(), "%+v", opts)
	}
}

func TestOpenUnknownEngine(t *testing.T) {
	_, err := scenario.Open("bullet", scenario.Options{StepSize: 0.01,
		StepsPerRun: 1, RealTimeFactor: 1})
	assert.ErrorIs(t, err, scenario.ErrUnknownEngine)
}

func TestParseDescription(t *testing.T) {
	desc := models.CartPole()
	data, err := desc.Marshal()
	require.NoError(t, err)

	parsed, err := scenario.ParseDescription(data)
	require.NoError(t, err)
	assert.Equal(t, desc, parsed)

	pole, ok := parsed.Link("pole")
	require.True(t, ok)
	assert.Equal(t, 1.0, pole.Length())

	pivot, ok := parsed.Joint("pivot")
	require.True(t, ok)
	assert.True(t, pivot.Continuous())
}

func TestParseDescriptionUnknownField(t *testing.T) {
	_, err := scenario.ParseDescription([]byte("name: x\ncolour: red\n"))
	assert.ErrorIs(t, err, scenario.ErrInvalidDescription)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(d *scenario.ModelDescription){
		"no name":       func(d *scenario.ModelDescription) { d.Name = "" },
		"zero mass":     func(d *scenario.ModelDescription) { d.Links[0].Mass = 0 },
		"negative size": func(d *scenario.ModelDescription) { d.Links[1].Size[1] = -1 },
		"unknown child": func(d *scenario.ModelDescription) { d.Joints[1].Child = "arm" },
		"bad type":      func(d *scenario.ModelDescription) { d.Joints[0].Type = "ball" },
		"no axis": func(d *scenario.ModelDescription) {
			d.Joints[0].Axis = [2]float64{}
		},
		"parent after child": func(d *scenario.ModelDescription) {
			d.Joints[0], d.Joints[1] = d.Joints[1], d.Joints[0]
		},
		"unattached link": func(d *scenario.ModelDescription) {
			d.Joints = d.Joints[:1]
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			desc := models.CartPole()
			mutate(&desc)
			assert.ErrorIs(t, desc.Validate(), scenario.ErrInvalidDescription)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	desc := models.CartPole()
	desc.Joints[0].Limits = &scenario.Limits{Lower: -1, Upper: 1}

	clone := desc.Clone()
	clone.Links[0].Mass = 42
	clone.Joints[0].Limits.Upper = 2

	assert.Equal(t, 1.0, desc.Links[0].Mass)
	assert.Equal(t, 1.0, desc.Joints[0].Limits.Upper)
}

func TestForwardKinematicsPendulum(t *testing.T) {
	desc := models.Pendulum()

	links := scenario.ForwardKinematics(desc, scenario.Pose{}, map[string]scenario.JointState{
		"pivot": {Position: math.Pi / 2, Velocity: 2},
	})
	pole := links["pole"]

	// A quarter turn counter clockwise points the pole along -x
	assert.InDelta(t, -0.5, pole.Position.X, 1e-12)
	assert.InDelta(t, 0.0, pole.Position.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, pole.Angle, 1e-12)
	assert.InDelta(t, 2.0, pole.AngularVelocity, 1e-12)

	// v = ω × r with r = (-0.5, 0)
	assert.InDelta(t, 0.0, pole.LinearVelocity.X, 1e-12)
	assert.InDelta(t, -1.0, pole.LinearVelocity.Y, 1e-12)
}

func TestForwardKinematicsCartPole(t *testing.T) {
	desc := models.CartPole()
	pose := scenario.Pose{}
	pose.Position.Y = 1

	links := scenario.ForwardKinematics(desc, pose, map[string]scenario.JointState{
		"linear": {Position: 2, Velocity: 1},
	})

	assert.InDelta(t, 2.0, links["cart"].Position.X, 1e-12)
	assert.InDelta(t, 1.0, links["cart"].Position.Y, 1e-12)
	assert.InDelta(t, 1.0, links["cart"].LinearVelocity.X, 1e-12)

	// The pole rides upright on the cart
	assert.InDelta(t, 2.0, links["pole"].Position.X, 1e-12)
	assert.InDelta(t, 1.5, links["pole"].Position.Y, 1e-12)
	assert.InDelta(t, 1.0, links["pole"].LinearVelocity.X, 1e-12)
}
