package box2d

import (
	"math"
	"testing"

	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T) (*Simulator, scenario.World) {
	t.Helper()
	sim, err := New(scenario.Options{
		StepSize:       0.001,
		StepsPerRun:    10,
		RealTimeFactor: math.MaxFloat64,
	})
	require.NoError(t, err)
	require.NoError(t, sim.Initialize())
	t.Cleanup(func() { sim.Close() })

	world, err := sim.World()
	require.NoError(t, err)
	return sim, world
}

func TestEngineRegistered(t *testing.T) {
	assert.Contains(t, scenario.Engines(), scenario.Box2D)
}

func TestJointResetRoundTrip(t *testing.T) {
	_, world := newTestWorld(t)
	require.NoError(t, world.InsertModel(models.CartPole(), scenario.Pose{}, ""))
	model, err := world.Model("cartpole")
	require.NoError(t, err)
	assert.Equal(t, []string{"linear", "pivot"}, model.JointNames())

	linear, _ := model.Joint("linear")
	pivot, _ := model.Joint("pivot")

	require.NoError(t, linear.Reset(0.5, -0.25))
	require.NoError(t, pivot.Reset(math.Pi-0.3, 1.5))

	assert.InDelta(t, 0.5, linear.Position(), 1e-9)
	assert.InDelta(t, -0.25, linear.Velocity(), 1e-9)
	assert.InDelta(t, math.Pi-0.3, pivot.Position(), 1e-9)
	assert.InDelta(t, 1.5, pivot.Velocity(), 1e-9)
}

func TestPendulumFalls(t *testing.T) {
	sim, world := newTestWorld(t)
	require.NoError(t, world.InsertModel(models.Pendulum(), scenario.Pose{}, ""))
	model, _ := world.Model("pendulum")
	pivot, _ := model.Joint("pivot")

	require.NoError(t, pivot.Reset(0.2, 0))
	for i := 0; i < 20; i++ {
		require.NoError(t, sim.Run(false))
	}
	assert.Greater(t, pivot.Position(), 0.2)
	assert.Greater(t, pivot.Velocity(), 0.0)
	assert.InDelta(t, 0.2, sim.Time(), 1e-9)
}

func TestCartForce(t *testing.T) {
	sim, world := newTestWorld(t)
	require.NoError(t, world.InsertModel(models.CartPole(), scenario.Pose{}, ""))
	model, _ := world.Model("cartpole")
	linear, _ := model.Joint("linear")

	assert.ErrorIs(t, linear.SetGeneralizedForceTarget(5),
		scenario.ErrControlMode)
	require.NoError(t, linear.SetControlMode(scenario.Force))
	require.NoError(t, linear.SetGeneralizedForceTarget(20))
	for i := 0; i < 10; i++ {
		require.NoError(t, sim.Run(false))
	}
	assert.Greater(t, linear.Position(), 0.0)
	assert.Greater(t, linear.Velocity(), 0.0)
}

func TestRemoveAndClose(t *testing.T) {
	sim, world := newTestWorld(t)
	require.NoError(t, world.InsertModel(models.Pendulum(), scenario.Pose{}, "a"))
	require.NoError(t, world.InsertModel(models.Pendulum(), scenario.Pose{}, "b"))
	assert.Equal(t, []string{"a", "b"}, world.ModelNames())

	require.NoError(t, world.RemoveModel("a"))
	assert.Equal(t, []string{"b"}, world.ModelNames())

	require.NoError(t, sim.Close())
	assert.ErrorIs(t, sim.Run(true), scenario.ErrClosed)
	assert.ErrorIs(t, world.InsertModel(models.Pendulum(), scenario.Pose{}, ""),
		scenario.ErrClosed)
}
