package pendulum

import (
	"math"
	"testing"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/samuelfneumann/simgym/scenario/analytic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// newTestTask returns a SwingUp task acting on a pendulum in a fresh
// analytic world, along with the pendulum's pivot
func newTestTask(t *testing.T) (*SwingUp, scenario.Joint) {
	t.Helper()
	sim, err := analytic.New(scenario.Options{StepSize: 0.001,
		StepsPerRun: 1, RealTimeFactor: math.Inf(1)})
	require.NoError(t, err)
	require.NoError(t, sim.Initialize())
	world, err := sim.World()
	require.NoError(t, err)

	name, err := models.Insert(world, models.Pendulum(), scenario.Pose{})
	require.NoError(t, err)

	task := NewSwingUp(1000, name)
	task.SetWorld(world)
	task.SeedTask(1)

	model, _ := world.Model(name)
	pivot, err := model.Joint(JointName)
	require.NoError(t, err)
	return task, pivot
}

func TestObservationWithinBounds(t *testing.T) {
	_, observation := NewSwingUp(1000, "").CreateSpaces()
	for th := -math.Pi; th <= math.Pi; th += math.Pi / 64 {
		obs := Observation(th, 0)
		assert.LessOrEqual(t, math.Abs(obs.AtVec(0)), 1.0)
		assert.LessOrEqual(t, math.Abs(obs.AtVec(1)), 1.0)
		assert.True(t, observation.Contains(obs), "θ = %v", th)
		assert.InDelta(t, th, Angle(obs), 1e-9)
	}
}

func TestTerminatedIsBoundaryInclusive(t *testing.T) {
	task, pivot := newTestTask(t)

	require.NoError(t, pivot.Reset(0.3, MaxSpeed))
	done, err := task.Terminated()
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, pivot.Reset(0.3, -MaxSpeed))
	done, err = task.Terminated()
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, pivot.Reset(0.3, MaxSpeed+1e-6))
	done, err = task.Terminated()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestCostIsMonotone(t *testing.T) {
	base := Cost(0.5, 1, 2, false)
	for _, delta := range []float64{0.1, 1, 10} {
		assert.GreaterOrEqual(t, Cost(0.5+delta, 1, 2, false), base)
		assert.GreaterOrEqual(t, Cost(-0.5-delta, 1, 2, false), base)
		assert.GreaterOrEqual(t, Cost(0.5, 1+delta, 2, false), base)
		assert.GreaterOrEqual(t, Cost(0.5, -1-delta, 2, false), base)
		assert.GreaterOrEqual(t, Cost(0.5, 1, 2+delta, false), base)
		assert.GreaterOrEqual(t, Cost(0.5, 1, -2-delta, false), base)
	}
	assert.Equal(t, base+TerminalCost, Cost(0.5, 1, 2, true))
	assert.Equal(t, 0.0, Cost(0, 0, 0, false))
}

func TestReward(t *testing.T) {
	task, pivot := newTestTask(t)
	require.NoError(t, task.ResetTask())
	require.NoError(t, pivot.Reset(0.5, 2))
	require.NoError(t, task.SetAction(mat.NewVecDense(1, []float64{10})))

	reward, err := task.Reward()
	require.NoError(t, err)
	assert.InDelta(t, -(0.25 + 0.4 + 0.1), reward, 1e-12)

	// Leaving the observation space adds the terminal penalty
	require.NoError(t, pivot.Reset(0.5, 20))
	reward, err = task.Reward()
	require.NoError(t, err)
	assert.InDelta(t, -(TerminalCost + 0.25 + 40 + 0.1), reward, 1e-12)
}

func TestSetActionClips(t *testing.T) {
	task, pivot := newTestTask(t)
	require.NoError(t, task.ResetTask())

	require.NoError(t, task.SetAction(mat.NewVecDense(1, []float64{1000})))
	assert.Equal(t, MaxTorque, pivot.GeneralizedForceTarget())

	require.NoError(t, task.SetAction(mat.NewVecDense(1, []float64{-1000})))
	assert.Equal(t, -MaxTorque, pivot.GeneralizedForceTarget())

	err := task.SetAction(mat.NewVecDense(2, nil))
	assert.ErrorIs(t, err, environment.ErrActuation)
}

func TestSetActionRequiresForceMode(t *testing.T) {
	task, pivot := newTestTask(t)
	require.NoError(t, pivot.SetControlMode(scenario.Idle))

	err := task.SetAction(mat.NewVecDense(1, []float64{1}))
	assert.ErrorIs(t, err, environment.ErrActuation)
}

func TestResetTaskWithoutModel(t *testing.T) {
	task, _ := newTestTask(t)
	world, err := task.World()
	require.NoError(t, err)
	require.NoError(t, world.RemoveModel(task.ModelName()))

	assert.ErrorIs(t, task.ResetTask(), environment.ErrConfiguration)
}

func TestResetTaskIsSeeded(t *testing.T) {
	task, pivot := newTestTask(t)

	task.SeedTask(42)
	require.NoError(t, task.ResetTask())
	first := []float64{pivot.Position(), pivot.Velocity()}

	task.SeedTask(42)
	require.NoError(t, task.ResetTask())
	assert.Equal(t, first, []float64{pivot.Position(), pivot.Velocity()})

	obs, err := task.Observation()
	require.NoError(t, err)
	_, observation := task.CreateSpaces()
	assert.True(t, observation.Contains(obs))
}
