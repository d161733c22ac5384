package cartpole

import (
	"math"
	"testing"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/samuelfneumann/simgym/scenario/analytic"
	"github.com/samuelfneumann/simgym/utils/floatutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// newTestWorld returns a fresh analytic world holding a cart-pole
func newTestWorld(t *testing.T) (scenario.World, string) {
	t.Helper()
	sim, err := analytic.New(scenario.Options{StepSize: 0.001,
		StepsPerRun: 1, RealTimeFactor: math.Inf(1)})
	require.NoError(t, err)
	require.NoError(t, sim.Initialize())
	world, err := sim.World()
	require.NoError(t, err)

	name, err := models.Insert(world, models.CartPole(), scenario.Pose{})
	require.NoError(t, err)
	return world, name
}

func joints(t *testing.T, world scenario.World, name string) (linear,
	pivot scenario.Joint) {
	t.Helper()
	model, err := world.Model(name)
	require.NoError(t, err)
	linear, err = model.Joint(LinearJoint)
	require.NoError(t, err)
	pivot, err = model.Joint(PivotJoint)
	require.NoError(t, err)
	return linear, pivot
}

func TestSwingupSpaces(t *testing.T) {
	task := NewContinuousSwingup(1000, "cartpole")
	action, observation := task.CreateSpaces()

	assert.Equal(t, []float64{-SwingupMaxForce, SwingupMaxForce},
		[]float64{action.Bounds()[0].Min, action.Bounds()[0].Max})

	thresholds := []float64{2.4, 20, floatutils.Deg2Rad(1800),
		floatutils.Deg2Rad(1080)}
	for i, bound := range observation.Bounds() {
		assert.InDelta(t, 1.2*thresholds[i], bound.Max, 1e-12)
		assert.InDelta(t, thresholds[i], task.ResetSpace().Bounds()[i].Max,
			1e-12)
	}
}

func TestSwingupReset(t *testing.T) {
	world, name := newTestWorld(t)
	task := NewContinuousSwingup(1000, name)
	task.SetWorld(world)
	task.SeedTask(3)

	for i := 0; i < 20; i++ {
		require.NoError(t, task.ResetTask())
		obs, err := task.Observation()
		require.NoError(t, err)

		assert.LessOrEqual(t, math.Abs(obs.AtVec(0)), StartBound)
		assert.LessOrEqual(t, math.Abs(obs.AtVec(1)), StartBound)
		assert.LessOrEqual(t, math.Abs(obs.AtVec(3)), StartBound)

		// The pole hangs within 60° of straight down
		assert.Less(t, math.Cos(obs.AtVec(2)), -0.5+1e-9)

		done, err := task.Terminated()
		require.NoError(t, err)
		assert.False(t, done)
	}
}

func TestSwingupReward(t *testing.T) {
	// Upright, still, centred
	assert.InDelta(t, 1.0, SwingupReward(0, 0, 0), 1e-12)

	// Hanging down
	assert.InDelta(t, 0.0, SwingupReward(0, 0, math.Pi), 1e-12)

	// Moving cart
	assert.InDelta(t, 1-0.1*4, SwingupReward(0, 2, 0), 1e-12)

	// Near the positive end of the rail
	edge := RailFraction * SwingupPositionThreshold
	assert.InDelta(t, 1-RailPenalty, SwingupReward(edge, 0, 0), 1e-12)
	assert.InDelta(t, 1-RailPenalty, SwingupReward(2.0, 0, 0), 1e-12)
	assert.InDelta(t, 1.0, SwingupReward(edge-1e-3, 0, 0), 1e-12)

	// The negative end is not penalized
	assert.InDelta(t, 1.0, SwingupReward(-edge, 0, 0), 1e-12)
	assert.InDelta(t, 1.0, SwingupReward(-2.0, 0, 0), 1e-12)
}

func TestSwingupTermination(t *testing.T) {
	world, name := newTestWorld(t)
	task := NewContinuousSwingup(1000, name)
	task.SetWorld(world)
	linear, _ := joints(t, world, name)

	require.NoError(t, linear.Reset(SwingupPositionThreshold, 0))
	done, err := task.Terminated()
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, linear.Reset(SwingupPositionThreshold+1e-6, 0))
	done, err = task.Terminated()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSwingupSetActionClips(t *testing.T) {
	world, name := newTestWorld(t)
	task := NewContinuousSwingup(1000, name)
	task.SetWorld(world)
	require.NoError(t, task.ResetTask())
	linear, _ := joints(t, world, name)

	require.NoError(t, task.SetAction(mat.NewVecDense(1, []float64{1e6})))
	assert.Equal(t, SwingupMaxForce, linear.GeneralizedForceTarget())

	err := task.SetAction(mat.NewVecDense(3, nil))
	assert.ErrorIs(t, err, environment.ErrActuation)
}

func TestBalancingRewardAndTermination(t *testing.T) {
	world, name := newTestWorld(t)
	task := NewContinuousBalancing(1000, name)
	task.SetWorld(world)
	require.NoError(t, task.ResetTask())
	_, pivot := joints(t, world, name)

	reward, err := task.Reward()
	require.NoError(t, err)
	assert.Equal(t, 1.0, reward)

	// Speeds are unbounded
	require.NoError(t, pivot.Reset(0, 1e9))
	done, err := task.Terminated()
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, pivot.Reset(BalancingAngleThreshold+1e-6, 0))
	done, err = task.Terminated()
	require.NoError(t, err)
	assert.True(t, done)

	reward, err = task.Reward()
	require.NoError(t, err)
	assert.Equal(t, 0.0, reward)
}

func TestDiscreteBalancingActions(t *testing.T) {
	world, name := newTestWorld(t)
	task := NewDiscreteBalancing(1000, name)
	task.SetWorld(world)
	require.NoError(t, task.ResetTask())
	linear, _ := joints(t, world, name)

	action, _ := task.CreateSpaces()
	assert.Equal(t, environment.Discrete, action.Cardinality)

	require.NoError(t, task.SetAction(mat.NewVecDense(1, []float64{PushLeft})))
	assert.Equal(t, -BalancingMaxForce, linear.GeneralizedForceTarget())

	require.NoError(t, task.SetAction(mat.NewVecDense(1, []float64{PushRight})))
	assert.Equal(t, BalancingMaxForce, linear.GeneralizedForceTarget())

	for _, illegal := range []float64{-1, 0.5, 2} {
		err := task.SetAction(mat.NewVecDense(1, []float64{illegal}))
		assert.ErrorIs(t, err, environment.ErrActuation)
	}
}

func TestTasksRequireModel(t *testing.T) {
	world, _ := newTestWorld(t)
	tasks := []environment.Task{
		NewContinuousSwingup(1000, "missing"),
		NewContinuousBalancing(1000, "missing"),
		NewDiscreteBalancing(1000, "missing"),
	}
	for _, task := range tasks {
		task.SetWorld(world)
		assert.ErrorIs(t, task.ResetTask(), environment.ErrConfiguration)
		_, err := task.Observation()
		assert.ErrorIs(t, err, environment.ErrConfiguration)
	}
}
