package cartpole

import (
	"math"
	"testing"

	"github.com/samuelfneumann/simgym/environment"
	cartpoletask "github.com/samuelfneumann/simgym/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/simgym/environment/envs"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/randomizers"
	"github.com/samuelfneumann/simgym/randomizers/envrandomizer"
	"github.com/samuelfneumann/simgym/randomizers/model"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	_ randomizers.PhysicsRandomizer          = &Randomizer{}
	_ randomizers.TaskRandomizer             = &Randomizer{}
	_ randomizers.ModelDescriptionRandomizer = &Randomizer{}
)

func TestRandomizeModelDescription(t *testing.T) {
	r, err := New(scenario.Analytic, 0)
	require.NoError(t, err)

	task := cartpoletask.NewContinuousBalancing(1000, "")
	task.SeedTask(1)

	original := models.CartPole()
	changed := false
	for i := 0; i < 20; i++ {
		desc, err := r.RandomizeModelDescription(task)
		require.NoError(t, err)

		for _, link := range desc.Links {
			orig, ok := original.Link(link.Name)
			require.True(t, ok)
			assert.GreaterOrEqual(t, link.Mass, model.MinPositive)
			assert.LessOrEqual(t, link.Mass, orig.Mass+MassHigh)
			assert.GreaterOrEqual(t, link.Mass,
				math.Max(orig.Mass+MassLow, model.MinPositive))
			changed = changed || link.Mass != orig.Mass
		}
	}
	assert.True(t, changed)
}

func TestRandomizeModelDescriptionReproducible(t *testing.T) {
	sample := func() []scenario.ModelDescription {
		r, err := New(scenario.Analytic, 0)
		require.NoError(t, err)
		task := cartpoletask.NewContinuousBalancing(1000, "")
		task.SeedTask(5)

		var descs []scenario.ModelDescription
		for i := 0; i < 5; i++ {
			desc, err := r.RandomizeModelDescription(task)
			require.NoError(t, err)
			descs = append(descs, desc)
		}
		return descs
	}
	assert.Equal(t, sample(), sample())
}

func TestEnvRandomizer(t *testing.T) {
	env, err := NewEnvRandomizer(
		envrandomizer.FromID(envs.CartPoleContinuousBalancing),
		scenario.Analytic, 2, registration.WithMaxEpisodeSteps(20))
	require.NoError(t, err)
	defer env.Close()
	_, err = env.Seed(3)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		step, err := env.Reset()
		require.NoError(t, err)
		assert.True(t, env.ObservationSpec().Contains(step.Observation))

		// The cart-pole is replaced, never duplicated
		task := env.Session().Task()
		world, err := task.World()
		require.NoError(t, err)
		assert.Equal(t, []string{task.ModelName()}, world.ModelNames())

		gravity := world.Gravity()
		assert.Equal(t, 0.0, gravity.X)
		assert.InDelta(t, GravityMean, gravity.Y, 10*GravityStdDev)

		_, _, err = env.Step(mat.NewVecDense(1, []float64{1}))
		require.NoError(t, err)
	}
}

func TestRandomizeTaskRequiresWorld(t *testing.T) {
	r, err := New(scenario.Analytic, 0)
	require.NoError(t, err)

	task := cartpoletask.NewDiscreteBalancing(1000, "")
	err = r.RandomizeTask(task, nil)
	assert.ErrorIs(t, err, environment.ErrConfiguration)
}

func TestEnvRandomizerReproducible(t *testing.T) {
	type rollout struct {
		Gravity      float64
		Observations []mat.Vector
		Rewards      []float64
	}

	run := func(physicsRollouts int) []rollout {
		env, err := NewEnvRandomizer(
			envrandomizer.FromID(envs.CartPoleContinuousBalancing),
			scenario.Analytic, physicsRollouts,
			registration.WithMaxEpisodeSteps(10))
		require.NoError(t, err)
		defer env.Close()
		_, err = env.Seed(42)
		require.NoError(t, err)

		var rollouts []rollout
		for i := 0; i < 5; i++ {
			step, err := env.Reset()
			require.NoError(t, err)

			world, err := env.Session().Simulator().World()
			require.NoError(t, err)
			r := rollout{
				Gravity:      world.Gravity().Y,
				Observations: []mat.Vector{step.Observation},
			}

			for j := 0; j < 5 && !step.Last(); j++ {
				action := mat.NewVecDense(1, []float64{float64(j%3) - 1})
				step, _, err = env.Step(action)
				require.NoError(t, err)
				r.Observations = append(r.Observations, step.Observation)
				r.Rewards = append(r.Rewards, step.Reward)
			}
			rollouts = append(rollouts, r)
		}
		return rollouts
	}

	for _, physicsRollouts := range []int{0, 2} {
		first, second := run(physicsRollouts), run(physicsRollouts)
		require.Len(t, first, len(second))
		for i := range first {
			assert.Equal(t, first[i].Gravity, second[i].Gravity,
				"rollout %d, physics rollouts %d", i, physicsRollouts)
			assert.Equal(t, first[i].Rewards, second[i].Rewards)
			require.Len(t, first[i].Observations, len(second[i].Observations))
			for j := range first[i].Observations {
				assert.True(t, mat.Equal(first[i].Observations[j],
					second[i].Observations[j]), "rollout %d, step %d", i, j)
			}
		}
	}
}
