package pendulum

import (
	"testing"

	"github.com/samuelfneumann/simgym/environment/envs"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/randomizers/envrandomizer"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvRandomizerKeepsPendulum(t *testing.T) {
	env, err := NewEnvRandomizer(envrandomizer.FromID(envs.Pendulum),
		scenario.Analytic, registration.WithMaxEpisodeSteps(10))
	require.NoError(t, err)
	defer env.Close()

	session := env.Session()
	for i := 0; i < 3; i++ {
		_, err := env.Reset()
		require.NoError(t, err)

		task := env.Session().Task()
		world, err := task.World()
		require.NoError(t, err)
		assert.Equal(t, []string{models.PendulumKind}, world.ModelNames())
		assert.Equal(t, models.PendulumKind, task.ModelName())
	}
	assert.Same(t, session, env.Session())
}

func TestRandomizeTaskInsertsMissingPendulum(t *testing.T) {
	env, err := NewEnvRandomizer(envrandomizer.FromID(envs.Pendulum),
		scenario.Analytic)
	require.NoError(t, err)
	defer env.Close()

	task := env.Session().Task()
	world, err := task.World()
	require.NoError(t, err)
	require.NoError(t, world.RemoveModel(task.ModelName()))

	_, err = env.Reset()
	require.NoError(t, err)
	assert.True(t, scenario.HasModel(world, task.ModelName()))
}
