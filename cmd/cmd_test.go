package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/simgym/environment/envconfig"
	"github.com/samuelfneumann/simgym/environment/envs"
	"github.com/samuelfneumann/simgym/environment/wrappers"
	"github.com/samuelfneumann/simgym/experiment"
	"github.com/samuelfneumann/simgym/experiment/trackers"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestList(t *testing.T) {
	out := execute(t, "list")
	for _, id := range []string{
		envs.Pendulum,
		envs.CartPoleDiscreteBalancing,
		envs.CartPoleContinuousBalancing,
		envs.CartPoleContinuousSwingup,
	} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "analytic")
	assert.Contains(t, out, "box2d")
}

func TestRollout(t *testing.T) {
	dir := t.TempDir()
	returns := filepath.Join(dir, "returns.bin")
	lengths := filepath.Join(dir, "lengths.bin")

	execute(t, "rollout",
		"--log_level", "off",
		"--id", envs.CartPoleDiscreteBalancing,
		"--engine", "analytic",
		"--randomizer", "cartpole",
		"--physics-rollouts", "2",
		"--max-steps", "50",
		"--max-episode-steps", "10",
		"--seed", "3",
		"--progress",
		"--returns", returns,
		"--lengths", lengths,
	)

	savedLengths, err := trackers.LoadData[int](lengths)
	require.NoError(t, err)
	require.NotEmpty(t, savedLengths)
	for _, length := range savedLengths {
		assert.LessOrEqual(t, length, 10)
	}

	savedReturns, err := trackers.LoadData[float64](returns)
	require.NoError(t, err)
	assert.Len(t, savedReturns, len(savedLengths))
}

func TestConfigureLog(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	cfg := viper.New()
	cfg.Set(rootLogFormatKey, "json")
	cfg.Set(rootLogLevelKey, "debug")
	require.NoError(t, configureLog(cfg))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	cfg.Set(rootLogLevelKey, logLevelOff)
	require.NoError(t, configureLog(cfg))
	assert.Equal(t, logrus.PanicLevel, logrus.GetLevel())

	cfg.Set(rootLogLevelKey, "verbose")
	assert.Error(t, configureLog(cfg))

	cfg.Set(rootLogLevelKey, "info")
	cfg.Set(rootLogFormatKey, "xml")
	assert.Error(t, configureLog(cfg))
}

// replay is an experiment that is not an online experiment
type replay struct {
	experiment.Experiment
}

func TestTrackedEnvironment(t *testing.T) {
	_, err := trackedEnvironment(replay{}, false)
	assert.Error(t, err)

	cfg := experiment.Config{
		Type:     experiment.OnlineExp,
		MaxSteps: 10,
		EnvConf: envconfig.Config{
			ID:              envs.CartPoleDiscreteBalancing,
			Engine:          scenario.Analytic,
			MaxEpisodeSteps: 10,
		},
	}
	exp, err := cfg.CreateExp(1)
	require.NoError(t, err)
	defer exp.Close()

	tracked, err := trackedEnvironment(exp, false)
	require.NoError(t, err)
	assert.Same(t, exp.(*experiment.Online).Environment, tracked)

	cfg.EnvConf.AverageReward = &envconfig.AverageRewardConfig{
		LearningRate: 0.1,
	}
	averaged, err := cfg.CreateExp(1)
	require.NoError(t, err)
	defer averaged.Close()

	tracked, err = trackedEnvironment(averaged, true)
	require.NoError(t, err)
	_, ok := tracked.(*wrappers.AverageReward)
	assert.False(t, ok)
	assert.Same(t, averaged.(*experiment.Online).Environment.(
		*wrappers.AverageReward).Unwrapped(), tracked)
}
