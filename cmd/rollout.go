package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/envconfig"
	"github.com/samuelfneumann/simgym/experiment"
	"github.com/samuelfneumann/simgym/experiment/trackers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

// rolloutViper represents the configuration of the `simgym rollout`
// command. Keys of the experiment configuration are nested the way a
// configuration file nests them.
var rolloutViper = newViper()

const (
	rolloutConfigKey      = "config"
	rolloutSeedKey        = "seed"
	rolloutReturnsKey     = "returns"
	rolloutLengthsKey     = "lengths"
	rolloutMetricsAddrKey = "metrics-addr"
	rolloutProgressKey    = "progress"

	rolloutTypeKey            = "type"
	rolloutMaxStepsKey        = "max_steps"
	rolloutIDKey              = "environment.id"
	rolloutEngineKey          = "environment.engine"
	rolloutMaxEpisodeStepsKey = "environment.max_episode_steps"
	rolloutRandomizerKey      = "environment.randomizer"
	rolloutPhysicsRolloutsKey = "environment.physics_rollouts"
)

func init() {
	defaults := envconfig.Default()
	rolloutViper.SetDefault(rolloutTypeKey, string(experiment.OnlineExp))
	rolloutViper.SetDefault(rolloutIDKey, defaults.ID)
	rolloutViper.SetDefault(rolloutEngineKey, string(defaults.Engine))
	rolloutViper.SetDefault(rolloutMaxEpisodeStepsKey, defaults.MaxEpisodeSteps)
	rolloutViper.SetDefault(rolloutRandomizerKey, string(defaults.Randomizer))
	rolloutViper.SetDefault(rolloutPhysicsRolloutsKey, 0)
	rolloutViper.SetDefault(rolloutMaxStepsKey, 10_000)
	rolloutViper.SetDefault(rolloutSeedKey, 0)

	flags := rolloutCmd.Flags()
	flags.String(rolloutConfigKey, "",
		"Experiment configuration file (yaml or json)")
	flags.Uint64(rolloutSeedKey, 0, "Seed of the environment and agent")
	flags.Uint("max-steps", 10_000, "Number of steps to run")
	flags.String("id", defaults.ID, "ID of the registered environment")
	flags.String("engine", string(defaults.Engine), "Physics engine")
	flags.Int("max-episode-steps", defaults.MaxEpisodeSteps,
		"Maximum number of steps in an episode, 0 for no limit")
	flags.String("randomizer", string(defaults.Randomizer), fmt.Sprintf(
		"Domain randomization as one of %v", []envconfig.Randomization{
			envconfig.NoRandomization,
			envconfig.CartPoleRandomization,
			envconfig.PendulumRandomization,
		}))
	flags.Int("physics-rollouts", 0,
		"Rollouts after which randomized physics expire, 0 for never")
	flags.String(rolloutReturnsKey, "",
		"File to save episodic returns to")
	flags.String(rolloutLengthsKey, "",
		"File to save episode lengths to")
	flags.String(rolloutMetricsAddrKey, "",
		"Address to serve Prometheus metrics on, e.g. :9090")

	flags.Bool(rolloutProgressKey, false, "Display a progress bar")

	// Don't sort alphabetically, keep insertion order
	flags.SortFlags = false

	_ = rolloutViper.BindPFlag(rolloutConfigKey, flags.Lookup(rolloutConfigKey))
	_ = rolloutViper.BindPFlag(rolloutSeedKey, flags.Lookup(rolloutSeedKey))
	_ = rolloutViper.BindPFlag(rolloutMaxStepsKey, flags.Lookup("max-steps"))
	_ = rolloutViper.BindPFlag(rolloutIDKey, flags.Lookup("id"))
	_ = rolloutViper.BindPFlag(rolloutEngineKey, flags.Lookup("engine"))
	_ = rolloutViper.BindPFlag(rolloutMaxEpisodeStepsKey,
		flags.Lookup("max-episode-steps"))
	_ = rolloutViper.BindPFlag(rolloutRandomizerKey, flags.Lookup("randomizer"))
	_ = rolloutViper.BindPFlag(rolloutPhysicsRolloutsKey,
		flags.Lookup("physics-rollouts"))
	_ = rolloutViper.BindPFlag(rolloutReturnsKey, flags.Lookup(rolloutReturnsKey))
	_ = rolloutViper.BindPFlag(rolloutLengthsKey, flags.Lookup(rolloutLengthsKey))
	_ = rolloutViper.BindPFlag(rolloutMetricsAddrKey,
		flags.Lookup(rolloutMetricsAddrKey))
	_ = rolloutViper.BindPFlag(rolloutProgressKey,
		flags.Lookup(rolloutProgressKey))
}

// rolloutConfig reads the experiment configuration from the config
// file, environment variables, and flags, in increasing precedence
func rolloutConfig() (experiment.Config, error) {
	if path := rolloutViper.GetString(rolloutConfigKey); path != "" {
		rolloutViper.SetConfigFile(path)
		if err := rolloutViper.ReadInConfig(); err != nil {
			return experiment.Config{}, fmt.Errorf("unable to read "+
				"configuration file %q: %w", path, err)
		}
	}

	var cfg experiment.Config
	if err := rolloutViper.Unmarshal(&cfg); err != nil {
		return experiment.Config{}, fmt.Errorf("unable to decode "+
			"configuration: %w", err)
	}
	return cfg, nil
}

// serveMetrics serves the default Prometheus registry on addr until
// ctx is done
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		log.WithField("address", addr).Info("Serving metrics")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
}

// trackedEnvironment returns the environment whose steps are tracked
// in exp. The rewards of the environment are tracked rather than the
// differential rewards of an average reward wrapper.
func trackedEnvironment(exp experiment.Experiment,
	averageReward bool) (environment.Environment, error) {
	online, ok := exp.(*experiment.Online)
	if !ok {
		return nil, fmt.Errorf("cannot track steps of experiment type %T",
			exp)
	}

	tracked := online.Environment
	if averageReward {
		wrapper, ok := tracked.(environment.Unwrapper)
		if !ok {
			return nil, fmt.Errorf("cannot track rewards of %T: not an "+
				"average reward wrapper", tracked)
		}
		tracked = wrapper.Unwrapped()
	}
	return tracked, nil
}

// rolloutCmd represents the `simgym rollout` command
var rolloutCmd = &cobra.Command{
	Use:   "rollout",
	Short: "Run a random agent in an environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _args []string) error {
		cfg, err := rolloutConfig()
		if err != nil {
			return err
		}
		if cfg.MaxSteps == 0 {
			return fmt.Errorf("invalid argument \"--max-steps\" specified, " +
				"expected a strictly positive number")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if addr := rolloutViper.GetString(rolloutMetricsAddrKey); addr != "" {
			serveMetrics(ctx, addr)
		}

		seed := rolloutViper.GetUint64(rolloutSeedKey)
		exp, err := cfg.CreateExp(seed)
		if err != nil {
			return err
		}
		defer func() {
			if err := exp.Close(); err != nil {
				log.WithError(err).Warn("Unable to close environment")
			}
		}()

		tracked, err := trackedEnvironment(exp,
			cfg.EnvConf.AverageReward != nil)
		if err != nil {
			return err
		}

		returns := trackers.NewReturn(rolloutViper.GetString(rolloutReturnsKey))
		lengths := trackers.NewEpisodeLength(
			rolloutViper.GetString(rolloutLengthsKey))
		exp.Register(trackers.Register(returns, tracked))
		exp.Register(trackers.Register(lengths, tracked))

		log.WithFields(logrus.Fields{
			"environment": cfg.EnvConf.ID,
			"randomizer":  cfg.EnvConf.Randomizer,
			"steps":       cfg.MaxSteps,
			"seed":        seed,
		}).Info("Starting rollout")

		var progress *trackers.Progress
		if rolloutViper.GetBool(rolloutProgressKey) {
			progress = trackers.NewProgress(cmd.ErrOrStderr(),
				int(cfg.MaxSteps))
			exp.Register(progress)
		}

		err = exp.Run(ctx)
		if progress != nil {
			_ = progress.Save()
		}
		if err != nil {
			return err
		}

		if path := rolloutViper.GetString(rolloutReturnsKey); path != "" {
			if err := returns.Save(); err != nil {
				return err
			}
		}
		if path := rolloutViper.GetString(rolloutLengthsKey); path != "" {
			if err := lengths.Save(); err != nil {
				return err
			}
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("episodes", "mean return", "mean length")
		episodeReturns := returns.EpisodeReturns()
		episodeLengths := make([]float64, len(lengths.EpisodeLengths()))
		for i, length := range lengths.EpisodeLengths() {
			episodeLengths[i] = float64(length)
		}
		if err := table.Append([]string{
			fmt.Sprintf("%d", len(episodeReturns)),
			fmt.Sprintf("%.3f", stat.Mean(episodeReturns, nil)),
			fmt.Sprintf("%.1f", stat.Mean(episodeLengths, nil)),
		}); err != nil {
			return err
		}
		return table.Render()
	},
}
