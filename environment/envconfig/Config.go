// Package envconfig implements serializable configurations of
// environments. A Config names a registered environment, optionally
// overrides its runtime, and selects how the environment is randomized
// between rollouts.
package envconfig

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/envs"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/environment/runtimes"
	"github.com/samuelfneumann/simgym/environment/wrappers"
	"github.com/samuelfneumann/simgym/randomizers/cartpole"
	"github.com/samuelfneumann/simgym/randomizers/envrandomizer"
	"github.com/samuelfneumann/simgym/randomizers/pendulum"
	"github.com/samuelfneumann/simgym/randomizers/physics"
	"github.com/samuelfneumann/simgym/scenario"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "envconfig")

// Randomization names the domain randomization applied to an
// environment
type Randomization string

// Randomizations available for configuration. Not all randomizations
// can be used with all environments:
//
//	Randomization		Environments
//	none			all
//	cartpole		CartPole*
//	pendulum		Pendulum-Box2D-v0
const (
	NoRandomization       Randomization = "none"
	CartPoleRandomization Randomization = "cartpole"
	PendulumRandomization Randomization = "pendulum"
)

// compatible lists the environments each randomization can be used with
var compatible = map[Randomization][]string{
	CartPoleRandomization: {
		envs.CartPoleDiscreteBalancing,
		envs.CartPoleContinuousBalancing,
		envs.CartPoleContinuousSwingup,
	},
	PendulumRandomization: {envs.Pendulum},
}

// AverageRewardConfig configures a wrappers.AverageReward
type AverageRewardConfig struct {
	Init         float64 `json:"init" yaml:"init" mapstructure:"init"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate" mapstructure:"learning_rate"`
}

// Config implements a specific configuration of a registered
// environment
type Config struct {
	// ID is the ID of the registered environment
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	Engine scenario.PhysicsEngine `json:"engine" yaml:"engine" mapstructure:"engine"`

	// Runtime overrides the runtime of the registered environment if
	// not nil
	Runtime *runtimes.Config `json:"runtime,omitempty" yaml:"runtime,omitempty" mapstructure:"runtime"`

	// MaxEpisodeSteps truncates episodes after this many steps. Zero
	// disables truncation.
	MaxEpisodeSteps int `json:"max_episode_steps" yaml:"max_episode_steps" mapstructure:"max_episode_steps"`

	Randomizer Randomization `json:"randomizer" yaml:"randomizer" mapstructure:"randomizer"`

	// PhysicsRollouts is the number of rollouts after which randomized
	// physics expire. Zero never re-randomizes physics.
	PhysicsRollouts int `json:"physics_rollouts" yaml:"physics_rollouts" mapstructure:"physics_rollouts"`

	// AverageReward wraps the environment in a wrappers.AverageReward
	// if not nil
	AverageReward *AverageRewardConfig `json:"average_reward,omitempty" yaml:"average_reward,omitempty" mapstructure:"average_reward"`
}

// Default returns the default Config: the pendulum simulated with Box2D
// without randomization
func Default() Config {
	return Config{
		ID:              envs.Pendulum,
		Engine:          scenario.Box2D,
		MaxEpisodeSteps: envs.MaxEpisodeSteps,
		Randomizer:      NoRandomization,
	}
}

// Validate returns an error wrapping environment.ErrConfiguration if
// the Config cannot create an environment
func (c Config) Validate() error {
	if _, err := registration.Lookup(c.ID); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.MaxEpisodeSteps < 0 {
		return fmt.Errorf("validate: %w: maximum episode steps must be "+
			"non-negative, got %v", environment.ErrConfiguration,
			c.MaxEpisodeSteps)
	}
	if c.PhysicsRollouts < 0 {
		return fmt.Errorf("validate: %w: physics rollouts must be "+
			"non-negative, got %v", environment.ErrConfiguration,
			c.PhysicsRollouts)
	}

	switch c.randomizer() {
	case NoRandomization:
	case CartPoleRandomization, PendulumRandomization:
		if !c.compatible() {
			return fmt.Errorf("validate: %w: randomizer %q cannot "+
				"randomize %q", environment.ErrConfiguration, c.Randomizer,
				c.ID)
		}
	default:
		return fmt.Errorf("validate: %w: unknown randomizer %q",
			environment.ErrConfiguration, c.Randomizer)
	}

	if c.Runtime != nil {
		if err := c.Runtime.Validate(); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
	}
	if c.AverageReward != nil {
		if lr := c.AverageReward.LearningRate; lr <= 0 || lr > 1 {
			return fmt.Errorf("validate: %w: average reward learning rate "+
				"must be in (0, 1], got %v", environment.ErrConfiguration, lr)
		}
	}
	return nil
}

func (c Config) randomizer() Randomization {
	if c.Randomizer == "" {
		return NoRandomization
	}
	return c.Randomizer
}

func (c Config) engine() scenario.PhysicsEngine {
	if c.Engine == "" {
		return scenario.Box2D
	}
	return c.Engine
}

func (c Config) compatible() bool {
	for _, id := range compatible[c.randomizer()] {
		if id == c.ID {
			return true
		}
	}
	return false
}

// options returns the registration options described by the Config
func (c Config) options() []registration.Option {
	opts := []registration.Option{
		registration.WithMaxEpisodeSteps(c.MaxEpisodeSteps),
	}
	if c.Runtime != nil {
		opts = append(opts, registration.WithConfig(*c.Runtime))
	}
	return opts
}

// Create returns the environment described by the Config, seeded with
// seed
func (c Config) Create(seed uint64) (environment.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	var env environment.Environment
	var err error
	switch c.randomizer() {
	case CartPoleRandomization:
		env, err = cartpole.NewEnvRandomizer(envrandomizer.FromID(c.ID),
			c.engine(), c.PhysicsRollouts, c.options()...)

	case PendulumRandomization:
		env, err = pendulum.NewEnvRandomizer(envrandomizer.FromID(c.ID),
			c.engine(), c.options()...)

	default:
		opts := append(c.options(),
			registration.WithPhysics(physics.NewNone(c.engine())))
		env, err = registration.Make(c.ID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	if _, err := env.Seed(seed); err != nil {
		env.Close()
		return nil, fmt.Errorf("create: could not seed environment: %w", err)
	}

	if c.AverageReward != nil {
		wrapped, err := wrappers.NewAverageReward(env, c.AverageReward.Init,
			c.AverageReward.LearningRate)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("create: %w", err)
		}
		env = wrapped
	}

	logger.WithFields(log.Fields{
		"id":         c.ID,
		"engine":     c.engine(),
		"randomizer": c.randomizer(),
		"seed":       seed,
	}).Debug("created environment")
	return env, nil
}
