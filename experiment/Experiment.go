// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/simgym/agent/random"
	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/envconfig"
	"github.com/samuelfneumann/simgym/experiment/trackers"
)

// Experiment outlines structs that can run experiments. Experiments
// send each environment TimeStep to their trackers.Trackers, which
// cache the data they track in RAM. Save then writes all cached data to
// disk, usually after the experiment has been run. Run runs episodes
// until the step limit is reached or the context is cancelled, and
// RunEpisode runs a single episode.
type Experiment interface {
	Run(ctx context.Context) error

	// RunEpisode runs a single episode and returns whether the step
	// limit of the experiment was reached
	RunEpisode(ctx context.Context) (bool, error)

	// Save saves all tracked data to disk
	Save() error

	// Register adds a new trackers.Tracker to the (possibly already
	// running) experiment. Useful to track data only after a specified
	// event.
	Register(t trackers.Tracker)

	// Close closes the environment of the experiment
	Close() error
}

// Type names a kind of Experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment. Experiments are
// run by a random agent.
type Config struct {
	Type     Type             `json:"type" yaml:"type" mapstructure:"type"`
	MaxSteps uint             `json:"max_steps" yaml:"max_steps" mapstructure:"max_steps"`
	EnvConf  envconfig.Config `json:"environment" yaml:"environment" mapstructure:"environment"`
}

// CreateExp creates the Experiment described by the Config. The
// environment and agent are both seeded with seed.
func (c Config) CreateExp(seed uint64, t ...trackers.Tracker) (Experiment,
	error) {
	if c.Type != OnlineExp {
		return nil, fmt.Errorf("createExp: %w: no such experiment type %q",
			environment.ErrConfiguration, c.Type)
	}

	env, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %w",
			err)
	}

	agent, err := random.New(env.ActionSpec(), seed)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("createExp: could not create agent: %w", err)
	}

	return NewOnline(env, agent, c.MaxSteps, t...), nil
}
