// Package registration implements a process-wide registry of
// environments. Environments are registered under a string ID, usually
// from the init function of the package that implements them, and are
// created from their ID with Make.
package registration

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/runtimes"
	"github.com/samuelfneumann/simgym/environment/wrappers"
	"github.com/samuelfneumann/simgym/randomizers"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

var logger = log.WithField("component", "registration")

// Kwargs are the arguments with which an environment is created
type Kwargs struct {
	Config runtimes.Config

	// Physics chooses and randomizes the physics engine of the
	// environment's simulator
	Physics randomizers.PhysicsRandomizer

	// MaxEpisodeSteps truncates episodes after the given number of
	// steps. Episodes are not truncated if MaxEpisodeSteps is 0.
	MaxEpisodeSteps int

	// Seed and RandomState seed the task before the physics are
	// randomized, if set
	Seed        *uint64
	RandomState rand.Source
}

// Option overrides the default Kwargs of an environment
type Option func(*Kwargs)

// WithConfig sets the runtime configuration of the environment
func WithConfig(cfg runtimes.Config) Option {
	return func(k *Kwargs) { k.Config = cfg }
}

// WithPhysics sets the physics randomizer of the environment
func WithPhysics(physics randomizers.PhysicsRandomizer) Option {
	return func(k *Kwargs) { k.Physics = physics }
}

// WithMaxEpisodeSteps sets the maximum number of steps in an episode
func WithMaxEpisodeSteps(steps int) Option {
	return func(k *Kwargs) { k.MaxEpisodeSteps = steps }
}

// WithSeed seeds the task of the environment before its physics are
// randomized
func WithSeed(seed uint64) Option {
	return func(k *Kwargs) { k.Seed = &seed }
}

// WithRandomState sets the random state of the task of the environment
// before its physics are randomized
func WithRandomState(src rand.Source) Option {
	return func(k *Kwargs) { k.RandomState = src }
}

// WithAgentRate sets the agent rate of the environment
func WithAgentRate(rate float64) Option {
	return func(k *Kwargs) { k.Config.AgentRate = rate }
}

// WithPhysicsRate sets the physics rate of the environment
func WithPhysicsRate(rate float64) Option {
	return func(k *Kwargs) { k.Config.PhysicsRate = rate }
}

// WithRealTimeFactor sets the real time factor of the environment
func WithRealTimeFactor(rtf float64) Option {
	return func(k *Kwargs) { k.Config.RealTimeFactor = rtf }
}

// EntryPoint creates an environment from its arguments
type EntryPoint func(kwargs Kwargs) (environment.Environment, error)

// Entry is a registered environment
type Entry struct {
	ID          string
	Description string
	EntryPoint  EntryPoint

	// Kwargs are the default arguments of the environment
	Kwargs Kwargs
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Entry)
)

// Register registers entry under its ID. An error wrapping
// environment.ErrConfiguration is returned if the ID is empty or
// already registered, or if entry has no entry point.
func Register(entry Entry) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if entry.ID == "" {
		return fmt.Errorf("register: %w: empty environment ID",
			environment.ErrConfiguration)
	}
	if entry.EntryPoint == nil {
		return fmt.Errorf("register: %w: environment %q has no entry point",
			environment.ErrConfiguration, entry.ID)
	}
	if _, ok := registry[entry.ID]; ok {
		return fmt.Errorf("register: %w: environment %q already registered",
			environment.ErrConfiguration, entry.ID)
	}

	registry[entry.ID] = entry
	logger.WithField("id", entry.ID).Trace("registered environment")
	return nil
}

// MustRegister is like Register but panics if entry cannot be
// registered
func MustRegister(entry Entry) {
	if err := Register(entry); err != nil {
		panic(err)
	}
}

// Lookup returns the entry registered under id
func Lookup(id string) (Entry, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	entry, ok := registry[id]
	if !ok {
		return Entry{}, fmt.Errorf("lookup: %w: no environment registered "+
			"with ID %q", environment.ErrConfiguration, id)
	}
	return entry, nil
}

// IDs returns the sorted IDs of all registered environments
func IDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Make creates the environment registered under id. The options
// override the entry's default arguments. If the resulting maximum
// number of episode steps is positive, the environment is wrapped in a
// wrappers.TimeLimit.
func Make(id string, opts ...Option) (environment.Environment, error) {
	entry, err := Lookup(id)
	if err != nil {
		return nil, fmt.Errorf("make: %w", err)
	}

	kwargs := entry.Kwargs
	for _, opt := range opts {
		opt(&kwargs)
	}
	if kwargs.MaxEpisodeSteps < 0 {
		return nil, fmt.Errorf("make: %w: maximum episode steps must be "+
			"non-negative, got %v", environment.ErrConfiguration,
			kwargs.MaxEpisodeSteps)
	}

	env, err := entry.EntryPoint(kwargs)
	if err != nil {
		return nil, fmt.Errorf("make: could not create %q: %w", id, err)
	}

	if kwargs.MaxEpisodeSteps > 0 {
		limited, err := wrappers.NewTimeLimit(env, kwargs.MaxEpisodeSteps)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("make: %w", err)
		}
		env = limited
	}
	return env, nil
}

// Runtime returns an EntryPoint that creates a runtimes.Simulated
// environment solving the task created by newTask
func Runtime(newTask runtimes.TaskFactory) EntryPoint {
	return func(kwargs Kwargs) (environment.Environment, error) {
		var opts []runtimes.Option
		if kwargs.Seed != nil {
			opts = append(opts, runtimes.WithSeed(*kwargs.Seed))
		}
		if kwargs.RandomState != nil {
			opts = append(opts, runtimes.WithRandomState(kwargs.RandomState))
		}
		env, err := runtimes.New(newTask, kwargs.Config, kwargs.Physics,
			opts...)
		if err != nil {
			return nil, err
		}
		return env, nil
	}
}
