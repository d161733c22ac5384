package envrandomizer

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/registration"
)

// Factory creates an environment from the options a Randomizer was
// created with
type Factory func(opts ...registration.Option) (environment.Environment,
	error)

type sourceKind int

const (
	unknownSource sourceKind = iota
	idSource
	factorySource
)

// Source describes how a Randomizer creates its sessions: either from a
// registered environment ID or from a Factory. The zero Source is not
// valid.
type Source struct {
	kind    sourceKind
	id      string
	factory Factory
}

// FromID returns a Source that creates sessions with registration.Make
func FromID(id string) Source {
	return Source{kind: idSource, id: id}
}

// FromFactory returns a Source that creates sessions with factory
func FromFactory(factory Factory) Source {
	return Source{kind: factorySource, factory: factory}
}

// Validate returns an error wrapping environment.ErrConfiguration if s
// cannot create environments
func (s Source) Validate() error {
	switch s.kind {
	case idSource:
		if _, err := registration.Lookup(s.id); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		return nil
	case factorySource:
		if s.factory == nil {
			return fmt.Errorf("validate: %w: nil environment factory",
				environment.ErrConfiguration)
		}
		return nil
	}
	return fmt.Errorf("validate: %w: environment source is neither an ID "+
		"nor a factory", environment.ErrConfiguration)
}

// make creates a new environment
func (s Source) make(opts []registration.Option) (environment.Environment,
	error) {
	switch s.kind {
	case idSource:
		return registration.Make(s.id, opts...)
	case factorySource:
		return s.factory(opts...)
	}
	return nil, s.Validate()
}

// String returns the ID of the Source, or "factory"
func (s Source) String() string {
	switch s.kind {
	case idSource:
		return s.id
	case factorySource:
		return "factory"
	default:
		return "unknown"
	}
}
