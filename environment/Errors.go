package environment

import "errors"

// Errors returned by environments, tasks, and wrappers. Errors are
// wrapped with context as they propagate and should be matched with
// errors.Is.
var (
	// ErrConfiguration indicates an environment, task, or wrapper was
	// constructed or used with parameters it cannot work with, for
	// example a world that is missing the task's model
	ErrConfiguration = errors.New("configuration error")

	// ErrActuation indicates an action could not be applied to the
	// simulated model
	ErrActuation = errors.New("actuation error")

	// ErrSimulationStep indicates the simulator failed to run
	ErrSimulationStep = errors.New("simulation step error")

	// ErrContractViolation indicates an internal invariant between
	// collaborating components was broken, for example a recreated
	// environment reporting a seed other than the one it was given
	ErrContractViolation = errors.New("contract violation")

	// ErrClosed indicates an environment was used after it was closed
	ErrClosed = errors.New("environment closed")
)
