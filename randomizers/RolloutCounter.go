package randomizers

import (
	"fmt"

	"github.com/samuelfneumann/simgym/environment"
)

// RolloutCounter implements the expiry cadence of a PhysicsRandomizer.
// Physics expire once every RandomizeAfterRollouts rollouts. A cadence
// of 0 means physics never expire.
//
// RolloutCounter implements the Expired and MarkRolloutStart methods of
// the PhysicsRandomizer interface and is meant to be embedded.
type RolloutCounter struct {
	randomizeAfterRollouts int
	remaining              int
}

// NewRolloutCounter returns a RolloutCounter whose physics expire every
// randomizeAfterRollouts rollouts. It panics if randomizeAfterRollouts
// is negative.
func NewRolloutCounter(randomizeAfterRollouts int) *RolloutCounter {
	if randomizeAfterRollouts < 0 {
		panic(fmt.Sprintf("newRolloutCounter: number of rollouts must be "+
			"non-negative, got %v", randomizeAfterRollouts))
	}
	return &RolloutCounter{
		randomizeAfterRollouts: randomizeAfterRollouts,
		remaining:              randomizeAfterRollouts,
	}
}

// RandomizeAfterRollouts returns the number of rollouts between
// physics randomizations
func (r *RolloutCounter) RandomizeAfterRollouts() int {
	return r.randomizeAfterRollouts
}

// Remaining returns the number of rollouts left before the physics
// expire
func (r *RolloutCounter) Remaining() int {
	return r.remaining
}

// Expired returns whether the physics have expired. When they have,
// the counter is refilled, so Expired reports true only once per
// cadence.
func (r *RolloutCounter) Expired(environment.Environment) bool {
	if r.randomizeAfterRollouts == 0 {
		return false
	}
	if r.remaining == 0 {
		r.remaining = r.randomizeAfterRollouts
		return true
	}
	return false
}

// MarkRolloutStart counts down one rollout. It panics if the counter
// is already exhausted, which means Expired was not consulted before
// the rollout started.
func (r *RolloutCounter) MarkRolloutStart(environment.Environment) {
	if r.randomizeAfterRollouts == 0 {
		return
	}
	if r.remaining == 0 {
		panic("markRolloutStart: rollout started with expired physics")
	}
	r.remaining--
}
