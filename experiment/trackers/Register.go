package trackers

import (
	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/timestep"
)

// registeredTracker registers an Environment with some Tracker so
// that the Tracker tracks data from the registered Environment only.
//
// The argument to Track is ignored. Instead, the embedded Tracker
// tracks the most recent TimeStep of the registered Environment. This
// is useful when an experiment runs on a wrapper but the data of the
// wrapped Environment should be tracked, for example tracking the
// return of an Environment wrapped by wrappers.AverageReward instead of
// its differential return.
type registeredTracker struct {
	Tracker
	env environment.Environment
}

// Register returns a Tracker that tracks the data of env with t.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering an Environment with a Tracker.
func Register(t Tracker, env environment.Environment) Tracker {
	return &registeredTracker{t, env}
}

// Track calls Track on the embedded Tracker using the most recent
// TimeStep of the registered Environment
func (r *registeredTracker) Track(timestep.TimeStep) {
	r.Tracker.Track(r.env.CurrentTimeStep())
}
