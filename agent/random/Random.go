// Package random implements an agent that selects actions uniformly at
// random from the action specification of an environment
package random

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Agent selects actions uniformly at random and never learns. Discrete
// actions are drawn from a uniform categorical distribution over the
// legal values, bounded continuous actions from a multivariate uniform
// distribution over the action bounds. Continuous actions with
// unbounded dimensions are drawn with environment.Spec.Sample.
type Agent struct {
	spec   environment.Spec
	src    rand.Source
	eval   bool
	sample func() *mat.VecDense
}

// New returns a new random Agent acting in the action specification
// spec. The spec must be an action specification.
func New(spec environment.Spec, seed uint64) (*Agent, error) {
	if spec.Type != environment.Action {
		return nil, fmt.Errorf("new: %w: expected an action spec, got %v",
			environment.ErrConfiguration, spec.Type)
	}

	a := &Agent{spec: spec, src: rand.NewSource(seed)}
	switch {
	case spec.Cardinality == environment.Discrete:
		if spec.Len() != 1 {
			return nil, fmt.Errorf("new: %w: discrete actions must have "+
				"1 dimension, got %v", environment.ErrConfiguration,
				spec.Len())
		}
		low := math.Ceil(spec.LowerBound.AtVec(0))
		high := math.Floor(spec.UpperBound.AtVec(0))
		if high < low {
			return nil, fmt.Errorf("new: %w: no legal discrete actions in "+
				"[%v, %v]", environment.ErrConfiguration, low, high)
		}

		weights := make([]float64, int(high-low)+1)
		for i := range weights {
			weights[i] = 1
		}
		dist := distuv.NewCategorical(weights, a.src)
		a.sample = func() *mat.VecDense {
			return mat.NewVecDense(1, []float64{low + dist.Rand()})
		}

	case bounded(spec):
		dist := distmv.NewUniform(spec.Bounds(), a.src)
		a.sample = func() *mat.VecDense {
			return mat.NewVecDense(spec.Len(), dist.Rand(nil))
		}

	default:
		a.sample = func() *mat.VecDense {
			return spec.Sample(a.src)
		}
	}
	return a, nil
}

// bounded returns whether all dimensions of spec have finite bounds
func bounded(spec environment.Spec) bool {
	for _, bound := range spec.Bounds() {
		if math.IsInf(bound.Min, 0) || math.IsInf(bound.Max, 0) {
			return false
		}
	}
	return true
}

// SelectAction returns a random action. The timestep is ignored.
func (a *Agent) SelectAction(timestep.TimeStep) *mat.VecDense {
	return a.sample()
}

// Eval sets the agent to evaluation mode
func (a *Agent) Eval() { a.eval = true }

// Train sets the agent to training mode
func (a *Agent) Train() { a.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (a *Agent) IsEval() bool { return a.eval }

// Step does nothing, the random agent does not learn
func (a *Agent) Step() error { return nil }

// Observe does nothing, the random agent does not learn
func (a *Agent) Observe(mat.Vector, timestep.TimeStep) error { return nil }

// ObserveFirst does nothing, the random agent does not learn
func (a *Agent) ObserveFirst(timestep.TimeStep) error { return nil }

// EndEpisode does nothing
func (a *Agent) EndEpisode() {}
