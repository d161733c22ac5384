package environment

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion, an observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	default:
		return "Reward"
	}
}

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewBoxSpec returns a continuous Spec of type t bounded element-wise
// by low and high
func NewBoxSpec(t SpecType, low, high []float64) Spec {
	if len(low) != len(high) {
		panic(fmt.Sprintf("newBoxSpec: lower bound length %v must match "+
			"upper bound length %v", len(low), len(high)))
	}
	shape := mat.NewVecDense(len(low), nil)
	return NewSpec(shape, t, mat.NewVecDense(len(low), low),
		mat.NewVecDense(len(high), high), Continuous)
}

// NewSymmetricSpec returns a continuous Spec of type t bounded
// element-wise by [-high, high]
func NewSymmetricSpec(t SpecType, high []float64) Spec {
	low := make([]float64, len(high))
	for i := range high {
		low[i] = -high[i]
	}
	return NewBoxSpec(t, low, high)
}

// NewDiscreteSpec returns a 1-dimensional discrete Spec of type t
// whose legal values are the integers in [0, n)
func NewDiscreteSpec(t SpecType, n int) Spec {
	if n < 1 {
		panic(fmt.Sprintf("newDiscreteSpec: need at least one value, got %v",
			n))
	}
	shape := mat.NewVecDense(1, nil)
	return NewSpec(shape, t, mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{float64(n - 1)}), Discrete)
}

// Len returns the number of dimensions described by the Spec
func (s Spec) Len() int {
	return s.Shape.Len()
}

// Bounds returns the per-dimension bounds of the Spec
func (s Spec) Bounds() []r1.Interval {
	bounds := make([]r1.Interval, s.Len())
	for i := range bounds {
		bounds[i] = r1.Interval{
			Min: s.LowerBound.AtVec(i),
			Max: s.UpperBound.AtVec(i),
		}
	}
	return bounds
}

// Contains returns whether v lies inside the Spec. Bounds are inclusive,
// so a value sitting exactly on a bound is contained. Values of
// discrete specs must additionally be integral. Any NaN element is
// outside the Spec.
func (s Spec) Contains(v mat.Vector) bool {
	if v == nil || v.Len() != s.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		value := v.AtVec(i)
		if math.IsNaN(value) {
			return false
		}
		if value < s.LowerBound.AtVec(i) || value > s.UpperBound.AtVec(i) {
			return false
		}
		if s.Cardinality == Discrete && value != math.Trunc(value) {
			return false
		}
	}
	return true
}

// Sample draws a vector uniformly from the Spec using src. Discrete
// specs are sampled uniformly over their integer values. Unbounded
// dimensions are sampled from a standard normal distribution.
func (s Spec) Sample(src rand.Source) *mat.VecDense {
	sample := mat.NewVecDense(s.Len(), nil)
	for i, bound := range s.Bounds() {
		switch {
		case s.Cardinality == Discrete:
			low, high := math.Ceil(bound.Min), math.Floor(bound.Max)
			dist := distuv.Uniform{Min: low, Max: high + 1, Src: src}
			sample.SetVec(i, math.Min(math.Floor(dist.Rand()), high))

		case math.IsInf(bound.Min, 0) || math.IsInf(bound.Max, 0):
			dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
			value := dist.Rand()
			if !math.IsInf(bound.Min, 0) {
				value = bound.Min + math.Abs(value)
			} else if !math.IsInf(bound.Max, 0) {
				value = bound.Max - math.Abs(value)
			}
			sample.SetVec(i, value)

		default:
			dist := distuv.Uniform{Min: bound.Min, Max: bound.Max, Src: src}
			sample.SetVec(i, dist.Rand())
		}
	}
	return sample
}
