package environment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestContainsIsBoundaryInclusive(t *testing.T) {
	spec := NewSymmetricSpec(Observation, []float64{1, 1, 10})

	tests := []struct {
		name string
		v    []float64
		want bool
	}{
		{"origin", []float64{0, 0, 0}, true},
		{"upper corner", []float64{1, 1, 10}, true},
		{"lower corner", []float64{-1, -1, -10}, true},
		{"above", []float64{0, 0, 10.000001}, false},
		{"below", []float64{-1.000001, 0, 0}, false},
		{"nan", []float64{math.NaN(), 0, 0}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := mat.NewVecDense(len(test.v), test.v)
			assert.Equal(t, test.want, spec.Contains(v))
		})
	}
}

func TestContainsWrongLength(t *testing.T) {
	spec := NewSymmetricSpec(Action, []float64{1})
	assert.False(t, spec.Contains(mat.NewVecDense(2, nil)))
	assert.False(t, spec.Contains(nil))
}

func TestContainsDiscrete(t *testing.T) {
	spec := NewDiscreteSpec(Action, 2)
	assert.True(t, spec.Contains(mat.NewVecDense(1, []float64{0})))
	assert.True(t, spec.Contains(mat.NewVecDense(1, []float64{1})))
	assert.False(t, spec.Contains(mat.NewVecDense(1, []float64{0.5})))
	assert.False(t, spec.Contains(mat.NewVecDense(1, []float64{2})))
}

func TestSampleWithinSpec(t *testing.T) {
	src := rand.NewSource(1)
	specs := []Spec{
		NewSymmetricSpec(Observation, []float64{1, 1, 10}),
		NewBoxSpec(Observation, []float64{-2, 3}, []float64{-1, 3}),
		NewDiscreteSpec(Action, 3),
		NewSymmetricSpec(Observation, []float64{math.Inf(1)}),
	}
	for _, spec := range specs {
		for i := 0; i < 100; i++ {
			sample := spec.Sample(src)
			require.True(t, spec.Contains(sample), "%v not in %v",
				mat.Formatted(sample.T()), spec.Bounds())
		}
	}
}

func TestSampleIsReproducible(t *testing.T) {
	spec := NewSymmetricSpec(Observation, []float64{1, 2, 3})
	a := spec.Sample(rand.NewSource(7))
	b := spec.Sample(rand.NewSource(7))
	assert.True(t, mat.Equal(a, b))
}

func TestNewSpecPanicsOnShapeMismatch(t *testing.T) {
	assert.Panics(t, func() {
		NewSpec(mat.NewVecDense(2, nil), Action, mat.NewVecDense(1, nil),
			mat.NewVecDense(2, nil), Continuous)
	})
}
