package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a box
type UniformStarter struct {
	features int
	rand     *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter sampling from bounds using
// the random source src. The source is shared, not copied, so that
// starting states follow the random state of whoever owns src.
func NewUniformStarter(bounds []r1.Interval, src rand.Source) UniformStarter {
	rand := distmv.NewUniform(bounds, src)

	return UniformStarter{len(bounds), rand}
}

// Start implements the Starter interface
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}
