// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Deg2Rad converts an angle in degrees to radians
func Deg2Rad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Indicator returns 1 if cond holds and 0 otherwise
func Indicator(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}
