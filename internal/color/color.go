package color

import (
	"fmt"
	"math"
)

// Vec3 is a color triple. Depending on context it holds device values
// (R, G, B) or chromatic values (S, M, L).
type Vec3 [3]float64

// Chromatic channel indices.
const (
	S = 0
	M = 1
	L = 2
)

// Color is a single point expressed in both spaces. The two triples are
// produced together and must never be edited independently.
type Color struct {
	Chromatic Vec3
	Device    Vec3
}

// DimensionError reports a color vector that does not have three components.
type DimensionError struct {
	Got int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("color vector must have 3 components, got %d", e.Got)
}

// FromSlice converts s into a Vec3. Any length other than 3 is a
// *DimensionError; longer inputs are not truncated.
func FromSlice(s []float64) (Vec3, error) {
	if len(s) != 3 {
		return Vec3{}, &DimensionError{Got: len(s)}
	}
	return Vec3{s[0], s[1], s[2]}, nil
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v[0] * k, v[1] * k, v[2] * k}
}

// Finite reports whether every component is neither NaN nor infinite.
func (v Vec3) Finite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Near reports whether every component of v is within tol of w.
func (v Vec3) Near(w Vec3, tol float64) bool {
	for i := range v {
		if math.Abs(v[i]-w[i]) > tol {
			return false
		}
	}
	return true
}

// Round rounds every component to the given number of decimal places.
func (v Vec3) Round(places int) Vec3 {
	return Vec3{roundTo(v[0], places), roundTo(v[1], places), roundTo(v[2], places)}
}

// String formats the triple as "(a, b, c)".
func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
