// Package colorspace maps device RGB values to the calibrated chromatic
// S/M/L space and back.
//
// The forward model is
//
//	sml = A · rgb^γ + A₀
//
// where rgb is the device triple rescaled to display codes, γ is applied
// per channel, A is the calibration matrix and A₀ the offset. The inverse
// uses the pseudo-inverse of A so that degenerate calibrations still yield
// a result; range checks reject anything the display cannot show.
package colorspace

import (
	"fmt"
	"math"

	"github.com/jsvensson/isohue/internal/calib"
	"github.com/jsvensson/isohue/internal/color"
)

// rangeSlack absorbs floating point noise at the edges of the device range.
// Values past the boundary by less than this are snapped onto it.
const rangeSlack = 1e-9

// Transform is the bidirectional device/chromatic mapping for one
// calibration at one bit depth. It is immutable and safe to share.
type Transform struct {
	rec      calib.Record
	depth    Depth
	inverse  color.Mat3
	invGamma color.Vec3
}

// New builds a Transform from a calibration record.
func New(rec calib.Record, depth Depth) (*Transform, error) {
	if _, err := ParseDepth(int(depth)); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	inv, err := rec.Matrix.PseudoInverse()
	if err != nil {
		return nil, fmt.Errorf("inverting calibration matrix: %w", err)
	}

	t := &Transform{
		rec:     rec,
		depth:   depth,
		inverse: inv,
	}
	for i, g := range rec.Gamma {
		t.invGamma[i] = 1 / g
	}
	return t, nil
}

// Depth returns the transform's bit depth.
func (t *Transform) Depth() Depth {
	return t.depth
}

// Record returns the calibration the transform was built from.
func (t *Transform) Record() calib.Record {
	return t.rec
}

// RGBToChromatic converts a device triple to S/M/L. 8-bit input is wrapped
// modulo 256 per channel; 10-bit input is read in [-1, 1].
func (t *Transform) RGBToChromatic(rgb color.Vec3) (color.Vec3, error) {
	var lin color.Vec3
	for i, v := range rgb {
		lin[i] = math.Pow(t.toCode(v), t.rec.Gamma[i])
	}
	sml := t.rec.Matrix.MulVec(lin).Add(t.rec.Offset)
	if !sml.Finite() {
		return color.Vec3{}, &NumericDomainError{Op: "rgb to chromatic", Input: rgb}
	}
	return sml, nil
}

// RGBToChromaticSlice is RGBToChromatic for untyped input. Inputs that are
// not exactly three long fail with *color.DimensionError.
func (t *Transform) RGBToChromaticSlice(rgb []float64) (color.Vec3, error) {
	v, err := color.FromSlice(rgb)
	if err != nil {
		return color.Vec3{}, err
	}
	return t.RGBToChromatic(v)
}

// ChromaticToRGB converts S/M/L to a device triple. The absolute value is
// taken before the inverse gamma so negative intermediates do not produce
// NaN; results outside the device range fail with *OutOfRangeError.
func (t *Transform) ChromaticToRGB(sml color.Vec3) (color.Vec3, error) {
	lin := t.inverse.MulVec(sml.Sub(t.rec.Offset))

	var code color.Vec3
	for i, v := range lin {
		code[i] = math.Pow(math.Abs(v), t.invGamma[i])
	}
	if !code.Finite() {
		return color.Vec3{}, &NumericDomainError{Op: "chromatic to rgb", Input: sml}
	}

	maxCode := t.depth.MaxCode()
	for i, v := range code {
		if v > maxCode {
			if v > maxCode*(1+rangeSlack) {
				return color.Vec3{}, &OutOfRangeError{Depth: t.depth, Device: code, Input: sml}
			}
			code[i] = maxCode
		}
	}

	if t.depth == Depth8 {
		return code, nil
	}

	var device color.Vec3
	for i, v := range code {
		d := math.Mod(v, maxCode+1)/maxCode*2 - 1
		if math.Abs(d) > 1 {
			if math.Abs(d) > 1+rangeSlack {
				return color.Vec3{}, &OutOfRangeError{Depth: t.depth, Device: code, Input: sml}
			}
			d = math.Copysign(1, d)
		}
		device[i] = d
	}
	return device, nil
}

// ChromaticToRGBSlice is ChromaticToRGB for untyped input.
func (t *Transform) ChromaticToRGBSlice(sml []float64) (color.Vec3, error) {
	v, err := color.FromSlice(sml)
	if err != nil {
		return color.Vec3{}, err
	}
	return t.ChromaticToRGB(v)
}

// InDomain reports whether sml maps back to a displayable device color
// without relying on the absolute-value guard.
func (t *Transform) InDomain(sml color.Vec3) bool {
	lin := t.inverse.MulVec(sml.Sub(t.rec.Offset))
	for _, v := range lin {
		if v < 0 {
			return false
		}
	}
	_, err := t.ChromaticToRGB(sml)
	return err == nil
}

// Primaries returns the device triples of the pure red, green and blue
// primaries at full intensity.
func (t *Transform) Primaries() [3]color.Vec3 {
	lo, hi := t.depth.DeviceRange()
	return [3]color.Vec3{
		{hi, lo, lo},
		{lo, hi, lo},
		{lo, lo, hi},
	}
}

// GrayCenter returns the chromatic reference gray: the sum of the offset and
// the three primaries, scaled by grayLevel.
func (t *Transform) GrayCenter(grayLevel float64) (color.Vec3, error) {
	sum := t.rec.Offset
	for _, p := range t.Primaries() {
		v, err := t.RGBToChromatic(p)
		if err != nil {
			return color.Vec3{}, fmt.Errorf("gray center: %w", err)
		}
		sum = sum.Add(v)
	}
	center := sum.Scale(grayLevel)
	if !center.Finite() {
		return color.Vec3{}, &NumericDomainError{Op: "gray center", Input: color.Vec3{grayLevel, grayLevel, grayLevel}}
	}
	return center, nil
}

// toCode maps a device value into the calibration's code range.
func (t *Transform) toCode(v float64) float64 {
	if t.depth == Depth10 {
		return (v + 1) / 2 * t.depth.MaxCode()
	}
	m := math.Mod(v, t.depth.MaxCode()+1)
	if m < 0 {
		m += t.depth.MaxCode() + 1
	}
	return m
}
