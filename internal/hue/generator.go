// Package hue generates colors on the iso-luminance hue circle around a gray
// reference and recovers hue angles from colors.
package hue

import (
	"fmt"
	"math"
	"strings"

	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/colorspace"
)

// Convention selects how the cosine term is split between the M and L
// channels. Both keep M+L constant around the gray reference.
type Convention int

const (
	// Iris weights M by 1/(1+1/r) and L by 1/(1+r), r = L/M of the gray.
	Iris Convention = iota
	// Plain weights M by (1-r) and L by (1-1/r).
	Plain
)

// ParseConvention accepts "iris" and "plain".
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iris":
		return Iris, nil
	case "plain":
		return Plain, nil
	}
	return 0, fmt.Errorf("unknown convention %q (valid: iris, plain)", s)
}

func (c Convention) String() string {
	if c == Plain {
		return "plain"
	}
	return "iris"
}

// Generator maps hue angles to colors through a Transform.
type Generator struct {
	Transform      *colorspace.Transform
	Contrast       float64 // radius of the hue circle in chromatic units
	ChromaticScale float64 // extra gain on the S axis
	Convention     Convention
	Unit           Unit // unit of recovered angles
}

// Validate checks the generator parameters.
func (g *Generator) Validate() error {
	if g.Transform == nil {
		return fmt.Errorf("generator has no transform")
	}
	if !(g.Contrast > 0) || math.IsInf(g.Contrast, 0) {
		return fmt.Errorf("contrast %g must be positive", g.Contrast)
	}
	if g.ChromaticScale == 0 || math.IsNaN(g.ChromaticScale) || math.IsInf(g.ChromaticScale, 0) {
		return fmt.Errorf("chromatic scale %g must be finite and non-zero", g.ChromaticScale)
	}
	return nil
}

// weights returns the cosine gains applied to M and L for a gray whose L/M
// ratio is r.
func (g *Generator) weights(r float64) (wm, wl float64) {
	c := g.Contrast
	if g.Convention == Plain {
		return c * (1 - r), c * (1 - 1/r)
	}
	return -c / (1 + 1/r), c / (1 + r)
}

// Chromatic returns the S/M/L triple at theta around gray.
func (g *Generator) Chromatic(theta Angle, gray color.Vec3) (color.Vec3, error) {
	rad := theta.Radians()
	sin, cos := math.Sincos(rad)
	wm, wl := g.weights(gray[color.L] / gray[color.M])

	sml := color.Vec3{
		gray[color.S] * (1 + g.ChromaticScale*g.Contrast*sin),
		gray[color.M] * (1 + wm*cos),
		gray[color.L] * (1 + wl*cos),
	}
	if !sml.Finite() {
		return color.Vec3{}, &colorspace.NumericDomainError{Op: "generate hue " + theta.String(), Input: gray}
	}
	return sml, nil
}

// Generate returns the color at theta around gray. Colors outside the
// display gamut fail; they are never clamped.
func (g *Generator) Generate(theta Angle, gray color.Vec3) (color.Color, error) {
	sml, err := g.Chromatic(theta, gray)
	if err != nil {
		return color.Color{}, err
	}
	rgb, err := g.Transform.ChromaticToRGB(sml)
	if err != nil {
		return color.Color{}, fmt.Errorf("hue %v at contrast %g: %w", theta, g.Contrast, err)
	}
	return color.Color{Chromatic: sml, Device: rgb}, nil
}

// HueFromChromatic recovers the hue angle of sml relative to gray. The
// cosine is read from the L/M ratio, which is unaffected by scaling M and L
// together, so colors generated around a luminance-corrected gray are
// recovered exactly.
func (g *Generator) HueFromChromatic(sml, gray color.Vec3) (Angle, error) {
	domainErr := &colorspace.NumericDomainError{Op: "hue from chromatic", Input: sml}

	sin := (sml[color.S]/gray[color.S] - 1) / (g.ChromaticScale * g.Contrast)

	lmr := gray[color.L] / gray[color.M]
	r := sml[color.L] / sml[color.M] / lmr
	wm, wl := g.weights(lmr)
	// r = (1 + wl·x) / (1 + wm·x)  =>  x = (r - 1) / (wl - r·wm)
	den := wl - r*wm
	if den == 0 {
		return Angle{}, domainErr
	}
	cos := (r - 1) / den

	theta := math.Atan2(sin, cos)
	if math.IsNaN(theta) || math.IsInf(sin, 0) || math.IsInf(cos, 0) {
		return Angle{}, domainErr
	}
	return Rad(theta).In(g.Unit).Normalize(), nil
}

// HueFromDevice recovers the hue angle of a device triple.
func (g *Generator) HueFromDevice(rgb, gray color.Vec3) (Angle, error) {
	sml, err := g.Transform.RGBToChromatic(rgb)
	if err != nil {
		return Angle{}, err
	}
	return g.HueFromChromatic(sml, gray)
}

// Circle returns n colors evenly spaced around the full hue circle,
// starting at 0.
func (g *Generator) Circle(n int, gray color.Vec3) ([]color.Color, error) {
	if n <= 0 {
		return nil, fmt.Errorf("circle needs at least one color, got %d", n)
	}
	out := make([]color.Color, n)
	for i := range out {
		c, err := g.Generate(Rad(2*math.Pi*float64(i)/float64(n)), gray)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Lighten moves gray along the luminance axis by scaling its M and L
// channels by 1+dlum. S is unchanged.
func Lighten(gray color.Vec3, dlum float64) color.Vec3 {
	return color.Vec3{
		gray[color.S],
		gray[color.M] * (1 + dlum),
		gray[color.L] * (1 + dlum),
	}
}
