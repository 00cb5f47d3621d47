package colorspace

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/jsvensson/isohue/internal/color"
)

// Depth is the display's per-channel bit depth.
type Depth int

const (
	Depth8  Depth = 8
	Depth10 Depth = 10
)

// ParseDepth validates a configured bit depth.
func ParseDepth(bits int) (Depth, error) {
	switch d := Depth(bits); d {
	case Depth8, Depth10:
		return d, nil
	}
	return 0, &UnsupportedDepthError{Depth: Depth(bits), Op: "parse depth"}
}

// MaxCode is the largest device code at this depth.
func (d Depth) MaxCode() float64 {
	return float64(int(1)<<uint(d) - 1)
}

// Step is one quantization step in the depth's working device range:
// 1/255 in [0, 255] units for 8-bit and 1/1023 in [-1, 1] units for 10-bit.
func (d Depth) Step() float64 {
	return 1 / d.MaxCode()
}

// DeviceRange returns the lower and upper bound of device values accepted
// by RGBToChromatic and produced by ChromaticToRGB.
func (d Depth) DeviceRange() (lo, hi float64) {
	if d == Depth10 {
		return -1, 1
	}
	return 0, d.MaxCode()
}

// Codes converts a device triple into integer display codes.
func (d Depth) Codes(device color.Vec3) [3]int {
	var out [3]int
	for i, v := range device {
		out[i] = int(math.Round(d.toUnit(v) * d.MaxCode()))
	}
	return out
}

// Hex renders a device triple as an 8-bit "#rrggbb" string. 10-bit colors
// lose precision here; use Codes for exact values.
func (d Depth) Hex(device color.Vec3) string {
	c := colorful.Color{R: d.toUnit(device[0]), G: d.toUnit(device[1]), B: d.toUnit(device[2])}
	return c.Clamped().Hex()
}

// PsychoPy formats a device triple in the color space PsychoPy expects for
// this depth ("rgb255" for 8-bit, "rgb" in [-1, 1] for 10-bit).
func (d Depth) PsychoPy(device color.Vec3) string {
	if d == Depth10 {
		return fmt.Sprintf("[%.6f, %.6f, %.6f]", device[0], device[1], device[2])
	}
	return fmt.Sprintf("[%.3f, %.3f, %.3f]", device[0], device[1], device[2])
}

// ColorSpace is PsychoPy's color space name for this depth.
func (d Depth) ColorSpace() string {
	if d == Depth10 {
		return "rgb"
	}
	return "rgb255"
}

func (d Depth) String() string {
	return fmt.Sprintf("%d-bit", int(d))
}

// toUnit maps a device value to [0, 1].
func (d Depth) toUnit(v float64) float64 {
	if d == Depth10 {
		return (v + 1) / 2
	}
	return v / d.MaxCode()
}
