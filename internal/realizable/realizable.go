// Package realizable enumerates the hue angles a 10-bit display can actually
// distinguish and snaps requested angles to them.
package realizable

import (
	"fmt"
	"math"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/colorspace"
	"github.com/jsvensson/isohue/internal/hue"
)

// Tolerance is the largest per-channel device difference, on the [-1, 1]
// scale, at which two colors count as the same code.
const Tolerance = 1.0 / 1024

var log = commonlog.GetLogger("isohue.realizable")

// Source produces the color shown for a hue angle.
type Source interface {
	ColorAt(theta hue.Angle) (color.Color, error)
}

// Key identifies a table.
type Key struct {
	Subject    string
	Depth      colorspace.Depth
	Resolution float64 // degrees between sampled angles
}

// Validate checks that a table can be built for k.
func (k Key) Validate() error {
	if k.Depth != colorspace.Depth10 {
		return &colorspace.UnsupportedDepthError{Depth: k.Depth, Op: "enumerate realizable hues"}
	}
	if !(k.Resolution > 0) || k.Resolution >= 360 {
		return fmt.Errorf("hue resolution %g° must be in (0, 360)", k.Resolution)
	}
	return nil
}

// steps is the number of sampled angles in [0, 360).
func (k Key) steps() int {
	return int(math.Floor(360/k.Resolution + 1e-9))
}

// Entry is one realizable hue.
type Entry struct {
	Angle     float64 // degrees
	Chromatic color.Vec3
	Device    color.Vec3
}

// Table is an ordered list of distinguishable hues.
type Table struct {
	Key     Key
	Entries []Entry
}

// Enumerate sweeps the hue circle at key.Resolution and keeps the angles
// whose device colors differ from their neighbours. Any color that cannot
// be generated aborts the sweep.
func Enumerate(src Source, key Key) (*Table, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	n := key.steps()
	colors := make([]color.Color, n)
	devices := make([]color.Vec3, n)
	for i := range colors {
		theta := hue.Deg(float64(i) * key.Resolution)
		c, err := src.ColorAt(theta)
		if err != nil {
			return nil, fmt.Errorf("enumerating realizable hues: %w", err)
		}
		colors[i] = c
		devices[i] = c.Device
	}

	keep := Distinct(devices, Tolerance)
	t := &Table{Key: key, Entries: make([]Entry, len(keep))}
	for j, i := range keep {
		t.Entries[j] = Entry{
			Angle:     float64(i) * key.Resolution,
			Chromatic: colors[i].Chromatic,
			Device:    colors[i].Device,
		}
	}
	log.Infof("%d of %d hues realizable at %g° resolution", len(keep), n, key.Resolution)
	return t, nil
}

// Distinct returns the indices of devices to keep. After keeping index i,
// the scan skips i+1 when it matches i, and skips two more when i+2 matches
// i. A candidate that matches the last kept device is dropped as well, so
// consecutive kept devices always differ by more than tol in some channel.
func Distinct(devices []color.Vec3, tol float64) []int {
	var keep []int
	for i := 0; i < len(devices); i++ {
		if len(keep) > 0 && devices[i].Near(devices[keep[len(keep)-1]], tol) {
			continue
		}
		keep = append(keep, i)

		skip := 0
		if i+1 < len(devices) && devices[i].Near(devices[i+1], tol) {
			skip++
		}
		if i+2 < len(devices) && devices[i].Near(devices[i+2], tol) {
			skip += 2
		}
		i += skip
	}
	return keep
}

// Validate checks the table invariants: angles strictly increase inside
// [0, 360) and consecutive devices differ.
func (t *Table) Validate() error {
	for i, e := range t.Entries {
		if !(e.Angle >= 0 && e.Angle < 360) {
			return fmt.Errorf("entry %d: angle %g° outside [0, 360)", i, e.Angle)
		}
		if !e.Device.Finite() || !e.Chromatic.Finite() {
			return fmt.Errorf("entry %d: non-finite color", i)
		}
		if i == 0 {
			continue
		}
		prev := t.Entries[i-1]
		if e.Angle <= prev.Angle {
			return fmt.Errorf("entry %d: angle %g° does not follow %g°", i, e.Angle, prev.Angle)
		}
		if e.Device.Near(prev.Device, Tolerance) {
			return fmt.Errorf("entry %d: device %v repeats entry %d", i, e.Device, i-1)
		}
	}
	return nil
}

// Angles returns the table's angles in degrees.
func (t *Table) Angles() []float64 {
	out := make([]float64, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.Angle
	}
	return out
}

// Nearest returns the entry whose angle is circularly closest to theta.
// Ties go to the preceding entry. ok is false for an empty table.
func (t *Table) Nearest(theta hue.Angle) (e Entry, ok bool) {
	n := len(t.Entries)
	if n == 0 {
		return Entry{}, false
	}
	deg := theta.In(hue.Degrees).Normalize().Value

	i := sort.Search(n, func(i int) bool { return t.Entries[i].Angle >= deg })
	// The neighbours of deg on the circle are i-1 and i, wrapping at both ends.
	lo, hi := (i-1+n)%n, i%n
	if circularDistance(t.Entries[hi].Angle, deg) < circularDistance(t.Entries[lo].Angle, deg) {
		return t.Entries[hi], true
	}
	return t.Entries[lo], true
}

func circularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}
