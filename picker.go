// Package isohue picks colors on a calibrated iso-luminance hue circle for
// hue-discrimination experiments.
//
// A Picker ties together a display calibration, the hue generator, an
// optional per-subject isoslant correction and the table of hues the display
// can actually render:
//
//	cfg, _ := config.Load("session.hcl")
//	p, _ := isohue.Open(cfg)
//	c, _ := p.ColorAt(hue.Deg(45))
package isohue

import (
	"fmt"
	"math"

	"github.com/tliron/commonlog"

	"github.com/jsvensson/isohue/internal/calib"
	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/colorspace"
	"github.com/jsvensson/isohue/internal/config"
	"github.com/jsvensson/isohue/internal/hue"
	"github.com/jsvensson/isohue/internal/isoslant"
	"github.com/jsvensson/isohue/internal/realizable"
)

var log = commonlog.GetLogger("isohue")

// Options configure a Picker built with New.
type Options struct {
	Transform      *colorspace.Transform
	Contrast       float64
	ChromaticScale float64
	Convention     hue.Convention
	Unit           hue.Unit // unit of returned angles

	// GrayLevel overrides the calibration's gray level when set.
	GrayLevel *float64
	// LuminanceOffset moves the gray reference along the luminance axis.
	LuminanceOffset float64

	Subject  string
	Isoslant isoslant.Store // nil means no correction

	// Tables persists realizable-hue tables; nil keeps them in memory.
	Tables     *realizable.Cache
	Resolution float64 // degrees; zero uses config.DefaultResolution
}

// Picker produces colors for hue angles and maps colors back to angles.
type Picker struct {
	gen        *hue.Generator
	gray       color.Vec3
	subject    string
	isoslant   isoslant.Result
	tables     *realizable.Cache
	resolution float64
	table      *realizable.Table
}

// Open builds a Picker from a session configuration. Missing or ambiguous
// calibration and isoslant files fail here rather than per trial.
func Open(cfg *config.Config) (*Picker, error) {
	rec, err := calib.Load(cfg.CalibrationDir)
	if err != nil {
		return nil, fmt.Errorf("loading calibration: %w", err)
	}
	tr, err := colorspace.New(rec, cfg.Depth)
	if err != nil {
		return nil, fmt.Errorf("building transform: %w", err)
	}
	log.Infof("calibration from %s, %s", cfg.CalibrationDir, cfg.Depth)

	return New(Options{
		Transform:       tr,
		Contrast:        cfg.Contrast,
		ChromaticScale:  cfg.ChromaticScale,
		Convention:      cfg.Convention,
		Unit:            cfg.Unit,
		GrayLevel:       cfg.GrayLevel,
		LuminanceOffset: cfg.LuminanceOffset,
		Subject:         cfg.Subject,
		Isoslant:        isoslant.DirStore{Root: cfg.IsoslantDir},
		Tables:          &realizable.Cache{Dir: cfg.TablesDir},
		Resolution:      cfg.Resolution,
	})
}

// New builds a Picker from explicit options.
func New(opts Options) (*Picker, error) {
	gen := &hue.Generator{
		Transform:      opts.Transform,
		Contrast:       opts.Contrast,
		ChromaticScale: opts.ChromaticScale,
		Convention:     opts.Convention,
		Unit:           opts.Unit,
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}

	level := opts.Transform.Record().GrayLevel
	if opts.GrayLevel != nil {
		level = *opts.GrayLevel
	}
	gray, err := opts.Transform.GrayCenter(level)
	if err != nil {
		return nil, fmt.Errorf("gray reference: %w", err)
	}
	if opts.LuminanceOffset != 0 {
		gray = hue.Lighten(gray, opts.LuminanceOffset)
	}

	res := isoslant.Result{Outcome: isoslant.Unrequested}
	if opts.Isoslant != nil {
		res, err = opts.Isoslant.Find(opts.Subject)
		if err != nil {
			return nil, fmt.Errorf("loading isoslant correction: %w", err)
		}
	} else if opts.Subject != "" {
		log.Warningf("no isoslant store; colors for %q carry no correction", opts.Subject)
	}

	resolution := opts.Resolution
	if resolution == 0 {
		resolution = config.DefaultResolution
	}

	return &Picker{
		gen:        gen,
		gray:       gray,
		subject:    opts.Subject,
		isoslant:   res,
		tables:     opts.Tables,
		resolution: resolution,
	}, nil
}

// Gray returns the gray reference the hue circle is centered on, before any
// isoslant correction.
func (p *Picker) Gray() color.Vec3 {
	return p.gray
}

// GrayColor returns the gray reference with its device value.
func (p *Picker) GrayColor() (color.Color, error) {
	rgb, err := p.gen.Transform.ChromaticToRGB(p.gray)
	if err != nil {
		return color.Color{}, err
	}
	return color.Color{Chromatic: p.gray, Device: rgb}, nil
}

// Depth returns the display bit depth.
func (p *Picker) Depth() colorspace.Depth {
	return p.gen.Transform.Depth()
}

// Unit returns the unit of angles the picker returns.
func (p *Picker) Unit() hue.Unit {
	return p.gen.Unit
}

// Subject returns the subject the picker was built for.
func (p *Picker) Subject() string {
	return p.subject
}

// Isoslant returns how the subject's correction was obtained.
func (p *Picker) Isoslant() isoslant.Result {
	return p.isoslant
}

// ColorAt returns the color at theta, corrected for the subject's isoslant.
// Failures are logged with the angle and contrast.
func (p *Picker) ColorAt(theta hue.Angle) (color.Color, error) {
	gray := p.isoslant.Correction.Apply(p.gray, theta)
	c, err := p.gen.Generate(theta, gray)
	if err != nil {
		log.Errorf("color at %v (contrast %g): %v", theta, p.gen.Contrast, err)
		return color.Color{}, err
	}
	return c, nil
}

// AngleOf recovers the hue angle of c. The isoslant correction only scales
// the gray's luminance, so corrected colors are recovered exactly.
func (p *Picker) AngleOf(c color.Color) (hue.Angle, error) {
	theta, err := p.gen.HueFromChromatic(c.Chromatic, p.gray)
	if err != nil {
		log.Errorf("angle of %v: %v", c.Chromatic, err)
		return hue.Angle{}, err
	}
	return theta, nil
}

// AngleOfDevice recovers the hue angle of a device triple.
func (p *Picker) AngleOfDevice(rgb color.Vec3) (hue.Angle, error) {
	theta, err := p.gen.HueFromDevice(rgb, p.gray)
	if err != nil {
		log.Errorf("angle of device %v: %v", rgb, err)
		return hue.Angle{}, err
	}
	return theta, nil
}

// Circle returns n corrected colors evenly spaced around the hue circle.
func (p *Picker) Circle(n int) ([]color.Color, error) {
	if n <= 0 {
		return nil, fmt.Errorf("circle needs at least one color, got %d", n)
	}
	out := make([]color.Color, n)
	for i := range out {
		c, err := p.ColorAt(hue.Rad(2 * math.Pi * float64(i) / float64(n)))
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Key returns the realizable-table key for this picker.
func (p *Picker) Key() realizable.Key {
	return realizable.Key{Subject: p.subject, Depth: p.Depth(), Resolution: p.resolution}
}

func (p *Picker) params() realizable.Params {
	return realizable.Params{
		Contrast:       p.gen.Contrast,
		ChromaticScale: p.gen.ChromaticScale,
		Convention:     p.gen.Convention.String(),
		Gray:           p.gray,
		Amplitude:      p.isoslant.Correction.Amplitude,
		Phase:          p.isoslant.Correction.Phase,
	}
}

// Table returns the realizable-hue table, loading or building it on first
// use. Only 10-bit displays have one.
func (p *Picker) Table() (*realizable.Table, error) {
	if p.table != nil {
		return p.table, nil
	}
	var (
		t   *realizable.Table
		err error
	)
	if p.tables != nil {
		t, err = p.tables.LoadOrBuild(p, p.Key(), p.params())
	} else {
		t, err = realizable.Enumerate(p, p.Key())
	}
	if err != nil {
		return nil, err
	}
	p.table = t
	return t, nil
}

// NearestRealizableAngle snaps theta to the closest hue the display can
// render, in the picker's unit.
func (p *Picker) NearestRealizableAngle(theta hue.Angle) (hue.Angle, error) {
	t, err := p.Table()
	if err != nil {
		return hue.Angle{}, err
	}
	e, ok := t.Nearest(theta)
	if !ok {
		return hue.Angle{}, fmt.Errorf("realizable table for %q is empty", p.subject)
	}
	return hue.Deg(e.Angle).In(p.Unit()), nil
}
