package isohue

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jsvensson/isohue/internal/calib"
	"github.com/jsvensson/isohue/internal/calib/calibtest"
	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/colorspace"
	"github.com/jsvensson/isohue/internal/config"
	"github.com/jsvensson/isohue/internal/discover"
	"github.com/jsvensson/isohue/internal/hue"
	"github.com/jsvensson/isohue/internal/isoslant"
	"github.com/jsvensson/isohue/internal/realizable"
)

// testConfig lays out a session directory with a calibration file and
// returns a config pointing at it.
func testConfig(t *testing.T, depth colorspace.Depth) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	cfg.Subject = "s01"
	cfg.Depth = depth
	cfg.Unit = hue.Degrees
	writeFile(t, filepath.Join(cfg.CalibrationDir, "display"+calib.Suffix), calibtest.Text)
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func degDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}

func TestOpenWithoutIsoslant(t *testing.T) {
	p, err := Open(testConfig(t, colorspace.Depth8))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if got := p.Isoslant().Outcome; got != isoslant.Missing {
		t.Errorf("Isoslant().Outcome = %v, want missing", got)
	}

	for _, deg := range []float64{0, 33, 90, 200, 359} {
		c, err := p.ColorAt(hue.Deg(deg))
		if err != nil {
			t.Fatalf("ColorAt(%v°) error: %v", deg, err)
		}
		got, err := p.AngleOf(c)
		if err != nil {
			t.Fatalf("AngleOf() error: %v", err)
		}
		if got.Unit != hue.Degrees || degDistance(got.Value, deg) > 1e-6 {
			t.Errorf("AngleOf(ColorAt(%v°)) = %v", deg, got)
		}
		got, err = p.AngleOfDevice(c.Device)
		if err != nil {
			t.Fatalf("AngleOfDevice() error: %v", err)
		}
		if degDistance(got.Value, deg) > 1e-6 {
			t.Errorf("AngleOfDevice(ColorAt(%v°)) = %v", deg, got)
		}
	}
}

func TestOpenWithIsoslant(t *testing.T) {
	cfg := testConfig(t, colorspace.Depth10)
	writeFile(t, filepath.Join(cfg.IsoslantDir, "s01", "s01.isoslant"),
		"user: alice\nid: s01\namplitude = 0.01\nphase = 0.5\n")

	p, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if got := p.Isoslant(); got.Outcome != isoslant.Found || got.Correction.Amplitude != 0.01 {
		t.Fatalf("Isoslant() = %+v", got)
	}

	plain := &hue.Generator{
		Transform:      mustTransform(t, colorspace.Depth10),
		Contrast:       cfg.Contrast,
		ChromaticScale: cfg.ChromaticScale,
	}
	theta := hue.Deg(20)
	corrected, err := p.ColorAt(theta)
	if err != nil {
		t.Fatalf("ColorAt() error: %v", err)
	}
	uncorrected, err := plain.Generate(theta, p.Gray())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if corrected.Chromatic.Near(uncorrected.Chromatic, 1e-9) {
		t.Error("isoslant correction did not change the color")
	}
	// M and L move together by 1+Delta.
	delta := isoslant.Correction{Amplitude: 0.01, Phase: 0.5}.Delta(theta)
	ratio := corrected.Chromatic[color.M] / uncorrected.Chromatic[color.M]
	if math.Abs(ratio-(1+delta)) > 1e-12 {
		t.Errorf("M ratio = %v, want %v", ratio, 1+delta)
	}

	got, err := p.AngleOf(corrected)
	if err != nil {
		t.Fatalf("AngleOf() error: %v", err)
	}
	if degDistance(got.Value, 20) > 1e-9 {
		t.Errorf("AngleOf(corrected) = %v, want 20°", got)
	}
}

func mustTransform(t *testing.T, depth colorspace.Depth) *colorspace.Transform {
	t.Helper()
	tr, err := colorspace.New(calibtest.Display(), depth)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestOpenDiscoveryErrors(t *testing.T) {
	t.Run("no calibration", func(t *testing.T) {
		cfg := config.Default(t.TempDir())
		_, err := Open(cfg)
		var nf *discover.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("Open() error = %v, want *discover.NotFoundError", err)
		}
	})

	t.Run("two calibrations", func(t *testing.T) {
		cfg := testConfig(t, colorspace.Depth8)
		writeFile(t, filepath.Join(cfg.CalibrationDir, "old", "other"+calib.Suffix), calibtest.Text)
		_, err := Open(cfg)
		var amb *discover.AmbiguousError
		if !errors.As(err, &amb) {
			t.Fatalf("Open() error = %v, want *discover.AmbiguousError", err)
		}
	})

	t.Run("two isoslant files", func(t *testing.T) {
		cfg := testConfig(t, colorspace.Depth8)
		writeFile(t, filepath.Join(cfg.IsoslantDir, "s01", "a.isoslant"), "amplitude = 0\nphase = 0\n")
		writeFile(t, filepath.Join(cfg.IsoslantDir, "s01", "b.isoslant"), "amplitude = 0\nphase = 0\n")
		_, err := Open(cfg)
		var amb *discover.AmbiguousError
		if !errors.As(err, &amb) {
			t.Fatalf("Open() error = %v, want *discover.AmbiguousError", err)
		}
	})
}

func TestGrayLevelOverride(t *testing.T) {
	tr := mustTransform(t, colorspace.Depth8)
	level := 0.5
	p, err := New(Options{Transform: tr, Contrast: 0.12, ChromaticScale: 2.6, GrayLevel: &level})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	want, err := tr.GrayCenter(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Gray() != want {
		t.Errorf("Gray() = %v, want %v", p.Gray(), want)
	}
	if p.Isoslant().Outcome != isoslant.Unrequested {
		t.Errorf("Isoslant().Outcome = %v, want unrequested", p.Isoslant().Outcome)
	}
}

func TestLuminanceOffset(t *testing.T) {
	tr := mustTransform(t, colorspace.Depth8)
	p, err := New(Options{Transform: tr, Contrast: 0.12, ChromaticScale: 2.6, LuminanceOffset: -0.05})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	base, err := tr.GrayCenter(tr.Record().GrayLevel)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(hue.Lighten(base, -0.05), p.Gray(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Gray() mismatch (-want +got):\n%s", diff)
	}

	g, err := p.GrayColor()
	if err != nil {
		t.Fatalf("GrayColor() error: %v", err)
	}
	back, err := tr.RGBToChromatic(g.Device)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(p.Gray(), back, cmpopts.EquateApprox(1e-9, 0)); diff != "" {
		t.Errorf("GrayColor() device does not map back to the gray (-want +got):\n%s", diff)
	}
}

func TestColorAtOutOfGamut(t *testing.T) {
	p, err := New(Options{Transform: mustTransform(t, colorspace.Depth8), Contrast: 0.3, ChromaticScale: 2.6})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	_, err = p.ColorAt(hue.Deg(90))
	var oor *colorspace.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("ColorAt() error = %v, want *colorspace.OutOfRangeError", err)
	}
}

func TestCircle(t *testing.T) {
	p, err := Open(testConfig(t, colorspace.Depth8))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	colors, err := p.Circle(6)
	if err != nil {
		t.Fatalf("Circle() error: %v", err)
	}
	if len(colors) != 6 {
		t.Fatalf("len(Circle(6)) = %d", len(colors))
	}
	for i, c := range colors {
		got, err := p.AngleOf(c)
		if err != nil {
			t.Fatal(err)
		}
		if degDistance(got.Value, float64(i)*60) > 1e-6 {
			t.Errorf("circle[%d] at %v, want %d°", i, got, i*60)
		}
	}
	if _, err := p.Circle(-1); err == nil {
		t.Error("Circle(-1) succeeded")
	}
}

func TestNearestRealizableAngle(t *testing.T) {
	cfg := testConfig(t, colorspace.Depth10)
	cfg.Resolution = 0.5
	p, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	got, err := p.NearestRealizableAngle(hue.Deg(123.4))
	if err != nil {
		t.Fatalf("NearestRealizableAngle() error: %v", err)
	}
	if got.Unit != hue.Degrees {
		t.Errorf("unit = %v, want deg", got.Unit)
	}
	table, err := p.Table()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range table.Entries {
		if e.Angle == got.Value {
			found = true
		}
		if degDistance(e.Angle, 123.4) < degDistance(got.Value, 123.4) {
			t.Errorf("entry %v° is closer to 123.4° than %v", e.Angle, got)
		}
	}
	if !found {
		t.Errorf("NearestRealizableAngle() = %v, not a table entry", got)
	}

	cache := realizable.Cache{Dir: cfg.TablesDir}
	if _, err := os.Stat(cache.Path(p.Key())); err != nil {
		t.Errorf("table was not cached: %v", err)
	}

	// A fresh picker reuses the cached table.
	p2, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	table2, err := p2.Table()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(table, table2); diff != "" {
		t.Errorf("cached table differs (-built +cached):\n%s", diff)
	}
}

func TestNearestRealizableAngleRadians(t *testing.T) {
	tr := mustTransform(t, colorspace.Depth10)
	p, err := New(Options{Transform: tr, Contrast: 0.12, ChromaticScale: 2.6, Resolution: 1})
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.NearestRealizableAngle(hue.Rad(1))
	if err != nil {
		t.Fatalf("NearestRealizableAngle() error: %v", err)
	}
	if got.Unit != hue.Radians {
		t.Errorf("unit = %v, want rad", got.Unit)
	}
	if math.Abs(got.Value-1) > 2*math.Pi/360 {
		t.Errorf("NearestRealizableAngle(1rad) = %v", got)
	}
}

func TestNearestRealizableAngle8Bit(t *testing.T) {
	p, err := Open(testConfig(t, colorspace.Depth8))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.NearestRealizableAngle(hue.Deg(10))
	var ude *colorspace.UnsupportedDepthError
	if !errors.As(err, &ude) {
		t.Fatalf("NearestRealizableAngle() error = %v, want *colorspace.UnsupportedDepthError", err)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(Options{Contrast: 0.1, ChromaticScale: 1}); err == nil {
		t.Error("New() without a transform succeeded")
	}
	if _, err := New(Options{Transform: mustTransform(t, colorspace.Depth8), ChromaticScale: 1}); err == nil {
		t.Error("New() with zero contrast succeeded")
	}
}
