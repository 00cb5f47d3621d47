// Package calibtest provides calibration fixtures for tests.
package calibtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsvensson/isohue/internal/calib"
	"github.com/jsvensson/isohue/internal/color"
)

// Text is a calibration file matching Display.
const Text = `monitor: test display
gray-level: 0.66
[A₀S, A₀M, A₀L]
0.0012, 0.0025, 0.001
[ArS, AgS, AbS; ArM, AgM, AbM; ArL, AgL, AbL]
0.9, 0.05, 0.05
0.2, 0.6, 0.1
0.05, 0.35, 0.7
[rˠ, gˠ, bˠ]
2.1, 2.2, 2.3
`

// Display resembles a measured calibration: distinct channel gammas, a small
// offset and an L/M gray ratio well away from 1. At gray level 0.66 the hue
// circle stays inside the gamut up to contrast 0.12 at both depths.
func Display() calib.Record {
	return calib.Record{
		GrayLevel: 0.66,
		Offset:    color.Vec3{0.0012, 0.0025, 0.001},
		Matrix: color.Mat3{
			{0.9, 0.05, 0.05},
			{0.2, 0.6, 0.1},
			{0.05, 0.35, 0.7},
		},
		Gamma: color.Vec3{2.1, 2.2, 2.3},
	}
}

// Identity maps device values straight to chromatic values.
func Identity() calib.Record {
	return calib.Record{
		GrayLevel: 0.5,
		Matrix:    color.Identity(),
		Gamma:     color.Vec3{1, 1, 1},
	}
}

// WriteDir writes Text as a calibration file into a fresh temp directory
// and returns the directory.
func WriteDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "display"+calib.Suffix), []byte(Text), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}
