// Package calib reads display calibration records (*.rgb2lms files).
//
// A calibration file is free text with four labeled sections:
//
//	gray-level: 0.66
//	[A₀S, A₀M, A₀L]
//	0.0012, 0.0034, 0.0056
//	[ArS, AgS, AbS; ArM, AgM, AbM; ArL, AgL, AbL]
//	1.1, 2.2, 3.3
//	4.4, 5.5, 6.6
//	7.7, 8.8, 9.9
//	[rˠ, gˠ, bˠ]
//	2.1, 2.2, 2.3
//
// Any other lines are ignored.
package calib

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/discover"
)

// Suffix is the file-name suffix of calibration artifacts.
const Suffix = ".rgb2lms"

// Precision is the number of decimal places parsed values are rounded to.
const Precision = 10

// Section markers.
const (
	markerGray   = "gray-level"
	markerOffset = "[A₀S, A₀M, A₀L]"
	markerMatrix = "ArL, AgL, AbL"
	markerGamma  = "[rˠ, gˠ, bˠ]"
)

var finder = discover.Finder{Kind: "calibration", Suffix: Suffix}

// Record is one display calibration: sml = Matrix · rgb^Gamma + Offset.
type Record struct {
	GrayLevel float64
	Offset    color.Vec3
	Matrix    color.Mat3
	Gamma     color.Vec3
}

// MalformedError reports a calibration file that could not be parsed.
type MalformedError struct {
	Path    string
	Section string
	Line    int // 1-based; 0 when the section is missing entirely
	Err     error
}

func (e *MalformedError) Error() string {
	where := e.Path
	if where == "" {
		where = "calibration"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: malformed %s: %v", where, e.Line, e.Section, e.Err)
	}
	return fmt.Sprintf("%s: malformed %s: %v", where, e.Section, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Validate checks the invariants the transform relies on.
func (r Record) Validate() error {
	if math.IsNaN(r.GrayLevel) || r.GrayLevel < 0 || r.GrayLevel > 1 {
		return fmt.Errorf("gray level %g outside [0, 1]", r.GrayLevel)
	}
	for i, g := range r.Gamma {
		if !(g > 0) || math.IsInf(g, 0) {
			return fmt.Errorf("gamma[%d] = %g must be positive", i, g)
		}
	}
	if !r.Offset.Finite() {
		return fmt.Errorf("offset %v is not finite", r.Offset)
	}
	for i, row := range r.Matrix {
		if !color.Vec3(row).Finite() {
			return fmt.Errorf("matrix row %d %v is not finite", i, row)
		}
	}
	return nil
}

// Load finds the single calibration file below dir and parses it.
func Load(dir string) (Record, error) {
	path, err := finder.Find(dir)
	if err != nil {
		return Record{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("opening calibration: %w", err)
	}
	defer f.Close()

	return parse(f, path)
}

// LoadFS is Load over an fs.FS rooted at root.
func LoadFS(fsys fs.FS, root string) (Record, error) {
	path, err := finder.FindFS(fsys, root, root)
	if err != nil {
		return Record{}, err
	}
	f, err := fsys.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("opening calibration: %w", err)
	}
	defer f.Close()

	return parse(f, path)
}

// Parse reads a calibration record from r.
func Parse(r io.Reader) (Record, error) {
	return parse(r, "")
}

func parse(r io.Reader, path string) (Record, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Record{}, fmt.Errorf("reading calibration: %w", err)
	}

	var (
		rec                                   Record
		haveGray, haveOffset, haveMat, haveGm bool
	)
	malformed := func(section string, line int, err error) error {
		return &MalformedError{Path: path, Section: section, Line: line, Err: err}
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(trimmed, markerGray):
			_, val, ok := cutSeparator(trimmed)
			if !ok {
				return Record{}, malformed("gray level", i+1, fmt.Errorf("missing value in %q", trimmed))
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return Record{}, malformed("gray level", i+1, err)
			}
			rec.GrayLevel = roundTo(v)
			haveGray = true

		case strings.Contains(trimmed, markerOffset):
			v, err := rowAfter(lines, i+1)
			if err != nil {
				return Record{}, malformed("offset", i+2, err)
			}
			rec.Offset = v
			haveOffset = true

		case strings.Contains(trimmed, markerMatrix):
			for k := 0; k < 3; k++ {
				v, err := rowAfter(lines, i+1+k)
				if err != nil {
					return Record{}, malformed("matrix", i+2+k, err)
				}
				rec.Matrix[k] = v
			}
			haveMat = true

		case strings.Contains(trimmed, markerGamma):
			v, err := rowAfter(lines, i+1)
			if err != nil {
				return Record{}, malformed("gamma", i+2, err)
			}
			rec.Gamma = v
			haveGm = true
		}
	}

	switch {
	case !haveGray:
		return Record{}, malformed("gray level", 0, fmt.Errorf("no %q line", markerGray))
	case !haveOffset:
		return Record{}, malformed("offset", 0, fmt.Errorf("no %s section", markerOffset))
	case !haveMat:
		return Record{}, malformed("matrix", 0, fmt.Errorf("no %q section", markerMatrix))
	case !haveGm:
		return Record{}, malformed("gamma", 0, fmt.Errorf("no %s section", markerGamma))
	}

	if err := rec.Validate(); err != nil {
		return Record{}, malformed("record", 0, err)
	}
	return rec, nil
}

// rowAfter parses lines[idx] as three comma-separated numbers.
func rowAfter(lines []string, idx int) (color.Vec3, error) {
	if idx >= len(lines) {
		return color.Vec3{}, fmt.Errorf("unexpected end of file")
	}
	fields := strings.Split(strings.TrimSpace(lines[idx]), ",")
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return color.Vec3{}, err
		}
		vals = append(vals, v)
	}
	v, err := color.FromSlice(vals)
	if err != nil {
		return color.Vec3{}, err
	}
	return v.Round(Precision), nil
}

// cutSeparator splits "key: value" or "key = value".
func cutSeparator(s string) (key, val string, ok bool) {
	if i := strings.IndexAny(s, ":="); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return "", "", false
}

func roundTo(x float64) float64 {
	p := math.Pow(10, Precision)
	return math.Round(x*p) / p
}
