// Package isoslant applies per-subject luminance corrections to the hue
// circle.
//
// A subject's isoslant file stores the amplitude and phase of a sinusoid
// fitted to their perceived-luminance judgements around the circle:
//
//	user: alice
//	id: s01
//	amplitude = 0.012
//	phase = 1.57
//
// Files written by the iris tool use "dl: <v>" and "phi: <v>" instead. Both
// key pairs accept either separator.
package isoslant

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/discover"
	"github.com/jsvensson/isohue/internal/hue"
)

// Suffix is the file-name suffix of isoslant artifacts.
const Suffix = ".isoslant"

var (
	finder = discover.Finder{Kind: "isoslant", Suffix: Suffix}
	log    = commonlog.GetLogger("isohue.isoslant")
)

// Correction is a sinusoidal luminance offset over the hue circle. The zero
// value applies no correction.
type Correction struct {
	Amplitude float64
	Phase     float64 // radians
}

// Delta returns the relative luminance change at theta.
func (c Correction) Delta(theta hue.Angle) float64 {
	sin, cos := math.Sincos(theta.Radians())
	psin, pcos := math.Sincos(c.Phase)
	return c.Amplitude * (cos*pcos + sin*psin)
}

// Apply returns gray moved along the luminance axis by Delta(theta).
func (c Correction) Apply(gray color.Vec3, theta hue.Angle) color.Vec3 {
	if c.Amplitude == 0 {
		return gray
	}
	return hue.Lighten(gray, c.Delta(theta))
}

// IsZero reports whether c applies no correction.
func (c Correction) IsZero() bool {
	return c.Amplitude == 0
}

// Outcome says how a correction was obtained.
type Outcome int

const (
	// Found means an isoslant file was read.
	Found Outcome = iota
	// Missing means the subject has no isoslant file.
	Missing
	// Unrequested means no subject was given.
	Unrequested
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Missing:
		return "missing"
	default:
		return "unrequested"
	}
}

// Result is the outcome of a lookup and the correction to use.
type Result struct {
	Outcome    Outcome
	Correction Correction
	Path       string // file the correction was read from, if Found
}

// Store looks up a subject's correction.
type Store interface {
	Find(subject string) (Result, error)
}

// DirStore finds isoslant files under Root/<subject>.
type DirStore struct {
	Root string
}

// Find scans Root/subject recursively for exactly one isoslant file. A
// missing file yields a zero correction and a logged warning; more than one
// is a *discover.AmbiguousError.
func (s DirStore) Find(subject string) (Result, error) {
	if subject == "" {
		log.Warning("no subject given; hue colors carry no isoslant correction")
		return Result{Outcome: Unrequested}, nil
	}

	dir := filepath.Join(s.Root, subject)
	path, err := finder.Find(dir)
	if err != nil {
		var nf *discover.NotFoundError
		if errors.As(err, &nf) {
			log.Warningf("no isoslant file for subject %q in %s; hue colors carry no correction", subject, dir)
			return Result{Outcome: Missing}, nil
		}
		return Result{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening isoslant file: %w", err)
	}
	defer f.Close()

	corr, err := Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("isoslant correction for %q: amplitude %g, phase %g", subject, corr.Amplitude, corr.Phase)
	return Result{Outcome: Found, Correction: corr, Path: path}, nil
}

// Fixed is a Store that returns the same correction for every subject.
type Fixed Correction

func (f Fixed) Find(string) (Result, error) {
	return Result{Outcome: Found, Correction: Correction(f)}, nil
}

var keyAliases = map[string]string{
	"amplitude": "amplitude",
	"dl":        "amplitude",
	"phase":     "phase",
	"phi":       "phase",
}

// Parse reads an isoslant file. Both amplitude and phase must be present.
func Parse(r io.Reader) (Correction, error) {
	var (
		c    Correction
		seen = map[string]bool{}
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		key, value, ok := cutKey(sc.Text())
		if !ok {
			continue
		}
		name, known := keyAliases[key]
		if !known || seen[name] {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Correction{}, fmt.Errorf("line %d: invalid %s %q", lineNo, key, value)
		}
		seen[name] = true
		if name == "amplitude" {
			c.Amplitude = v
		} else {
			c.Phase = v
		}
	}
	if err := sc.Err(); err != nil {
		return Correction{}, err
	}
	for _, name := range []string{"amplitude", "phase"} {
		if !seen[name] {
			return Correction{}, fmt.Errorf("missing %s", name)
		}
	}
	return c, nil
}

// cutKey splits "key = value" or "key: value" on the first separator.
func cutKey(line string) (key, value string, ok bool) {
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(line[:i]))
	value = strings.TrimSpace(line[i+1:])
	return key, value, key != ""
}
