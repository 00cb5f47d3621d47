package realizable

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jsvensson/isohue/internal/color"
)

// ErrStale reports a cached table that does not match the requested key or
// generation parameters, or that fails validation.
var ErrStale = errors.New("realizable table cache is stale")

// Params are the generator settings a table depends on besides its Key.
type Params struct {
	Contrast       float64    `yaml:"contrast"`
	ChromaticScale float64    `yaml:"chromatic_scale"`
	Convention     string     `yaml:"convention"`
	Gray           color.Vec3 `yaml:"gray,flow"`
	Amplitude      float64    `yaml:"isoslant_amplitude"`
	Phase          float64    `yaml:"isoslant_phase"`
}

// Cache stores tables as YAML files below Dir.
type Cache struct {
	Dir string
}

type document struct {
	Subject    string       `yaml:"subject"`
	Depth      int          `yaml:"depth"`
	Resolution float64      `yaml:"resolution"`
	Params     Params       `yaml:"params"`
	Angles     []float64    `yaml:"angles,flow"`
	Devices    [][3]float64 `yaml:"devices"`
	Chromatic  [][3]float64 `yaml:"chromatic"`
}

// Path returns the file a table for key is stored in.
func (c Cache) Path(key Key) string {
	subject := key.Subject
	if subject == "" {
		subject = "nosubject"
	}
	name := fmt.Sprintf("realizable-%dbit-res%s-sub-%s.yaml",
		int(key.Depth), strconv.FormatFloat(key.Resolution, 'g', -1, 64), subject)
	return filepath.Join(c.Dir, subject, name)
}

// Save writes t to its cache file, replacing any previous table.
func (c Cache) Save(t *Table, p Params) error {
	doc := document{
		Subject:    t.Key.Subject,
		Depth:      int(t.Key.Depth),
		Resolution: t.Key.Resolution,
		Params:     p,
		Angles:     make([]float64, len(t.Entries)),
		Devices:    make([][3]float64, len(t.Entries)),
		Chromatic:  make([][3]float64, len(t.Entries)),
	}
	for i, e := range t.Entries {
		doc.Angles[i] = e.Angle
		doc.Devices[i] = e.Device
		doc.Chromatic[i] = e.Chromatic
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding realizable table: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding realizable table: %w", err)
	}

	path := c.Path(t.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating table directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".realizable-*")
	if err != nil {
		return fmt.Errorf("writing realizable table: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing realizable table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing realizable table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing realizable table: %w", err)
	}
	log.Debugf("saved realizable table %s", path)
	return nil
}

// Load reads the table for key. A missing file is reported with
// fs.ErrNotExist; a file for another key, other parameters or with broken
// invariants is reported with ErrStale.
func (c Cache) Load(key Key, p Params) (*Table, error) {
	path := c.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrStale, err)
	}
	if doc.Subject != key.Subject || doc.Depth != int(key.Depth) || doc.Resolution != key.Resolution {
		return nil, fmt.Errorf("%s: %w: stored for subject %q, %d-bit, %g° resolution",
			path, ErrStale, doc.Subject, doc.Depth, doc.Resolution)
	}
	if doc.Params != p {
		return nil, fmt.Errorf("%s: %w: generation parameters changed", path, ErrStale)
	}
	if len(doc.Devices) != len(doc.Angles) || len(doc.Chromatic) != len(doc.Angles) {
		return nil, fmt.Errorf("%s: %w: %d angles, %d devices, %d chromatic values",
			path, ErrStale, len(doc.Angles), len(doc.Devices), len(doc.Chromatic))
	}

	t := &Table{Key: key, Entries: make([]Entry, len(doc.Angles))}
	for i := range doc.Angles {
		t.Entries[i] = Entry{
			Angle:     doc.Angles[i],
			Device:    doc.Devices[i],
			Chromatic: doc.Chromatic[i],
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrStale, err)
	}
	return t, nil
}

// LoadOrBuild returns the cached table for key, enumerating and saving a
// fresh one when the cache is missing or stale.
func (c Cache) LoadOrBuild(src Source, key Key, p Params) (*Table, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	t, err := c.Load(key, p)
	switch {
	case err == nil:
		log.Debugf("using cached realizable table %s", c.Path(key))
		return t, nil
	case errors.Is(err, ErrStale):
		log.Warningf("regenerating realizable table: %v", err)
	case errors.Is(err, fs.ErrNotExist):
		log.Infof("no realizable table at %s; generating", c.Path(key))
	default:
		return nil, err
	}

	t, err = Enumerate(src, key)
	if err != nil {
		return nil, err
	}
	if err := c.Save(t, p); err != nil {
		return nil, err
	}
	return t, nil
}
