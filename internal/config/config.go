// Package config loads session configuration from HCL files.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/mitchellh/go-homedir"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/jsvensson/isohue/internal/colorspace"
	"github.com/jsvensson/isohue/internal/hue"
)

// Defaults for settings the file leaves out.
const (
	DefaultContrast       = 0.12
	DefaultChromaticScale = 2.6
	DefaultResolution     = 0.2
	DefaultCircleCount    = 8
)

// Config is a fully resolved session configuration. Directories are
// absolute or relative to the working directory.
type Config struct {
	Subject         string
	Depth           colorspace.Depth
	Unit            hue.Unit
	Contrast        float64
	ChromaticScale  float64
	Convention      hue.Convention
	GrayLevel       *float64 // nil uses the calibration's gray level
	LuminanceOffset float64

	CalibrationDir string
	IsoslantDir    string
	TablesDir      string

	Resolution  float64
	CircleCount int

	TemplatesDir string
	OutputDir    string
}

// Default returns the configuration used when no file is given. Relative
// directories are resolved against dir.
func Default(dir string) *Config {
	return &Config{
		Depth:          colorspace.Depth8,
		Unit:           hue.Radians,
		Contrast:       DefaultContrast,
		ChromaticScale: DefaultChromaticScale,
		Convention:     hue.Iris,
		CalibrationDir: filepath.Join(dir, "config"),
		IsoslantDir:    filepath.Join(dir, "isolum"),
		TablesDir:      filepath.Join(dir, "config", "colorlist"),
		Resolution:     DefaultResolution,
		CircleCount:    DefaultCircleCount,
		TemplatesDir:   filepath.Join(dir, "templates"),
		OutputDir:      filepath.Join(dir, "output"),
	}
}

type fileConfig struct {
	Session    *sessionBlock    `hcl:"session,block"`
	Paths      *pathsBlock      `hcl:"paths,block"`
	Realizable *realizableBlock `hcl:"realizable,block"`
	Circle     *circleBlock     `hcl:"circle,block"`
	Render     *renderBlock     `hcl:"render,block"`
}

type sessionBlock struct {
	Subject         string   `hcl:"subject,optional"`
	Depth           *int     `hcl:"depth,optional"`
	Unit            string   `hcl:"unit,optional"`
	Contrast        *float64 `hcl:"contrast,optional"`
	ChromaticScale  *float64 `hcl:"chromatic_scale,optional"`
	Convention      string   `hcl:"convention,optional"`
	GrayLevel       *float64 `hcl:"gray_level,optional"`
	LuminanceOffset *float64 `hcl:"luminance_offset,optional"`
}

type pathsBlock struct {
	Calibration string `hcl:"calibration,optional"`
	Isoslant    string `hcl:"isoslant,optional"`
	Tables      string `hcl:"tables,optional"`
}

type realizableBlock struct {
	Resolution *float64 `hcl:"resolution,optional"`
}

type circleBlock struct {
	Count *int `hcl:"count,optional"`
}

type renderBlock struct {
	Templates string `hcl:"templates,optional"`
	Out       string `hcl:"out,optional"`
}

// Load parses the HCL file at path and applies defaults. Relative paths in
// the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes HCL source. filename is used in diagnostics and as the base
// for relative paths.
func Parse(src []byte, filename string) (*Config, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing HCL: %s", diags.Error())
	}

	var raw fileConfig
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decoding: %s", diags.Error())
	}

	dir := filepath.Dir(filename)
	cfg := Default(dir)
	if err := raw.apply(cfg, dir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

func (raw *fileConfig) apply(cfg *Config, dir string) error {
	if s := raw.Session; s != nil {
		cfg.Subject = s.Subject
		if s.Depth != nil {
			d, err := colorspace.ParseDepth(*s.Depth)
			if err != nil {
				return fmt.Errorf("session.depth: %w", err)
			}
			cfg.Depth = d
		}
		if s.Unit != "" {
			u, err := hue.ParseUnit(s.Unit)
			if err != nil {
				return fmt.Errorf("session.unit: %w", err)
			}
			cfg.Unit = u
		}
		if s.Convention != "" {
			c, err := hue.ParseConvention(s.Convention)
			if err != nil {
				return fmt.Errorf("session.convention: %w", err)
			}
			cfg.Convention = c
		}
		setFloat(&cfg.Contrast, s.Contrast)
		setFloat(&cfg.ChromaticScale, s.ChromaticScale)
		setFloat(&cfg.LuminanceOffset, s.LuminanceOffset)
		cfg.GrayLevel = s.GrayLevel
	}

	var err error
	if p := raw.Paths; p != nil {
		if err = setPath(&cfg.CalibrationDir, p.Calibration, dir); err != nil {
			return err
		}
		if err = setPath(&cfg.IsoslantDir, p.Isoslant, dir); err != nil {
			return err
		}
		if err = setPath(&cfg.TablesDir, p.Tables, dir); err != nil {
			return err
		}
	}
	if r := raw.Render; r != nil {
		if err = setPath(&cfg.TemplatesDir, r.Templates, dir); err != nil {
			return err
		}
		if err = setPath(&cfg.OutputDir, r.Out, dir); err != nil {
			return err
		}
	}
	if r := raw.Realizable; r != nil {
		setFloat(&cfg.Resolution, r.Resolution)
	}
	if c := raw.Circle; c != nil && c.Count != nil {
		cfg.CircleCount = *c.Count
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// setPath expands ~ and resolves p against dir. An empty p keeps the default.
func setPath(dst *string, p, dir string) error {
	if p == "" {
		return nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return fmt.Errorf("expanding %q: %w", p, err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(dir, expanded)
	}
	*dst = filepath.Clean(expanded)
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.Subject, `/\`) || c.Subject == "." || c.Subject == ".." {
		return fmt.Errorf("session.subject %q must be a plain name", c.Subject)
	}
	if !(c.Contrast > 0) || math.IsInf(c.Contrast, 0) {
		return fmt.Errorf("session.contrast %g must be positive", c.Contrast)
	}
	if c.ChromaticScale == 0 || math.IsInf(c.ChromaticScale, 0) || math.IsNaN(c.ChromaticScale) {
		return fmt.Errorf("session.chromatic_scale %g must be finite and non-zero", c.ChromaticScale)
	}
	if c.GrayLevel != nil && !(*c.GrayLevel >= 0 && *c.GrayLevel <= 1) {
		return fmt.Errorf("session.gray_level %g must be in [0, 1]", *c.GrayLevel)
	}
	if !(c.LuminanceOffset > -1) || math.IsInf(c.LuminanceOffset, 0) {
		return fmt.Errorf("session.luminance_offset %g must be greater than -1", c.LuminanceOffset)
	}
	if !(c.Resolution > 0 && c.Resolution < 360) {
		return fmt.Errorf("realizable.resolution %g must be in (0, 360)", c.Resolution)
	}
	if c.CircleCount <= 0 {
		return fmt.Errorf("circle.count %d must be positive", c.CircleCount)
	}
	return nil
}

// evalContext exposes environment variables as env.NAME along with a few
// numeric and string helpers.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntax.ValidIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
		Functions: functions(),
	}
}

func functions() map[string]function.Function {
	return map[string]function.Function{
		"abs":      stdlib.AbsoluteFunc,
		"coalesce": stdlib.CoalesceFunc,
		"format":   stdlib.FormatFunc,
		"lower":    stdlib.LowerFunc,
		"max":      stdlib.MaxFunc,
		"min":      stdlib.MinFunc,
		"upper":    stdlib.UpperFunc,
	}
}

