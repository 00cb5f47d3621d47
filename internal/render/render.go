// Package render writes session color data through Go templates, for
// example as stimulus lists for an experiment runner.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/tliron/commonlog"

	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/colorspace"
	"github.com/jsvensson/isohue/internal/hue"
	"github.com/jsvensson/isohue/internal/realizable"
)

var log = commonlog.GetLogger("isohue.render")

// Swatch is a color on the hue circle.
type Swatch struct {
	Angle hue.Angle
	Color color.Color
}

// Data is what templates see.
type Data struct {
	Subject  string
	Depth    colorspace.Depth
	Contrast float64
	Gray     color.Color
	Circle   []Swatch
	Table    []realizable.Entry // nil unless the display has a realizable table
}

// Engine loads and executes Go templates against session data.
type Engine struct {
	TemplatesDir string
	OutputDir    string
	Names        []string // if non-empty, only render these template basenames
}

// Run loads all .tmpl files from the templates directory, executes them
// with data, and writes one output file per template.
func (e *Engine) Run(data *Data) error {
	pattern := filepath.Join(e.TemplatesDir, "*.tmpl")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("globbing templates: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no .tmpl files found in %s", e.TemplatesDir)
	}

	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	funcs := Funcs(data.Depth)
	for _, tmplPath := range matches {
		baseName := strings.TrimSuffix(filepath.Base(tmplPath), ".tmpl")
		if !e.shouldRender(baseName) {
			continue
		}
		if err := e.renderTemplate(tmplPath, baseName, funcs, data); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) shouldRender(name string) bool {
	if len(e.Names) == 0 {
		return true
	}
	return slices.Contains(e.Names, name)
}

func (e *Engine) renderTemplate(tmplPath, outputName string, funcs template.FuncMap, data *Data) error {
	tmpl, err := template.New(filepath.Base(tmplPath)).Funcs(funcs).ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", tmplPath, err)
	}

	outPath := filepath.Join(e.OutputDir, outputName)
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", outPath, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("executing template %s: %w", tmplPath, err)
	}
	log.Debugf("rendered %s", outPath)
	return nil
}

// Funcs returns the template functions for device values at depth.
func Funcs(depth colorspace.Depth) template.FuncMap {
	return template.FuncMap{
		"hex": func(v color.Vec3) string {
			return depth.Hex(v)
		},
		"codes": func(v color.Vec3) string {
			c := depth.Codes(v)
			return fmt.Sprintf("%d %d %d", c[0], c[1], c[2])
		},
		"psychopy": func(v color.Vec3) string {
			return depth.PsychoPy(v)
		},
		"colorspace": func() string {
			return depth.ColorSpace()
		},
		"deg": func(a hue.Angle) float64 {
			return a.Degrees()
		},
		"rad": func(a hue.Angle) float64 {
			return a.Radians()
		},
	}
}
