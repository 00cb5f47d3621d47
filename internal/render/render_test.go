package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/colorspace"
	"github.com/jsvensson/isohue/internal/hue"
	"github.com/jsvensson/isohue/internal/realizable"
)

func testData() *Data {
	return &Data{
		Subject:  "s01",
		Depth:    colorspace.Depth8,
		Contrast: 0.12,
		Gray:     color.Color{Chromatic: color.Vec3{1, 2, 3}, Device: color.Vec3{128, 128, 128}},
		Circle: []Swatch{
			{Angle: hue.Deg(0), Color: color.Color{Device: color.Vec3{255, 0, 128}}},
			{Angle: hue.Deg(180), Color: color.Color{Device: color.Vec3{0, 255, 64}}},
		},
	}
}

func setupTemplateDir(t *testing.T, templates map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range templates {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRun(t *testing.T) {
	tmplDir := setupTemplateDir(t, map[string]string{
		"circle.csv.tmpl": `subject={{ .Subject }} space={{ colorspace }}
gray={{ hex .Gray.Device }}
{{ range .Circle }}{{ deg .Angle }},{{ hex .Color.Device }},{{ codes .Color.Device }}
{{ end }}`,
	})
	outDir := filepath.Join(t.TempDir(), "output")

	e := &Engine{TemplatesDir: tmplDir, OutputDir: outDir}
	if err := e.Run(testData()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "circle.csv"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	want := "subject=s01 space=rgb255\ngray=#808080\n0,#ff0080,255 0 128\n180,#00ff40,0 255 64\n"
	if string(got) != want {
		t.Errorf("output =\n%q\nwant\n%q", got, want)
	}
}

func TestRunTenBit(t *testing.T) {
	tmplDir := setupTemplateDir(t, map[string]string{
		"list.py.tmpl": `{{ range .Table }}{{ .Angle }}: {{ psychopy .Device }} {{ codes .Device }}
{{ end }}`,
	})
	outDir := t.TempDir()

	data := &Data{
		Depth: colorspace.Depth10,
		Table: []realizable.Entry{
			{Angle: 0.2, Device: color.Vec3{-1, 0, 1}},
			{Angle: 0.4, Device: color.Vec3{0.5, 0.25, -0.5}},
		},
	}
	e := &Engine{TemplatesDir: tmplDir, OutputDir: outDir}
	if err := e.Run(data); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "list.py"))
	if err != nil {
		t.Fatal(err)
	}
	want := "0.2: [-1.000000, 0.000000, 1.000000] 0 512 1023\n" +
		"0.4: [0.500000, 0.250000, -0.500000] 767 639 256\n"
	if string(got) != want {
		t.Errorf("output =\n%q\nwant\n%q", got, want)
	}
}

func TestRunFilteredNames(t *testing.T) {
	tmplDir := setupTemplateDir(t, map[string]string{
		"a.txt.tmpl": `a`,
		"b.txt.tmpl": `b`,
	})
	outDir := t.TempDir()

	e := &Engine{TemplatesDir: tmplDir, OutputDir: outDir, Names: []string{"b.txt"}}
	if err := e.Run(testData()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "a.txt")); !os.IsNotExist(err) {
		t.Error("a.txt should not have been rendered")
	}
	if _, err := os.Stat(filepath.Join(outDir, "b.txt")); err != nil {
		t.Errorf("b.txt should have been rendered: %v", err)
	}
}

func TestRunNoTemplates(t *testing.T) {
	e := &Engine{TemplatesDir: t.TempDir(), OutputDir: t.TempDir()}
	err := e.Run(testData())
	if err == nil || !strings.Contains(err.Error(), "no .tmpl files") {
		t.Fatalf("Run() error = %v, want no templates error", err)
	}
}

func TestRunTemplateErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"parse", `{{ .Subject `, "parsing template"},
		{"execute", `{{ hex .Subject }}`, "executing template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmplDir := setupTemplateDir(t, map[string]string{"bad.tmpl": tt.content})
			e := &Engine{TemplatesDir: tmplDir, OutputDir: t.TempDir()}
			err := e.Run(testData())
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("Run() error = %v, want %q", err, tt.msg)
			}
		})
	}
}

func TestAngleFuncs(t *testing.T) {
	funcs := Funcs(colorspace.Depth8)
	deg := funcs["deg"].(func(hue.Angle) float64)
	rad := funcs["rad"].(func(hue.Angle) float64)
	if got := deg(hue.Rad(0)); got != 0 {
		t.Errorf("deg(0rad) = %v", got)
	}
	if got := rad(hue.Deg(180)); got < 3.14159 || got > 3.1416 {
		t.Errorf("rad(180°) = %v", got)
	}
}
