package config

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

var (
	multipleBlankLines        = regexp.MustCompile(`\n{3,}`)
	blankLineAfterOpenBrace   = regexp.MustCompile(`\{\n\s*\n`)
	blankLineBeforeCloseBrace = regexp.MustCompile(`\n\s*\n(\s*\})`)
)

// Format rewrites HCL source in canonical style. Runs of blank lines are
// collapsed and blank lines just inside braces are removed. Source that does
// not parse is returned unchanged with an error.
func Format(src []byte, filename string) ([]byte, error) {
	if _, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1}); diags.HasErrors() {
		return src, fmt.Errorf("parsing HCL: %s", diags.Error())
	}
	out := string(hclwrite.Format(src))
	out = multipleBlankLines.ReplaceAllString(out, "\n\n")
	out = blankLineAfterOpenBrace.ReplaceAllString(out, "{\n")
	out = blankLineBeforeCloseBrace.ReplaceAllString(out, "\n${1}")
	return []byte(out), nil
}

// Template returns a starter config file for subject with every setting at
// its default.
func Template(subject string) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	session := root.AppendNewBlock("session", nil).Body()
	session.SetAttributeValue("subject", cty.StringVal(subject))
	session.SetAttributeValue("depth", cty.NumberIntVal(8))
	session.SetAttributeValue("unit", cty.StringVal("rad"))
	session.SetAttributeValue("contrast", cty.NumberFloatVal(DefaultContrast))
	session.SetAttributeValue("chromatic_scale", cty.NumberFloatVal(DefaultChromaticScale))
	session.SetAttributeValue("convention", cty.StringVal("iris"))
	session.SetAttributeValue("luminance_offset", cty.NumberIntVal(0))
	root.AppendNewline()

	paths := root.AppendNewBlock("paths", nil).Body()
	paths.SetAttributeValue("calibration", cty.StringVal("config"))
	paths.SetAttributeValue("isoslant", cty.StringVal("isolum"))
	paths.SetAttributeValue("tables", cty.StringVal("config/colorlist"))
	root.AppendNewline()

	root.AppendNewBlock("realizable", nil).Body().
		SetAttributeValue("resolution", cty.NumberFloatVal(DefaultResolution))
	root.AppendNewline()

	root.AppendNewBlock("circle", nil).Body().
		SetAttributeValue("count", cty.NumberIntVal(DefaultCircleCount))
	root.AppendNewline()

	render := root.AppendNewBlock("render", nil).Body()
	render.SetAttributeValue("templates", cty.StringVal("templates"))
	render.SetAttributeValue("out", cty.StringVal("output"))

	return hclwrite.Format(f.Bytes())
}
