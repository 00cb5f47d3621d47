package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/jsvensson/isohue"
	"github.com/jsvensson/isohue/internal/color"
	"github.com/jsvensson/isohue/internal/colorspace"
	"github.com/jsvensson/isohue/internal/config"
	"github.com/jsvensson/isohue/internal/hue"
	"github.com/jsvensson/isohue/internal/render"
)

var (
	flagConfig  string
	flagVerbose int
	flagCount   int
	flagList    bool
	flagName    []string
	flagCheck   bool
	flagForce   bool
	version     = "dev" // Injected at build time via ldflags
)

const defaultConfig = "isohue.hcl"

var rootCmd = &cobra.Command{
	Use:     "isohue",
	Short:   "Calibrated iso-luminance hue colors for hue-discrimination experiments",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Configure(flagVerbose, nil)
	},
	SilenceUsage: true,
}

var centerCmd = &cobra.Command{
	Use:   "center",
	Short: "Print the gray reference of the hue circle",
	Args:  cobra.NoArgs,
	RunE:  runCenter,
}

var colorCmd = &cobra.Command{
	Use:   "color <angle>",
	Short: "Print the color at a hue angle",
	Args:  cobra.ExactArgs(1),
	RunE:  runColor,
}

var angleCmd = &cobra.Command{
	Use:   "angle <r> <g> <b>",
	Short: "Print the hue angle of a device color",
	Args:  cobra.ExactArgs(3),
	RunE:  runAngle,
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Build or load the realizable-hue table (10-bit only)",
	Args:  cobra.NoArgs,
	RunE:  runTable,
}

var snapCmd = &cobra.Command{
	Use:   "snap <angle>",
	Short: "Snap a hue angle to the nearest realizable hue (10-bit only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnap,
}

var circleCmd = &cobra.Command{
	Use:   "circle",
	Short: "Show colors evenly spaced around the hue circle",
	Args:  cobra.NoArgs,
	RunE:  runCircle,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render templates with the session's colors",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format session config files",
	Long:  "Format one or more HCL config files in-place. Prints the name of each file that was modified.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFmt,
}

var initCmd = &cobra.Command{
	Use:   "init [subject]",
	Short: "Write a starter config file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfig, "path to session HCL file")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (can be repeated)")
	circleCmd.Flags().IntVarP(&flagCount, "count", "n", 0, "number of colors (default from config)")
	tableCmd.Flags().BoolVarP(&flagList, "list", "l", false, "print every entry")
	renderCmd.Flags().StringArrayVar(&flagName, "name", nil, "render only specific templates (can be repeated)")
	fmtCmd.Flags().BoolVarP(&flagCheck, "check", "c", false, "check if files are formatted (do not write changes)")
	initCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "overwrite an existing config file")

	rootCmd.AddCommand(centerCmd, colorCmd, angleCmd, tableCmd, snapCmd, circleCmd, renderCmd)
	rootCmd.AddCommand(fmtCmd, initCmd, versionCmd)
}

// loadConfig reads --config. The default file may be absent, in which case
// the built-in defaults apply relative to the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default("."), nil
	}
	return nil, err
}

func openPicker(cmd *cobra.Command) (*config.Config, *isohue.Picker, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	p, err := isohue.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, p, nil
}

func parseAngle(s string, unit hue.Unit) (hue.Angle, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return hue.Angle{}, fmt.Errorf("invalid angle %q", s)
	}
	return hue.Angle{Value: v, Unit: unit}, nil
}

func runCenter(cmd *cobra.Command, args []string) error {
	_, p, err := openPicker(cmd)
	if err != nil {
		return err
	}
	g, err := p.GrayColor()
	if err != nil {
		return err
	}
	printColor(cmd.OutOrStdout(), p.Depth(), "gray", g)
	return nil
}

func runColor(cmd *cobra.Command, args []string) error {
	cfg, p, err := openPicker(cmd)
	if err != nil {
		return err
	}
	theta, err := parseAngle(args[0], cfg.Unit)
	if err != nil {
		return err
	}
	c, err := p.ColorAt(theta)
	if err != nil {
		return err
	}
	printColor(cmd.OutOrStdout(), p.Depth(), theta.String(), c)
	return nil
}

func runAngle(cmd *cobra.Command, args []string) error {
	_, p, err := openPicker(cmd)
	if err != nil {
		return err
	}
	var rgb color.Vec3
	for i, s := range args {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid channel value %q", s)
		}
		rgb[i] = v
	}
	theta, err := p.AngleOfDevice(rgb)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), theta)
	return nil
}

func runTable(cmd *cobra.Command, args []string) error {
	_, p, err := openPicker(cmd)
	if err != nil {
		return err
	}
	t, err := p.Table()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	key := t.Key
	fmt.Fprintf(w, "%d realizable hues at %g° resolution (%s, subject %q)\n",
		len(t.Entries), key.Resolution, key.Depth, key.Subject)
	if flagList {
		for _, e := range t.Entries {
			c := key.Depth.Codes(e.Device)
			fmt.Fprintf(w, "%8.3f  %4d %4d %4d  %s\n", e.Angle, c[0], c[1], c[2], key.Depth.PsychoPy(e.Device))
		}
	}
	return nil
}

func runSnap(cmd *cobra.Command, args []string) error {
	cfg, p, err := openPicker(cmd)
	if err != nil {
		return err
	}
	theta, err := parseAngle(args[0], cfg.Unit)
	if err != nil {
		return err
	}
	snapped, err := p.NearestRealizableAngle(theta)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), snapped)
	return nil
}

func runCircle(cmd *cobra.Command, args []string) error {
	cfg, p, err := openPicker(cmd)
	if err != nil {
		return err
	}
	n := cfg.CircleCount
	if flagCount > 0 {
		n = flagCount
	}
	colors, err := p.Circle(n)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for i, c := range colors {
		theta := hue.Deg(360 * float64(i) / float64(n)).In(cfg.Unit)
		printColor(w, p.Depth(), theta.String(), c)
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, p, err := openPicker(cmd)
	if err != nil {
		return err
	}
	gray, err := p.GrayColor()
	if err != nil {
		return err
	}
	colors, err := p.Circle(cfg.CircleCount)
	if err != nil {
		return err
	}

	data := &render.Data{
		Subject:  cfg.Subject,
		Depth:    p.Depth(),
		Contrast: cfg.Contrast,
		Gray:     gray,
		Circle:   make([]render.Swatch, len(colors)),
	}
	for i, c := range colors {
		data.Circle[i] = render.Swatch{
			Angle: hue.Deg(360 * float64(i) / float64(len(colors))).In(cfg.Unit),
			Color: c,
		}
	}
	if p.Depth() == colorspace.Depth10 {
		t, err := p.Table()
		if err != nil {
			return err
		}
		data.Table = t.Entries
	}

	e := &render.Engine{
		TemplatesDir: cfg.TemplatesDir,
		OutputDir:    cfg.OutputDir,
		Names:        flagName,
	}
	if err := e.Run(data); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered templates in %s\n", cfg.OutputDir)
	return nil
}

func runFmt(cmd *cobra.Command, args []string) error {
	hasErrors := false
	needsFormatting := false

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error reading %s: %v\n", path, err)
			hasErrors = true
			continue
		}

		formatted, err := config.Format(data, path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error formatting %s: %v\n", path, err)
			hasErrors = true
			continue
		}

		if string(formatted) == string(data) {
			continue
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		needsFormatting = true

		if !flagCheck {
			if err := os.WriteFile(path, formatted, 0o644); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error writing %s: %v\n", path, err)
				hasErrors = true
			}
		}
	}

	if hasErrors || (flagCheck && needsFormatting) {
		os.Exit(1)
	}

	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	subject := ""
	if len(args) == 1 {
		subject = args[0]
	}
	if _, err := os.Stat(flagConfig); err == nil && !flagForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", flagConfig)
	}
	if err := os.WriteFile(flagConfig, config.Template(subject), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flagConfig)
	return nil
}

// printColor writes one line with a terminal swatch, the hex value, the
// device value and the chromatic value.
func printColor(w io.Writer, depth colorspace.Depth, label string, c color.Color) {
	out := termenv.NewOutput(w)
	hex := depth.Hex(c.Device)
	swatch := out.String("      ").Background(out.Color(hex))
	fmt.Fprintf(w, "%s %-14s %s  %s %s  sml %v\n",
		swatch, label, hex, depth.ColorSpace(), depth.PsychoPy(c.Device), c.Chromatic)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
