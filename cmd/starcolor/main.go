// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/mlnoga/starcolor/internal/colormap"
	"github.com/mlnoga/starcolor/internal/ops"
	"github.com/mlnoga/starcolor/internal/render"
	"github.com/mlnoga/starcolor/internal/rest"
	"github.com/mlnoga/starcolor/internal/spectrum"
	"github.com/mlnoga/starcolor/internal/stats"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "", "save output image to `file`, format by suffix: .png, .jpg or .tif")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log, or names a log file for serve")

var data = flag.String("data", ".", "data `directory` holding spectra, with line lists in its elements subdirectory")
var addr = flag.String("addr", ":8080", "listen on `address` when serving")
var chroot = flag.String("chroot", "", "chroot into `directory` before serving (requires root). A relative -data is then resolved inside it")
var setuid = flag.Int("setuid", -1, "change to user `id` before serving, -1=don't")

var scale = flag.Float64("scale", 1, "multiply spectrum wavelengths by this factor to get nm, e.g. 0.1 for Angstrom")
var lineScale = flag.Float64("lineScale", 1, "multiply element line wavelengths by this factor to get nm, e.g. 0.1 for Angstrom")
var strict = flag.Bool("strict", false, "reject files with malformed rows instead of skipping the rows")
var header = flag.String("header", "auto", "CSV header row: auto, yes or no")

var stops = flag.Int("stops", 400, "number of color bar intervals; stops+1 colors are produced")
var minWl = flag.Float64("min", spectrum.VisibleMin, "color bar start wavelength in nm")
var maxWl = flag.Float64("max", spectrum.VisibleMax, "color bar end wavelength in nm")
var renorm = flag.Bool("renorm", false, "renormalize the color bar by its own brightest stop")

var width = flag.Int("width", 0, "image width in pixels, 0=default for the command")
var height = flag.Int("height", 0, "image height in pixels, 0=default for the command")
var radius = flag.Int("radius", 50, "star radius in pixels")
var elems = flag.String("elements", "", "comma separated element symbols to mark in plots, e.g. `H,Na`")

var threads = flag.Int("threads", 0, "maximum threads for loading, 0=number of physical cores")
var cacheMB = flag.Int("cacheMB", 0, "cache budget in MB, 0=a tenth of physical memory")

func main() {
	logWriter := ops.NewLogWriter(os.Stdout)
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Starcolor Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (serve|stats|color|bar|star|plot|map|legal|version) (args)

Commands:
  serve   Serve the browser chart and REST API for the spectra in the data directory
  stats   Show statistics, star color and blackbody fit of the given spectra
  color   Show the color of the given wavelengths in nm
  bar     Render the color bar of a spectrum, as CSS gradient or to -out
  star    Render the star color swatch of a spectrum to -out
  plot    Render the chart of a spectrum to -out
  map     Print the wavelength to color mapping from -min to -max as CSV
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.CommandLine.SetOutput(logWriter)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else if args[0] == "serve" {
			*log = ops.AutoLogFileName(args[0], start)
		} else {
			*log = ""
		}
	}
	if *log != "" {
		if err := logWriter.AlsoToFile(*log); err != nil {
			fmt.Fprintf(logWriter, "Unable to open logfile '%s': %s\n", *log, err)
			os.Exit(-1)
		}
	}
	defer logWriter.Close()

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fatal(logWriter, "Could not create CPU profile: %s\n", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fatal(logWriter, "Could not start CPU profile: %s\n", err)
		}
		defer pprof.StopCPUProfile()
	}

	c, err := newContext(logWriter)
	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err)
		flag.Usage()
		logWriter.Close()
		os.Exit(-1)
	}

	// run actions
	switch args[0] {
	case "serve":
		err = cmdServe(c)

	case "stats":
		err = cmdStats(c, args[1:])

	case "color":
		err = cmdColor(logWriter, args[1:])

	case "bar":
		err = cmdBar(c, args[1:])

	case "star":
		err = cmdStar(c, args[1:])

	case "plot":
		err = cmdPlot(c, args[1:])

	case "map":
		err = cmdMap(logWriter)

	case "legal":
		cmdLegal(logWriter)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if args[0] == "stats" || args[0] == "bar" || args[0] == "star" || args[0] == "plot" {
		fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start))
	}

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fatal(logWriter, "Could not create memory profile: %s\n", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			fatal(logWriter, "Could not write allocation profile: %s\n", err)
		}
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		logWriter.Close()
		os.Exit(-1)
	}
}

func fatal(logWriter *ops.LogWriter, format string, args ...interface{}) {
	fmt.Fprintf(logWriter, format, args...)
	logWriter.Close()
	os.Exit(-1)
}

func parseHeaderMode(s string) (spectrum.HeaderMode, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return spectrum.HeaderAuto, nil
	case "yes", "true", "1":
		return spectrum.HeaderPresent, nil
	case "no", "false", "0":
		return spectrum.HeaderAbsent, nil
	}
	return spectrum.HeaderAuto, fmt.Errorf("invalid header mode '%s', want auto, yes or no", s)
}

// builds the execution context from the flags
func newContext(logWriter io.Writer) (*ops.Context, error) {
	hm, err := parseHeaderMode(*header)
	if err != nil {
		return nil, err
	}
	if *stops < 0 || *stops > rest.MaxStops {
		return nil, fmt.Errorf("stops %d not in 0..%d", *stops, rest.MaxStops)
	}
	if err := spectrum.CheckRange(*minWl, *maxWl); err != nil {
		return nil, err
	}
	c := ops.NewContext(logWriter, *data,
		spectrum.CSVOptions{Header: hm, WavelengthScale: *scale, Strict: *strict},
		spectrum.CSVOptions{Header: hm, WavelengthScale: *lineScale, Strict: *strict},
	)
	if *threads > 0 {
		c.MaxThreads = *threads
	}
	if *cacheMB > 0 {
		c.SetCacheMB(*cacheMB)
	}
	return c, nil
}

func viewOptions() ops.ViewOptions {
	opts := ops.DefaultViewOptions()
	opts.ColorBar = colormap.ColorBarOptions{Min: *minWl, Max: *maxWl, Stops: *stops, LocalRenormalize: *renorm}
	return opts
}

func cmdServe(c *ops.Context) error {
	c.Restrict = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rest.MakeSandbox(c.Log, *chroot, *setuid); err != nil {
		return err
	}
	if err := c.Watch(ctx, nil); err != nil {
		fmt.Fprintf(c.Log, "Not watching for changes: %s\n", err)
	}
	return rest.Serve(c, *addr)
}

func cmdStats(c *ops.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("no spectra given")
	}
	ss, err := c.LoadAll(args)
	for id, s := range ss {
		sum := stats.Summarize(s)
		star := colormap.AverageColor(s.Samples)
		fmt.Fprintf(c.Log, "%d: %s\n", id, s)
		fmt.Fprintf(c.Log, "%d: %s\n", id, sum)
		fmt.Fprintf(c.Log, "%d: star color %s %s\n", id, star.Hex(), star.CSS(1))
		if min, max, berr := s.Bounds(); berr == nil {
			if fit, ferr := stats.FitBlackbody(s, min, max); ferr != nil {
				fmt.Fprintf(c.Log, "%d: no blackbody fit: %s\n", id, ferr)
			} else {
				ref := colormap.BVToRGB(fit.BV)
				fmt.Fprintf(c.Log, "%d: blackbody %s, reference color %s\n", id, fit, ref.Hex())
			}
		}
	}
	return err
}

func cmdColor(logWriter io.Writer, args []string) error {
	if len(args) == 0 {
		return errors.New("no wavelengths given")
	}
	for _, a := range args {
		wl, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("wavelength '%s': %w", a, err)
		}
		col := colormap.WavelengthToRGB(wl)
		fmt.Fprintf(logWriter, "%g nm: %s %s\n", wl, col.Hex(), col.CSS(1))
	}
	return nil
}

// loads the single spectrum named by args and computes its view
func loadView(c *ops.Context, args []string) (*ops.View, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("want exactly one spectrum, got %d", len(args))
	}
	s, err := c.Spectrum(args[0])
	if err != nil {
		return nil, err
	}
	return ops.NewView(c, s, viewOptions())
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func cmdBar(c *ops.Context, args []string) error {
	v, err := loadView(c, args)
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Fprintf(c.Log, "%s\n", v.Gradient)
		return nil
	}
	img, err := render.ColorBar(v.ColorBar, orDefault(*width, len(v.ColorBar)), orDefault(*height, 40))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "Writing color bar to %s\n", *out)
	return render.WriteFile(*out, img)
}

func cmdStar(c *ops.Context, args []string) error {
	v, err := loadView(c, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "Star color %s %s\n", v.StarHex, v.StarColor.CSS(1))
	if *out == "" {
		return nil
	}
	img, err := render.Star(v.StarColor, *radius)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "Writing star to %s\n", *out)
	return render.WriteFile(*out, img)
}

func cmdPlot(c *ops.Context, args []string) error {
	if *out == "" {
		return errors.New("plot needs an -out file")
	}
	v, err := loadView(c, args)
	if err != nil {
		return err
	}
	for _, sym := range strings.Split(*elems, ",") {
		if sym = strings.TrimSpace(sym); sym == "" {
			continue
		}
		lines, err := c.ElementLines(sym)
		if err != nil {
			return err
		}
		v.Elements[sym] = lines
	}
	opts := render.DefaultPlotOptions()
	opts.Width, opts.Height = orDefault(*width, opts.Width), orDefault(*height, opts.Height)
	img, err := render.Plot(v, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "Writing plot to %s\n", *out)
	return render.WriteFile(*out, img)
}

// prints the wavelength to color mapping as CSV
func cmdMap(logWriter io.Writer) error {
	if err := spectrum.CheckRange(*minWl, *maxWl); err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "wavelength,r,g,b,hex\n")
	for i := 0; i <= *stops; i++ {
		wl := spectrum.StopWavelength(*minWl, *maxWl, i, *stops)
		col := colormap.WavelengthToRGB(wl)
		fmt.Fprintf(logWriter, "%g,%d,%d,%d,%s\n", wl, col.R, col.G, col.B, col.Hex())
	}
	return nil
}
