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


package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mlnoga/starcolor/internal/colormap"
	"github.com/mlnoga/starcolor/internal/ops"
	"github.com/mlnoga/starcolor/internal/spectrum"
)

// Settings for drawing a spectrum chart
type PlotOptions struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Min    float64 `json:"min"` // wavelength at the left edge of the plot area, in nm
	Max    float64 `json:"max"` // wavelength at the right edge of the plot area, in nm
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 1000, Height: 400, Min: 100, Max: 1500}
}

// Margins around the plot area, in pixels
const (
	marginLeft   = 40
	marginRight  = 12
	marginTop    = 20
	marginBottom = 30
)

var (
	colBackground = color.RGBA{16, 16, 16, 255}
	colAxis       = color.RGBA{160, 160, 160, 255}
	colGrid       = color.RGBA{48, 48, 48, 255}
	colLine       = color.RGBA{255, 255, 255, 255}
	colMarker     = color.RGBA{200, 200, 200, 255}
)

// Returns the plot area for the chart size. Empty if the chart is smaller than its margins
func (o PlotOptions) Area() image.Rectangle {
	return image.Rectangle{
		Min: image.Point{marginLeft, marginTop},
		Max: image.Point{o.Width - marginRight, o.Height - marginBottom},
	}
}

// Returns the wavelength at the center of pixel column x
func (o PlotOptions) Wavelength(x int) float64 {
	a := o.Area()
	return o.Min + (float64(x-a.Min.X)+0.5)/float64(a.Dx())*(o.Max-o.Min)
}

// Returns the pixel column showing the given wavelength
func (o PlotOptions) X(wl float64) int {
	a := o.Area()
	return a.Min.X + int(math.Floor((wl-o.Min)/(o.Max-o.Min)*float64(a.Dx())))
}

// Returns the pixel row showing the given normalized intensity in [0,1]
func (o PlotOptions) Y(intensity float64) int {
	a := o.Area()
	return a.Max.Y - 1 - int(math.Round(intensity*float64(a.Dy()-1)))
}

// Draws the chart of a view: the visible range is filled with the color bar, the normalized
// intensities are drawn as a line on top, and overlaid element lines are marked with their symbol
func Plot(v *ops.View, opts PlotOptions) (*image.RGBA, error) {
	if err := checkSize(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	a := opts.Area()
	if a.Dx() < 2 || a.Dy() < 2 {
		return nil, fmt.Errorf("%w: %dx%d leaves no room for the plot", ErrSize, opts.Width, opts.Height)
	}
	if err := spectrum.CheckRange(opts.Min, opts.Max); err != nil {
		return nil, err
	}
	if opts.Max == opts.Min {
		return nil, fmt.Errorf("%w: empty %g..%g", spectrum.ErrRange, opts.Min, opts.Max)
	}
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colBackground), image.Point{}, draw.Src)

	drawGrid(img, opts)
	if len(v.Samples) > 0 {
		drawVisibleBackground(img, v, opts)
	}
	drawAxes(img, opts)
	for _, sym := range v.ElementSymbols() {
		drawMarkers(img, opts, sym, v.Elements[sym])
	}
	drawSpectrum(img, v, opts)
	return img, nil
}

// fills the columns of the visible range with the color bar sampled at the column wavelengths
func drawVisibleBackground(img *image.RGBA, v *ops.View, opts PlotOptions) {
	a := opts.Area()
	xa, xb := -1, -1
	for x := a.Min.X; x < a.Max.X; x++ {
		if colormap.Visible(opts.Wavelength(x)) {
			if xa < 0 {
				xa = x
			}
			xb = x
		}
	}
	if xa < 0 {
		return
	}
	cbOpts := colormap.ColorBarOptions{
		Min:              opts.Wavelength(xa),
		Max:              opts.Wavelength(xb),
		Stops:            xb - xa,
		LocalRenormalize: v.Options.ColorBar.LocalRenormalize,
	}
	stops := colormap.ColorBar(v.Samples, v.Normalized, cbOpts)
	for i, s := range stops {
		col := image.NewUniform(s.Color)
		draw.Draw(img, image.Rect(xa+i, a.Min.Y, xa+i+1, a.Max.Y), col, image.Point{}, draw.Src)
	}
}

// Minimum distance between grid lines, in pixels
const minTickSpacing = 8

// Returns the wavelengths of the vertical grid lines inside the plot range. Lines are
// 100 nm apart, widened by powers of ten until they are at least minTickSpacing pixels apart
func (o PlotOptions) Ticks() []float64 {
	dx := float64(o.Area().Dx())
	if spectrum.CheckRange(o.Min, o.Max) != nil || !(o.Max > o.Min) || dx < 1 {
		return nil
	}
	step := 100.0
	for step/(o.Max-o.Min)*dx < minTickSpacing {
		step *= 10
	}
	first := math.Ceil(o.Min/step) * step
	if first > o.Max {
		return nil
	}
	n := int(math.Floor((o.Max-first)/step)) + 1
	if n > int(dx) {
		n = int(dx)
	}
	ticks := make([]float64, n)
	for i := range ticks {
		ticks[i] = first + float64(i)*step
	}
	return ticks
}

func drawGrid(img *image.RGBA, opts PlotOptions) {
	a := opts.Area()
	for _, wl := range opts.Ticks() {
		x := opts.X(wl)
		if x < a.Min.X || x >= a.Max.X {
			continue
		}
		for y := a.Min.Y; y < a.Max.Y; y++ {
			img.SetRGBA(x, y, colGrid)
		}
	}
	for _, f := range []float64{0.25, 0.5, 0.75, 1} {
		y := opts.Y(f)
		for x := a.Min.X; x < a.Max.X; x++ {
			img.SetRGBA(x, y, colGrid)
		}
	}
}

func drawAxes(img *image.RGBA, opts PlotOptions) {
	a := opts.Area()
	for x := a.Min.X - 1; x < a.Max.X; x++ {
		img.SetRGBA(x, a.Max.Y, colAxis)
	}
	for y := a.Min.Y; y <= a.Max.Y; y++ {
		img.SetRGBA(a.Min.X-1, y, colAxis)
	}

	// labels on every other tick
	ticks := opts.Ticks()
	for i, wl := range ticks {
		x := opts.X(wl)
		if x < a.Min.X || x >= a.Max.X {
			continue
		}
		for y := a.Max.Y + 1; y <= a.Max.Y+4; y++ {
			img.SetRGBA(x, y, colAxis)
		}
		if labelled(ticks, i) {
			drawLabelCentered(img, x, a.Max.Y+16, strconv.FormatFloat(wl, 'f', -1, 64), colAxis)
		}
	}
	drawLabelCentered(img, a.Max.X-8, a.Max.Y+28, "nm", colAxis)
	drawLabel(img, 4, opts.Y(0)+4, "0", colAxis)
	drawLabel(img, 4, opts.Y(1)+4, "1", colAxis)
}

// labels ticks at even multiples of their spacing, or every tick if there are only a few
func labelled(ticks []float64, i int) bool {
	if len(ticks) < 4 {
		return true
	}
	step := ticks[1] - ticks[0]
	return math.Mod(math.Round(ticks[i]/step), 2) == 0
}

// draws dotted vertical lines at the given wavelengths, labelled with the element symbol
func drawMarkers(img *image.RGBA, opts PlotOptions, symbol string, lines []float64) {
	a := opts.Area()
	for _, wl := range lines {
		x := opts.X(wl)
		if x < a.Min.X || x >= a.Max.X {
			continue
		}
		for y := a.Min.Y; y < a.Max.Y; y += 2 {
			img.SetRGBA(x, y, colMarker)
		}
		drawLabelCentered(img, x, a.Min.Y-6, symbol, colMarker)
	}
}

// draws the normalized intensities as a polyline in input order, clipped to the plot area
func drawSpectrum(img *image.RGBA, v *ops.View, opts PlotOptions) {
	a := opts.Area()
	for i := 1; i < len(v.Samples); i++ {
		w0, n0, w1, n1, ok := clipSegment(v.Samples[i-1].Wavelength, v.Normalized[i-1],
			v.Samples[i].Wavelength, v.Normalized[i], opts.Min, opts.Max)
		if !ok {
			continue
		}
		drawLine(img, a, opts.X(w0), opts.Y(n0), opts.X(w1), opts.Y(n1), colLine)
	}
	if len(v.Samples) == 1 {
		x, y := opts.X(v.Samples[0].Wavelength), opts.Y(v.Normalized[0])
		if (image.Point{x, y}).In(a) {
			img.SetRGBA(x, y, colLine)
		}
	}
}

// clips the segment from (w0,n0) to (w1,n1) to wavelengths in [min,max]
func clipSegment(w0, n0, w1, n1, min, max float64) (float64, float64, float64, float64, bool) {
	if w0 > w1 {
		w0, n0, w1, n1 = w1, n1, w0, n0
	}
	if w1 < min || w0 > max || math.IsNaN(w0) || math.IsNaN(w1) {
		return 0, 0, 0, 0, false
	}
	if w0 < min {
		n0 += (n1 - n0) * (min - w0) / (w1 - w0)
		w0 = min
	}
	if w1 > max {
		n1 = n0 + (n1-n0)*(max-w0)/(w1-w0)
		w1 = max
	}
	return w0, n0, w1, n1, true
}

// Bresenham line, setting only pixels inside clip
func drawLine(img *image.RGBA, clip image.Rectangle, x0, y0, x1, y1 int, col color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if (image.Point{x0, y0}).In(clip) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func drawLabel(img *image.RGBA, x, y int, label string, col color.Color) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(label)
}

func drawLabelCentered(img *image.RGBA, x, y int, label string, col color.Color) {
	w := font.MeasureString(basicfont.Face7x13, label).Ceil()
	drawLabel(img, x-w/2, y, label, col)
}

// Renders the chart of a spectrum without a display
func PlotSpectrum(c *ops.Context, s *spectrum.Spectrum, viewOpts ops.ViewOptions, opts PlotOptions) (*image.RGBA, error) {
	v, err := ops.NewView(c, s, viewOpts)
	if err != nil {
		return nil, err
	}
	return Plot(v, opts)
}
