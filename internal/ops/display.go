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


package ops

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mlnoga/starcolor/internal/colormap"
	"github.com/mlnoga/starcolor/internal/spectrum"
	"github.com/mlnoga/starcolor/internal/stats"
)

var ErrDisposed = errors.New("display disposed")

// Settings for computing a view of a spectrum
type ViewOptions struct {
	ColorBar colormap.ColorBarOptions `json:"colorBar"`
}

func DefaultViewOptions() ViewOptions {
	return ViewOptions{ColorBar: colormap.DefaultColorBarOptions()}
}

// Everything a chart needs to display one spectrum. Views are immutable once built
type View struct {
	Name         string               `json:"name"`
	Samples      []spectrum.Sample    `json:"samples"`
	Normalized   []float64            `json:"normalized"`
	MaxIntensity float64              `json:"maxIntensity"`
	Options      ViewOptions          `json:"options"`
	ColorBar     []colormap.Stop      `json:"colorBar"`
	Gradient     string               `json:"gradient"`
	StarColor    colormap.RGB         `json:"starColor"`
	StarHex      string               `json:"starHex"`
	Glow         []colormap.GlowStop  `json:"glow"`
	Summary      stats.Summary        `json:"summary"`
	Blackbody    *stats.BlackbodyFit  `json:"blackbody,omitempty"`
	Reference    *colormap.RGB        `json:"reference,omitempty"` // color of the fitted B-V index
	Elements     map[string][]float64 `json:"elements"`            // overlaid line wavelengths per symbol
}

// Computes the view for the given spectrum. Fit failures are logged and leave Blackbody nil
func NewView(c *Context, s *spectrum.Spectrum, opts ViewOptions) (*View, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", s.Name, spectrum.ErrEmpty)
	}
	if err := spectrum.CheckRange(opts.ColorBar.Min, opts.ColorBar.Max); err != nil {
		return nil, err
	}
	norm, max := s.Normalized()
	stops := colormap.ColorBar(s.Samples, norm, opts.ColorBar)
	star := colormap.AverageColor(s.Samples)
	v := &View{
		Name:         s.Name,
		Samples:      s.Samples,
		Normalized:   norm,
		MaxIntensity: max,
		Options:      opts,
		ColorBar:     stops,
		Gradient:     colormap.CSSGradient(stops),
		StarColor:    star,
		StarHex:      star.Hex(),
		Glow:         colormap.GlowStops(star),
		Summary:      stats.Summarize(s),
		Elements:     map[string][]float64{},
	}
	if min, max, err := s.Bounds(); err == nil {
		if fit, err := stats.FitBlackbody(s, min, max); err != nil {
			fmt.Fprintf(c.Log, "%s: no blackbody fit: %s\n", s.Name, err)
		} else {
			ref := colormap.BVToRGB(fit.BV)
			v.Blackbody, v.Reference = &fit, &ref
		}
	}
	return v, nil
}

// Returns a copy of the view sharing all data except the element overlays
func (v *View) withElements(elems map[string][]float64) *View {
	cp := *v
	cp.Elements = elems
	return &cp
}

// Returns the overlaid element symbols, sorted
func (v *View) ElementSymbols() []string {
	syms := make([]string, 0, len(v.Elements))
	for sym := range v.Elements {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// A chart display with its own dataset and element overlays. Safe for concurrent use
type Display struct {
	ID       string
	c        *Context
	mu       sync.Mutex
	view     *View
	elements map[string][]float64
	disposed bool
}

// Creates a display with no dataset shown
func NewDisplay(c *Context, id string) *Display {
	return &Display{ID: id, c: c, elements: map[string][]float64{}}
}

// Loads the named dataset and shows it. On error the previously shown view is kept
func (d *Display) Replace(name string, opts ViewOptions) (*View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return nil, ErrDisposed
	}
	s, err := d.c.Spectrum(name)
	if err != nil {
		fmt.Fprintf(d.c.Log, "%s: keeping previous view: %s\n", d.ID, err)
		return nil, err
	}
	v, err := NewView(d.c, s, opts)
	if err != nil {
		fmt.Fprintf(d.c.Log, "%s: keeping previous view: %s\n", d.ID, err)
		return nil, err
	}
	d.view = v.withElements(d.copyElements())
	return d.view, nil
}

// Turns the line overlay for the given element on or off. Returns the current view,
// which is nil if no dataset has been shown yet
func (d *Display) SetElement(symbol string, on bool) (*View, error) {
	var lines []float64
	if on {
		var err error
		if lines, err = d.c.ElementLines(symbol); err != nil {
			return nil, err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return nil, ErrDisposed
	}
	if on {
		d.elements[symbol] = lines
	} else {
		delete(d.elements, symbol)
	}
	if d.view != nil {
		d.view = d.view.withElements(d.copyElements())
	}
	return d.view, nil
}

// Returns the current view, or nil if no dataset has been shown
func (d *Display) View() (*View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return nil, ErrDisposed
	}
	return d.view, nil
}

// Releases the display. Further calls return ErrDisposed. Idempotent
func (d *Display) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposed, d.view, d.elements = true, nil, nil
}

func (d *Display) copyElements() map[string][]float64 {
	m := make(map[string][]float64, len(d.elements))
	for k, v := range d.elements {
		m[k] = v
	}
	return m
}
