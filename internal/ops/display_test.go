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
	"math"
	"os"
	"strings"
	"testing"

	"github.com/mlnoga/starcolor/internal/colormap"
	"github.com/mlnoga/starcolor/internal/spectrum"
	"github.com/mlnoga/starcolor/internal/stats"
)

// a blackbody spectrum at the given temperature, sampled every 5 nm
func planckCSV(temp float64) string {
	var sb strings.Builder
	sb.WriteString("wavelength,intensity\n")
	for wl := 300.0; wl <= 1000; wl += 5 {
		fmt.Fprintf(&sb, "%g,%g\n", wl, 1000*stats.Planck(wl, temp))
	}
	return sb.String()
}

func TestNewView(t *testing.T) {
	c, _, _ := newTestContext(t)
	s := spectrum.New("three", []spectrum.Sample{{Wavelength: 400, Intensity: 1.0}, {Wavelength: 550, Intensity: 0.5}, {Wavelength: 700, Intensity: 0.2}})
	opts := DefaultViewOptions()
	opts.ColorBar.Stops = 4
	v, err := NewView(c, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.ColorBar) != 5 {
		t.Errorf("%d color stops; want 5", len(v.ColorBar))
	}
	if want := (colormap.RGB{R: 255, G: 168, B: 139}); v.StarColor != want {
		t.Errorf("StarColor=%v; want %v", v.StarColor, want)
	}
	if v.StarHex != "#ffa88b" {
		t.Errorf("StarHex=%s; want #ffa88b", v.StarHex)
	}
	if v.MaxIntensity != 1 || len(v.Normalized) != 3 {
		t.Errorf("MaxIntensity=%g Normalized=%v", v.MaxIntensity, v.Normalized)
	}
	if !strings.HasPrefix(v.Gradient, "linear-gradient(to right, ") {
		t.Errorf("Gradient=%q", v.Gradient)
	}
	if len(v.Glow) != 3 || v.Summary.Count != 3 || len(v.Elements) != 0 {
		t.Errorf("Glow=%v Summary=%v Elements=%v", v.Glow, v.Summary, v.Elements)
	}

	if _, err := NewView(c, spectrum.New("empty", nil), opts); !errors.Is(err, spectrum.ErrEmpty) {
		t.Errorf("empty spectrum err=%v; want ErrEmpty", err)
	}
	for _, r := range [][2]float64{{-1e308, 1e308}, {math.Inf(-1), 780}, {780, 380}} {
		bad := DefaultViewOptions()
		bad.ColorBar.Min, bad.ColorBar.Max = r[0], r[1]
		if _, err := NewView(c, s, bad); !errors.Is(err, spectrum.ErrRange) {
			t.Errorf("range %g..%g err=%v; want ErrRange", r[0], r[1], err)
		}
	}
}

func TestNewViewFitsBlackbody(t *testing.T) {
	c, dir, _ := newTestContext(t)
	writeTestFile(t, dir, "sun.csv", planckCSV(5800))
	s, err := c.Spectrum("sun.csv")
	if err != nil {
		t.Fatal(err)
	}
	v, err := NewView(c, s, DefaultViewOptions())
	if err != nil {
		t.Fatal(err)
	}
	if v.Blackbody == nil || v.Reference == nil {
		t.Fatalf("no blackbody fit")
	}
	if math.Abs(v.Blackbody.Temperature-5800) > 58 {
		t.Errorf("fitted %.0fK; want 5800K", v.Blackbody.Temperature)
	}
}

func TestDisplayLifecycle(t *testing.T) {
	c, dir, log := newTestContext(t)
	writeTestFile(t, dir, "a.csv", "400,1\n550,0.5\n700,0.2\n")
	writeTestFile(t, dir, "b.csv", "650,2\n")
	writeTestFile(t, dir, "elements/H.csv", "6562.8\n4861.3\n")

	d := NewDisplay(c, "d1")
	if v, err := d.View(); err != nil || v != nil {
		t.Errorf("new display View=%v,%v; want nil,nil", v, err)
	}

	// overlays toggled before any dataset are kept for later
	if v, err := d.SetElement("H", true); err != nil || v != nil {
		t.Errorf("SetElement before Replace=%v,%v; want nil,nil", v, err)
	}
	va, err := d.Replace("a.csv", DefaultViewOptions())
	if err != nil {
		t.Fatal(err)
	}
	if va.Name != "a.csv" || len(va.Elements["H"]) != 2 {
		t.Errorf("view %s elements %v; want a.csv with H", va.Name, va.Elements)
	}

	// failed replace keeps the previous view
	if _, err := d.Replace("missing.csv", DefaultViewOptions()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Replace(missing) err=%v; want os.ErrNotExist", err)
	}
	if v, _ := d.View(); v != va {
		t.Errorf("view changed after failed Replace")
	}
	if !strings.Contains(log.String(), "d1: keeping previous view") {
		t.Errorf("log %q lacks failure message", log.String())
	}

	vb, err := d.Replace("b.csv", DefaultViewOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := (colormap.RGB{R: 255}); vb.StarColor != want {
		t.Errorf("b.csv star %v; want %v", vb.StarColor, want)
	}

	v, err := d.SetElement("H", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Elements) != 0 {
		t.Errorf("elements %v after removing H; want none", v.Elements)
	}
	if len(vb.Elements) != 1 {
		t.Errorf("earlier view was modified by SetElement")
	}
	if _, err := d.SetElement("Xx", true); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("SetElement(Xx) err=%v; want os.ErrNotExist", err)
	}

	d.Dispose()
	d.Dispose()
	if _, err := d.View(); !errors.Is(err, ErrDisposed) {
		t.Errorf("View after Dispose err=%v; want ErrDisposed", err)
	}
	if _, err := d.Replace("a.csv", DefaultViewOptions()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Replace after Dispose err=%v; want ErrDisposed", err)
	}
	if _, err := d.SetElement("H", false); !errors.Is(err, ErrDisposed) {
		t.Errorf("SetElement after Dispose err=%v; want ErrDisposed", err)
	}
}
