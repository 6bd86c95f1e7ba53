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


package colormap

import (
	"fmt"
	"strings"

	"github.com/mlnoga/starcolor/internal/spectrum"
)

// A color stop on the wavelength axis. Position is in [0,1] across the rendered range
type Stop struct {
	Position   float64 `json:"position"`
	Wavelength float64 `json:"wavelength"`
	Color      RGB     `json:"color"`
}

// Settings for rendering a color bar
type ColorBarOptions struct {
	Min   float64 `json:"min"`   // wavelength at position 0, in nm
	Max   float64 `json:"max"`   // wavelength at position 1, in nm
	Stops int     `json:"stops"` // number of intervals; Stops+1 color stops are produced

	// Divide the sampled intensities again by their own maximum. Reproduces the
	// chart background of earlier versions, which normalized twice
	LocalRenormalize bool `json:"localRenormalize"`
}

func DefaultColorBarOptions() ColorBarOptions {
	return ColorBarOptions{Min: spectrum.VisibleMin, Max: spectrum.VisibleMax, Stops: 400}
}

// Renders a color bar for the given samples and their normalized intensities, which must be parallel slices.
// Each stop takes the base color of its wavelength, scaled by the nearest sample's intensity.
// Panics if samples is empty.
func ColorBar(samples []spectrum.Sample, normalized []float64, opts ColorBarOptions) []Stop {
	if len(samples) != len(normalized) {
		panic(fmt.Sprintf("colormap: %d samples but %d intensities", len(samples), len(normalized)))
	}
	r := spectrum.NewResampler(samples)
	return colorBar(r.Indices(opts.Min, opts.Max, opts.Stops), normalized, opts)
}

// Renders a color bar using a precomputed nearest-index mapping from Resampler.Indices
func ColorBarFromIndices(indices []int, normalized []float64, opts ColorBarOptions) []Stop {
	return colorBar(indices, normalized, opts)
}

func colorBar(indices []int, normalized []float64, opts ColorBarOptions) []Stop {
	stopCount := len(indices) - 1
	intensities := make([]float64, len(indices))
	maxInt := 0.0
	for i, idx := range indices {
		intensities[i] = normalized[idx]
		if intensities[i] > maxInt {
			maxInt = intensities[i]
		}
	}
	if opts.LocalRenormalize && maxInt > 0 {
		for i := range intensities {
			intensities[i] /= maxInt
		}
	}

	stops := make([]Stop, len(indices))
	for i := range stops {
		pos := 0.0
		if stopCount > 0 {
			pos = float64(i) / float64(stopCount)
		}
		wl := spectrum.StopWavelength(opts.Min, opts.Max, i, stopCount)
		stops[i] = Stop{
			Position:   pos,
			Wavelength: wl,
			Color:      WavelengthToRGB(wl).Scale(intensities[i]),
		}
	}
	return stops
}

// Returns a CSS linear-gradient definition running left to right through the given stops
func CSSGradient(stops []Stop) string {
	var sb strings.Builder
	sb.WriteString("linear-gradient(to right")
	for _, s := range stops {
		fmt.Fprintf(&sb, ", %s %.4g%%", s.Color.CSS(1), s.Position*100)
	}
	sb.WriteString(")")
	return sb.String()
}
