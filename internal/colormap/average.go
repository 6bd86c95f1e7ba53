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
	"math"

	"github.com/mlnoga/starcolor/internal/spectrum"
)

// Estimates the perceived color of a whole spectrum. Sums the base color of each visible
// sample weighted by its raw intensity, then scales so the brightest channel reaches 255,
// which preserves hue. Returns black if there is no positive visible contribution.
func AverageColor(samples []spectrum.Sample) RGB {
	var sumR, sumG, sumB float64
	for _, s := range samples {
		if !Visible(s.Wavelength) {
			continue
		}
		c := WavelengthToRGB(s.Wavelength)
		sumR += float64(c.R) * s.Intensity
		sumG += float64(c.G) * s.Intensity
		sumB += float64(c.B) * s.Intensity
	}

	total := math.Max(sumR, math.Max(sumG, sumB))
	if !(total > 0) || math.IsInf(total, 0) {
		return Black
	}
	scale := 255 / total
	return RGB{averageChannel(sumR * scale), averageChannel(sumG * scale), averageChannel(sumB * scale)}
}

func averageChannel(v float64) uint8 {
	v = math.Round(v)
	if !(v > 0) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
