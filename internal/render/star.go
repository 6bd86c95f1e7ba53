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
	"image"
	"image/color"
	"math"

	"github.com/mlnoga/starcolor/internal/colormap"
)

// Draws a glowing star of the given color on a transparent square of side 2*radius
func Star(c colormap.RGB, radius int) (*image.NRGBA, error) {
	if err := checkSize(2*radius, 2*radius); err != nil {
		return nil, err
	}
	stops := colormap.GlowStops(c)
	img := image.NewNRGBA(image.Rect(0, 0, 2*radius, 2*radius))
	r := float64(radius)
	for y := 0; y < 2*radius; y++ {
		dy := float64(y) + 0.5 - r
		for x := 0; x < 2*radius; x++ {
			dx := float64(x) + 0.5 - r
			d := math.Sqrt(dx*dx+dy*dy) / r
			if d > 1 {
				continue
			}
			col, alpha := colormap.GlowAt(stops, d)
			img.SetNRGBA(x, y, color.NRGBA{col.R, col.G, col.B, uint8(math.Round(alpha * 255))})
		}
	}
	return img, nil
}
