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

// A stop of the radial gradient used to draw a glowing star swatch
type GlowStop struct {
	Offset float64 `json:"offset"` // in [0,1] from inner to outer radius
	Color  RGB     `json:"color"`
	Alpha  float64 `json:"alpha"`
	CSS    string  `json:"css"`
}

// Geometry of the star swatch, relative to its outer radius
const (
	GlowInnerRadius = 0.1 // start of the radial gradient
	GlowCoreRadius  = 0.2 // opaque bright core
)

// Returns the radial gradient stops for a star of the given color: opaque at the
// inner radius, 60% at half way, fading to transparent black at the rim
func GlowStops(c RGB) []GlowStop {
	stops := []GlowStop{
		{Offset: 0, Color: c, Alpha: 1},
		{Offset: 0.5, Color: c, Alpha: 0.6},
		{Offset: 1, Color: Black, Alpha: 0},
	}
	for i := range stops {
		stops[i].CSS = stops[i].Color.CSS(stops[i].Alpha)
	}
	return stops
}

// Returns color and opacity of the glow at relative distance d in [0,1] from the center,
// interpolating between the gradient stops. Inside the core the star is opaque
func GlowAt(stops []GlowStop, d float64) (RGB, float64) {
	if d <= GlowCoreRadius {
		return stops[0].Color, 1
	}
	t := (d - GlowInnerRadius) / (1 - GlowInnerRadius)
	if t <= stops[0].Offset {
		return stops[0].Color, stops[0].Alpha
	}
	for i := 1; i < len(stops); i++ {
		lo, hi := stops[i-1], stops[i]
		if t <= hi.Offset {
			f := (t - lo.Offset) / (hi.Offset - lo.Offset)
			col := FromColorful(lo.Color.Colorful().BlendRgb(hi.Color.Colorful(), f))
			return col, lo.Alpha + (hi.Alpha-lo.Alpha)*f
		}
	}
	last := stops[len(stops)-1]
	return last.Color, last.Alpha
}
