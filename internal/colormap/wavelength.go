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


// Package colormap maps wavelengths and spectra to perceived sRGB colors.
package colormap

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mlnoga/starcolor/internal/spectrum"
)

// Gamma exponent applied to each channel after the piecewise-linear approximation
const Gamma = 0.8

// An 8-bit sRGB color
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var Black = RGB{}

// Implements image/color.Color, always opaque
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}

// Returns the color as #rrggbb
func (c RGB) Hex() string { return c.Colorful().Hex() }

// Returns the color as a CSS rgba() value with the given opacity
func (c RGB) CSS(alpha float64) string {
	if alpha >= 1 {
		return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", c.R, c.G, c.B, alpha)
}

// Multiplies each channel by f, rounding and limiting to 255
func (c RGB) Scale(f float64) RGB {
	return RGB{scaleChannel(c.R, f), scaleChannel(c.G, f), scaleChannel(c.B, f)}
}

func scaleChannel(ch uint8, f float64) uint8 {
	v := math.Round(float64(ch) * f)
	if !(v > 0) {
		return 0 // also catches NaN
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Converts a wavelength in nm into an approximate perceived sRGB color, using a
// piecewise-linear approximation of the visible spectrum followed by gamma correction.
// Wavelengths outside the visible range map to black.
func WavelengthToRGB(wl float64) RGB {
	var r, g, b float64
	alpha := 1.0

	switch {
	case wl >= 380 && wl < 440:
		atten := 0.1 + 0.7*(wl-380)/(440-380)
		r = (-(wl - 440) / (440 - 380)) * atten
		b = atten
	case wl >= 440 && wl < 490:
		g = (wl - 440) / (490 - 440)
		b = 1
	case wl >= 490 && wl < 510:
		g = 1
		b = -(wl - 510) / (510 - 490)
	case wl >= 510 && wl < 580:
		r = (wl - 510) / (580 - 510)
		g = 1
	case wl >= 580 && wl < 645:
		r = 1
		g = -(wl - 645) / (645 - 580)
	case wl >= 645 && wl <= 780:
		r = 0.3 + 0.7*(750-wl)/(750-645)
	default:
		alpha = 0 // outside visible range, also NaN
	}

	return RGB{gammaChannel(r * alpha), gammaChannel(g * alpha), gammaChannel(b * alpha)}
}

// Clamps to [0,1] before exponentiation. Band edge arithmetic can leave tiny negative
// values, and a negative base under a fractional exponent yields NaN
func gammaChannel(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(math.Round(math.Pow(v, Gamma) * 255))
}

// True if the wavelength lies in the closed visible interval
func Visible(wl float64) bool {
	return wl >= spectrum.VisibleMin && wl <= spectrum.VisibleMax
}
