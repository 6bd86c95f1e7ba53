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
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/mlnoga/starcolor/internal/colormap"
)

var ErrSize = errors.New("invalid image size")

func checkSize(width, height int) error {
	if width < 1 || height < 1 || width > 1<<14 || height > 1<<14 {
		return fmt.Errorf("%w: %dx%d", ErrSize, width, height)
	}
	return nil
}

// Rasterizes color stops into a strip of the given size. Each stop is one source
// pixel, scaled to the target size with nearest neighbor so the stops stay crisp
func ColorBar(stops []colormap.Stop, width, height int) (*image.RGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if len(stops) == 0 {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		return dst, nil
	}
	src := image.NewRGBA(image.Rect(0, 0, len(stops), 1))
	for x, s := range stops {
		src.Set(x, 0, s.Color)
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
