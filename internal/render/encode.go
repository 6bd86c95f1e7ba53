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


// Package render rasterizes color bars, star swatches and spectrum charts, and writes them as image files.
package render

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/tiff"
)

var ErrUnknownFormat = errors.New("unknown image format")

// An output image format
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatTIFF
)

// JPEG quality used for all output
const JPEGQuality = 95

// Determines the output format from the file name suffix
func FormatFor(fileName string) (Format, error) {
	fnLower := strings.ToLower(fileName)
	if strings.HasSuffix(fnLower, ".png") {
		return FormatPNG, nil
	} else if strings.HasSuffix(fnLower, ".jpeg") || strings.HasSuffix(fnLower, ".jpg") {
		return FormatJPEG, nil
	} else if strings.HasSuffix(fnLower, ".tiff") || strings.HasSuffix(fnLower, ".tif") {
		return FormatTIFF, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, fileName)
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatTIFF:
		return "tiff"
	default:
		return "png"
	}
}

// Encodes the image in the given format
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
}

// Writes the image to a file, choosing the format by suffix
func WriteFile(fileName string, img image.Image) error {
	f, err := FormatFor(fileName)
	if err != nil {
		return err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := Encode(writer, img, f); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return file.Close()
}
