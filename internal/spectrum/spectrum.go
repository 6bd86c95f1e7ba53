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


// Package spectrum holds spectral intensity data as read from CSV files,
// and the nearest-neighbor resampling used to put it on a uniform wavelength axis.
package spectrum

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Closed interval of wavelengths in nm treated as visible
const (
	VisibleMin = 380.0
	VisibleMax = 780.0
)

// Largest wavelength magnitude accepted as a range bound, in nm
const MaxWavelength = 1e7

// ErrEmpty is returned when a dataset contains no usable samples
var ErrEmpty = errors.New("spectrum contains no samples")

var ErrRange = errors.New("invalid wavelength range")

// Checks that min..max is ordered and both bounds are finite and within MaxWavelength
func CheckRange(min, max float64) error {
	if !(math.Abs(min) <= MaxWavelength) || !(math.Abs(max) <= MaxWavelength) || max < min {
		return fmt.Errorf("%w: %g..%g", ErrRange, min, max)
	}
	return nil
}

// A single spectral sample. Intensity is in raw, unit-less instrument counts
type Sample struct {
	Wavelength float64 `json:"wavelength"` // in nm
	Intensity  float64 `json:"intensity"`
}

// A named, ordered sequence of samples. Input order is preserved,
// wavelengths are typically but not necessarily monotonic
type Spectrum struct {
	Name    string   `json:"name"`
	Samples []Sample `json:"samples"`
}

func New(name string, samples []Sample) *Spectrum {
	return &Spectrum{Name: name, Samples: samples}
}

func (s *Spectrum) Len() int { return len(s.Samples) }

// Returns the wavelengths as a new slice
func (s *Spectrum) Wavelengths() []float64 {
	wls := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		wls[i] = smp.Wavelength
	}
	return wls
}

// Returns the raw intensities as a new slice
func (s *Spectrum) Intensities() []float64 {
	is := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		is[i] = smp.Intensity
	}
	return is
}

// Returns the maximum raw intensity, or 0 for an empty spectrum
func (s *Spectrum) MaxIntensity() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	return floats.Max(s.Intensities())
}

// Returns the intensities divided by the maximum intensity, and that maximum.
// If the spectrum is empty or the maximum is not positive, all normalized values are zero.
func (s *Spectrum) Normalized() (norm []float64, max float64) {
	norm = s.Intensities()
	if len(norm) == 0 {
		return norm, 0
	}
	max = floats.Max(norm)
	if !(max > 0) {
		for i := range norm {
			norm[i] = 0
		}
		return norm, max
	}
	floats.Scale(1/max, norm)
	return norm, max
}

// Returns the samples with wavelengths in [min,max], in input order
func (s *Spectrum) Range(min, max float64) []Sample {
	var res []Sample
	for _, smp := range s.Samples {
		if smp.Wavelength >= min && smp.Wavelength <= max {
			res = append(res, smp)
		}
	}
	return res
}

// Returns the smallest and largest wavelength
func (s *Spectrum) Bounds() (min, max float64, err error) {
	if len(s.Samples) == 0 {
		return 0, 0, ErrEmpty
	}
	wls := s.Wavelengths()
	return floats.Min(wls), floats.Max(wls), nil
}

func (s *Spectrum) String() string {
	min, max, err := s.Bounds()
	if err != nil {
		return fmt.Sprintf("%s: empty", s.Name)
	}
	return fmt.Sprintf("%s: %d samples %.4g..%.4g nm", s.Name, len(s.Samples), min, max)
}
