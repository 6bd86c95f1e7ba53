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


package stats

import (
	"fmt"
	"math"

	"github.com/mlnoga/starcolor/internal/spectrum"
	"gonum.org/v1/gonum/stat"
)

// Summary statistics of a spectrum
type Summary struct {
	Count          int     `json:"count"`
	MinWavelength  float64 `json:"minWavelength"`
	MaxWavelength  float64 `json:"maxWavelength"`
	PeakWavelength float64 `json:"peakWavelength"`
	PeakIntensity  float64 `json:"peakIntensity"`
	Centroid       float64 `json:"centroid"` // intensity-weighted mean wavelength
	Width          float64 `json:"width"`    // intensity-weighted standard deviation of wavelength
	VisibleCount   int     `json:"visibleCount"`
}

// Calculates summary statistics. Negative intensities carry zero weight
func Summarize(s *spectrum.Spectrum) Summary {
	var sum Summary
	if s == nil || len(s.Samples) == 0 {
		return sum
	}
	sum.Count = len(s.Samples)
	sum.MinWavelength, sum.MaxWavelength, _ = s.Bounds()

	wls := s.Wavelengths()
	weights := make([]float64, len(s.Samples))
	totalWeight := 0.0
	sum.PeakIntensity = math.Inf(-1)
	for i, smp := range s.Samples {
		if smp.Intensity > sum.PeakIntensity {
			sum.PeakIntensity, sum.PeakWavelength = smp.Intensity, smp.Wavelength
		}
		if smp.Intensity > 0 {
			weights[i] = smp.Intensity
			totalWeight += smp.Intensity
		}
		if smp.Wavelength >= spectrum.VisibleMin && smp.Wavelength <= spectrum.VisibleMax {
			sum.VisibleCount++
		}
	}

	if totalWeight > 0 {
		mean := stat.Mean(wls, weights)
		sqDevs := make([]float64, len(wls))
		for i, wl := range wls {
			sqDevs[i] = (wl - mean) * (wl - mean)
		}
		sum.Centroid = mean
		sum.Width = math.Sqrt(stat.Mean(sqDevs, weights)) // population variance, independent of intensity scale
	}
	return sum
}

func (s Summary) String() string {
	return fmt.Sprintf("n %d range %.4g..%.4g nm peak %.4g at %.4g nm centroid %.4g width %.4g visible %d",
		s.Count, s.MinWavelength, s.MaxWavelength, s.PeakIntensity, s.PeakWavelength, s.Centroid, s.Width, s.VisibleCount)
}
