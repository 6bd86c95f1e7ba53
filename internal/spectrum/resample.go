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


package spectrum

import (
	"math"
	"sort"
)

// Returns the intensity of the sample closest to the given wavelength, by absolute difference.
// Ties go to the first sample encountered. Values are not interpolated.
// Panics if samples is empty.
func Nearest(samples []Sample, wl float64) float64 {
	if len(samples) == 0 {
		panic("spectrum: nearest neighbor of empty sample set")
	}
	closest, minDiff := 0, math.Inf(1)
	for i, s := range samples {
		if diff := math.Abs(s.Wavelength - wl); diff < minDiff {
			closest, minDiff = i, diff
		}
	}
	return samples[closest].Intensity
}

// Nearest-neighbor lookup over a fixed set of sample wavelengths.
// Uses binary search when wavelengths are sorted ascending, and a linear scan otherwise.
type Resampler struct {
	wls    []float64
	sorted bool
}

// Creates a resampler for the given samples. Panics if samples is empty
func NewResampler(samples []Sample) *Resampler {
	if len(samples) == 0 {
		panic("spectrum: resampler over empty sample set")
	}
	wls := make([]float64, len(samples))
	for i, s := range samples {
		wls[i] = s.Wavelength
	}
	return &Resampler{wls: wls, sorted: sort.Float64sAreSorted(wls)}
}

func (r *Resampler) Len() int { return len(r.wls) }

// Returns the index of the sample closest to wl. Ties resolve to the lowest index
func (r *Resampler) Index(wl float64) int {
	if !r.sorted || math.IsNaN(wl) || math.IsInf(wl, 0) {
		return r.scan(wl)
	}

	hi := sort.SearchFloat64s(r.wls, wl) // first index with wls[hi]>=wl
	if hi == 0 {
		return 0
	}
	lo := hi - 1
	for lo > 0 && r.wls[lo-1] == r.wls[lo] {
		lo-- // lowest index among equal wavelengths
	}
	if hi == len(r.wls) {
		return lo
	}
	if math.Abs(r.wls[hi]-wl) < math.Abs(r.wls[lo]-wl) {
		return hi
	}
	return lo
}

func (r *Resampler) scan(wl float64) int {
	closest, minDiff := 0, math.Inf(1)
	for i, w := range r.wls {
		if diff := math.Abs(w - wl); diff < minDiff {
			closest, minDiff = i, diff
		}
	}
	return closest
}

// Returns the entry of values, a slice parallel to the samples, closest to wl
func (r *Resampler) Intensity(values []float64, wl float64) float64 {
	return values[r.Index(wl)]
}

// Returns the i-th of stopCount+1 evenly spaced wavelengths across [min,max].
// With stopCount==0 the single position is min.
func StopWavelength(min, max float64, i, stopCount int) float64 {
	if stopCount <= 0 {
		return min
	}
	t := float64(i) / float64(stopCount)
	return min*(1-t) + max*t
}

// Precomputes the nearest sample index for each of stopCount+1 evenly spaced
// wavelengths across [min,max], so repeated renders need not rescan per stop.
func (r *Resampler) Indices(min, max float64, stopCount int) []int {
	if stopCount < 0 {
		stopCount = 0
	}
	idx := make([]int, stopCount+1)
	for i := range idx {
		idx[i] = r.Index(StopWavelength(min, max, i, stopCount))
	}
	return idx
}
