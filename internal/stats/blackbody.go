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
	"errors"
	"fmt"
	"math"

	"github.com/mlnoga/starcolor/internal/spectrum"
	"gonum.org/v1/gonum/optimize"
)

const (
	WienB = 2.897771955e6 // Wien displacement constant in nm K
	C2    = 1.438776877e7 // second radiation constant hc/k in nm K
)

var ErrTooFewSamples = errors.New("too few samples for blackbody fit")

// Spectral radiance of a black body at temperature t in K and wavelength wl in nm,
// relative to the radiance at its own peak wavelength
func Planck(wl, t float64) float64 {
	if !(wl > 0) || !(t > 0) {
		return 0
	}
	peak := WienB / t
	denom := math.Expm1(C2 / (wl * t))
	if math.IsInf(denom, 1) {
		return 0
	}
	return math.Pow(peak/wl, 5) * math.Expm1(C2/(peak*t)) / denom
}

// Result of fitting a Planck curve to a spectrum
type BlackbodyFit struct {
	Temperature float64 `json:"temperature"` // in K
	Scale       float64 `json:"scale"`       // fitted peak height relative to the maximum intensity
	Residual    float64 `json:"residual"`    // RMS deviation of the normalized intensities
	BV          float64 `json:"bv"`          // color index implied by the temperature
	Samples     int     `json:"samples"`
}

func (f BlackbodyFit) String() string {
	return fmt.Sprintf("T %.0fK B-V %.3f scale %.3g residual %.3g over %d samples", f.Temperature, f.BV, f.Scale, f.Residual, f.Samples)
}

// Fits a scaled Planck curve to the samples with wavelengths in [min,max] nm.
// Starts from Wien's law on the peak sample and refines temperature and scale with Nelder-Mead
func FitBlackbody(s *spectrum.Spectrum, min, max float64) (fit BlackbodyFit, err error) {
	var wls, ints []float64
	maxInt, peakWl := math.Inf(-1), 0.0
	for _, smp := range s.Samples {
		if smp.Wavelength <= 0 || smp.Wavelength < min || smp.Wavelength > max {
			continue
		}
		wls = append(wls, smp.Wavelength)
		ints = append(ints, smp.Intensity)
		if smp.Intensity > maxInt {
			maxInt, peakWl = smp.Intensity, smp.Wavelength
		}
	}
	if len(wls) < 3 {
		return fit, fmt.Errorf("%s: %w", s.Name, ErrTooFewSamples)
	}
	if !(maxInt > 0) {
		return fit, fmt.Errorf("%s: no positive intensities in %g..%g nm", s.Name, min, max)
	}
	for i := range ints {
		ints[i] /= maxInt
	}

	t0 := WienB / peakWl
	if t0 < 1000 {
		t0 = 1000
	} else if t0 > 50000 {
		t0 = 50000
	}

	// parameters are scale and log temperature, which keeps the temperature positive
	residual := func(x []float64) float64 {
		a, t := x[0], math.Exp(x[1])
		sumSq := 0.0
		for i, wl := range wls {
			d := a*Planck(wl, t) - ints[i]
			sumSq += d * d
		}
		return math.Sqrt(sumSq / float64(len(wls)))
	}
	problem := optimize.Problem{Func: residual}
	result, err := optimize.Minimize(problem, []float64{1, math.Log(t0)}, nil, &optimize.NelderMead{})
	if err != nil {
		return fit, err
	}

	t := math.Exp(result.X[1])
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fit, fmt.Errorf("%s: blackbody fit diverged", s.Name)
	}
	return BlackbodyFit{
		Temperature: t,
		Scale:       result.X[0],
		Residual:    result.F,
		BV:          TemperatureToBV(t),
		Samples:     len(wls),
	}, nil
}

// Converts a B-V color index into an effective temperature in K, after Ballesteros (2012)
func BVToTemperature(bv float64) float64 {
	return 4600 * (1/(0.92*bv+1.7) + 1/(0.92*bv+0.62))
}

// Inverts BVToTemperature for temperatures in K
func TemperatureToBV(t float64) float64 {
	if !(t > 0) {
		return math.NaN()
	}
	// k(x+1.7)(x+0.62) = 2x+2.32 with x=0.92*bv and k=t/4600
	k := t / 4600
	b := 2.32*k - 2
	c := 1.054*k - 2.32
	x := (-b + math.Sqrt(b*b-4*k*c)) / (2 * k)
	return x / 0.92
}
