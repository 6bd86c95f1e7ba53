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
	"testing"

	"github.com/valyala/fastrand"
)

type nearestTestCase struct {
	Query float64
	Want  float64
}

func TestNearest(t *testing.T) {
	samples := []Sample{{400, 1.0}, {550, 0.5}, {700, 0.2}}
	tcs := []nearestTestCase{
		{400, 1.0},
		{550, 0.5},
		{700, 0.2},
		{0, 1.0},
		{474, 1.0},
		{476, 0.5},
		{475, 1.0}, // tie, first encountered wins
		{625, 0.5}, // tie, first encountered wins
		{10000, 0.2},
	}
	for _, tc := range tcs {
		if got := Nearest(samples, tc.Query); got != tc.Want {
			t.Errorf("Nearest(%g)=%g; want %g", tc.Query, got, tc.Want)
		}
		r := NewResampler(samples)
		if got := samples[r.Index(tc.Query)].Intensity; got != tc.Want {
			t.Errorf("Resampler.Index(%g) gives %g; want %g", tc.Query, got, tc.Want)
		}
	}
}

func TestNearestEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Nearest on empty samples did not panic")
		}
	}()
	Nearest(nil, 500)
}

func TestResamplerEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("NewResampler on empty samples did not panic")
		}
	}()
	NewResampler([]Sample{})
}

func TestResamplerDuplicatesLowestIndex(t *testing.T) {
	samples := []Sample{{400, 1}, {500, 2}, {500, 3}, {500, 4}, {600, 5}}
	r := NewResampler(samples)
	for _, q := range []float64{500, 499, 501, 550} {
		if got := r.Index(q); got != 1 {
			t.Errorf("Index(%g)=%d; want 1", q, got)
		}
	}
	if got := r.Index(551); got != 4 {
		t.Errorf("Index(551)=%d; want 4", got)
	}
}

func TestResamplerUnsorted(t *testing.T) {
	samples := []Sample{{700, 0.2}, {400, 1.0}, {550, 0.5}, {400, 0.9}}
	r := NewResampler(samples)
	if r.sorted {
		t.Fatalf("unsorted input detected as sorted")
	}
	if got := r.Index(410); got != 1 {
		t.Errorf("Index(410)=%d; want 1", got)
	}
	if got := r.Intensity([]float64{7, 6, 5, 4}, 690); got != 7 {
		t.Errorf("Intensity(690)=%g; want 7", got)
	}
}

func TestResamplerMatchesLinearScan(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(42)
	for round := 0; round < 50; round++ {
		n := 1 + int(rng.Uint32n(200))
		samples := make([]Sample, n)
		wl := 300.0
		for i := range samples {
			wl += float64(rng.Uint32n(4)) * 0.5 // includes duplicate wavelengths
			samples[i] = Sample{wl, float64(i)}
		}
		r := NewResampler(samples)
		if !r.sorted {
			t.Fatalf("monotonic input not detected as sorted")
		}
		for q := 0; q < 100; q++ {
			query := 290 + float64(rng.Uint32n(4000))*0.125
			if got, want := float64(r.Index(query)), Nearest(samples, query); got != want {
				t.Fatalf("round %d query %g: binary search index %g; linear scan %g", round, query, got, want)
			}
		}
	}
}

func TestIndices(t *testing.T) {
	samples := []Sample{{380, 0}, {480, 1}, {580, 2}, {680, 3}, {780, 4}}
	r := NewResampler(samples)

	idx := r.Indices(380, 780, 4)
	want := []int{0, 1, 2, 3, 4}
	if len(idx) != len(want) {
		t.Fatalf("len=%d; want %d", len(idx), len(want))
	}
	for i := range want {
		if idx[i] != want[i] {
			t.Errorf("idx[%d]=%d; want %d", i, idx[i], want[i])
		}
	}

	idx = r.Indices(600, 780, 0)
	if len(idx) != 1 || idx[0] != 2 {
		t.Errorf("Indices with zero stops=%v; want [2]", idx)
	}
}

func TestStopWavelength(t *testing.T) {
	if got := StopWavelength(380, 780, 0, 0); got != 380 {
		t.Errorf("single stop at %g; want 380", got)
	}
	if got := StopWavelength(380, 780, 10, 10); got != 780 {
		t.Errorf("last stop at %g; want 780", got)
	}
	if got := StopWavelength(380, 780, 5, 10); math.Abs(got-580) > 1e-9 {
		t.Errorf("middle stop at %g; want 580", got)
	}
	// the span overflows, the stops must not
	for i := 0; i <= 2; i++ {
		if got := StopWavelength(-1e308, 1e308, i, 2); math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("stop %d of -1e308..1e308 at %g; want finite", i, got)
		}
	}
}
