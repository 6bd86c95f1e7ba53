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
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSVHeaderAndScale(t *testing.T) {
	in := "wavelength,flux\n3800,10\n5500,20\n\n7000,5\n"
	s, err := ReadCSV(strings.NewReader(in), "vega.csv", CSVOptions{WavelengthScale: 0.1}, nil)
	if err != nil {
		t.Fatalf("ReadCSV: %s", err)
	}
	want := []Sample{{380, 10}, {550, 20}, {700, 5}}
	if len(s.Samples) != len(want) {
		t.Fatalf("got %d samples; want %d", len(s.Samples), len(want))
	}
	for i, w := range want {
		got := s.Samples[i]
		if abs(got.Wavelength-w.Wavelength) > 1e-9 || got.Intensity != w.Intensity {
			t.Errorf("sample %d=%v; want %v", i, got, w)
		}
	}
	if s.Name != "vega.csv" {
		t.Errorf("name=%q", s.Name)
	}
}

func TestReadCSVHeaderModes(t *testing.T) {
	in := "1,2\n3,4\n"
	s, err := ReadCSV(strings.NewReader(in), "a", CSVOptions{}, nil)
	if err != nil || s.Len() != 2 {
		t.Errorf("auto header on numeric first row: len=%d err=%v; want 2 samples", s.Len(), err)
	}
	s, err = ReadCSV(strings.NewReader(in), "b", CSVOptions{Header: HeaderPresent}, nil)
	if err != nil || s.Len() != 1 || s.Samples[0].Wavelength != 3 {
		t.Errorf("forced header: %v err=%v; want single sample at 3", s, err)
	}
	_, err = ReadCSV(strings.NewReader("w,i\n1,2\n"), "c", CSVOptions{Header: HeaderAbsent, Strict: true}, nil)
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 1 {
		t.Errorf("no header, strict: err=%v; want RowError on line 1", err)
	}
}

func TestReadCSVMalformedRows(t *testing.T) {
	in := "wl,int\n400,1\n450,abc\n500,NaN\n550\n600,2,extra\n"

	var log bytes.Buffer
	s, err := ReadCSV(strings.NewReader(in), "bad.csv", CSVOptions{}, &log)
	if err != nil {
		t.Fatalf("lenient ReadCSV: %s", err)
	}
	if s.Len() != 2 || s.Samples[1].Wavelength != 600 {
		t.Errorf("lenient ReadCSV kept %v; want rows 400 and 600", s.Samples)
	}
	if n := strings.Count(log.String(), "skipping row"); n != 3 {
		t.Errorf("logged %d skipped rows; want 3:\n%s", n, log.String())
	}
	if !strings.Contains(log.String(), "bad.csv:3:") {
		t.Errorf("warning does not name file and line:\n%s", log.String())
	}

	_, err = ReadCSV(strings.NewReader(in), "bad.csv", CSVOptions{Strict: true}, nil)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("strict ReadCSV err=%v; want *RowError", err)
	}
	if rowErr.Line != 3 {
		t.Errorf("strict ReadCSV failed on line %d; want 3", rowErr.Line)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("wavelength,intensity\n"), "empty.csv", CSVOptions{}, nil)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("err=%v; want ErrEmpty", err)
	}
}

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("wavelength\n6562.8\n4861.3\n"), "H.csv", CSVOptions{WavelengthScale: 0.1}, nil)
	if err != nil {
		t.Fatalf("ReadLines: %s", err)
	}
	want := []float64{656.28, 486.13}
	for i := range want {
		if abs(lines[i]-want[i]) > 1e-9 {
			t.Errorf("line %d=%g; want %g", i, lines[i], want[i])
		}
	}
}

func TestReadFileGzip(t *testing.T) {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "vega.csv.gz")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("wl,i\n500,1\n600,2\n"))
	gz.Close()
	if err := os.WriteFile(fileName, buf.Bytes(), 0666); err != nil {
		t.Fatal(err)
	}

	s, err := ReadFile(fileName, CSVOptions{}, nil)
	if err != nil {
		t.Fatalf("ReadFile: %s", err)
	}
	if s.Len() != 2 {
		t.Errorf("got %d samples; want 2", s.Len())
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.csv"), CSVOptions{}, nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err=%v; want os.ErrNotExist", err)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
