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
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strconv"
	"strings"
)

// Header handling for CSV input
type HeaderMode int

const (
	HeaderAuto    HeaderMode = iota // first row is a header if it does not parse as numbers
	HeaderPresent                   // first row is always a header
	HeaderAbsent                    // first row is data
)

// Options for reading CSV data
type CSVOptions struct {
	Header          HeaderMode `json:"header"`
	WavelengthScale float64    `json:"wavelengthScale"` // multiplier applied to wavelengths, 0 means 1. Use 0.1 for Angstrom
	Strict          bool       `json:"strict"`          // reject the whole file on a malformed row instead of skipping it
}

func (o CSVOptions) scale() float64 {
	if o.WavelengthScale == 0 {
		return 1
	}
	return o.WavelengthScale
}

// A malformed CSV row
type RowError struct {
	Name string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Err.Error())
}

func (e *RowError) Unwrap() error { return e.Err }

var errTooFewColumns = errors.New("too few columns")

// Reads a spectrum from the file with the given name. Decompresses gzip if .gz or .gzip suffix is present.
// Skipped rows are reported to logWriter
func ReadFile(fileName string, opts CSVOptions, logWriter io.Writer) (*Spectrum, error) {
	var s *Spectrum
	err := withReader(fileName, func(r io.Reader) (err error) {
		s, err = ReadCSV(r, fileName, opts, logWriter)
		return err
	})
	return s, err
}

// Reads a single-column list of wavelengths, e.g. element line positions, from the named file
func ReadLinesFile(fileName string, opts CSVOptions, logWriter io.Writer) ([]float64, error) {
	var lines []float64
	err := withReader(fileName, func(r io.Reader) (err error) {
		lines, err = ReadLines(r, fileName, opts, logWriter)
		return err
	})
	return lines, err
}

func withReader(fileName string, fn func(r io.Reader) error) error {
	f, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	lExt := strings.ToLower(path.Ext(fileName))
	if lExt == ".gz" || lExt == ".gzip" {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}
	return fn(r)
}

// Reads (wavelength, intensity) pairs from CSV. Columns beyond the second are ignored
func ReadCSV(r io.Reader, name string, opts CSVOptions, logWriter io.Writer) (*Spectrum, error) {
	var samples []Sample
	err := readRows(r, name, opts, 2, logWriter, func(vals []float64) {
		samples = append(samples, Sample{Wavelength: vals[0] * opts.scale(), Intensity: vals[1]})
	})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	return New(name, samples), nil
}

// Reads wavelengths from the first CSV column
func ReadLines(r io.Reader, name string, opts CSVOptions, logWriter io.Writer) ([]float64, error) {
	var lines []float64
	err := readRows(r, name, opts, 1, logWriter, func(vals []float64) {
		lines = append(lines, vals[0]*opts.scale())
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func readRows(r io.Reader, name string, opts CSVOptions, columns int, logWriter io.Writer, emit func([]float64)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.ReuseRecord = true

	vals := make([]float64, columns)
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("%s: %w", name, err)
			}
			if opts.Strict {
				return &RowError{Name: name, Line: pe.StartLine, Err: pe.Err}
			}
			warn(logWriter, name, pe.StartLine, pe.Err)
			continue
		}
		line, _ := cr.FieldPos(0)

		isFirst := first
		first = false
		if isFirst && opts.Header == HeaderPresent {
			continue
		}

		err = parseRow(rec, vals)
		if err != nil {
			if isFirst && opts.Header == HeaderAuto {
				continue // header row
			}
			if opts.Strict {
				return &RowError{Name: name, Line: line, Err: err}
			}
			warn(logWriter, name, line, err)
			continue
		}
		emit(vals)
	}
}

func parseRow(rec []string, vals []float64) error {
	if len(rec) < len(vals) {
		return errTooFewColumns
	}
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value %q", rec[i])
		}
		vals[i] = v
	}
	return nil
}

func warn(logWriter io.Writer, name string, line int, err error) {
	if logWriter == nil {
		return
	}
	fmt.Fprintf(logWriter, "%s:%d: skipping row: %s\n", name, line, err.Error())
}
