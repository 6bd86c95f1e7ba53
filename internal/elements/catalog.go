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


// Package elements locates and reads emission and absorption line positions of chemical elements.
package elements

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mlnoga/starcolor/internal/spectrum"
)

var ErrInvalidSymbol = errors.New("invalid element symbol")

// Element symbols, optionally with an ionization stage, e.g. H, Na, FeII, Ca_II
var reSymbol = regexp.MustCompile(`^[A-Z][a-z]?[a-z]?(_?[IVX]{1,5})?$`)

func ValidSymbol(symbol string) bool { return reSymbol.MatchString(symbol) }

// A directory of line lists, one CSV file per element named <symbol>.csv
type Catalog struct {
	Dir  string
	Opts spectrum.CSVOptions
}

func NewCatalog(dir string, opts spectrum.CSVOptions) *Catalog {
	return &Catalog{Dir: dir, Opts: opts}
}

// Returns the file name holding the lines for the given symbol
func (c *Catalog) Path(symbol string) (string, error) {
	if !ValidSymbol(symbol) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return filepath.Join(c.Dir, symbol+".csv"), nil
}

// Reads the line wavelengths for the given symbol, in nm
func (c *Catalog) Load(symbol string, logWriter io.Writer) ([]float64, error) {
	fileName, err := c.Path(symbol)
	if err != nil {
		return nil, err
	}
	lines, err := spectrum.ReadLinesFile(fileName, c.Opts, logWriter)
	if err != nil {
		return nil, fmt.Errorf("lines for %s: %w", symbol, err)
	}
	return lines, nil
}

// Returns the symbols available in the catalog directory, sorted
func (c *Catalog) Symbols() ([]string, error) {
	entries, err := os.ReadDir(c.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var syms []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		if sym := strings.TrimSuffix(name, ".csv"); ValidSymbol(sym) {
			syms = append(syms, sym)
		}
	}
	sort.Strings(syms)
	return syms, nil
}

// Returns the symbol a file in the catalog directory belongs to, if any
func (c *Catalog) SymbolOf(fileName string) (string, bool) {
	if filepath.Clean(filepath.Dir(fileName)) != filepath.Clean(c.Dir) {
		return "", false
	}
	base := filepath.Base(fileName)
	if !strings.HasSuffix(base, ".csv") {
		return "", false
	}
	sym := strings.TrimSuffix(base, ".csv")
	return sym, ValidSymbol(sym)
}
