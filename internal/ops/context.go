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


package ops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	"github.com/mlnoga/starcolor/internal/elements"
	"github.com/mlnoga/starcolor/internal/spectrum"
)

var ErrPathNotAllowed = errors.New("path not allowed")

// Subdirectory of the data directory holding element line lists
const ElementsDir = "elements"

// An execution context for loading and rendering spectra
type Context struct {
	Log        io.Writer
	DataDir    string              // base directory for relative dataset names
	Restrict   bool                // only allow relative names below DataDir
	CSV        spectrum.CSVOptions // options for spectrum files
	Lines      *elements.Catalog   // element line lists
	MemoryMB   int                 // memory.TotalMemory()/1024/1024
	MaxThreads int                 `json:"maxThreads"`
	Cache      *Cache              // parsed spectra and line lists
}

// Creates a new context. The cache budget defaults to a tenth of physical memory,
// and parallel loading to the number of physical cores
func NewContext(log io.Writer, dataDir string, csvOpts, lineOpts spectrum.CSVOptions) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	maxThreads := runtime.GOMAXPROCS(0)
	if pc := cpuid.CPU.PhysicalCores; pc > 0 && pc < maxThreads {
		maxThreads = pc
	}
	return &Context{
		Log:        log,
		DataDir:    dataDir,
		CSV:        csvOpts,
		Lines:      elements.NewCatalog(filepath.Join(dataDir, ElementsDir), lineOpts),
		MemoryMB:   memoryMB,
		MaxThreads: maxThreads,
		Cache:      NewCache(int64(memoryMB/10) << 20),
	}
}

// Sets the cache budget in MB. Values <=0 disable eviction
func (c *Context) SetCacheMB(mb int) {
	c.Cache.SetBudget(int64(mb) << 20)
}

// Checks whether a dataset name is allowed. With Restrict set, names must be relative
// and must not leave DataDir
func (c *Context) IsPathAllowed(name string) bool {
	if name == "" || strings.ContainsRune(name, 0) {
		return false
	}
	if !c.Restrict {
		return true
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\") {
		return false
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	return clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// Resolves a dataset name to a file name
func (c *Context) Resolve(name string) (string, error) {
	if !c.IsPathAllowed(name) {
		return "", fmt.Errorf("%w: %q", ErrPathNotAllowed, name)
	}
	fileName := filepath.FromSlash(name)
	if c.DataDir != "" && !filepath.IsAbs(fileName) {
		fileName = filepath.Join(c.DataDir, fileName)
	}
	return filepath.Clean(fileName), nil
}

// Returns the slash-separated name of a resolved file relative to the data directory.
// Files outside the data directory keep their full name
func (c *Context) datasetName(fileName string) string {
	if c.DataDir != "" {
		if rel, err := filepath.Rel(c.DataDir, fileName); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(fileName)
}

func spectrumKey(fileName string) string { return "spectrum:" + fileName }
func linesKey(symbol string) string     { return "lines:" + symbol }

// Returns the spectrum with the given dataset name, reading through the cache
func (c *Context) Spectrum(name string) (*spectrum.Spectrum, error) {
	fileName, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}
	v, err := c.Cache.GetOrLoad(spectrumKey(fileName), func() (interface{}, int64, error) {
		s, err := spectrum.ReadFile(fileName, c.CSV, c.Log)
		if err != nil {
			return nil, 0, err
		}
		s.Name = c.datasetName(fileName)
		fmt.Fprintf(c.Log, "Loaded %s with %d samples\n", s.Name, s.Len())
		return s, int64(s.Len()) * 16, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*spectrum.Spectrum), nil
}

// Returns the line wavelengths for the given element symbol, reading through the cache
func (c *Context) ElementLines(symbol string) ([]float64, error) {
	v, err := c.Cache.GetOrLoad(linesKey(symbol), func() (interface{}, int64, error) {
		lines, err := c.Lines.Load(symbol, c.Log)
		if err != nil {
			return nil, 0, err
		}
		return lines, int64(len(lines)) * 8, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// Drops any cached data read from the given file. Returns true if an entry was removed
func (c *Context) Invalidate(fileName string) bool {
	fileName = filepath.Clean(fileName)
	removed := c.Cache.Remove(spectrumKey(fileName))
	if symbol, ok := c.Lines.SymbolOf(fileName); ok {
		removed = c.Cache.Remove(linesKey(symbol)) || removed
	}
	if removed {
		fmt.Fprintf(c.Log, "Invalidated %s\n", fileName)
	}
	return removed
}

// Returns true if the file name looks like a spectrum file
func IsSpectrumFile(fileName string) bool {
	lower := strings.ToLower(fileName)
	for _, suffix := range []string{".csv", ".csv.gz", ".csv.gzip"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Lists the dataset names of all spectrum files below DataDir, excluding element line lists.
// Names use forward slashes and are relative to DataDir
func (c *Context) ListSpectra() ([]string, error) {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	var names []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && (d.Name() == ElementsDir || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSpectrumFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	sort.Strings(names)
	return names, err
}
