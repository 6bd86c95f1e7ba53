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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlnoga/starcolor/internal/elements"
	"github.com/mlnoga/starcolor/internal/spectrum"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fileName := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fileName), 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fileName, []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func newTestContext(t *testing.T) (*Context, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	log := &bytes.Buffer{}
	c := NewContext(log, dir, spectrum.CSVOptions{}, spectrum.CSVOptions{WavelengthScale: 0.1})
	c.Restrict = true
	return c, dir, log
}

func TestNewContext(t *testing.T) {
	c := NewContext(nil, "data", spectrum.CSVOptions{}, spectrum.CSVOptions{})
	if c.MaxThreads < 1 {
		t.Errorf("MaxThreads=%d; want >=1", c.MaxThreads)
	}
	if c.MemoryMB <= 0 {
		t.Errorf("MemoryMB=%d; want >0", c.MemoryMB)
	}
	if want := filepath.Join("data", ElementsDir); c.Lines.Dir != want {
		t.Errorf("Lines.Dir=%q; want %q", c.Lines.Dir, want)
	}
}

func TestIsPathAllowed(t *testing.T) {
	c := &Context{Restrict: true}
	for _, p := range []string{"a.csv", "sub/a.csv", "sub/../a.csv", "..a.csv"} {
		if !c.IsPathAllowed(p) {
			t.Errorf("IsPathAllowed(%q)=false; want true", p)
		}
	}
	for _, p := range []string{"", "../a.csv", "..", "sub/../../a.csv", "/etc/passwd", "a\x00.csv"} {
		if c.IsPathAllowed(p) {
			t.Errorf("IsPathAllowed(%q)=true; want false", p)
		}
	}
	c.Restrict = false
	if !c.IsPathAllowed("/tmp/a.csv") || !c.IsPathAllowed("../a.csv") {
		t.Errorf("unrestricted context rejected a path")
	}
}

func TestContextSpectrumReadsThroughCache(t *testing.T) {
	c, dir, log := newTestContext(t)
	fileName := writeTestFile(t, dir, "sun/g2v.csv", "wavelength,intensity\n400,1\n550,0.5\n700,0.2\n")

	s, err := c.Spectrum("sun/g2v.csv")
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "sun/g2v.csv" || s.Len() != 3 {
		t.Errorf("loaded %v; want sun/g2v.csv with 3 samples", s)
	}
	if !strings.Contains(log.String(), "Loaded sun/g2v.csv with 3 samples") {
		t.Errorf("log %q lacks load message", log.String())
	}

	writeTestFile(t, dir, "sun/g2v.csv", "400,1\n")
	s2, err := c.Spectrum("sun/g2v.csv")
	if err != nil {
		t.Fatal(err)
	}
	if s2 != s {
		t.Errorf("second load did not return the cached spectrum")
	}

	if !c.Invalidate(fileName) {
		t.Errorf("Invalidate(%s)=false; want true", fileName)
	}
	s3, err := c.Spectrum("sun/g2v.csv")
	if err != nil {
		t.Fatal(err)
	}
	if s3.Len() != 1 {
		t.Errorf("after invalidation got %d samples; want 1", s3.Len())
	}
}

func TestContextSpectrumAliasesShareName(t *testing.T) {
	c, dir, _ := newTestContext(t)
	writeTestFile(t, dir, "three.csv", "400,1\n550,0.5\n700,0.2\n")

	for _, name := range []string{"./three.csv", "three.csv", "sun/../three.csv"} {
		s, err := c.Spectrum(name)
		if err != nil {
			t.Fatal(err)
		}
		if s.Name != "three.csv" {
			t.Errorf("Spectrum(%q).Name=%q; want three.csv", name, s.Name)
		}
	}
	if c.Cache.Len() != 1 {
		t.Errorf("%d cache entries; want 1", c.Cache.Len())
	}
}

func TestContextSpectrumErrors(t *testing.T) {
	c, dir, _ := newTestContext(t)
	if _, err := c.Spectrum("missing.csv"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err=%v; want os.ErrNotExist", err)
	}
	if _, err := c.Spectrum("../outside.csv"); !errors.Is(err, ErrPathNotAllowed) {
		t.Errorf("traversal err=%v; want ErrPathNotAllowed", err)
	}
	writeTestFile(t, dir, "empty.csv", "wavelength,intensity\n")
	if _, err := c.Spectrum("empty.csv"); !errors.Is(err, spectrum.ErrEmpty) {
		t.Errorf("empty file err=%v; want spectrum.ErrEmpty", err)
	}
	if c.Cache.Len() != 0 {
		t.Errorf("failed loads cached %d entries", c.Cache.Len())
	}
}

func TestContextElementLines(t *testing.T) {
	c, dir, _ := newTestContext(t)
	fileName := writeTestFile(t, dir, "elements/Na.csv", "5890.0\n5895.9\n")

	lines, err := c.ElementLines("Na")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] < 588.99 || lines[0] > 589.01 {
		t.Errorf("Na lines=%v; want [589 589.59]", lines)
	}
	if _, err := c.ElementLines("na"); !errors.Is(err, elements.ErrInvalidSymbol) {
		t.Errorf("invalid symbol err=%v; want ErrInvalidSymbol", err)
	}
	if !c.Invalidate(fileName) {
		t.Errorf("Invalidate(%s)=false; want true", fileName)
	}
	if c.Invalidate(fileName) {
		t.Errorf("second Invalidate(%s)=true; want false", fileName)
	}
}

func TestListSpectra(t *testing.T) {
	c, dir, _ := newTestContext(t)
	writeTestFile(t, dir, "a.csv", "400,1\n")
	writeTestFile(t, dir, "sub/b.CSV.gz", "")
	writeTestFile(t, dir, "elements/H.csv", "6562.8\n")
	writeTestFile(t, dir, ".hidden/c.csv", "400,1\n")
	writeTestFile(t, dir, "notes.txt", "")

	names, err := c.ListSpectra()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a.csv" || names[1] != "sub/b.CSV.gz" {
		t.Errorf("ListSpectra=%v; want [a.csv sub/b.CSV.gz]", names)
	}

	c.DataDir = filepath.Join(dir, "missing")
	if names, err := c.ListSpectra(); err != nil || len(names) != 0 {
		t.Errorf("missing data dir: %v, %v", names, err)
	}
}
