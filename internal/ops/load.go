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
	"fmt"
	"path/filepath"
	"sort"

	"github.com/mlnoga/starcolor/internal/spectrum"
)

// A promise for a spectrum. Returns a materialized spectrum, or an error
type Promise func() (s *spectrum.Spectrum, err error)

// Materializes all promises with given concurrency limit. Failed promises are
// left out of the result, and their errors joined
func MaterializeAll(ins []Promise, maxThreads int) (outs []*spectrum.Spectrum, err error) {
	if len(ins) == 0 {
		return nil, nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	outs = make([]*spectrum.Spectrum, len(ins))
	errs := make([]error, len(ins))
	limiter := make(chan bool, maxThreads)
	for i, in := range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			outs[i], errs[i] = theIn() // materialize the promise
		}(i, in)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	for _, e := range errs { // collect errors in input order
		if e == nil {
			continue
		}
		if err == nil {
			err = e
		} else {
			err = fmt.Errorf("%w; %w", err, e)
		}
	}
	return RemoveNils(outs), err
}

// Remove nils from an array of spectra, editing the underlying array in place
func RemoveNils(ss []*spectrum.Spectrum) []*spectrum.Spectrum {
	o := 0
	for i := 0; i < len(ss); i++ {
		if ss[i] != nil {
			ss[o] = ss[i]
			o++
		}
	}
	for i := o; i < len(ss); i++ {
		ss[i] = nil
	}
	return ss[:o]
}

// Returns a promise loading the named dataset through the context cache
func (c *Context) Promise(name string) Promise {
	return func() (*spectrum.Spectrum, error) { return c.Spectrum(name) }
}

// Expands glob patterns relative to DataDir into dataset names. Patterns
// without wildcards are passed through, so missing files surface as load errors
func (c *Context) Expand(patterns []string) ([]string, error) {
	var names []string
	for _, p := range patterns {
		fileName, err := c.Resolve(p)
		if err != nil {
			return nil, err
		}
		matches, err := filepath.Glob(fileName)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			names = append(names, p)
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if c.DataDir != "" && !filepath.IsAbs(filepath.FromSlash(p)) {
				if rel, err := filepath.Rel(c.DataDir, m); err == nil {
					m = rel
				}
			}
			names = append(names, filepath.ToSlash(m))
		}
	}
	return names, nil
}

// Loads all datasets matching the given patterns concurrently, bounded by MaxThreads.
// Returns the spectra that could be loaded along with the joined errors of the rest
func (c *Context) LoadAll(patterns []string) ([]*spectrum.Spectrum, error) {
	names, err := c.Expand(patterns)
	if err != nil {
		return nil, err
	}
	ins := make([]Promise, len(names))
	for i, name := range names {
		ins[i] = c.Promise(name)
	}
	fmt.Fprintf(c.Log, "Loading %d spectra with %d threads\n", len(ins), c.MaxThreads)
	return MaterializeAll(ins, c.MaxThreads)
}
