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
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watches DataDir and its subdirectories, dropping cached data for files that are
// written, created, removed or renamed. Returns once the watcher is set up; watching
// stops when ctx is done. onChange, if not nil, is called after each invalidation
func (c *Context) Watch(ctx context.Context, onChange func(fileName string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	if err := addTree(w, dir); err != nil {
		w.Close()
		return err
	}
	fmt.Fprintf(c.Log, "Watching %s for changes\n", dir)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				c.handleEvent(w, ev, onChange)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(c.Log, "Watcher error: %s\n", err)
			}
		}
	}()
	return nil
}

func (c *Context) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, onChange func(string)) {
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := addTree(w, ev.Name); err != nil {
				fmt.Fprintf(c.Log, "Watcher error: %s\n", err)
			}
			return
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	c.Invalidate(ev.Name)
	if onChange != nil {
		onChange(ev.Name)
	}
}

// adds dir and all non-hidden subdirectories to the watcher
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
