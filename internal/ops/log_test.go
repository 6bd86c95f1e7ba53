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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLogWriterTeesToFile(t *testing.T) {
	var out bytes.Buffer
	l := NewLogWriter(&out)
	l.Write([]byte("before\n"))

	fileName := filepath.Join(t.TempDir(), "test.log")
	if err := l.AlsoToFile(fileName); err != nil {
		t.Fatal(err)
	}
	l.Write([]byte("after\n"))
	if err := l.Sync(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	l.Write([]byte("closed\n"))

	if got := out.String(); got != "before\nafter\nclosed\n" {
		t.Errorf("stream got %q", got)
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "after\n" {
		t.Errorf("file got %q; want %q", data, "after\n")
	}
}

func TestAutoLogFileName(t *testing.T) {
	now := time.Date(2020, 12, 31, 23, 59, 59, 0, time.UTC)
	if got, want := AutoLogFileName("serve", now), "starcolor-serve-20201231-235959.log"; got != want {
		t.Errorf("AutoLogFileName=%q; want %q", got, want)
	}
	if got, want := AutoLogFileName("a/b c", now), "starcolor-a_b_c-20201231-235959.log"; got != want {
		t.Errorf("AutoLogFileName=%q; want %q", got, want)
	}
}
