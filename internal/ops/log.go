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
	"bufio"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// A log writer. Writes to an output stream, and optionally to a file.
// Does not add prefixes, or force newlines.
type LogWriter struct {
	mu     sync.Mutex
	out    io.Writer
	file   *bufio.Writer
	fileOS *os.File
}

func NewLogWriter(out io.Writer) *LogWriter {
	return &LogWriter{out: out}
}

// Derives a log file name from the given command, e.g. starcolor-serve-20201231-235959.log
func AutoLogFileName(command string, now time.Time) string {
	command = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, command)
	return "starcolor-" + command + "-" + now.Format("20060102-150405") + ".log"
}

// Enables logging to file, closing any previous log file
func (l *LogWriter) AlsoToFile(fileName string) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err = l.closeFile(); err != nil {
		return err
	}
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	l.fileOS, l.file = f, bufio.NewWriter(f)
	return nil
}

func (l *LogWriter) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, err = l.out.Write(p)
	if err != nil || l.file == nil {
		return n, err
	}
	return l.file.Write(p)
}

// Flushes and syncs the log file, if any
func (l *LogWriter) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	if err := l.file.Flush(); err != nil {
		return err
	}
	return l.fileOS.Sync()
}

// Flushes and closes the log file, if any. Output continues on the stream
func (l *LogWriter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFile()
}

func (l *LogWriter) closeFile() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Flush()
	if cerr := l.fileOS.Close(); err == nil {
		err = cerr
	}
	l.file, l.fileOS = nil, nil
	return err
}
