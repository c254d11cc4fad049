package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
)

const (
	ansiBold  = "\x1b[1;33m"
	ansiReset = "\x1b[0m"
)

// terminalEditor is the editor surface of the command line: it prints a
// marker when the execution line changes.
type terminalEditor struct {
	mu    sync.Mutex
	out   io.Writer
	name  string
	color bool
	line  int
}

func newTerminalEditor(out io.Writer, path string, color bool) *terminalEditor {
	return &terminalEditor{out: out, name: filepath.Base(path), color: color}
}

func (e *terminalEditor) AddLineHighlight(line int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.line = line
	marker := fmt.Sprintf("=> %s:%d", e.name, line)
	if e.color {
		marker = ansiBold + marker + ansiReset
	}
	fmt.Fprintln(e.out, marker)
}

func (e *terminalEditor) RemoveLineHighlight(line int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.line == line {
		e.line = 0
	}
}

// Line returns the highlighted line, or 0.
func (e *terminalEditor) Line() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.line
}
