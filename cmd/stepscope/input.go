package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/go-delve/liner"
	"golang.org/x/term"
)

const prompt = "(stepscope) "

// commandNames are offered by tab completion.
var commandNames = []string{
	"break", "clear", "continue", "exit", "help", "in", "next", "out", "quit", "run", "stop", "vars",
}

// lineReader yields command lines until io.EOF.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

// newLineReader uses line editing when in is a terminal.
func newLineReader(in io.Reader) lineReader {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return newLinerReader()
	}
	return newScanReader(in)
}

// linerReader reads with history and completion.
type linerReader struct {
	state *liner.State
}

func newLinerReader() *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeCommand)
	return &linerReader{state: state}
}

func (l *linerReader) ReadLine() (string, error) {
	line, err := l.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		l.state.AppendHistory(line)
	}
	return line, nil
}

func (l *linerReader) Close() error {
	return l.state.Close()
}

// scanReader reads plain lines, for pipes and tests.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{sc: bufio.NewScanner(in)}
}

func (s *scanReader) ReadLine() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Close() error {
	return nil
}

func completeCommand(line string) []string {
	var out []string
	for _, name := range commandNames {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	return out
}
