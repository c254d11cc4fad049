package debug

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidLine is returned for breakpoint lines below 1.
var ErrInvalidLine = errors.New("breakpoint line must be 1 or greater")

// Breakpoint is a line breakpoint in one source context.
type Breakpoint struct {
	// ID is an opaque identifier assigned when the breakpoint is created.
	ID string `json:"id"`

	// Path identifies the context (source file) the breakpoint belongs to.
	Path string `json:"path"`

	// Line is the requested line (1-based).
	Line int `json:"line"`

	// Verified is set once the adapter confirms the breakpoint.
	Verified bool `json:"-"`

	// ActualLine is where the adapter placed the breakpoint, when it moved it.
	ActualLine int `json:"-"`

	// Message is the adapter's explanation for an unverified breakpoint.
	Message string `json:"-"`

	// AdapterID is the adapter's id for the breakpoint, used to match
	// breakpoint events. Zero when unknown.
	AdapterID int `json:"-"`
}

// BreakpointStore holds line breakpoints grouped by context. A (path, line)
// pair appears at most once, and lists are kept ordered by line.
type BreakpointStore struct {
	mu     sync.RWMutex
	byPath map[string][]Breakpoint
}

// NewBreakpointStore creates an empty store.
func NewBreakpointStore() *BreakpointStore {
	return &BreakpointStore{byPath: make(map[string][]Breakpoint)}
}

// Add adds a breakpoint at path:line. It returns the breakpoint and whether
// it was newly created.
func (m *BreakpointStore) Add(path string, line int) (Breakpoint, bool, error) {
	if line < 1 {
		return Breakpoint{}, false, fmt.Errorf("%w: %d", ErrInvalidLine, line)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byPath[path]
	i := sort.Search(len(list), func(i int) bool { return list[i].Line >= line })
	if i < len(list) && list[i].Line == line {
		return list[i], false, nil
	}

	bp := Breakpoint{ID: uuid.NewString(), Path: path, Line: line}
	list = append(list, Breakpoint{})
	copy(list[i+1:], list[i:])
	list[i] = bp
	m.byPath[path] = list
	return bp, true, nil
}

// Remove removes the breakpoint at path:line and reports whether one existed.
func (m *BreakpointStore) Remove(path string, line int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byPath[path]
	for i, bp := range list {
		if bp.Line == line {
			m.byPath[path] = append(list[:i:i], list[i+1:]...)
			if len(m.byPath[path]) == 0 {
				delete(m.byPath, path)
			}
			return true
		}
	}
	return false
}

// Toggle adds a breakpoint at path:line if none exists, otherwise removes it.
// It reports whether the breakpoint is now present.
func (m *BreakpointStore) Toggle(path string, line int) (bool, error) {
	if m.Remove(path, line) {
		return false, nil
	}
	_, _, err := m.Add(path, line)
	return err == nil, err
}

// Clear removes every breakpoint for path and returns how many there were.
func (m *BreakpointStore) Clear(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.byPath[path])
	delete(m.byPath, path)
	return n
}

// For returns the breakpoints for path ordered by line.
func (m *BreakpointStore) For(path string) []Breakpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Breakpoint{}, m.byPath[path]...)
}

// Lines returns the breakpoint lines for path in ascending order.
func (m *BreakpointStore) Lines(path string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lines := make([]int, len(m.byPath[path]))
	for i, bp := range m.byPath[path] {
		lines[i] = bp.Line
	}
	return lines
}

// Paths returns every path with at least one breakpoint, sorted.
func (m *BreakpointStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathsLocked()
}

// Has reports whether a breakpoint exists at path:line.
func (m *BreakpointStore) Has(path string, line int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, bp := range m.byPath[path] {
		if bp.Line == line {
			return true
		}
	}
	return false
}

// ApplyResults copies adapter verification from results onto the stored
// breakpoints of path, matching on the requested line.
func (m *BreakpointStore) ApplyResults(path string, results []Breakpoint) {
	byLine := make(map[int]Breakpoint, len(results))
	for _, r := range results {
		byLine[r.Line] = r
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byPath[path]
	for i := range list {
		r, ok := byLine[list[i].Line]
		if !ok {
			continue
		}
		list[i].Verified = r.Verified
		list[i].ActualLine = r.ActualLine
		list[i].Message = r.Message
		list[i].AdapterID = r.AdapterID
	}
}

// ApplyUpdate applies an adapter breakpoint event to the breakpoint of path
// with the same adapter id. Adapters number breakpoints per connection, so
// the id is only meaningful within the context the event came from. It
// reports whether a breakpoint changed.
func (m *BreakpointStore) ApplyUpdate(path string, update Breakpoint) bool {
	if update.AdapterID == 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byPath[path]
	for i := range list {
		if list[i].AdapterID != update.AdapterID {
			continue
		}
		list[i].Verified = update.Verified
		list[i].Message = update.Message
		if update.ActualLine != 0 {
			list[i].ActualLine = update.ActualLine
		}
		return true
	}
	return false
}

// ResetVerification marks the breakpoints of path unverified, as after the
// adapter connection for that context ends.
func (m *BreakpointStore) ResetVerification(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byPath[path]
	for i := range list {
		list[i].Verified = false
		list[i].ActualLine = 0
		list[i].Message = ""
		list[i].AdapterID = 0
	}
}

// persistedBreakpoints is the on-disk format.
type persistedBreakpoints struct {
	Version     int          `json:"version"`
	Breakpoints []Breakpoint `json:"breakpoints"`
}

// Save writes every breakpoint to file as JSON.
func (m *BreakpointStore) Save(file string) error {
	m.mu.RLock()
	data := persistedBreakpoints{Version: 1}
	for _, path := range m.pathsLocked() {
		data.Breakpoints = append(data.Breakpoints, m.byPath[path]...)
	}
	m.mu.RUnlock()

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal breakpoints: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if err := os.WriteFile(file, content, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Load replaces the store's contents with the breakpoints in file. A missing
// file leaves the store empty and is not an error.
func (m *BreakpointStore) Load(file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.mu.Lock()
			m.byPath = make(map[string][]Breakpoint)
			m.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read file: %w", err)
	}

	var data persistedBreakpoints
	if err := json.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("unmarshal breakpoints: %w", err)
	}

	byPath := make(map[string][]Breakpoint)
	seen := make(map[string]map[int]bool)
	for _, bp := range data.Breakpoints {
		if bp.Line < 1 || bp.Path == "" {
			continue
		}
		if seen[bp.Path] == nil {
			seen[bp.Path] = make(map[int]bool)
		}
		if seen[bp.Path][bp.Line] {
			continue
		}
		seen[bp.Path][bp.Line] = true
		if bp.ID == "" {
			bp.ID = uuid.NewString()
		}
		byPath[bp.Path] = append(byPath[bp.Path], bp)
	}
	for _, list := range byPath {
		sort.Slice(list, func(i, j int) bool { return list[i].Line < list[j].Line })
	}

	m.mu.Lock()
	m.byPath = byPath
	m.mu.Unlock()
	return nil
}

func (m *BreakpointStore) pathsLocked() []string {
	paths := make([]string, 0, len(m.byPath))
	for path := range m.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
