package pinmap

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownBoard is returned when no board is registered under a name.
var ErrUnknownBoard = errors.New("pinmap: unknown board")

// BoardExt is the file extension LoadDir picks up.
const BoardExt = ".board"

// Registry holds the boards known to the tool, keyed by upper-case name.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{boards: make(map[string]*Board)}
}

// DefaultRegistry creates a registry holding the built-in boards.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, b := range Builtin() {
		r.Add(b)
	}
	return r
}

// Add registers a board, replacing any board with the same name.
func (r *Registry) Add(b *Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[strings.ToUpper(b.Name())] = b
}

// Lookup returns the board registered under name (case-insensitive).
func (r *Registry) Lookup(name string) (*Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.boards[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, name)
}

// Names returns the registered board names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.boards))
	for _, b := range r.boards {
		names = append(names, b.Name())
	}
	sort.Strings(names)
	return names
}

// LoadFiles parses the provided board files and registers every board they
// declare.
func (r *Registry) LoadFiles(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	parser, err := NewParser()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := r.loadFile(parser, path); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir recursively loads all *.board files under root.
func (r *Registry) LoadDir(root string) error {
	parser, err := NewParser()
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isBoardFile(path) {
			return nil
		}
		return r.loadFile(parser, path)
	})
}

func (r *Registry) loadFile(parser *Parser, path string) error {
	file, err := parser.ParseFile(path)
	if err != nil {
		return err
	}
	boards, err := file.Build()
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		return fmt.Errorf("pinmap: %s declares no boards", path)
	}
	for _, b := range boards {
		r.Add(b)
	}
	return nil
}

func isBoardFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), BoardExt)
}
