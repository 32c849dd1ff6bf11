// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pattern

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for pattern resolution.
var (
	// ErrNotFound indicates the requested pattern id has no definition file.
	ErrNotFound = errors.New("pattern not found")
	// ErrSelectionCancelled indicates the user cancelled interactive selection.
	ErrSelectionCancelled = errors.New("pattern selection cancelled")
	// ErrMissingInput indicates a required pattern input was not supplied.
	ErrMissingInput = errors.New("missing required pattern input")
)

// Repository loads pattern definitions from a directory of YAML files.
// Loaded patterns are cached; a filesystem watcher invalidates the cache
// when the directory changes, so edits are picked up without restarting.
type Repository struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Pattern

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRepository creates a repository over the given directory, creating it
// if needed, and starts the cache invalidation watcher.
func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create patterns directory: %w", err)
	}

	r := &Repository{
		dir:   dir,
		cache: make(map[string]*Pattern),
		done:  make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Watcher is an optimization; the repository still works, it just
		// caches stale definitions until Invalidate is called.
		log.Printf("pattern watcher unavailable: %v", err)
		return r, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		log.Printf("pattern watcher failed to watch %s: %v", dir, err)
		return r, nil
	}
	r.watcher = watcher
	go r.watch()

	return r, nil
}

// watch invalidates the cache on any change under the patterns directory.
func (r *Repository) watch() {
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				r.Invalidate()
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("pattern watcher error: %v", err)
		case <-r.done:
			return
		}
	}
}

// Invalidate drops all cached pattern definitions.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*Pattern)
}

// Close stops the watcher.
func (r *Repository) Close() error {
	close(r.done)
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

// Get returns the pattern with the given id, loading and validating it from
// disk on a cache miss. Returns ErrNotFound when no definition file exists.
func (r *Repository) Get(id string) (*Pattern, error) {
	r.mu.RLock()
	if p, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	p, err := r.load(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[id] = p
	r.mu.Unlock()
	return p, nil
}

// load reads and validates one pattern file.
func (r *Repository) load(id string) (*Pattern, error) {
	path := ""
	for _, ext := range []string{".yaml", ".yml"} {
		candidate := filepath.Join(r.dir, id+ext)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern %s: %w", id, err)
	}

	var p Pattern
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pattern %s: %w", id, err)
	}
	p.ID = id

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all valid patterns in the directory, sorted by id. Files
// that fail to parse or validate are skipped with a log line so one broken
// definition does not hide the rest.
func (r *Repository) List() ([]*Pattern, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns directory: %w", err)
	}

	var patterns []*Pattern
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)

		p, err := r.Get(id)
		if err != nil {
			log.Printf("skipping pattern %s: %v", id, err)
			continue
		}
		patterns = append(patterns, p)
	}

	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ID < patterns[j].ID })
	return patterns, nil
}

// Select interactively prompts the user to pick a pattern from the list.
// Returns ErrSelectionCancelled on empty input, Ctrl+C, or EOF.
func (r *Repository) Select() (string, error) {
	patterns, err := r.List()
	if err != nil {
		return "", err
	}
	if len(patterns) == 0 {
		return "", fmt.Errorf("%w: no patterns available", ErrNotFound)
	}

	fmt.Fprintln(os.Stderr, "Available patterns:")
	for i, p := range patterns {
		fmt.Fprintf(os.Stderr, "  %d. %s - %s\n", i+1, p.ID, p.Description)
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	input, err := line.Prompt("Pattern number (empty to cancel): ")
	if err != nil {
		// Ctrl+C or Ctrl+D both cancel.
		return "", ErrSelectionCancelled
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrSelectionCancelled
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(patterns) {
		return "", fmt.Errorf("invalid selection %q", input)
	}
	return patterns[n-1].ID, nil
}

// ProcessInputs validates user-supplied values against the pattern's
// declared inputs. Defaults fill missing optional values; a missing
// required value is an error. Undeclared keys are dropped.
func (r *Repository) ProcessInputs(id string, values map[string]string) (map[string]string, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(p.Inputs))
	var missing []string
	for _, in := range p.Inputs {
		val, ok := values[in.Name]
		if !ok || val == "" {
			if in.Default != "" {
				resolved[in.Name] = in.Default
				continue
			}
			if in.Required {
				missing = append(missing, in.Name)
			}
			continue
		}
		resolved[in.Name] = val
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return resolved, nil
}
