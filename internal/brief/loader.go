package brief

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const notesSuffix = ".notes.md"

// Loader loads and caches course briefs from a directory tree.
type Loader struct {
	rootDir string
	briefs  map[string]Brief
	notes   map[string]string
	mu      sync.RWMutex
}

// NewLoader creates a loader and reads every brief under rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("loading briefs: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("loading briefs: %s is not a directory", rootDir)
	}

	l := &Loader{
		rootDir: rootDir,
		briefs:  make(map[string]Brief),
		notes:   make(map[string]string),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading briefs: %w", err)
	}

	slog.Info("briefs loaded", "dir", rootDir, "briefs", len(l.briefs))
	return l, nil
}

// Get returns a brief by ID, with its notes attached.
func (l *Loader) Get(id string) (Brief, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.briefs[id]
	if ok {
		b.Notes = l.notes[id]
	}
	return b, ok
}

// All returns every brief sorted by ID.
func (l *Loader) All() []Brief {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Brief, 0, len(l.briefs))
	for id, b := range l.briefs {
		b.Notes = l.notes[id]
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, notesSuffix):
			return l.loadNotes(path)
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			return l.loadBrief(path)
		}
		return nil
	})
}

func (l *Loader) loadBrief(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var b Brief
	if err := yaml.Unmarshal(data, &b); err != nil {
		slog.Warn("skipping invalid brief YAML", "path", path, "error", err)
		return nil
	}

	if b.ID == "" {
		b.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if !validID(b.ID) {
		return fmt.Errorf("brief id %q in %s must be a plain file name", b.ID, path)
	}
	if strings.TrimSpace(b.Prompt) == "" {
		slog.Warn("skipping brief without prompt", "path", path)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.briefs[b.ID]; dup {
		return fmt.Errorf("duplicate brief id %q in %s", b.ID, path)
	}
	l.briefs[b.ID] = b

	return nil
}

// validID reports whether id can name an output file without leaving the
// output directory.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return filepath.Base(id) == id && !strings.ContainsAny(id, `/\`)
}

// loadNotes attaches <name>.notes.md to the brief in <name>.yaml (or .yml).
func (l *Loader) loadNotes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(path, notesSuffix)
	var yamlData []byte
	for _, ext := range []string{".yaml", ".yml"} {
		if yamlData, err = os.ReadFile(base + ext); err == nil {
			break
		}
	}
	if yamlData == nil {
		return nil // No matching brief, skip
	}

	var partial struct {
		ID string `yaml:"id"`
	}
	if err := yaml.Unmarshal(yamlData, &partial); err != nil {
		return nil
	}
	id := partial.ID
	if id == "" {
		id = filepath.Base(base)
	}

	l.mu.Lock()
	l.notes[id] = string(data)
	l.mu.Unlock()

	return nil
}
